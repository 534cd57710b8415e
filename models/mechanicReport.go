package models

import (
	"os"

	"github.com/google/uuid"
)

// PartEntry is an ordered line on a mechanic report's parts list.
type PartEntry struct {
	PartID   string `json:"partId"`
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Order    int    `json:"order"`
}

func NewPartEntry(name string, quantity int) *PartEntry {
	return &PartEntry{PartID: uuid.NewString(), Name: name, Quantity: quantity}
}

func (p *PartEntry) SubItemID() string   { return p.PartID }
func (p *PartEntry) OrderIndex() int     { return p.Order }
func (p *PartEntry) SetOrderIndex(i int) { p.Order = i }

func (p *PartEntry) document() map[string]any {
	return map[string]any{
		"name":     p.Name,
		"quantity": p.Quantity,
		"order":    p.Order,
	}
}

func partEntryFromDocument(id string, doc map[string]any) *PartEntry {
	return &PartEntry{
		PartID:   id,
		Name:     docString(doc, "name"),
		Quantity: docInt(doc, "quantity"),
		Order:    docInt(doc, "order"),
	}
}

// MechanicReport records service work done on a registered machine.
type MechanicReport struct {
	ID              string `json:"id"`
	TenantId        string `json:"tenantId" validate:"required"`
	MachineID       string `json:"machineId" validate:"required"`
	MechanicName    string `json:"mechanicName" validate:"required"`
	MechanicPhone   string `json:"mechanicPhone"`
	WorkDescription string `json:"workDescription"`
	ReportDate      Millis `json:"reportDate"`
	CreatedAt       Millis `json:"createdAt"`

	Parts OrderedSublist[*PartEntry] `json:"parts"`

	ImageUrls     []string           `json:"imageUrls"`
	PendingImages []*PendingResource `json:"pendingImages"`
}

func NewMechanicReport(tenantId string) *MechanicReport {
	return &MechanicReport{
		TenantId:  tenantId,
		CreatedAt: NowMillis(),
	}
}

func (m *MechanicReport) Collection() string { return CollectionMechanicReports }
func (m *MechanicReport) GetID() string      { return m.ID }
func (m *MechanicReport) SetID(id string)    { m.ID = id }
func (m *MechanicReport) Tenant() string     { return m.TenantId }

func (m *MechanicReport) Validate(finalizing bool) error {
	if err := validateStruct(m); err != nil {
		return err
	}
	return validatePhone(m.MechanicPhone, os.Getenv("DEFAULT_PHONE_REGION"))
}

func (m *MechanicReport) Pending() []*PendingResource {
	return m.PendingImages
}

func (m *MechanicReport) PendingUploads(now Millis) []PendingUpload {
	ups := make([]PendingUpload, 0, len(m.PendingImages))
	for i, p := range m.PendingImages {
		ups = append(ups, PendingUpload{
			Resource: p,
			Name:     imageObjectName(now, i, p.FileExt),
			Assign:   func(url string) { m.ImageUrls = append(m.ImageUrls, url) },
		})
	}
	return ups
}

func (m *MechanicReport) ClearPending() {
	m.PendingImages = nil
}

func (m *MechanicReport) Document() map[string]any {
	parts := make(map[string]any, m.Parts.Len())
	for _, p := range m.Parts.Items() {
		parts[p.PartID] = p.document()
	}
	return map[string]any{
		"tenantId":        m.TenantId,
		"machineId":       m.MachineID,
		"mechanicName":    m.MechanicName,
		"mechanicPhone":   m.MechanicPhone,
		"workDescription": m.WorkDescription,
		"reportDate":      m.ReportDate,
		"createdAt":       m.CreatedAt,
		"parts":           parts,
		"imageUrls":       m.ImageUrls,
	}
}

func (m *MechanicReport) Clone() (Aggregate, error) {
	c, err := cloneAggregate(m)
	if err != nil {
		return nil, err
	}
	copyPendingData(c.PendingImages, m.PendingImages)
	return c, nil
}

func MechanicReportFromDocument(id string, doc map[string]any) (*MechanicReport, error) {
	partMap := map[string]*PartEntry{}
	for pid, pd := range docSubMap(doc, "parts") {
		partMap[pid] = partEntryFromDocument(pid, pd)
	}
	return &MechanicReport{
		ID:              id,
		TenantId:        docString(doc, "tenantId"),
		MachineID:       docString(doc, "machineId"),
		MechanicName:    docString(doc, "mechanicName"),
		MechanicPhone:   docString(doc, "mechanicPhone"),
		WorkDescription: docString(doc, "workDescription"),
		ReportDate:      MillisFromAny(doc["reportDate"]),
		CreatedAt:       MillisFromAny(doc["createdAt"]),
		Parts:           SublistFromMap(partMap),
		ImageUrls:       docStringList(doc, "imageUrls"),
	}, nil
}
