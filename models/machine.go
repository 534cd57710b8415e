package models

// Machine is a registry entry for a piece of site equipment. QR assignment
// goes through the remote procedure backend, which owns the uniqueness check.
type Machine struct {
	ID           string `json:"id"`
	TenantId     string `json:"tenantId" validate:"required"`
	Name         string `json:"name" validate:"required"`
	SerialNumber string `json:"serialNumber" validate:"required"`
	Model        string `json:"model"`
	Location     string `json:"location"`
	QrCode       string `json:"qrCode,omitempty"`
	CreatedAt    Millis `json:"createdAt"`

	ImageUrls     []string           `json:"imageUrls"`
	PendingImages []*PendingResource `json:"pendingImages"`
}

func NewMachine(tenantId string) *Machine {
	return &Machine{
		TenantId:  tenantId,
		CreatedAt: NowMillis(),
	}
}

func (m *Machine) Collection() string { return CollectionMachines }
func (m *Machine) GetID() string      { return m.ID }
func (m *Machine) SetID(id string)    { m.ID = id }
func (m *Machine) Tenant() string     { return m.TenantId }

func (m *Machine) Validate(finalizing bool) error {
	return validateStruct(m)
}

func (m *Machine) Pending() []*PendingResource {
	return m.PendingImages
}

func (m *Machine) PendingUploads(now Millis) []PendingUpload {
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

func (m *Machine) ClearPending() {
	m.PendingImages = nil
}

func (m *Machine) Document() map[string]any {
	return map[string]any{
		"tenantId":     m.TenantId,
		"name":         m.Name,
		"serialNumber": m.SerialNumber,
		"model":        m.Model,
		"location":     m.Location,
		"qrCode":       m.QrCode,
		"createdAt":    m.CreatedAt,
		"imageUrls":    m.ImageUrls,
	}
}

func (m *Machine) Clone() (Aggregate, error) {
	c, err := cloneAggregate(m)
	if err != nil {
		return nil, err
	}
	copyPendingData(c.PendingImages, m.PendingImages)
	return c, nil
}

func MachineFromDocument(id string, doc map[string]any) (*Machine, error) {
	return &Machine{
		ID:           id,
		TenantId:     docString(doc, "tenantId"),
		Name:         docString(doc, "name"),
		SerialNumber: docString(doc, "serialNumber"),
		Model:        docString(doc, "model"),
		Location:     docString(doc, "location"),
		QrCode:       docString(doc, "qrCode"),
		CreatedAt:    MillisFromAny(doc["createdAt"]),
		ImageUrls:    docStringList(doc, "imageUrls"),
	}, nil
}
