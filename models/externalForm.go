package models

import "errors"

// ExternalGA1Form is the external equipment inspection form. It finalizes like
// a report (signature required, PDF rendered server-side) but has no sub-items.
type ExternalGA1Form struct {
	ID             string `json:"id"`
	TenantId       string `json:"tenantId" validate:"required"`
	InspectorName  string `json:"inspectorName" validate:"required"`
	EquipmentRef   string `json:"equipmentRef" validate:"required"`
	SiteName       string `json:"siteName"`
	Findings       string `json:"findings"`
	InspectionDate Millis `json:"inspectionDate"`
	CreatedAt      Millis `json:"createdAt"`
	FinalizedAt    Millis `json:"finalizedAt,omitempty"`

	Status LifecycleState `json:"status"`

	ImageUrls     []string           `json:"imageUrls"`
	PendingImages []*PendingResource `json:"pendingImages"`

	SignatureUrl     string           `json:"signatureUrl,omitempty"`
	PendingSignature *PendingResource `json:"pendingSignature,omitempty"`

	PdfGenerationRequested bool   `json:"pdfGenerationRequested"`
	PdfDownloadUrl         string `json:"pdfDownloadUrl,omitempty"`
	PdfGenerationError     string `json:"pdfGenerationError,omitempty"`
}

func NewExternalGA1Form(tenantId string) *ExternalGA1Form {
	return &ExternalGA1Form{
		TenantId:  tenantId,
		Status:    LifecycleDraft,
		CreatedAt: NowMillis(),
	}
}

func (f *ExternalGA1Form) Collection() string { return CollectionExternalForms }
func (f *ExternalGA1Form) GetID() string      { return f.ID }
func (f *ExternalGA1Form) SetID(id string)    { f.ID = id }
func (f *ExternalGA1Form) Tenant() string     { return f.TenantId }

func (f *ExternalGA1Form) IsFinalized() bool { return f.Status == LifecycleFinalized }

func (f *ExternalGA1Form) Finalize(at Millis) {
	if f.Status != LifecycleFinalized {
		f.Status = LifecycleFinalized
		f.FinalizedAt = at
	}
	f.PdfGenerationRequested = true
}

func (f *ExternalGA1Form) Validate(finalizing bool) error {
	if err := validateStruct(f); err != nil {
		return err
	}
	if finalizing && f.SignatureUrl == "" && f.PendingSignature == nil {
		return errors.New("a signature is required to finalize the form")
	}
	return nil
}

func (f *ExternalGA1Form) Pending() []*PendingResource {
	out := make([]*PendingResource, 0, len(f.PendingImages)+1)
	out = append(out, f.PendingImages...)
	if f.PendingSignature != nil {
		out = append(out, f.PendingSignature)
	}
	return out
}

func (f *ExternalGA1Form) PendingUploads(now Millis) []PendingUpload {
	var ups []PendingUpload
	for i, p := range f.PendingImages {
		ups = append(ups, PendingUpload{
			Resource: p,
			Name:     imageObjectName(now, i, p.FileExt),
			Assign:   func(url string) { f.ImageUrls = append(f.ImageUrls, url) },
		})
	}
	if f.PendingSignature != nil {
		ups = append(ups, PendingUpload{
			Resource: f.PendingSignature,
			Name:     signatureObjectName(now, f.PendingSignature.FileExt),
			Assign:   func(url string) { f.SignatureUrl = url },
		})
	}
	return ups
}

func (f *ExternalGA1Form) ClearPending() {
	f.PendingImages = nil
	f.PendingSignature = nil
}

func (f *ExternalGA1Form) Document() map[string]any {
	doc := map[string]any{
		"tenantId":               f.TenantId,
		"inspectorName":          f.InspectorName,
		"equipmentRef":           f.EquipmentRef,
		"siteName":               f.SiteName,
		"findings":               f.Findings,
		"inspectionDate":         f.InspectionDate,
		"status":                 string(f.Status),
		"createdAt":              f.CreatedAt,
		"imageUrls":              f.ImageUrls,
		"pdfGenerationRequested": f.PdfGenerationRequested,
	}
	if f.FinalizedAt != 0 {
		doc["finalizedAt"] = f.FinalizedAt
	}
	if f.SignatureUrl != "" {
		doc["signatureUrl"] = f.SignatureUrl
	}
	if f.PdfDownloadUrl != "" {
		doc["pdfDownloadUrl"] = f.PdfDownloadUrl
	}
	if f.PdfGenerationError != "" {
		doc["pdfGenerationError"] = f.PdfGenerationError
	}
	return doc
}

func (f *ExternalGA1Form) Clone() (Aggregate, error) {
	c, err := cloneAggregate(f)
	if err != nil {
		return nil, err
	}
	copyPendingData(c.Pending(), f.Pending())
	return c, nil
}

func ExternalGA1FormFromDocument(id string, doc map[string]any) (*ExternalGA1Form, error) {
	status := LifecycleState(docString(doc, "status"))
	if status == "" {
		status = LifecycleDraft
	}
	return &ExternalGA1Form{
		ID:                     id,
		TenantId:               docString(doc, "tenantId"),
		InspectorName:          docString(doc, "inspectorName"),
		EquipmentRef:           docString(doc, "equipmentRef"),
		SiteName:               docString(doc, "siteName"),
		Findings:               docString(doc, "findings"),
		InspectionDate:         MillisFromAny(doc["inspectionDate"]),
		CreatedAt:              MillisFromAny(doc["createdAt"]),
		FinalizedAt:            MillisFromAny(doc["finalizedAt"]),
		Status:                 status,
		ImageUrls:              docStringList(doc, "imageUrls"),
		SignatureUrl:           docString(doc, "signatureUrl"),
		PdfGenerationRequested: docBool(doc, "pdfGenerationRequested"),
		PdfDownloadUrl:         docString(doc, "pdfDownloadUrl"),
		PdfGenerationError:     docString(doc, "pdfGenerationError"),
	}, nil
}
