package models

import (
	"errors"

	"github.com/google/uuid"
)

// AuditNote is one finding on a site audit, with an optional photo held as an
// original plus an annotated (drawn-over) variant. Both variants persist so
// revert-to-original stays possible after commit.
type AuditNote struct {
	NoteID           string           `json:"noteId"`
	Text             string           `json:"text"`
	Order            int              `json:"order"`
	CreatedAt        Millis           `json:"createdAt"`
	OriginalUrl      string           `json:"originalImageUrl,omitempty"`
	AnnotatedUrl     string           `json:"annotatedImageUrl,omitempty"`
	PendingOriginal  *PendingResource `json:"pendingOriginal,omitempty"`
	PendingAnnotated *PendingResource `json:"pendingAnnotated,omitempty"`
}

func NewAuditNote(text string) *AuditNote {
	return &AuditNote{
		NoteID:    uuid.NewString(),
		Text:      text,
		CreatedAt: NowMillis(),
	}
}

func (n *AuditNote) SubItemID() string   { return n.NoteID }
func (n *AuditNote) OrderIndex() int     { return n.Order }
func (n *AuditNote) SetOrderIndex(i int) { n.Order = i }

// RenderSource picks what a thumbnail should show. The annotated variant wins
// over the original, and within a role a local resource always shadows the
// remote URL.
func (n *AuditNote) RenderSource() (local *PendingResource, url string) {
	if n.PendingAnnotated != nil {
		return n.PendingAnnotated, ""
	}
	if n.AnnotatedUrl != "" {
		return nil, n.AnnotatedUrl
	}
	if n.PendingOriginal != nil {
		return n.PendingOriginal, ""
	}
	return nil, n.OriginalUrl
}

func (n *AuditNote) document() map[string]any {
	doc := map[string]any{
		"text":      n.Text,
		"order":     n.Order,
		"createdAt": n.CreatedAt,
	}
	if n.OriginalUrl != "" {
		doc["originalImageUrl"] = n.OriginalUrl
	}
	if n.AnnotatedUrl != "" {
		doc["annotatedImageUrl"] = n.AnnotatedUrl
	}
	return doc
}

func auditNoteFromDocument(id string, doc map[string]any) *AuditNote {
	return &AuditNote{
		NoteID:       id,
		Text:         docString(doc, "text"),
		Order:        docInt(doc, "order"),
		CreatedAt:    MillisFromAny(doc["createdAt"]),
		OriginalUrl:  docString(doc, "originalImageUrl"),
		AnnotatedUrl: docString(doc, "annotatedImageUrl"),
	}
}

// Remediation is a follow-up action attached to an audit.
type Remediation struct {
	RemediationID string `json:"remediationId"`
	Text          string `json:"text"`
	Order         int    `json:"order"`
	CreatedAt     Millis `json:"createdAt"`
	DueDate       Millis `json:"dueDate,omitempty"`
	Done          bool   `json:"done"`
}

func NewRemediation(text string) *Remediation {
	return &Remediation{
		RemediationID: uuid.NewString(),
		Text:          text,
		CreatedAt:     NowMillis(),
	}
}

func (r *Remediation) SubItemID() string   { return r.RemediationID }
func (r *Remediation) OrderIndex() int     { return r.Order }
func (r *Remediation) SetOrderIndex(i int) { r.Order = i }

func (r *Remediation) document() map[string]any {
	return map[string]any{
		"text":      r.Text,
		"order":     r.Order,
		"createdAt": r.CreatedAt,
		"dueDate":   r.DueDate,
		"done":      r.Done,
	}
}

func remediationFromDocument(id string, doc map[string]any) *Remediation {
	return &Remediation{
		RemediationID: id,
		Text:          docString(doc, "text"),
		Order:         docInt(doc, "order"),
		CreatedAt:     MillisFromAny(doc["createdAt"]),
		DueDate:       MillisFromAny(doc["dueDate"]),
		Done:          docBool(doc, "done"),
	}
}

// SiteAuditReport is the report-like aggregate with ordered notes and
// remediations, a signature, and the asynchronous PDF render on finalize.
type SiteAuditReport struct {
	ID       string `json:"id"`
	TenantId string `json:"tenantId" validate:"required"`
	SiteName string `json:"siteName" validate:"required"`
	Auditor  string `json:"auditor" validate:"required"`
	Summary  string `json:"summary"`

	Status      LifecycleState `json:"status"`
	CreatedAt   Millis         `json:"createdAt"`
	FinalizedAt Millis         `json:"finalizedAt,omitempty"`

	Notes        OrderedSublist[*AuditNote]   `json:"notes"`
	Remediations OrderedSublist[*Remediation] `json:"remediations"`

	SignatureUrl     string           `json:"signatureUrl,omitempty"`
	PendingSignature *PendingResource `json:"pendingSignature,omitempty"`

	PdfGenerationRequested bool   `json:"pdfGenerationRequested"`
	PdfDownloadUrl         string `json:"pdfDownloadUrl,omitempty"`
	PdfGenerationError     string `json:"pdfGenerationError,omitempty"`
}

func NewSiteAuditReport(tenantId string) *SiteAuditReport {
	return &SiteAuditReport{
		TenantId:  tenantId,
		Status:    LifecycleDraft,
		CreatedAt: NowMillis(),
	}
}

func (r *SiteAuditReport) Collection() string { return CollectionSiteAudits }
func (r *SiteAuditReport) GetID() string      { return r.ID }
func (r *SiteAuditReport) SetID(id string)    { r.ID = id }
func (r *SiteAuditReport) Tenant() string     { return r.TenantId }

func (r *SiteAuditReport) IsFinalized() bool { return r.Status == LifecycleFinalized }

// Finalize is one-way; a second call keeps the original finalization time.
func (r *SiteAuditReport) Finalize(at Millis) {
	if r.Status != LifecycleFinalized {
		r.Status = LifecycleFinalized
		r.FinalizedAt = at
	}
	r.PdfGenerationRequested = true
}

func (r *SiteAuditReport) Validate(finalizing bool) error {
	if err := validateStruct(r); err != nil {
		return err
	}
	if finalizing {
		if r.SignatureUrl == "" && r.PendingSignature == nil {
			return errors.New("a signature is required to finalize the report")
		}
		if r.Notes.Len() == 0 {
			return errors.New("a report needs at least one note before finalizing")
		}
	}
	return nil
}

func (r *SiteAuditReport) Pending() []*PendingResource {
	var out []*PendingResource
	for _, n := range r.Notes.Items() {
		if n.PendingOriginal != nil {
			out = append(out, n.PendingOriginal)
		}
		if n.PendingAnnotated != nil {
			out = append(out, n.PendingAnnotated)
		}
	}
	if r.PendingSignature != nil {
		out = append(out, r.PendingSignature)
	}
	return out
}

func (r *SiteAuditReport) PendingUploads(now Millis) []PendingUpload {
	var ups []PendingUpload
	for _, n := range r.Notes.Items() {
		n := n
		if n.PendingOriginal != nil {
			ups = append(ups, PendingUpload{
				Resource: n.PendingOriginal,
				Name:     subItemObjectName(n.NoteID, ResourceKindOriginal, n.PendingOriginal.FileExt),
				Assign:   func(url string) { n.OriginalUrl = url },
			})
		}
		if n.PendingAnnotated != nil {
			ups = append(ups, PendingUpload{
				Resource: n.PendingAnnotated,
				Name:     subItemObjectName(n.NoteID, ResourceKindAnnotated, n.PendingAnnotated.FileExt),
				Assign:   func(url string) { n.AnnotatedUrl = url },
			})
		}
	}
	if r.PendingSignature != nil {
		ups = append(ups, PendingUpload{
			Resource: r.PendingSignature,
			Name:     signatureObjectName(now, r.PendingSignature.FileExt),
			Assign:   func(url string) { r.SignatureUrl = url },
		})
	}
	return ups
}

func (r *SiteAuditReport) ClearPending() {
	for _, n := range r.Notes.Items() {
		n.PendingOriginal = nil
		n.PendingAnnotated = nil
	}
	r.PendingSignature = nil
}

func (r *SiteAuditReport) Document() map[string]any {
	notes := make(map[string]any, r.Notes.Len())
	for _, n := range r.Notes.Items() {
		notes[n.NoteID] = n.document()
	}
	remediations := make(map[string]any, r.Remediations.Len())
	for _, rem := range r.Remediations.Items() {
		remediations[rem.RemediationID] = rem.document()
	}
	doc := map[string]any{
		"tenantId":               r.TenantId,
		"siteName":               r.SiteName,
		"auditor":                r.Auditor,
		"summary":                r.Summary,
		"status":                 string(r.Status),
		"createdAt":              r.CreatedAt,
		"notes":                  notes,
		"remediations":           remediations,
		"pdfGenerationRequested": r.PdfGenerationRequested,
	}
	if r.FinalizedAt != 0 {
		doc["finalizedAt"] = r.FinalizedAt
	}
	if r.SignatureUrl != "" {
		doc["signatureUrl"] = r.SignatureUrl
	}
	if r.PdfDownloadUrl != "" {
		doc["pdfDownloadUrl"] = r.PdfDownloadUrl
	}
	if r.PdfGenerationError != "" {
		doc["pdfGenerationError"] = r.PdfGenerationError
	}
	return doc
}

func (r *SiteAuditReport) Clone() (Aggregate, error) {
	c, err := cloneAggregate(r)
	if err != nil {
		return nil, err
	}
	copyPendingData(c.Pending(), r.Pending())
	return c, nil
}

func SiteAuditReportFromDocument(id string, doc map[string]any) (*SiteAuditReport, error) {
	noteMap := map[string]*AuditNote{}
	for nid, nd := range docSubMap(doc, "notes") {
		noteMap[nid] = auditNoteFromDocument(nid, nd)
	}
	remMap := map[string]*Remediation{}
	for rid, rd := range docSubMap(doc, "remediations") {
		remMap[rid] = remediationFromDocument(rid, rd)
	}

	status := LifecycleState(docString(doc, "status"))
	if status == "" {
		status = LifecycleDraft
	}

	return &SiteAuditReport{
		ID:                     id,
		TenantId:               docString(doc, "tenantId"),
		SiteName:               docString(doc, "siteName"),
		Auditor:                docString(doc, "auditor"),
		Summary:                docString(doc, "summary"),
		Status:                 status,
		CreatedAt:              MillisFromAny(doc["createdAt"]),
		FinalizedAt:            MillisFromAny(doc["finalizedAt"]),
		Notes:                  SublistFromMap(noteMap),
		Remediations:           SublistFromMap(remMap),
		SignatureUrl:           docString(doc, "signatureUrl"),
		PdfGenerationRequested: docBool(doc, "pdfGenerationRequested"),
		PdfDownloadUrl:         docString(doc, "pdfDownloadUrl"),
		PdfGenerationError:     docString(doc, "pdfGenerationError"),
	}, nil
}
