package models

import "testing"

func TestRenderSourcePrecedence(t *testing.T) {
	pendingOriginal := NewPendingResource("lo", ResourceKindOriginal, ".jpg")
	pendingAnnotated := NewPendingResource("la", ResourceKindAnnotated, ".jpg")

	cases := []struct {
		name      string
		note      AuditNote
		wantLocal *PendingResource
		wantURL   string
	}{
		{
			name:      "pending annotated beats everything",
			note:      AuditNote{PendingAnnotated: pendingAnnotated, AnnotatedUrl: "a", PendingOriginal: pendingOriginal, OriginalUrl: "o"},
			wantLocal: pendingAnnotated,
		},
		{
			name:    "remote annotated beats original",
			note:    AuditNote{AnnotatedUrl: "a", PendingOriginal: pendingOriginal, OriginalUrl: "o"},
			wantURL: "a",
		},
		{
			name:      "pending original beats remote original",
			note:      AuditNote{PendingOriginal: pendingOriginal, OriginalUrl: "o"},
			wantLocal: pendingOriginal,
		},
		{
			name:    "remote original as last resort",
			note:    AuditNote{OriginalUrl: "o"},
			wantURL: "o",
		},
		{
			name: "nothing to show",
			note: AuditNote{},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			local, url := tc.note.RenderSource()
			if local != tc.wantLocal {
				t.Errorf("local = %v, want %v", local, tc.wantLocal)
			}
			if url != tc.wantURL {
				t.Errorf("url = %q, want %q", url, tc.wantURL)
			}
		})
	}
}

func finalizableReport() *SiteAuditReport {
	r := NewSiteAuditReport("tenant-1")
	r.SiteName = "north quarry"
	r.Auditor = "Aye Chan"
	r.Notes.Insert(NewAuditNote("guard rail loose"))
	r.PendingSignature = NewPendingResource("sig", ResourceKindSignature, ".png")
	return r
}

func TestSiteAuditValidateFinalizing(t *testing.T) {
	if err := finalizableReport().Validate(true); err != nil {
		t.Errorf("finalizable report rejected: %v", err)
	}

	r := finalizableReport()
	r.PendingSignature = nil
	if err := r.Validate(true); err == nil {
		t.Error("expected error finalizing without a signature")
	}
	r.SignatureUrl = "https://example.com/sig.png"
	if err := r.Validate(true); err != nil {
		t.Errorf("committed signature should satisfy the check: %v", err)
	}

	r = finalizableReport()
	r.Notes = OrderedSublist[*AuditNote]{}
	if err := r.Validate(true); err == nil {
		t.Error("expected error finalizing without notes")
	}

	// Draft saves have no such requirements.
	r = NewSiteAuditReport("tenant-1")
	r.SiteName = "north quarry"
	r.Auditor = "Aye Chan"
	if err := r.Validate(false); err != nil {
		t.Errorf("draft save rejected: %v", err)
	}
}

func TestFinalizeIsOneWay(t *testing.T) {
	r := finalizableReport()
	r.Finalize(1000)
	if !r.IsFinalized() || r.FinalizedAt != 1000 {
		t.Fatalf("finalize: status=%s at=%d", r.Status, r.FinalizedAt)
	}
	r.Finalize(2000)
	if r.FinalizedAt != 1000 {
		t.Errorf("re-finalize moved the timestamp to %d", r.FinalizedAt)
	}
	if !r.PdfGenerationRequested {
		t.Error("finalize must request the render")
	}
}

func TestSiteAuditDocumentRoundTrip(t *testing.T) {
	r := finalizableReport()
	r.Notes.Insert(NewAuditNote("oil spill near pump"))
	_ = r.Notes.Move(1, 0)
	r.Remediations.Insert(NewRemediation("fence off the area"))
	r.ClearPending()

	doc := r.Document()
	back, err := SiteAuditReportFromDocument("sa1", doc)
	if err != nil {
		t.Fatal(err)
	}
	if back.Notes.Len() != 2 {
		t.Fatalf("notes len = %d, want 2", back.Notes.Len())
	}
	for i, n := range back.Notes.Items() {
		want := r.Notes.Items()[i]
		if n.NoteID != want.NoteID || n.Order != i {
			t.Errorf("note %d: id=%s order=%d, want id=%s order=%d",
				i, n.NoteID, n.Order, want.NoteID, i)
		}
	}
	if back.Remediations.Len() != 1 {
		t.Errorf("remediations len = %d, want 1", back.Remediations.Len())
	}
	if back.Status != LifecycleDraft {
		t.Errorf("status = %s, want Draft", back.Status)
	}
}

func TestSiteAuditPendingCollection(t *testing.T) {
	r := finalizableReport()
	n := r.Notes.Items()[0]
	n.PendingOriginal = NewPendingResource("po", ResourceKindOriginal, ".jpg")
	n.PendingAnnotated = NewPendingResource("pa", ResourceKindAnnotated, ".jpg")

	if got := len(r.Pending()); got != 3 {
		t.Fatalf("pending count = %d, want 3", got)
	}
	ups := r.PendingUploads(500)
	if len(ups) != 3 {
		t.Fatalf("uploads = %d, want 3", len(ups))
	}
	// Note variants are keyed by sub-item id and role, not by index.
	if want := n.NoteID + "_original.jpg"; ups[0].Name != want {
		t.Errorf("upload name = %q, want %q", ups[0].Name, want)
	}
	if want := n.NoteID + "_annotated.jpg"; ups[1].Name != want {
		t.Errorf("upload name = %q, want %q", ups[1].Name, want)
	}
	if want := "signature_500.png"; ups[2].Name != want {
		t.Errorf("upload name = %q, want %q", ups[2].Name, want)
	}

	r.ClearPending()
	if len(r.Pending()) != 0 {
		t.Error("ClearPending left markers behind")
	}
}
