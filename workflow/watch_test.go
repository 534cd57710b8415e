package workflow

import (
	"context"
	"testing"
	"time"

	"bitbucket.org/mmdatafocus/inspect_backend/models"
	"bitbucket.org/mmdatafocus/inspect_backend/store"
)

func TestPdfStatusFromDocument(t *testing.T) {
	s := PdfStatusFromDocument(store.Document{})
	if s.Requested || s.Done() {
		t.Errorf("empty doc: %+v", s)
	}

	s = PdfStatusFromDocument(store.Document{"pdfGenerationRequested": true})
	if !s.Requested || s.Done() {
		t.Errorf("requested only: %+v", s)
	}

	s = PdfStatusFromDocument(store.Document{
		"pdfGenerationRequested": true,
		"pdfDownloadUrl":         "https://example.com/r.pdf",
	})
	if !s.Done() {
		t.Errorf("url present but not done: %+v", s)
	}

	s = PdfStatusFromDocument(store.Document{"pdfGenerationError": "render crashed"})
	if !s.Done() {
		t.Errorf("error present but not done: %+v", s)
	}
}

func TestAwaitPdfStatusCatchesRenderThatAlreadyLanded(t *testing.T) {
	// A caller decides to wait based on a stale read; the render lands before
	// the wait starts. The re-read inside the wait must catch it instead of
	// blocking out the full window.
	docs := store.NewMemoryDocumentStore()
	path := store.DocPath(models.CollectionSiteAudits, "sa1")
	if err := docs.Write(context.Background(), path, store.Document{
		"pdfGenerationRequested": true,
		"pdfDownloadUrl":         "https://example.com/r.pdf",
	}); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s, err := AwaitPdfStatus(ctx, docs, models.CollectionSiteAudits, "sa1")
	if err != nil {
		t.Fatal(err)
	}
	if !s.Done() || s.DownloadUrl != "https://example.com/r.pdf" {
		t.Errorf("status = %+v", s)
	}
}

func TestAwaitPdfStatusSeesLaterWrite(t *testing.T) {
	docs := store.NewMemoryDocumentStore()
	path := store.DocPath(models.CollectionSiteAudits, "sa1")
	if err := docs.Write(context.Background(), path, store.Document{
		"pdfGenerationRequested": true,
	}); err != nil {
		t.Fatal(err)
	}

	done := make(chan PdfStatus, 1)
	go func() {
		s, err := AwaitPdfStatus(context.Background(), docs, models.CollectionSiteAudits, "sa1")
		if err != nil {
			t.Error(err)
		}
		done <- s
	}()

	// The memory fake registers subscriptions synchronously inside Subscribe,
	// but the awaiting goroutine may not have reached it yet; write until the
	// result arrives.
	final := store.Document{
		"pdfGenerationRequested": true,
		"pdfDownloadUrl":         "https://example.com/r.pdf",
	}
	for {
		if err := docs.Write(context.Background(), path, final); err != nil {
			t.Fatal(err)
		}
		select {
		case s := <-done:
			if !s.Done() || s.DownloadUrl != "https://example.com/r.pdf" {
				t.Errorf("status = %+v", s)
			}
			return
		case <-time.After(time.Millisecond):
		}
	}
}

func TestAwaitPdfStatusReturnsLatestOnExpiry(t *testing.T) {
	docs := store.NewMemoryDocumentStore()
	path := store.DocPath(models.CollectionSiteAudits, "sa1")
	if err := docs.Write(context.Background(), path, store.Document{
		"pdfGenerationRequested": true,
	}); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s, err := AwaitPdfStatus(ctx, docs, models.CollectionSiteAudits, "sa1")
	if err != nil {
		t.Fatal(err)
	}
	if !s.Requested || s.Done() {
		t.Errorf("status = %+v", s)
	}
}

func TestWatchPdfStatusSeesRenderLand(t *testing.T) {
	docs := store.NewMemoryDocumentStore()
	path := store.DocPath(models.CollectionSiteAudits, "sa1")
	if err := docs.Write(context.Background(), path, store.Document{
		"tenantId":               "tenant-1",
		"pdfGenerationRequested": true,
	}); err != nil {
		t.Fatal(err)
	}

	got := make(chan PdfStatus, 2)
	sub, err := WatchPdfStatus(context.Background(), docs, models.CollectionSiteAudits, "sa1", func(s PdfStatus) {
		got <- s
	})
	if err != nil {
		t.Fatal(err)
	}
	defer sub.Close()

	if err := docs.Write(context.Background(), path, store.Document{
		"tenantId":               "tenant-1",
		"pdfGenerationRequested": true,
		"pdfDownloadUrl":         "https://example.com/r.pdf",
	}); err != nil {
		t.Fatal(err)
	}

	s := <-got
	if !s.Done() || s.DownloadUrl != "https://example.com/r.pdf" {
		t.Errorf("status = %+v", s)
	}

	// After Close no further callbacks fire.
	if err := sub.Close(); err != nil {
		t.Fatal(err)
	}
	if err := docs.Write(context.Background(), path, store.Document{"pdfGenerationError": "late"}); err != nil {
		t.Fatal(err)
	}
	select {
	case s := <-got:
		t.Errorf("callback after Close: %+v", s)
	default:
	}
}
