package workflow

import (
	"context"

	"bitbucket.org/mmdatafocus/inspect_backend/store"
)

// PdfStatus is the server-computed part of a finalized aggregate.
type PdfStatus struct {
	Requested       bool   `json:"pdfGenerationRequested"`
	DownloadUrl     string `json:"pdfDownloadUrl,omitempty"`
	GenerationError string `json:"pdfGenerationError,omitempty"`
}

func (s PdfStatus) Done() bool {
	return s.DownloadUrl != "" || s.GenerationError != ""
}

func PdfStatusFromDocument(doc store.Document) PdfStatus {
	status := PdfStatus{}
	if v, ok := doc["pdfGenerationRequested"].(bool); ok {
		status.Requested = v
	}
	if v, ok := doc["pdfDownloadUrl"].(string); ok {
		status.DownloadUrl = v
	}
	if v, ok := doc["pdfGenerationError"].(string); ok {
		status.GenerationError = v
	}
	return status
}

// WatchPdfStatus attaches a listener on the aggregate's path and reports every
// status change. The caller must Close the returned subscription when the
// watcher goes away, or the callback leaks against a dead client.
func WatchPdfStatus(ctx context.Context, docs store.DocumentStore, collection string, id string, fn func(PdfStatus)) (store.Subscription, error) {
	return docs.Subscribe(ctx, store.DocPath(collection, id), func(doc store.Document) {
		fn(PdfStatusFromDocument(doc))
	})
}

// AwaitPdfStatus blocks until the render finishes or ctx expires, returning the
// latest status seen either way. It subscribes before re-reading the document,
// so a render landing between the caller's earlier read and the subscription is
// never missed.
func AwaitPdfStatus(ctx context.Context, docs store.DocumentStore, collection string, id string) (PdfStatus, error) {
	updates := make(chan PdfStatus, 1)
	sub, err := WatchPdfStatus(ctx, docs, collection, id, func(s PdfStatus) {
		// Keep only the newest status; an unread stale one is replaced.
		for {
			select {
			case updates <- s:
				return
			default:
				select {
				case <-updates:
				default:
				}
			}
		}
	})
	if err != nil {
		return PdfStatus{}, err
	}
	defer sub.Close()

	doc, err := docs.Read(ctx, store.DocPath(collection, id))
	if err != nil {
		return PdfStatus{}, err
	}
	status := PdfStatusFromDocument(doc)
	if status.Done() {
		return status, nil
	}

	for {
		select {
		case s := <-updates:
			status = s
			if status.Done() {
				return status, nil
			}
		case <-ctx.Done():
			return status, nil
		}
	}
}
