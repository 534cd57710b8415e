package store

import (
	"context"
	"errors"
)

// Document is the persisted aggregate form: one JSON object per path, written
// whole. The store has no cross-path transaction; callers sequence blob
// uploads before the document write and accept orphaned blobs on a crash in
// between.
type Document = map[string]any

var ErrDocumentNotFound = errors.New("document not found")

// Subscription is a live listener on one document path. It must be closed when
// the watcher goes away or the callback leaks.
type Subscription interface {
	Close() error
}

type DocumentStore interface {
	// AllocateID mints the server-assigned id for a first-time create.
	AllocateID(ctx context.Context, collection string) (string, error)
	// Write replaces the document at path. Full overwrite, no merge.
	Write(ctx context.Context, path string, doc Document) error
	Read(ctx context.Context, path string) (Document, error)
	Delete(ctx context.Context, path string) error
	// List returns all documents of a collection for one tenant, keyed by id.
	List(ctx context.Context, collection string, tenantId string) (map[string]Document, error)
	// Subscribe delivers every subsequent write at path to fn.
	Subscribe(ctx context.Context, path string, fn func(Document)) (Subscription, error)
}

func DocPath(collection, id string) string {
	return collection + "/" + id
}
