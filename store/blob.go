package store

import "context"

// BlobStore uploads binary resources. Object paths are caller-constructed as
// {entityCollection}/{entityId}/{stableResourceName} and are never reused with
// different content.
type BlobStore interface {
	Upload(ctx context.Context, objectPath string, data []byte, contentType string) (string, error)
}
