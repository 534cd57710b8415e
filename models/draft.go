package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// SchemaVersion is written on every committed document. Version 2 documents
// always carry millisecond timestamps; version-less documents come from the
// legacy mobile client and get the unit heuristic on read.
const SchemaVersion = 2

// PendingResource is an image captured this editing session and not yet in
// blob storage. A pending resource always shadows the remote URL of the same
// role until the next commit.
type PendingResource struct {
	LocalID        string       `json:"localId"`
	Kind           ResourceKind `json:"kind"`
	OwnerSubItemID string       `json:"ownerSubItemId,omitempty"`
	FileExt        string       `json:"fileExt"`
	// Data is hydrated from the staging area just before commit; it is not
	// part of the stored session snapshot.
	Data []byte `json:"-"`
}

func NewPendingResource(localID string, kind ResourceKind, ext string) *PendingResource {
	if ext == "" {
		ext = ".jpg"
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return &PendingResource{LocalID: localID, Kind: kind, FileExt: ext}
}

func (r *PendingResource) ContentType() string {
	if strings.EqualFold(r.FileExt, ".png") {
		return "image/png"
	}
	return "image/jpeg"
}

// PendingUpload binds a pending resource to its stable object name and the
// rewrite hook that places the resulting URL on the (cloned) aggregate.
type PendingUpload struct {
	Resource *PendingResource
	// Name is stable within the entity folder: sub-item id + role, or
	// image_<timestamp>_<index>.
	Name   string
	Assign func(url string)
}

// Aggregate is the draft entity contract the reconciliation engine commits.
// The engine works on a Clone so in-flight user edits never race the commit.
type Aggregate interface {
	Collection() string
	GetID() string
	// SetID is called exactly once, at first successful commit.
	SetID(id string)
	Tenant() string
	Validate(finalizing bool) error
	Pending() []*PendingResource
	PendingUploads(now Millis) []PendingUpload
	ClearPending()
	// Document is the full persisted form: scalars, remote URL lists and the
	// sub-item maps. Pending local markers are never part of it.
	Document() map[string]any
	Clone() (Aggregate, error)
}

// Finalizable aggregates support the one-way Draft -> Finalized transition
// with its asynchronous server-side PDF render.
type Finalizable interface {
	Aggregate
	IsFinalized() bool
	Finalize(at Millis)
}

func cloneAggregate[T any](src *T) (*T, error) {
	raw, err := json.Marshal(src)
	if err != nil {
		return nil, err
	}
	dst := new(T)
	if err := json.Unmarshal(raw, dst); err != nil {
		return nil, err
	}
	return dst, nil
}

// copyPendingData carries staged bytes across a JSON clone (Data is json:"-").
func copyPendingData(dst, src []*PendingResource) {
	byID := make(map[string][]byte, len(src))
	for _, r := range src {
		byID[r.LocalID] = r.Data
	}
	for _, r := range dst {
		r.Data = byID[r.LocalID]
	}
}

func imageObjectName(now Millis, index int, ext string) string {
	return fmt.Sprintf("image_%d_%d%s", int64(now), index, ext)
}

func subItemObjectName(subItemID string, kind ResourceKind, ext string) string {
	return fmt.Sprintf("%s_%s%s", subItemID, kind, ext)
}

// Retried commits must never reuse a failed object path, so the signature name
// carries the commit timestamp.
func signatureObjectName(now Millis, ext string) string {
	return fmt.Sprintf("signature_%d%s", int64(now), ext)
}

/* generic document field readers */

func docString(doc map[string]any, key string) string {
	if v, ok := doc[key].(string); ok {
		return v
	}
	return ""
}

func docBool(doc map[string]any, key string) bool {
	if v, ok := doc[key].(bool); ok {
		return v
	}
	return false
}

func docStringList(doc map[string]any, key string) []string {
	raw, ok := doc[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func docSubMap(doc map[string]any, key string) map[string]map[string]any {
	raw, ok := doc[key].(map[string]any)
	if !ok {
		return nil
	}
	out := make(map[string]map[string]any, len(raw))
	for id, v := range raw {
		if m, ok := v.(map[string]any); ok {
			out[id] = m
		}
	}
	return out
}

func docInt(doc map[string]any, key string) int {
	switch v := doc[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case int64:
		return int(v)
	}
	return 0
}
