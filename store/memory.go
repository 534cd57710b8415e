package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// In-memory implementations for local development and tests.

type MemoryBlobStore struct {
	mu      sync.Mutex
	Objects map[string][]byte
	// FailPathContaining makes any upload whose path contains the substring
	// fail, to exercise partial-upload behavior.
	FailPathContaining string
}

func NewMemoryBlobStore() *MemoryBlobStore {
	return &MemoryBlobStore{Objects: map[string][]byte{}}
}

func (s *MemoryBlobStore) Upload(ctx context.Context, objectPath string, data []byte, contentType string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailPathContaining != "" && strings.Contains(objectPath, s.FailPathContaining) {
		return "", fmt.Errorf("upload %q: simulated failure", objectPath)
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	s.Objects[objectPath] = cp
	return "memory://" + objectPath, nil
}

type MemoryDocumentStore struct {
	mu   sync.Mutex
	Docs map[string]Document
	subs map[string][]*memorySubscription

	AllocateErr error
	WriteErr    error
	nextID      int
}

func NewMemoryDocumentStore() *MemoryDocumentStore {
	return &MemoryDocumentStore{
		Docs: map[string]Document{},
		subs: map[string][]*memorySubscription{},
	}
}

func (s *MemoryDocumentStore) AllocateID(ctx context.Context, collection string) (string, error) {
	if s.AllocateErr != nil {
		return "", s.AllocateErr
	}
	return uuid.NewString(), nil
}

func (s *MemoryDocumentStore) Write(ctx context.Context, path string, doc Document) error {
	if s.WriteErr != nil {
		return s.WriteErr
	}
	cp, err := copyDocument(doc)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.Docs[path] = cp
	subs := append([]*memorySubscription(nil), s.subs[path]...)
	s.mu.Unlock()

	for _, sub := range subs {
		sub.notify(cp)
	}
	return nil
}

func (s *MemoryDocumentStore) Read(ctx context.Context, path string) (Document, error) {
	s.mu.Lock()
	doc, ok := s.Docs[path]
	s.mu.Unlock()
	if !ok {
		return nil, ErrDocumentNotFound
	}
	return copyDocument(doc)
}

func (s *MemoryDocumentStore) Delete(ctx context.Context, path string) error {
	s.mu.Lock()
	delete(s.Docs, path)
	s.mu.Unlock()
	return nil
}

func (s *MemoryDocumentStore) List(ctx context.Context, collection string, tenantId string) (map[string]Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := map[string]Document{}
	for path, doc := range s.Docs {
		if !strings.HasPrefix(path, collection+"/") {
			continue
		}
		if tid, _ := doc["tenantId"].(string); tid != tenantId {
			continue
		}
		cp, err := copyDocument(doc)
		if err != nil {
			return nil, err
		}
		out[strings.TrimPrefix(path, collection+"/")] = cp
	}
	return out, nil
}

type memorySubscription struct {
	store  *MemoryDocumentStore
	path   string
	fn     func(Document)
	mu     sync.Mutex
	closed bool
}

func (sub *memorySubscription) notify(doc Document) {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	if !sub.closed {
		sub.fn(doc)
	}
}

func (sub *memorySubscription) Close() error {
	sub.mu.Lock()
	sub.closed = true
	sub.mu.Unlock()

	sub.store.mu.Lock()
	defer sub.store.mu.Unlock()
	subs := sub.store.subs[sub.path]
	for i, s := range subs {
		if s == sub {
			sub.store.subs[sub.path] = append(subs[:i], subs[i+1:]...)
			break
		}
	}
	return nil
}

func (s *MemoryDocumentStore) Subscribe(ctx context.Context, path string, fn func(Document)) (Subscription, error) {
	sub := &memorySubscription{store: s, path: path, fn: fn}
	s.mu.Lock()
	s.subs[path] = append(s.subs[path], sub)
	s.mu.Unlock()
	return sub, nil
}

// MemoryProcedure dispatches to a handler func; nil handlers reject every call.
type MemoryProcedure struct {
	Handler func(name string, payload any) (json.RawMessage, error)
}

func (p *MemoryProcedure) Call(ctx context.Context, name string, payload any) (json.RawMessage, error) {
	if p.Handler == nil {
		return nil, &ProcedureError{Name: name, Message: "no handler registered"}
	}
	return p.Handler(name, payload)
}

func copyDocument(doc Document) (Document, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var cp Document
	if err := json.Unmarshal(raw, &cp); err != nil {
		return nil, err
	}
	return cp, nil
}
