package store

import (
	"context"
	"errors"
	"testing"
)

func TestDocPath(t *testing.T) {
	if got := DocPath("expenses", "e1"); got != "expenses/e1" {
		t.Errorf("DocPath = %q", got)
	}
}

func TestMemoryDocumentStoreReadIsolation(t *testing.T) {
	s := NewMemoryDocumentStore()
	ctx := context.Background()

	if _, err := s.Read(ctx, "expenses/missing"); !errors.Is(err, ErrDocumentNotFound) {
		t.Fatalf("err = %v, want ErrDocumentNotFound", err)
	}

	if err := s.Write(ctx, "expenses/e1", Document{"tenantId": "t1", "description": "fuel"}); err != nil {
		t.Fatal(err)
	}
	doc, err := s.Read(ctx, "expenses/e1")
	if err != nil {
		t.Fatal(err)
	}
	// Mutating the returned copy must not leak into the store.
	doc["description"] = "changed"
	again, _ := s.Read(ctx, "expenses/e1")
	if again["description"] != "fuel" {
		t.Error("Read returned a shared reference")
	}
}

func TestMemoryDocumentStoreListFiltersByTenant(t *testing.T) {
	s := NewMemoryDocumentStore()
	ctx := context.Background()
	_ = s.Write(ctx, "expenses/e1", Document{"tenantId": "t1"})
	_ = s.Write(ctx, "expenses/e2", Document{"tenantId": "t2"})
	_ = s.Write(ctx, "machines/m1", Document{"tenantId": "t1"})

	out, err := s.List(ctx, "expenses", "t1")
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 1 {
		t.Fatalf("len = %d, want 1", len(out))
	}
	if _, ok := out["e1"]; !ok {
		t.Errorf("missing e1, got %v", out)
	}
}

func TestMemoryBlobStoreFailureInjection(t *testing.T) {
	s := NewMemoryBlobStore()
	s.FailPathContaining = "bad"
	ctx := context.Background()

	if _, err := s.Upload(ctx, "expenses/e1/bad.jpg", []byte("x"), "image/jpeg"); err == nil {
		t.Error("expected injected failure")
	}
	url, err := s.Upload(ctx, "expenses/e1/good.jpg", []byte("x"), "image/jpeg")
	if err != nil {
		t.Fatal(err)
	}
	if url != "memory://expenses/e1/good.jpg" {
		t.Errorf("url = %q", url)
	}
}
