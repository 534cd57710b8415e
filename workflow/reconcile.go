package workflow

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sync"

	"bitbucket.org/mmdatafocus/inspect_backend/config"
	"bitbucket.org/mmdatafocus/inspect_backend/models"
	"bitbucket.org/mmdatafocus/inspect_backend/store"
	"github.com/bsm/redislock"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("inspect-backend")

// SessionContext carries the caller's identity into a commit. It is passed
// explicitly; nothing in this package reads ambient globals for identity.
type SessionContext struct {
	TenantId      string
	UserId        int
	Username      string
	CorrelationId string
}

// PdfRequestPublisher queues the asynchronous render after a finalize.
type PdfRequestPublisher interface {
	PublishPdfRequest(ctx context.Context, msg config.PdfRequestMessage) (string, error)
}

// Engine reconciles a locally-edited draft aggregate with the remote store:
// upload what's new, rewrite the reference fields, write the whole document
// once. It never removes a previously-committed URL it didn't intend to
// replace.
type Engine struct {
	Blobs     store.BlobStore
	Docs      store.DocumentStore
	Locker    *redislock.Client
	Publisher PdfRequestPublisher
	Logger    *logrus.Logger

	// Now is injectable for tests; defaults to wall clock.
	Now func() models.Millis
}

type CommitResult struct {
	ID      string
	Created bool
	// Aggregate is the committed copy: id fixed, URLs rewritten, pending
	// markers cleared. The caller swaps it in for the editor copy.
	Aggregate models.Aggregate
	// Document is exactly what was written to the store.
	Document store.Document
	// FailedUploads lists stable resource names whose upload failed; their
	// references were left unset and the commit proceeded without them.
	FailedUploads []string

	PdfRequested     bool
	PdfRequestQueued bool
}

func (e *Engine) now() models.Millis {
	if e.Now != nil {
		return e.Now()
	}
	return models.NowMillis()
}

// Commit runs the full upload-then-write sequence. On failure the caller's
// aggregate is untouched so the user can retry; on success the returned copy
// replaces it.
func (e *Engine) Commit(ctx context.Context, sess SessionContext, agg models.Aggregate, finalizing bool) (*CommitResult, error) {
	ctx, span := tracer.Start(ctx, "reconcile.commit", trace.WithAttributes(
		attribute.String("collection", agg.Collection()),
		attribute.Bool("finalizing", finalizing),
	))
	defer span.End()

	// Phase 1: validation, before any network I/O.
	if err := agg.Validate(finalizing); err != nil {
		return nil, &ValidationError{Reason: err}
	}
	if finalizing {
		if _, ok := agg.(models.Finalizable); !ok {
			return nil, &ValidationError{Reason: fmt.Errorf("%s records cannot be finalized", agg.Collection())}
		}
	}
	if config.StrictFinalizedImmutability() {
		if f, ok := agg.(models.Finalizable); ok && f.IsFinalized() && !finalizing {
			return nil, &ValidationError{Reason: errors.New("record is finalized and can no longer be edited")}
		}
	}

	// Phase 2: id allocation. Only failure mode that aborts before uploads.
	id := agg.GetID()
	created := id == ""
	if created {
		allocated, err := e.Docs.AllocateID(ctx, agg.Collection())
		if err != nil {
			return nil, &IdentityAllocationError{Err: err}
		}
		id = allocated
	}

	if e.Locker != nil && config.CommitLockEnabled() {
		lock, err := acquireCommitLock(ctx, e.Locker, agg.Collection(), id)
		if err != nil {
			return nil, err
		}
		defer func() { _ = lock.Release(context.Background()) }()
	}

	// Work on a copy so further editor mutations never race the commit.
	committed, err := agg.Clone()
	if err != nil {
		return nil, fmt.Errorf("snapshot draft: %w", err)
	}
	committed.SetID(id)

	// Phase 3: concurrent resource uploads, joined before the document write.
	now := e.now()
	failed := e.uploadPending(ctx, sess, committed, now)

	if finalizing {
		committed.(models.Finalizable).Finalize(now)
	}

	// Local markers never reach the persisted document.
	committed.ClearPending()

	// Phase 4: single aggregate write at the canonical path.
	doc := committed.Document()
	doc["schemaVersion"] = models.SchemaVersion
	if err := e.Docs.Write(ctx, store.DocPath(committed.Collection(), id), doc); err != nil {
		return nil, &AggregateWriteError{Err: err}
	}

	res := &CommitResult{
		ID:            id,
		Created:       created,
		Aggregate:     committed,
		Document:      doc,
		FailedUploads: failed,
		PdfRequested:  finalizing,
	}

	// Phase 5: post-commit side effects. The flag on the document is
	// authoritative; a failed publish is logged and the client still observes
	// status via the document subscription once a sweep or retry picks it up.
	if finalizing && e.Publisher != nil {
		msg := config.PdfRequestMessage{
			Collection:    committed.Collection(),
			EntityId:      id,
			TenantId:      sess.TenantId,
			RequestedBy:   sess.Username,
			RequestedAt:   int64(now),
			CorrelationId: sess.CorrelationId,
		}
		if _, err := e.Publisher.PublishPdfRequest(ctx, msg); err != nil {
			config.LogError(e.Logger, "reconcile.go", "Commit", "PublishPdfRequest", msg, err)
		} else {
			res.PdfRequestQueued = true
		}
	}

	return res, nil
}

// uploadPending fans out every pending resource upload, waits for all of them
// to report back, then applies the URL rewrites in slice order. A failed
// upload leaves its reference unset; it never aborts the commit.
func (e *Engine) uploadPending(ctx context.Context, sess SessionContext, committed models.Aggregate, now models.Millis) []string {
	ups := committed.PendingUploads(now)
	if len(ups) == 0 {
		return nil
	}

	type uploadResult struct {
		url string
		err error
	}
	results := make([]uploadResult, len(ups))

	var wg sync.WaitGroup
	for i, up := range ups {
		if len(up.Resource.Data) == 0 {
			// Staged bytes went missing (redis eviction, client restart).
			results[i] = uploadResult{err: errors.New("no staged data for resource")}
			continue
		}
		wg.Add(1)
		go func(i int, up models.PendingUpload) {
			defer wg.Done()
			objectPath := path.Join(committed.Collection(), committed.GetID(), up.Name)
			url, err := e.Blobs.Upload(ctx, objectPath, up.Resource.Data, up.Resource.ContentType())
			results[i] = uploadResult{url: url, err: err}
		}(i, up)
	}
	wg.Wait()

	var failed []string
	for i, up := range ups {
		if results[i].err != nil {
			config.LogError(e.Logger, "reconcile.go", "uploadPending", up.Name, sess.CorrelationId, results[i].err)
			failed = append(failed, up.Name)
			continue
		}
		up.Assign(results[i].url)
	}
	return failed
}
