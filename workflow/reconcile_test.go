package workflow

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"

	"bitbucket.org/mmdatafocus/inspect_backend/config"
	"bitbucket.org/mmdatafocus/inspect_backend/models"
	"bitbucket.org/mmdatafocus/inspect_backend/store"
	"github.com/sirupsen/logrus"
)

type fakePublisher struct {
	mu       sync.Mutex
	messages []config.PdfRequestMessage
	err      error
}

func (p *fakePublisher) PublishPdfRequest(ctx context.Context, msg config.PdfRequestMessage) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return "", p.err
	}
	p.messages = append(p.messages, msg)
	return "msg-1", nil
}

func testEngine(blobs store.BlobStore, docs store.DocumentStore, pub PdfRequestPublisher) *Engine {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return &Engine{
		Blobs:     blobs,
		Docs:      docs,
		Publisher: pub,
		Logger:    logger,
		Now:       func() models.Millis { return 1000 },
	}
}

func testIdentity() SessionContext {
	return SessionContext{TenantId: "tenant-1", UserId: 7, Username: "aye", CorrelationId: "corr-1"}
}

func stagedExpense() *models.Expense {
	e := models.NewExpense("tenant-1")
	e.Description = "fuel for generator"
	e.Amount, _ = models.ParseAmountDigits("1250")
	r := models.NewPendingResource("local-1", models.ResourceKindOriginal, ".jpg")
	r.Data = []byte("jpeg-bytes")
	e.PendingImages = []*models.PendingResource{r}
	return e
}

func TestCommitCreatesAndRewritesReferences(t *testing.T) {
	blobs := store.NewMemoryBlobStore()
	docs := store.NewMemoryDocumentStore()
	e := testEngine(blobs, docs, nil)
	exp := stagedExpense()

	res, err := e.Commit(context.Background(), testIdentity(), exp, false)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Created || res.ID == "" {
		t.Fatalf("created=%v id=%q", res.Created, res.ID)
	}
	if len(res.FailedUploads) != 0 {
		t.Fatalf("failed uploads: %v", res.FailedUploads)
	}

	committed := res.Aggregate.(*models.Expense)
	if len(committed.ImageUrls) != 1 {
		t.Fatalf("image urls = %v", committed.ImageUrls)
	}
	if len(committed.PendingImages) != 0 {
		t.Error("pending markers survived the commit")
	}
	// The editor copy is untouched until the caller swaps in the result.
	if exp.GetID() != "" || len(exp.PendingImages) != 1 {
		t.Error("commit mutated the caller's aggregate")
	}

	doc, err := docs.Read(context.Background(), store.DocPath(models.CollectionExpenses, res.ID))
	if err != nil {
		t.Fatal(err)
	}
	if doc["schemaVersion"] != float64(models.SchemaVersion) {
		t.Errorf("schemaVersion = %v", doc["schemaVersion"])
	}
	if _, ok := doc["pendingImages"]; ok {
		t.Error("pending markers reached the document")
	}
	if len(blobs.Objects) != 1 {
		t.Errorf("blob objects = %d, want 1", len(blobs.Objects))
	}
}

func TestCommitIsIdempotentOnUnchangedDraft(t *testing.T) {
	docs := store.NewMemoryDocumentStore()
	e := testEngine(store.NewMemoryBlobStore(), docs, nil)

	first, err := e.Commit(context.Background(), testIdentity(), stagedExpense(), false)
	if err != nil {
		t.Fatal(err)
	}
	// Re-committing the committed copy with no further edits writes the exact
	// same document.
	second, err := e.Commit(context.Background(), testIdentity(), first.Aggregate, false)
	if err != nil {
		t.Fatal(err)
	}
	if second.Created {
		t.Error("re-commit must not allocate a new id")
	}
	if second.ID != first.ID {
		t.Errorf("id changed: %s -> %s", first.ID, second.ID)
	}
	if !reflect.DeepEqual(first.Document, second.Document) {
		t.Errorf("documents differ:\nfirst:  %v\nsecond: %v", first.Document, second.Document)
	}
}

func TestCommitSurvivesPartialUploadFailure(t *testing.T) {
	blobs := store.NewMemoryBlobStore()
	blobs.FailPathContaining = "image_1000_1"
	docs := store.NewMemoryDocumentStore()
	e := testEngine(blobs, docs, nil)

	exp := stagedExpense()
	r2 := models.NewPendingResource("local-2", models.ResourceKindOriginal, ".jpg")
	r2.Data = []byte("second")
	exp.PendingImages = append(exp.PendingImages, r2)

	res, err := e.Commit(context.Background(), testIdentity(), exp, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.FailedUploads) != 1 {
		t.Fatalf("failed uploads = %v, want one", res.FailedUploads)
	}
	committed := res.Aggregate.(*models.Expense)
	if len(committed.ImageUrls) != 1 {
		t.Errorf("image urls = %v, want exactly the successful one", committed.ImageUrls)
	}
	// The document still landed.
	if _, err := docs.Read(context.Background(), store.DocPath(models.CollectionExpenses, res.ID)); err != nil {
		t.Errorf("document missing after partial failure: %v", err)
	}
}

func TestCommitTreatsMissingStagedBytesAsFailedUpload(t *testing.T) {
	docs := store.NewMemoryDocumentStore()
	e := testEngine(store.NewMemoryBlobStore(), docs, nil)

	exp := stagedExpense()
	exp.PendingImages[0].Data = nil

	res, err := e.Commit(context.Background(), testIdentity(), exp, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.FailedUploads) != 1 {
		t.Fatalf("failed uploads = %v, want one", res.FailedUploads)
	}
	if urls := res.Aggregate.(*models.Expense).ImageUrls; len(urls) != 0 {
		t.Errorf("image urls = %v, want none", urls)
	}
}

func TestCommitAbortsWhenIDAllocationFails(t *testing.T) {
	blobs := store.NewMemoryBlobStore()
	docs := store.NewMemoryDocumentStore()
	docs.AllocateErr = errors.New("store unreachable")
	e := testEngine(blobs, docs, nil)

	_, err := e.Commit(context.Background(), testIdentity(), stagedExpense(), false)
	var allocErr *IdentityAllocationError
	if !errors.As(err, &allocErr) {
		t.Fatalf("err = %v, want IdentityAllocationError", err)
	}
	if len(blobs.Objects) != 0 {
		t.Error("uploads ran before id allocation succeeded")
	}
	if len(docs.Docs) != 0 {
		t.Error("a document was written despite the abort")
	}
}

func TestCommitWriteFailureLeavesDraftRetryable(t *testing.T) {
	docs := store.NewMemoryDocumentStore()
	docs.WriteErr = errors.New("disk full")
	e := testEngine(store.NewMemoryBlobStore(), docs, nil)

	exp := stagedExpense()
	_, err := e.Commit(context.Background(), testIdentity(), exp, false)
	var writeErr *AggregateWriteError
	if !errors.As(err, &writeErr) {
		t.Fatalf("err = %v, want AggregateWriteError", err)
	}
	// The editor copy still has its id unset and its staged image, so the user
	// can simply retry.
	if exp.GetID() != "" || len(exp.PendingImages) != 1 {
		t.Error("failed commit corrupted the caller's draft")
	}
}

func TestCommitValidationRunsBeforeAnyIO(t *testing.T) {
	blobs := store.NewMemoryBlobStore()
	docs := store.NewMemoryDocumentStore()
	e := testEngine(blobs, docs, nil)

	exp := stagedExpense()
	exp.Description = ""
	_, err := e.Commit(context.Background(), testIdentity(), exp, false)
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	if len(blobs.Objects) != 0 || len(docs.Docs) != 0 {
		t.Error("validation failure still touched the network")
	}
}

func TestCommitRejectsFinalizingNonFinalizable(t *testing.T) {
	e := testEngine(store.NewMemoryBlobStore(), store.NewMemoryDocumentStore(), nil)
	_, err := e.Commit(context.Background(), testIdentity(), stagedExpense(), true)
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
}

func finalizableReport() *models.SiteAuditReport {
	r := models.NewSiteAuditReport("tenant-1")
	r.SiteName = "north quarry"
	r.Auditor = "Aye Chan"
	r.Notes.Insert(models.NewAuditNote("guard rail loose"))
	sig := models.NewPendingResource("sig", models.ResourceKindSignature, ".png")
	sig.Data = []byte("png-bytes")
	r.PendingSignature = sig
	return r
}

func TestCommitFinalizeRequestsPdfRender(t *testing.T) {
	pub := &fakePublisher{}
	docs := store.NewMemoryDocumentStore()
	e := testEngine(store.NewMemoryBlobStore(), docs, pub)

	res, err := e.Commit(context.Background(), testIdentity(), finalizableReport(), true)
	if err != nil {
		t.Fatal(err)
	}
	if !res.PdfRequested || !res.PdfRequestQueued {
		t.Fatalf("requested=%v queued=%v", res.PdfRequested, res.PdfRequestQueued)
	}

	committed := res.Aggregate.(*models.SiteAuditReport)
	if !committed.IsFinalized() || committed.FinalizedAt != 1000 {
		t.Errorf("status=%s finalizedAt=%d", committed.Status, committed.FinalizedAt)
	}
	if committed.SignatureUrl == "" {
		t.Error("signature url was not rewritten")
	}

	if len(pub.messages) != 1 {
		t.Fatalf("published %d messages, want 1", len(pub.messages))
	}
	msg := pub.messages[0]
	if msg.Collection != models.CollectionSiteAudits || msg.EntityId != res.ID {
		t.Errorf("message = %+v", msg)
	}
	if msg.TenantId != "tenant-1" || msg.CorrelationId != "corr-1" {
		t.Errorf("identity on message = %+v", msg)
	}

	doc, _ := docs.Read(context.Background(), store.DocPath(models.CollectionSiteAudits, res.ID))
	if doc["pdfGenerationRequested"] != true {
		t.Error("document missing the render-requested flag")
	}
}

func TestCommitFinalizeSucceedsWhenPublishFails(t *testing.T) {
	pub := &fakePublisher{err: errors.New("broker down")}
	docs := store.NewMemoryDocumentStore()
	e := testEngine(store.NewMemoryBlobStore(), docs, pub)

	res, err := e.Commit(context.Background(), testIdentity(), finalizableReport(), true)
	if err != nil {
		t.Fatal(err)
	}
	if !res.PdfRequested || res.PdfRequestQueued {
		t.Errorf("requested=%v queued=%v, want true/false", res.PdfRequested, res.PdfRequestQueued)
	}
	// The flag on the document remains authoritative.
	doc, _ := docs.Read(context.Background(), store.DocPath(models.CollectionSiteAudits, res.ID))
	if doc["pdfGenerationRequested"] != true {
		t.Error("document missing the render-requested flag")
	}
}

func TestStrictFinalizedImmutability(t *testing.T) {
	t.Setenv("STRICT_FINALIZED_IMMUTABLE", "true")
	e := testEngine(store.NewMemoryBlobStore(), store.NewMemoryDocumentStore(), nil)

	res, err := e.Commit(context.Background(), testIdentity(), finalizableReport(), true)
	if err != nil {
		t.Fatal(err)
	}

	_, err = e.Commit(context.Background(), testIdentity(), res.Aggregate, false)
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	// Re-finalizing is still allowed (idempotent redelivery).
	if _, err := e.Commit(context.Background(), testIdentity(), res.Aggregate, true); err != nil {
		t.Errorf("re-finalize rejected: %v", err)
	}
}
