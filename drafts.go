package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"bitbucket.org/mmdatafocus/inspect_backend/config"
	"bitbucket.org/mmdatafocus/inspect_backend/models"
	"bitbucket.org/mmdatafocus/inspect_backend/store"
	"bitbucket.org/mmdatafocus/inspect_backend/utils"
	"bitbucket.org/mmdatafocus/inspect_backend/workflow"
	"github.com/gin-gonic/gin"
)

// sessionIdentity lifts the authenticated caller off the request context into
// the explicit form the commit engine takes.
func sessionIdentity(c *gin.Context) workflow.SessionContext {
	ctx := c.Request.Context()
	tenantId, _ := utils.GetTenantIdFromContext(ctx)
	userId, _ := utils.GetUserIdFromContext(ctx)
	username, _ := utils.GetUsernameFromContext(ctx)
	correlationId, _ := utils.GetCorrelationIdFromContext(ctx)
	return workflow.SessionContext{
		TenantId:      tenantId,
		UserId:        userId,
		Username:      username,
		CorrelationId: correlationId,
	}
}

// loadOwnedSession fetches the draft session and enforces tenant ownership.
// Writes the error response itself; callers bail out on ok == false.
func loadOwnedSession(c *gin.Context) (*models.DraftSession, bool) {
	sess, found, err := models.LoadDraftSession(c.Param("sessionId"))
	if err != nil {
		config.LogError(config.GetLogger(), "drafts.go", "loadOwnedSession", "LoadDraftSession", c.Param("sessionId"), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load draft session"})
		return nil, false
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "draft session not found"})
		return nil, false
	}
	if collection := c.Param("collection"); collection != "" && collection != sess.Collection {
		c.JSON(http.StatusNotFound, gin.H{"error": "draft session not found"})
		return nil, false
	}
	tenantId, _ := utils.GetTenantIdFromContext(c.Request.Context())
	if sess.TenantId != tenantId {
		c.JSON(http.StatusNotFound, gin.H{"error": "draft session not found"})
		return nil, false
	}
	return sess, true
}

func draftSessionJSON(sess *models.DraftSession) gin.H {
	return gin.H{
		"sessionId":  sess.SessionID,
		"collection": sess.Collection,
		"state":      sess.Edit.State,
		"createdAt":  sess.CreatedAt,
		"aggregate":  json.RawMessage(sess.Aggregate),
	}
}

type createDraftInput struct {
	// ID opens an existing record for editing; empty starts a new one.
	ID string `json:"id"`
}

func createDraftHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		collection := c.Param("collection")
		if !models.ValidCollection(collection) {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown collection"})
			return
		}

		var input createDraftInput
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&input); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
		}

		ident := sessionIdentity(c)

		var agg models.Aggregate
		if input.ID == "" {
			created, err := models.NewAggregate(collection, ident.TenantId)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			agg = created
		} else {
			doc, err := app.docs.Read(c.Request.Context(), store.DocPath(collection, input.ID))
			if err != nil {
				if errors.Is(err, store.ErrDocumentNotFound) {
					c.JSON(http.StatusNotFound, gin.H{"error": "record not found"})
					return
				}
				config.LogError(config.GetLogger(), "drafts.go", "createDraftHandler", "Read", input.ID, err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load record"})
				return
			}
			loaded, err := models.AggregateFromDocument(collection, input.ID, doc)
			if err != nil {
				config.LogError(config.GetLogger(), "drafts.go", "createDraftHandler", "AggregateFromDocument", input.ID, err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load record"})
				return
			}
			if loaded.Tenant() != ident.TenantId {
				c.JSON(http.StatusNotFound, gin.H{"error": "record not found"})
				return
			}
			agg = loaded
		}

		sess, err := models.NewDraftSession(collection, ident.TenantId, ident.UserId, agg)
		if err != nil {
			config.LogError(config.GetLogger(), "drafts.go", "createDraftHandler", "NewDraftSession", collection, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to open draft session"})
			return
		}
		if err := models.SaveDraftSession(sess); err != nil {
			config.LogError(config.GetLogger(), "drafts.go", "createDraftHandler", "SaveDraftSession", sess.SessionID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to open draft session"})
			return
		}

		c.JSON(http.StatusCreated, draftSessionJSON(sess))
	}
}

func getDraftHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := loadOwnedSession(c)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, draftSessionJSON(sess))
	}
}

// updateDraftHandler merges a partial aggregate body over the session snapshot.
// Identity fields never move: id, tenantId and pending markers survive any body.
func updateDraftHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := loadOwnedSession(c)
		if !ok {
			return
		}
		if sess.Edit.IsDiscarded() {
			c.JSON(http.StatusConflict, gin.H{"error": "draft session already discarded"})
			return
		}

		var body map[string]json.RawMessage
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		agg, err := sess.DecodeAggregate()
		if err != nil {
			config.LogError(config.GetLogger(), "drafts.go", "updateDraftHandler", "DecodeAggregate", sess.SessionID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to decode draft"})
			return
		}

		if err := applyDraftEdits(sess, agg, body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		if err := sess.Edit.MarkDirty(); err != nil {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		if err := persistSession(c, sess, agg); err != nil {
			return
		}
		c.JSON(http.StatusOK, draftSessionJSON(sess))
	}
}

// applyDraftEdits overlays scalar edits onto the aggregate. Fields owned by the
// server (id, tenantId, pending markers, upload URLs, lifecycle) are stripped
// before the merge; an expense's amountDigits uses the cents convention.
func applyDraftEdits(sess *models.DraftSession, agg models.Aggregate, body map[string]json.RawMessage) error {
	for _, reserved := range []string{
		"id", "tenantId", "status", "createdAt", "finalizedAt",
		"imageUrls", "signatureUrl", "pendingImages", "pendingSignature",
		"notes", "remediations", "parts",
		"pdfGenerationRequested", "pdfDownloadUrl", "pdfGenerationError",
		"qrCode",
	} {
		delete(body, reserved)
	}

	if raw, ok := body["amountDigits"]; ok {
		delete(body, "amountDigits")
		exp, isExpense := agg.(*models.Expense)
		if !isExpense {
			return errors.New("amountDigits only applies to expenses")
		}
		var digits string
		if err := json.Unmarshal(raw, &digits); err != nil {
			return errors.New("amountDigits must be a string")
		}
		amount, err := models.ParseAmountDigits(digits)
		if err != nil {
			return err
		}
		exp.Amount = amount
	}

	if len(body) == 0 {
		return sess.SetAggregate(agg)
	}
	merged, err := json.Marshal(body)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(merged, agg); err != nil {
		return errors.New("invalid draft fields")
	}
	return nil
}

func persistSession(c *gin.Context, sess *models.DraftSession, agg models.Aggregate) error {
	if agg != nil {
		if err := sess.SetAggregate(agg); err != nil {
			config.LogError(config.GetLogger(), "drafts.go", "persistSession", "SetAggregate", sess.SessionID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save draft"})
			return err
		}
	}
	if err := models.SaveDraftSession(sess); err != nil {
		config.LogError(config.GetLogger(), "drafts.go", "persistSession", "SaveDraftSession", sess.SessionID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save draft"})
		return err
	}
	return nil
}

/* sub-items */

type addSubItemInput struct {
	Type     string        `json:"type" binding:"required"`
	Text     string        `json:"text"`
	Name     string        `json:"name"`
	Quantity int           `json:"quantity"`
	DueDate  models.Millis `json:"dueDate"`
}

func addSubItemHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := loadOwnedSession(c)
		if !ok {
			return
		}
		if sess.Edit.IsDiscarded() {
			c.JSON(http.StatusConflict, gin.H{"error": "draft session already discarded"})
			return
		}
		var input addSubItemInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		agg, err := sess.DecodeAggregate()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to decode draft"})
			return
		}

		var itemId string
		switch a := agg.(type) {
		case *models.SiteAuditReport:
			switch input.Type {
			case "note":
				n := models.NewAuditNote(input.Text)
				a.Notes.Insert(n)
				itemId = n.NoteID
			case "remediation":
				r := models.NewRemediation(input.Text)
				r.DueDate = input.DueDate
				a.Remediations.Insert(r)
				itemId = r.RemediationID
			default:
				c.JSON(http.StatusBadRequest, gin.H{"error": "site audits take note or remediation items"})
				return
			}
		case *models.MechanicReport:
			if input.Type != "part" {
				c.JSON(http.StatusBadRequest, gin.H{"error": "mechanic reports take part items"})
				return
			}
			p := models.NewPartEntry(input.Name, input.Quantity)
			a.Parts.Insert(p)
			itemId = p.PartID
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "this record type has no sub-items"})
			return
		}

		if err := sess.Edit.MarkDirty(); err != nil {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		if err := persistSession(c, sess, agg); err != nil {
			return
		}
		c.JSON(http.StatusCreated, gin.H{"itemId": itemId, "session": draftSessionJSON(sess)})
	}
}

type moveSubItemInput struct {
	To int `json:"to"`
}

func moveSubItemHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := loadOwnedSession(c)
		if !ok {
			return
		}
		if sess.Edit.IsDiscarded() {
			c.JSON(http.StatusConflict, gin.H{"error": "draft session already discarded"})
			return
		}
		var input moveSubItemInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		agg, err := sess.DecodeAggregate()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to decode draft"})
			return
		}

		itemId := c.Param("itemId")
		moved := false
		var moveErr error
		switch a := agg.(type) {
		case *models.SiteAuditReport:
			if _, from, found := a.Notes.ByID(itemId); found {
				moveErr = a.Notes.Move(from, input.To)
				moved = true
			} else if _, from, found := a.Remediations.ByID(itemId); found {
				moveErr = a.Remediations.Move(from, input.To)
				moved = true
			}
		case *models.MechanicReport:
			if _, from, found := a.Parts.ByID(itemId); found {
				moveErr = a.Parts.Move(from, input.To)
				moved = true
			}
		}
		if !moved {
			c.JSON(http.StatusNotFound, gin.H{"error": "item not found"})
			return
		}
		if moveErr != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": moveErr.Error()})
			return
		}

		if err := sess.Edit.MarkDirty(); err != nil {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		if err := persistSession(c, sess, agg); err != nil {
			return
		}
		c.JSON(http.StatusOK, draftSessionJSON(sess))
	}
}

func removeSubItemHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := loadOwnedSession(c)
		if !ok {
			return
		}
		if sess.Edit.IsDiscarded() {
			c.JSON(http.StatusConflict, gin.H{"error": "draft session already discarded"})
			return
		}

		agg, err := sess.DecodeAggregate()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to decode draft"})
			return
		}

		itemId := c.Param("itemId")
		removed := false
		switch a := agg.(type) {
		case *models.SiteAuditReport:
			if n, _, found := a.Notes.ByID(itemId); found {
				dropNoteStaged(sess.SessionID, n)
				removed = a.Notes.RemoveByID(itemId)
			} else {
				removed = a.Remediations.RemoveByID(itemId)
			}
		case *models.MechanicReport:
			removed = a.Parts.RemoveByID(itemId)
		}
		if !removed {
			c.JSON(http.StatusNotFound, gin.H{"error": "item not found"})
			return
		}

		if err := sess.Edit.MarkDirty(); err != nil {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		if err := persistSession(c, sess, agg); err != nil {
			return
		}
		c.JSON(http.StatusOK, draftSessionJSON(sess))
	}
}

func dropNoteStaged(sessionId string, n *models.AuditNote) {
	if n.PendingOriginal != nil {
		_ = utils.RemoveStagedResource(sessionId, n.PendingOriginal.LocalID)
	}
	if n.PendingAnnotated != nil {
		_ = utils.RemoveStagedResource(sessionId, n.PendingAnnotated.LocalID)
	}
}

/* commit and exit */

type commitInput struct {
	Finalize bool `json:"finalize"`
}

func commitDraftHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := loadOwnedSession(c)
		if !ok {
			return
		}
		var input commitInput
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&input); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
		}

		res, ok := runCommit(c, sess, input.Finalize)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, commitResultJSON(sess, res))
	}
}

// runCommit hydrates staged bytes, runs the engine commit and on success swaps
// the committed copy into the session. Writes the error response on failure.
func runCommit(c *gin.Context, sess *models.DraftSession, finalize bool) (*workflow.CommitResult, bool) {
	if sess.Edit.IsDiscarded() {
		c.JSON(http.StatusConflict, gin.H{"error": "draft session already discarded"})
		return nil, false
	}

	agg, err := sess.DecodeAggregate()
	if err != nil {
		config.LogError(config.GetLogger(), "drafts.go", "runCommit", "DecodeAggregate", sess.SessionID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to decode draft"})
		return nil, false
	}

	// Pull staged image bytes back in. Evicted resources surface later as
	// failed uploads rather than blocking the whole save.
	for _, p := range agg.Pending() {
		data, found, err := utils.GetStagedResource(sess.SessionID, p.LocalID)
		if err != nil || !found {
			continue
		}
		p.Data = data
	}

	res, err := app.engine.Commit(c.Request.Context(), sessionIdentity(c), agg, finalize)
	if err != nil {
		writeCommitError(c, err)
		return nil, false
	}

	for _, p := range agg.Pending() {
		_ = utils.RemoveStagedResource(sess.SessionID, p.LocalID)
	}

	if err := sess.Edit.MarkCommitted(); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return nil, false
	}
	if err := persistSession(c, sess, res.Aggregate); err != nil {
		return nil, false
	}
	return res, true
}

func writeCommitError(c *gin.Context, err error) {
	var validationErr *workflow.ValidationError
	var allocErr *workflow.IdentityAllocationError
	var writeErr *workflow.AggregateWriteError
	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": validationErr.Error()})
	case errors.Is(err, workflow.ErrCommitInProgress):
		c.JSON(http.StatusConflict, gin.H{"error": "another save of this record is in progress"})
	case errors.As(err, &allocErr):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "could not reach the record store; nothing was saved"})
	case errors.As(err, &writeErr):
		c.JSON(http.StatusBadGateway, gin.H{"error": "saving the record failed; your draft is intact, try again"})
	default:
		config.LogError(config.GetLogger(), "drafts.go", "writeCommitError", "Commit", nil, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "saving the record failed"})
	}
}

func commitResultJSON(sess *models.DraftSession, res *workflow.CommitResult) gin.H {
	return gin.H{
		"id":               res.ID,
		"created":          res.Created,
		"failedUploads":    res.FailedUploads,
		"pdfRequested":     res.PdfRequested,
		"pdfRequestQueued": res.PdfRequestQueued,
		"session":          draftSessionJSON(sess),
	}
}

type exitInput struct {
	Choice models.ExitChoice `json:"choice"`
}

// exitDraftHandler is the save/discard/cancel prompt. A clean session leaves
// without a prompt and without a write.
func exitDraftHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := loadOwnedSession(c)
		if !ok {
			return
		}
		var input exitInput
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&input); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
		}

		if sess.Edit.RequestExit() && input.Choice == "" {
			c.JSON(http.StatusConflict, gin.H{
				"action":       "confirm",
				"error":        "draft has unsaved changes",
				"validChoices": []models.ExitChoice{models.ExitChoiceSave, models.ExitChoiceDiscard, models.ExitChoiceCancel},
			})
			return
		}

		action, err := sess.Edit.ResolveExit(input.Choice)
		if err != nil {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}

		switch action {
		case models.ExitActionStay:
			c.JSON(http.StatusOK, gin.H{"action": "stay"})
		case models.ExitActionCommit:
			res, ok := runCommit(c, sess, false)
			if !ok {
				return
			}
			closeDraftSession(sess)
			c.JSON(http.StatusOK, gin.H{"action": "leave", "committed": commitResultJSON(sess, res)})
		default:
			closeDraftSession(sess)
			c.JSON(http.StatusOK, gin.H{"action": "leave"})
		}
	}
}

func closeDraftSession(sess *models.DraftSession) {
	if agg, err := sess.DecodeAggregate(); err == nil {
		for _, p := range agg.Pending() {
			_ = utils.RemoveStagedResource(sess.SessionID, p.LocalID)
		}
	}
	if err := models.DeleteDraftSession(sess.SessionID); err != nil {
		config.LogError(config.GetLogger(), "drafts.go", "closeDraftSession", "DeleteDraftSession", sess.SessionID, err)
	}
}

/* committed records */

// listCollectionHandler returns the tenant's committed records of a collection,
// the way the home screens list them before a draft is opened.
func listCollectionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		collection := c.Param("collection")
		if !models.ValidCollection(collection) {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown collection"})
			return
		}
		tenantId, _ := utils.GetTenantIdFromContext(c.Request.Context())

		records, err := app.docs.List(c.Request.Context(), collection, tenantId)
		if err != nil {
			config.LogError(config.GetLogger(), "drafts.go", "listCollectionHandler", "List", collection, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list records"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"collection": collection, "records": records})
	}
}

func getRecordHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		collection := c.Param("collection")
		if !models.ValidCollection(collection) {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown collection"})
			return
		}
		id := c.Param("id")

		doc, err := app.docs.Read(c.Request.Context(), store.DocPath(collection, id))
		if err != nil {
			if errors.Is(err, store.ErrDocumentNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "record not found"})
				return
			}
			config.LogError(config.GetLogger(), "drafts.go", "getRecordHandler", "Read", id, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load record"})
			return
		}
		tenantId, _ := utils.GetTenantIdFromContext(c.Request.Context())
		if docTenant, _ := doc["tenantId"].(string); docTenant != tenantId {
			c.JSON(http.StatusNotFound, gin.H{"error": "record not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": id, "record": doc})
	}
}

// deleteRecordHandler removes a committed record. Finalized records stay;
// their PDF may already be in circulation.
func deleteRecordHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		collection := c.Param("collection")
		if !models.ValidCollection(collection) {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown collection"})
			return
		}
		id := c.Param("id")
		path := store.DocPath(collection, id)

		doc, err := app.docs.Read(c.Request.Context(), path)
		if err != nil {
			if errors.Is(err, store.ErrDocumentNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "record not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load record"})
			return
		}
		tenantId, _ := utils.GetTenantIdFromContext(c.Request.Context())
		if docTenant, _ := doc["tenantId"].(string); docTenant != tenantId {
			c.JSON(http.StatusNotFound, gin.H{"error": "record not found"})
			return
		}
		if status, _ := doc["status"].(string); status == string(models.LifecycleFinalized) {
			c.JSON(http.StatusConflict, gin.H{"error": "finalized records cannot be deleted"})
			return
		}

		if err := app.docs.Delete(c.Request.Context(), path); err != nil {
			config.LogError(config.GetLogger(), "drafts.go", "deleteRecordHandler", "Delete", path, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete record"})
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// pdfStatusHandler reports the render status; with ?wait=true it long-polls the
// document subscription until the render lands or the poll window closes.
func pdfStatusHandler() gin.HandlerFunc {
	const pollWindow = 30 * time.Second

	return func(c *gin.Context) {
		collection := c.Param("collection")
		if !models.ValidCollection(collection) {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown collection"})
			return
		}
		id := c.Param("id")

		doc, err := app.docs.Read(c.Request.Context(), store.DocPath(collection, id))
		if err != nil {
			if errors.Is(err, store.ErrDocumentNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "record not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load record"})
			return
		}
		tenantId, _ := utils.GetTenantIdFromContext(c.Request.Context())
		if docTenant, _ := doc["tenantId"].(string); docTenant != tenantId {
			c.JSON(http.StatusNotFound, gin.H{"error": "record not found"})
			return
		}

		status := workflow.PdfStatusFromDocument(doc)
		if status.Done() || c.Query("wait") != "true" {
			c.JSON(http.StatusOK, status)
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), pollWindow)
		defer cancel()
		final, err := workflow.AwaitPdfStatus(ctx, app.docs, collection, id)
		if err != nil {
			config.LogError(config.GetLogger(), "drafts.go", "pdfStatusHandler", "AwaitPdfStatus", id, err)
			c.JSON(http.StatusOK, status)
			return
		}
		c.JSON(http.StatusOK, final)
	}
}
