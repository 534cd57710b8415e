package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"bitbucket.org/mmdatafocus/inspect_backend/config"
	"bitbucket.org/mmdatafocus/inspect_backend/models"
	"bitbucket.org/mmdatafocus/inspect_backend/utils"
	"github.com/disintegration/imaging"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	maxImageBytes = 5 << 20
	thumbMaxEdge  = 256
)

var errItemNotFound = errors.New("item not found")

func errForCollection(agg models.Aggregate, msg string) error {
	return fmt.Errorf("%s %s", agg.Collection(), msg)
}

func allowedImageExt(ext string) bool {
	switch strings.ToLower(ext) {
	case ".jpg", ".jpeg", ".png":
		return true
	}
	return false
}

// addImageHandler stages an image on the draft session. The bytes live in the
// staging area until commit; the session snapshot only carries the marker.
//
// Form fields: image (file), kind (original|annotated|signature, default
// original), itemId (required for note images).
func addImageHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := loadOwnedSession(c)
		if !ok {
			return
		}
		if sess.Edit.IsDiscarded() {
			c.JSON(http.StatusConflict, gin.H{"error": "draft session already discarded"})
			return
		}

		file, header, err := c.Request.FormFile("image")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "image file is required"})
			return
		}
		defer file.Close()

		if header.Size > maxImageBytes {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "image exceeds the 5MB limit"})
			return
		}
		ext := filepath.Ext(header.Filename)
		if !allowedImageExt(ext) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "only jpeg and png images are accepted"})
			return
		}

		data, err := io.ReadAll(io.LimitReader(file, maxImageBytes+1))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read image"})
			return
		}
		if len(data) > maxImageBytes {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "image exceeds the 5MB limit"})
			return
		}
		// Reject files that only claim to be images.
		if _, err := imaging.Decode(bytes.NewReader(data)); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "file is not a decodable image"})
			return
		}

		kind := models.ResourceKind(c.PostForm("kind"))
		if kind == "" {
			kind = models.ResourceKindOriginal
		}
		itemId := c.PostForm("itemId")

		agg, err := sess.DecodeAggregate()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to decode draft"})
			return
		}

		res := models.NewPendingResource(uuid.NewString(), kind, ext)
		if err := attachPendingResource(sess.SessionID, agg, res, itemId); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		if err := utils.StoreStagedResource(sess.SessionID, res.LocalID, data); err != nil {
			config.LogError(config.GetLogger(), "uploads.go", "addImageHandler", "StoreStagedResource", res.LocalID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to stage image"})
			return
		}

		if err := sess.Edit.MarkDirty(); err != nil {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		if err := persistSession(c, sess, agg); err != nil {
			return
		}
		c.JSON(http.StatusCreated, gin.H{"localId": res.LocalID, "session": draftSessionJSON(sess)})
	}
}

// attachPendingResource places the marker on the right slot of the aggregate.
// A new resource in a slot replaces the previous one; its staged bytes are
// dropped so they cannot leak past the session.
func attachPendingResource(sessionId string, agg models.Aggregate, res *models.PendingResource, itemId string) error {
	replace := func(old *models.PendingResource) {
		if old != nil {
			_ = utils.RemoveStagedResource(sessionId, old.LocalID)
		}
	}

	if res.Kind == models.ResourceKindSignature {
		switch a := agg.(type) {
		case *models.SiteAuditReport:
			replace(a.PendingSignature)
			a.PendingSignature = res
			return nil
		case *models.ExternalGA1Form:
			replace(a.PendingSignature)
			a.PendingSignature = res
			return nil
		}
		return errForCollection(agg, "does not take a signature")
	}

	if itemId != "" {
		a, ok := agg.(*models.SiteAuditReport)
		if !ok {
			return errForCollection(agg, "has no per-item images")
		}
		note, _, found := a.Notes.ByID(itemId)
		if !found {
			return errItemNotFound
		}
		res.OwnerSubItemID = itemId
		if res.Kind == models.ResourceKindAnnotated {
			replace(note.PendingAnnotated)
			note.PendingAnnotated = res
		} else {
			replace(note.PendingOriginal)
			note.PendingOriginal = res
		}
		return nil
	}

	switch a := agg.(type) {
	case *models.Expense:
		a.PendingImages = append(a.PendingImages, res)
	case *models.ExternalGA1Form:
		a.PendingImages = append(a.PendingImages, res)
	case *models.MechanicReport:
		a.PendingImages = append(a.PendingImages, res)
	case *models.Machine:
		a.PendingImages = append(a.PendingImages, res)
	default:
		return errForCollection(agg, "requires an itemId for images")
	}
	return nil
}

// stagedThumbnailHandler renders a downscaled preview of a staged image. The
// editor shows local bytes until commit replaces them with remote URLs.
func stagedThumbnailHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := loadOwnedSession(c)
		if !ok {
			return
		}
		localId := c.Param("localId")

		data, found, err := utils.GetStagedResource(sess.SessionID, localId)
		if err != nil {
			config.LogError(config.GetLogger(), "uploads.go", "stagedThumbnailHandler", "GetStagedResource", localId, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load staged image"})
			return
		}
		if !found {
			c.JSON(http.StatusNotFound, gin.H{"error": "staged image not found"})
			return
		}

		thumb, err := makeThumbnail(data)
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "staged bytes are not a decodable image"})
			return
		}
		c.Data(http.StatusOK, "image/jpeg", thumb)
	}
}

// removeImageHandler detaches a staged image from the draft and drops its bytes.
func removeImageHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := loadOwnedSession(c)
		if !ok {
			return
		}
		if sess.Edit.IsDiscarded() {
			c.JSON(http.StatusConflict, gin.H{"error": "draft session already discarded"})
			return
		}
		localId := c.Param("localId")

		agg, err := sess.DecodeAggregate()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to decode draft"})
			return
		}

		if !detachPendingResource(agg, localId) {
			c.JSON(http.StatusNotFound, gin.H{"error": "staged image not found"})
			return
		}
		_ = utils.RemoveStagedResource(sess.SessionID, localId)

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

func detachPendingResource(agg models.Aggregate, localId string) bool {
	dropFromSlice := func(list []*models.PendingResource) ([]*models.PendingResource, bool) {
		for i, p := range list {
			if p.LocalID == localId {
				return append(list[:i], list[i+1:]...), true
			}
		}
		return list, false
	}

	switch a := agg.(type) {
	case *models.Expense:
		var ok bool
		a.PendingImages, ok = dropFromSlice(a.PendingImages)
		return ok
	case *models.MechanicReport:
		var ok bool
		a.PendingImages, ok = dropFromSlice(a.PendingImages)
		return ok
	case *models.Machine:
		var ok bool
		a.PendingImages, ok = dropFromSlice(a.PendingImages)
		return ok
	case *models.ExternalGA1Form:
		if list, ok := dropFromSlice(a.PendingImages); ok {
			a.PendingImages = list
			return true
		}
		if a.PendingSignature != nil && a.PendingSignature.LocalID == localId {
			a.PendingSignature = nil
			return true
		}
	case *models.SiteAuditReport:
		for _, n := range a.Notes.Items() {
			if n.PendingOriginal != nil && n.PendingOriginal.LocalID == localId {
				n.PendingOriginal = nil
				return true
			}
			if n.PendingAnnotated != nil && n.PendingAnnotated.LocalID == localId {
				n.PendingAnnotated = nil
				return true
			}
		}
		if a.PendingSignature != nil && a.PendingSignature.LocalID == localId {
			a.PendingSignature = nil
			return true
		}
	}
	return false
}

type remoteThumbnailInput struct {
	URL string `json:"url" binding:"required"`
}

// remoteThumbnailHandler serves a downscaled copy of an already-uploaded image.
// Object URLs are immutable, so the rendered thumbnail is cached indefinitely.
func remoteThumbnailHandler() gin.HandlerFunc {
	httpClient := &http.Client{}

	return func(c *gin.Context) {
		var input remoteThumbnailInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "url is required"})
			return
		}

		if cached, found, err := utils.GetCachedThumbnailURL(input.URL); err == nil && found {
			c.JSON(http.StatusOK, gin.H{"thumbnailUrl": cached, "cached": true})
			return
		}

		req, err := http.NewRequestWithContext(c.Request.Context(), http.MethodGet, input.URL, nil)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid url"})
			return
		}
		resp, err := httpClient.Do(req)
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": "failed to fetch image"})
			return
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			c.JSON(http.StatusBadGateway, gin.H{"error": "failed to fetch image"})
			return
		}

		data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": "failed to fetch image"})
			return
		}
		thumb, err := makeThumbnail(data)
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "url does not point at a decodable image"})
			return
		}

		if app.blobs == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "blob storage is not configured"})
			return
		}
		objectPath := "thumbnails/" + uuid.NewString() + ".jpg"
		thumbURL, err := app.blobs.Upload(c.Request.Context(), objectPath, thumb, "image/jpeg")
		if err != nil {
			config.LogError(config.GetLogger(), "uploads.go", "remoteThumbnailHandler", "Upload", objectPath, err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "failed to store thumbnail"})
			return
		}

		if err := utils.CacheThumbnailURL(input.URL, thumbURL); err != nil {
			config.LogError(config.GetLogger(), "uploads.go", "remoteThumbnailHandler", "CacheThumbnailURL", input.URL, err)
		}
		c.JSON(http.StatusOK, gin.H{"thumbnailUrl": thumbURL, "cached": false})
	}
}

func makeThumbnail(data []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, err
	}
	thumb := imaging.Fit(img, thumbMaxEdge, thumbMaxEdge, imaging.Lanczos)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.JPEG, imaging.JPEGQuality(80)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
