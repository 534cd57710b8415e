package main

import (
	"errors"
	"net/http"

	"bitbucket.org/mmdatafocus/inspect_backend/config"
	"bitbucket.org/mmdatafocus/inspect_backend/models"
	"bitbucket.org/mmdatafocus/inspect_backend/store"
	"github.com/gin-gonic/gin"
)

type assignQrInput struct {
	QrCode string `json:"qrCode" binding:"required"`
}

var errMachineNotCommitted = errors.New("save the machine before assigning a QR code")

// qrAssignmentPayload builds the function-backend request. The machine must
// have been committed at least once: the registry binds codes to machine ids,
// and an uncommitted draft has none yet (a discarded draft would otherwise
// leave the code bound to nothing).
func qrAssignmentPayload(tenantId string, machine *models.Machine, qrCode string) (map[string]any, error) {
	if machine.ID == "" {
		return nil, errMachineNotCommitted
	}
	return map[string]any{
		"tenantId":  tenantId,
		"machineId": machine.ID,
		"qrCode":    qrCode,
	}, nil
}

// assignMachineQrHandler runs QR assignment through the function backend, which
// owns the tenant-wide uniqueness check. Its rejection message is shown to the
// user as-is; retrying with the same code will not help.
func assignMachineQrHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := loadOwnedSession(c)
		if !ok {
			return
		}
		if sess.Collection != models.CollectionMachines {
			c.JSON(http.StatusNotFound, gin.H{"error": "draft session not found"})
			return
		}
		if sess.Edit.IsDiscarded() {
			c.JSON(http.StatusConflict, gin.H{"error": "draft session already discarded"})
			return
		}

		var input assignQrInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "qrCode is required"})
			return
		}

		agg, err := sess.DecodeAggregate()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to decode draft"})
			return
		}
		machine, ok := agg.(*models.Machine)
		if !ok {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to decode draft"})
			return
		}

		payload, err := qrAssignmentPayload(sess.TenantId, machine, input.QrCode)
		if err != nil {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}

		if app.rpc == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "the function backend is not configured"})
			return
		}
		_, err = app.rpc.Call(c.Request.Context(), "assignMachineQr", payload)
		if err != nil {
			var procErr *store.ProcedureError
			if errors.As(err, &procErr) {
				c.JSON(http.StatusUnprocessableEntity, gin.H{"error": procErr.Message})
				return
			}
			config.LogError(config.GetLogger(), "machines.go", "assignMachineQrHandler", "assignMachineQr", machine.ID, err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "QR assignment is unavailable right now"})
			return
		}

		machine.QrCode = input.QrCode
		if err := sess.Edit.MarkDirty(); err != nil {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		if err := persistSession(c, sess, machine); err != nil {
			return
		}
		c.JSON(http.StatusOK, draftSessionJSON(sess))
	}
}
