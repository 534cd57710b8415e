package main

import (
	"bytes"
	"net/http"

	"bitbucket.org/mmdatafocus/inspect_backend/config"
	"bitbucket.org/mmdatafocus/inspect_backend/models/reports"
	"bitbucket.org/mmdatafocus/inspect_backend/utils"
	"github.com/gin-gonic/gin"
)

func exportExpensesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantId, _ := utils.GetTenantIdFromContext(c.Request.Context())

		var buf bytes.Buffer
		if err := reports.ExportExpenses(c.Request.Context(), app.docs, tenantId, &buf); err != nil {
			config.LogError(config.GetLogger(), "reportsHandlers.go", "exportExpensesHandler", "ExportExpenses", tenantId, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to build the export"})
			return
		}

		c.Header("Content-Disposition", "attachment; filename=expenses.xlsx")
		c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
	}
}
