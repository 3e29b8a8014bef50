package handlers

import (
	"net/http"

	"github.com/gilcleber/Controle-Premios-sub000/internal/audit"
	"github.com/gin-gonic/gin"
)

// AuditHandler exposes the stock consistency auditor.
type AuditHandler struct {
	auditor *audit.StockAuditor
}

// NewAuditHandler constructs an AuditHandler.
func NewAuditHandler(auditor *audit.StockAuditor) *AuditHandler {
	return &AuditHandler{auditor: auditor}
}

// Last returns the most recent report, or null when no pass has run yet.
func (h *AuditHandler) Last(c *gin.Context) {
	if h.auditor == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "auditor disabled"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"report": h.auditor.LastReport()})
}

// Run performs an audit pass now.
func (h *AuditHandler) Run(c *gin.Context) {
	if h.auditor == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "auditor disabled"})
		return
	}
	report, err := h.auditor.RunOnce(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "audit failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"report": report})
}
