package handlers

import (
	"net/http"

	"github.com/gilcleber/Controle-Premios-sub000/internal/http/api/permissions"
	"github.com/gilcleber/Controle-Premios-sub000/internal/inventory"
	"github.com/gin-gonic/gin"
)

// DashboardHandler serves stock and pickup summaries.
type DashboardHandler struct {
	svc *inventory.Service
}

// NewDashboardHandler constructs a DashboardHandler.
func NewDashboardHandler(svc *inventory.Service) *DashboardHandler {
	return &DashboardHandler{svc: svc}
}

// Summary returns the dashboard for the session's scope.
func (h *DashboardHandler) Summary(c *gin.Context) {
	dash, err := h.svc.Dashboard(c.Request.Context(), permissions.Scope(c))
	if err != nil {
		WriteServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, dash)
}
