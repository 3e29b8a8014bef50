package handlers

import (
	"net/http"

	"github.com/gilcleber/Controle-Premios-sub000/internal/http/api/permissions"
	"github.com/gin-gonic/gin"
)

// PermissionHandler exposes route capability definitions for admins.
type PermissionHandler struct{}

// NewPermissionHandler constructs a PermissionHandler.
func NewPermissionHandler() *PermissionHandler {
	return &PermissionHandler{}
}

// List returns all route definitions and the capabilities of each role.
func (h *PermissionHandler) List(c *gin.Context) {
	roles := gin.H{}
	for _, role := range []string{permissions.RoleMaster, permissions.RoleAdmin, permissions.RoleOperator, permissions.RoleReception} {
		roles[role] = permissions.CapabilitiesFor(role)
	}
	c.JSON(http.StatusOK, gin.H{"permissions": permissions.Definitions(), "roles": roles})
}
