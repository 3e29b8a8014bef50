package handlers

import (
	"net/http"
	"strings"

	"github.com/gilcleber/Controle-Premios-sub000/internal/config"
	"github.com/gilcleber/Controle-Premios-sub000/internal/http/api/permissions"
	"github.com/gilcleber/Controle-Premios-sub000/internal/models"
	"github.com/gilcleber/Controle-Premios-sub000/internal/security"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// AuthHandler handles master admin authentication endpoints.
type AuthHandler struct {
	db     *gorm.DB
	jwtCfg config.JWTConfig
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(db *gorm.DB, jwtCfg config.JWTConfig) *AuthHandler {
	return &AuthHandler{db: db, jwtCfg: jwtCfg}
}

// loginRequest defines the request body for admin login.
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	TOTPCode string `json:"totp_code"`
}

// Login authenticates an admin and issues a MASTER session token.
// Accounts with TOTP enabled must send a current totp_code.
func (h *AuthHandler) Login(c *gin.Context) {
	var body loginRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	username := strings.TrimSpace(body.Username)
	password := strings.TrimSpace(body.Password)
	if username == "" || password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password are required"})
		return
	}

	var admin models.Admin
	if errFind := h.db.WithContext(c.Request.Context()).Where("username = ?", username).First(&admin).Error; errFind != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	if !admin.Active {
		c.JSON(http.StatusForbidden, gin.H{"error": "admin account is disabled"})
		return
	}

	if !security.CheckPassword(admin.Password, password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	if strings.TrimSpace(admin.TOTPSecret) != "" {
		code := strings.TrimSpace(body.TOTPCode)
		if code == "" {
			c.JSON(http.StatusForbidden, gin.H{"error": "mfa required"})
			return
		}
		if !security.ValidateTOTP(code, admin.TOTPSecret) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid code"})
			return
		}
	}

	h.respondWithAdminToken(c, admin)
}

// Me returns the current session.
func (h *AuthHandler) Me(c *gin.Context) {
	claims, ok := permissions.Session(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing session"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"role":         claims.Role,
		"admin_id":     claims.AdminID,
		"username":     claims.Username,
		"station_id":   claims.StationID,
		"capabilities": claims.Capabilities,
	})
}

// adminCapabilities resolves the capabilities carried by an admin's token.
func adminCapabilities(admin models.Admin) []string {
	if admin.IsSuperAdmin {
		return permissions.CapabilitiesFor(permissions.RoleMaster)
	}
	return permissions.ParseCapabilities(admin.Capabilities)
}

// respondWithAdminToken generates a JWT and responds with admin info.
func (h *AuthHandler) respondWithAdminToken(c *gin.Context, admin models.Admin) {
	caps := adminCapabilities(admin)
	token, errToken := security.GenerateSessionToken(h.jwtCfg.Secret, security.SessionClaims{
		Role:         permissions.RoleMaster,
		AdminID:      admin.ID,
		Username:     admin.Username,
		Capabilities: caps,
	}, h.jwtCfg.Expiry)
	if errToken != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"role":  permissions.RoleMaster,
		"admin": gin.H{
			"id":             admin.ID,
			"username":       admin.Username,
			"capabilities":   caps,
			"is_super_admin": admin.IsSuperAdmin,
			"totp_enabled":   strings.TrimSpace(admin.TOTPSecret) != "",
		},
		"capabilities": caps,
	})
}
