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

// AuthHandler handles station login.
type AuthHandler struct {
	db     *gorm.DB
	jwtCfg config.JWTConfig
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(db *gorm.DB, jwtCfg config.JWTConfig) *AuthHandler {
	return &AuthHandler{db: db, jwtCfg: jwtCfg}
}

type loginRequest struct {
	Slug string `json:"slug"`
	PIN  string `json:"pin"`
	Role string `json:"role"`
}

// Stations lists active stations for the login picker.
func (h *AuthHandler) Stations(c *gin.Context) {
	var stations []models.RadioStation
	if errFind := h.db.WithContext(c.Request.Context()).
		Select("id", "name", "slug", "logo_url").
		Where("is_active = ?", true).
		Order("name ASC").
		Find(&stations).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list stations failed"})
		return
	}
	out := make([]gin.H, 0, len(stations))
	for _, s := range stations {
		out = append(out, gin.H{"id": s.ID, "name": s.Name, "slug": s.Slug, "logo_url": s.LogoURL})
	}
	c.JSON(http.StatusOK, gin.H{"stations": out})
}

// Login exchanges a station slug, PIN and requested role for a session token.
// The role is only granted when the PIN is the one configured for it.
func (h *AuthHandler) Login(c *gin.Context) {
	var body loginRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	slug := strings.ToLower(strings.TrimSpace(body.Slug))
	pin := strings.TrimSpace(body.PIN)
	if slug == "" || pin == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "slug and pin are required"})
		return
	}
	role, okRole := permissions.NormalizeRole(body.Role)
	if body.Role == "" {
		role, okRole = permissions.RoleOperator, true
	}
	if !okRole || !permissions.IsStationRole(role) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid role"})
		return
	}

	var station models.RadioStation
	if errFind := h.db.WithContext(c.Request.Context()).Where("slug = ?", slug).First(&station).Error; errFind != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}
	if !station.IsActive {
		c.JSON(http.StatusForbidden, gin.H{"error": "station is disabled"})
		return
	}
	// ADMIN sessions need the separate admin PIN; the shared access PIN only opens OPERATOR and RECEPTION.
	pinHash := station.AccessPIN
	if role == permissions.RoleAdmin {
		pinHash = station.AdminPIN
	}
	if !security.CheckPIN(pinHash, pin) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	caps := permissions.CapabilitiesFor(role)
	token, errToken := security.GenerateSessionToken(h.jwtCfg.Secret, security.SessionClaims{
		Role:         role,
		StationID:    station.ID,
		Capabilities: caps,
	}, h.jwtCfg.Expiry)
	if errToken != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"token":        token,
		"role":         role,
		"capabilities": caps,
		"station":      gin.H{"id": station.ID, "name": station.Name, "slug": station.Slug, "logo_url": station.LogoURL},
	})
}
