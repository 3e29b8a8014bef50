package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	dbutil "github.com/gilcleber/Controle-Premios-sub000/internal/db"
	"github.com/gilcleber/Controle-Premios-sub000/internal/inventory"
	"github.com/gilcleber/Controle-Premios-sub000/internal/models"
	"github.com/gilcleber/Controle-Premios-sub000/internal/security"
	"github.com/gilcleber/Controle-Premios-sub000/internal/util"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// StationHandler manages radio stations.
type StationHandler struct {
	db  *gorm.DB
	svc *inventory.Service
}

// NewStationHandler constructs a StationHandler.
func NewStationHandler(db *gorm.DB, svc *inventory.Service) *StationHandler {
	return &StationHandler{db: db, svc: svc}
}

type createStationRequest struct {
	Name     string `json:"name"`
	Slug     string `json:"slug"`
	PIN      string `json:"pin"`
	AdminPIN string `json:"admin_pin"`
	LogoURL  string `json:"logo_url"`
}

type updateStationRequest struct {
	Name     *string `json:"name"`
	Slug     *string `json:"slug"`
	PIN      *string `json:"pin"`
	AdminPIN *string `json:"admin_pin"`
	LogoURL  *string `json:"logo_url"`
	IsActive *bool   `json:"is_active"`
}

// List returns every station, active or not.
func (h *StationHandler) List(c *gin.Context) {
	var stations []models.RadioStation
	if errFind := h.db.WithContext(c.Request.Context()).Order("name ASC").Find(&stations).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list stations failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"stations": stations})
}

// Create registers a station. The slug defaults to the slugified name.
func (h *StationHandler) Create(c *gin.Context) {
	var body createStationRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	name := strings.TrimSpace(body.Name)
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing name"})
		return
	}
	slug := util.Slugify(body.Slug)
	if slug == "" {
		slug = util.Slugify(name)
	}
	if slug == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid slug"})
		return
	}
	hash, okHash := hashStationPIN(c, body.PIN)
	if !okHash {
		return
	}
	adminHash := ""
	if strings.TrimSpace(body.AdminPIN) != "" {
		if strings.TrimSpace(body.AdminPIN) == strings.TrimSpace(body.PIN) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "admin pin must differ from the access pin"})
			return
		}
		if adminHash, okHash = hashStationPIN(c, body.AdminPIN); !okHash {
			return
		}
	}

	station := models.RadioStation{
		Name:      name,
		Slug:      slug,
		LogoURL:   strings.TrimSpace(body.LogoURL),
		AccessPIN: hash,
		AdminPIN:  adminHash,
		IsActive:  true,
	}
	if errCreate := h.db.WithContext(c.Request.Context()).Create(&station).Error; errCreate != nil {
		if dbutil.IsUniqueViolation(errCreate) {
			c.JSON(http.StatusConflict, gin.H{"error": "slug already exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create station failed"})
		return
	}
	log.WithFields(log.Fields{"station": station.ID, "slug": station.Slug}).Info("station created")
	c.JSON(http.StatusCreated, station)
}

// Update edits a station. Disabling a station locks its sessions out on the next request.
func (h *StationHandler) Update(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	var body updateStationRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	updates := map[string]any{"updated_at": time.Now().UTC()}
	if body.Name != nil {
		name := strings.TrimSpace(*body.Name)
		if name == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "name cannot be empty"})
			return
		}
		updates["name"] = name
	}
	if body.Slug != nil {
		slug := util.Slugify(*body.Slug)
		if slug == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid slug"})
			return
		}
		updates["slug"] = slug
	}
	if body.PIN != nil {
		hash, okHash := hashStationPIN(c, *body.PIN)
		if !okHash {
			return
		}
		updates["access_pin"] = hash
	}
	if body.AdminPIN != nil {
		// An empty admin PIN turns station admin login off.
		adminHash := ""
		if strings.TrimSpace(*body.AdminPIN) != "" {
			var okHash bool
			if adminHash, okHash = hashStationPIN(c, *body.AdminPIN); !okHash {
				return
			}
		}
		updates["admin_pin"] = adminHash
	}
	if body.LogoURL != nil {
		updates["logo_url"] = strings.TrimSpace(*body.LogoURL)
	}
	if body.IsActive != nil {
		updates["is_active"] = *body.IsActive
	}

	res := h.db.WithContext(c.Request.Context()).Model(&models.RadioStation{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		if dbutil.IsUniqueViolation(res.Error) {
			c.JSON(http.StatusConflict, gin.H{"error": "slug already exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	var station models.RadioStation
	if errFind := h.db.WithContext(c.Request.Context()).Where("id = ?", id).First(&station).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, station)
}

// hashStationPIN writes the error response itself and reports false on failure.
func hashStationPIN(c *gin.Context, pin string) (string, bool) {
	hash, errHash := security.HashPIN(pin)
	if errHash != nil {
		if errors.Is(errHash, security.ErrWeakPIN) {
			c.JSON(http.StatusBadRequest, gin.H{"error": errHash.Error()})
			return "", false
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "hash pin failed"})
		return "", false
	}
	return hash, true
}

// Performance returns delivery statistics per station.
func (h *StationHandler) Performance(c *gin.Context) {
	rows, err := h.svc.StationPerformance(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "performance query failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"stations": rows})
}
