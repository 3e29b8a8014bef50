package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gilcleber/Controle-Premios-sub000/internal/settings"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// SettingsHandler reads and writes DB-backed settings.
type SettingsHandler struct {
	db *gorm.DB
}

// NewSettingsHandler constructs a SettingsHandler.
func NewSettingsHandler(db *gorm.DB) *SettingsHandler {
	return &SettingsHandler{db: db}
}

// List returns the value in force for every known setting.
func (h *SettingsHandler) List(c *gin.Context) {
	effective := settings.Effective()
	out := make([]gin.H, 0, len(settings.Keys))
	for _, key := range settings.Keys {
		_, stored := settings.Raw(key)
		out = append(out, gin.H{"key": key, "value": effective[key], "overridden": stored})
	}
	c.JSON(http.StatusOK, gin.H{"settings": out, "updated_at": settings.UpdatedAt()})
}

type updateSettingRequest struct {
	Value json.RawMessage `json:"value"`
}

// Update stores one setting and refreshes the in-memory snapshot.
func (h *SettingsHandler) Update(c *gin.Context) {
	key := strings.ToUpper(strings.TrimSpace(c.Param("key")))
	var body updateSettingRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil || len(body.Value) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	value, errDecode := settings.DecodeValue(key, body.Value)
	if errDecode != nil {
		if errors.Is(errDecode, settings.ErrUnknownKey) {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown setting"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": errDecode.Error()})
		return
	}
	if errUpsert := settings.Upsert(c.Request.Context(), h.db, key, value); errUpsert != nil {
		log.WithError(errUpsert).WithField("key", key).Error("settings: upsert failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"key": key, "value": value})
}
