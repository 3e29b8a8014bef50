package handlers

import (
	"net/http"
	"strings"

	"github.com/gilcleber/Controle-Premios-sub000/internal/http/api/permissions"
	"github.com/gilcleber/Controle-Premios-sub000/internal/models"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ProgramHandler lists on-air shows outputs can be attributed to.
type ProgramHandler struct {
	db *gorm.DB
}

// NewProgramHandler constructs a ProgramHandler.
func NewProgramHandler(db *gorm.DB) *ProgramHandler {
	return &ProgramHandler{db: db}
}

// List returns programs of the session's station plus shared ones.
// Station sessions only see active programs.
func (h *ProgramHandler) List(c *gin.Context) {
	q := h.db.WithContext(c.Request.Context()).Model(&models.Program{})
	scope := permissions.Scope(c)
	if !scope.Unrestricted() {
		q = q.Where("(radio_station_id = ? OR radio_station_id IS NULL) AND active = ?", scope.StationID, true)
	} else if stationID := strings.TrimSpace(c.Query("radio_station_id")); stationID != "" {
		q = q.Where("radio_station_id = ? OR radio_station_id IS NULL", stationID)
	}
	var programs []models.Program
	if errFind := q.Order("name ASC").Find(&programs).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list programs failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"programs": programs})
}
