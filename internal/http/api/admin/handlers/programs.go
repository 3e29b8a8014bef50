package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gilcleber/Controle-Premios-sub000/internal/models"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ProgramHandler manages on-air programs. Listing lives on the shared routes.
type ProgramHandler struct {
	db *gorm.DB
}

// NewProgramHandler constructs a ProgramHandler.
func NewProgramHandler(db *gorm.DB) *ProgramHandler {
	return &ProgramHandler{db: db}
}

type programRequest struct {
	Name      *string `json:"name"`
	Active    *bool   `json:"active"`
	StationID *string `json:"radio_station_id"`
}

// stationExists reports whether id names a station; an empty id means shared.
func (h *ProgramHandler) stationExists(c *gin.Context, id string) (bool, error) {
	if id == "" {
		return true, nil
	}
	var count int64
	if errCount := h.db.WithContext(c.Request.Context()).Model(&models.RadioStation{}).Where("id = ?", id).Count(&count).Error; errCount != nil {
		return false, errCount
	}
	return count > 0, nil
}

// Create adds a program, optionally bound to a station.
func (h *ProgramHandler) Create(c *gin.Context) {
	var body programRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	name := ""
	if body.Name != nil {
		name = strings.TrimSpace(*body.Name)
	}
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing name"})
		return
	}
	program := models.Program{Name: name, Active: true}
	if body.Active != nil {
		program.Active = *body.Active
	}
	if body.StationID != nil {
		if stationID := strings.TrimSpace(*body.StationID); stationID != "" {
			program.StationID = &stationID
		}
	}
	if program.StationID != nil {
		ok, errExists := h.stationExists(c, *program.StationID)
		if errExists != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
			return
		}
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "station not found"})
			return
		}
	}
	if errCreate := h.db.WithContext(c.Request.Context()).Create(&program).Error; errCreate != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create program failed"})
		return
	}
	c.JSON(http.StatusCreated, program)
}

// Update edits a program's name, active flag or station.
func (h *ProgramHandler) Update(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	var body programRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	updates := map[string]any{}
	if body.Name != nil {
		name := strings.TrimSpace(*body.Name)
		if name == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "name cannot be empty"})
			return
		}
		updates["name"] = name
	}
	if body.Active != nil {
		updates["active"] = *body.Active
	}
	if body.StationID != nil {
		stationID := strings.TrimSpace(*body.StationID)
		ok, errExists := h.stationExists(c, stationID)
		if errExists != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
			return
		}
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "station not found"})
			return
		}
		if stationID == "" {
			updates["radio_station_id"] = nil
		} else {
			updates["radio_station_id"] = stationID
		}
	}

	var program models.Program
	if errFind := h.db.WithContext(c.Request.Context()).Where("id = ?", id).First(&program).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	if len(updates) > 0 {
		if errUpdate := h.db.WithContext(c.Request.Context()).Model(&models.Program{}).Where("id = ?", id).Updates(updates).Error; errUpdate != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
			return
		}
		if errFind := h.db.WithContext(c.Request.Context()).Where("id = ?", id).First(&program).Error; errFind != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
			return
		}
	}
	c.JSON(http.StatusOK, program)
}

// Delete removes a program. Outputs keep the program name they were registered with.
func (h *ProgramHandler) Delete(c *gin.Context) {
	res := h.db.WithContext(c.Request.Context()).Where("id = ?", strings.TrimSpace(c.Param("id"))).Delete(&models.Program{})
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.Status(http.StatusNoContent)
}
