package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gilcleber/Controle-Premios-sub000/internal/http/api/permissions"
	"github.com/gilcleber/Controle-Premios-sub000/internal/inventory"
	"github.com/gilcleber/Controle-Premios-sub000/internal/models"
	"github.com/gin-gonic/gin"
)

// PrizeHandler serves prize endpoints for admin and station sessions.
type PrizeHandler struct {
	svc *inventory.Service
}

// NewPrizeHandler constructs a PrizeHandler.
func NewPrizeHandler(svc *inventory.Service) *PrizeHandler {
	return &PrizeHandler{svc: svc}
}

type createPrizeRequest struct {
	Name               string  `json:"name"`
	Description        string  `json:"description"`
	TotalQuantity      int     `json:"totalQuantity"`
	EntryDate          *string `json:"entryDate"`
	ValidityDate       *string `json:"validityDate"`
	MaxDrawDate        *string `json:"maxDrawDate"`
	PickupDeadlineDays *int    `json:"pickupDeadlineDays"`
	IsOnAir            bool    `json:"isOnAir"`
	StationID          string  `json:"radio_station_id"`
	PhotoURL           string  `json:"photoUrl"`
	ScheduledFor       *string `json:"scheduledFor"`
}

type updatePrizeRequest struct {
	Name               *string `json:"name"`
	Description        *string `json:"description"`
	TotalQuantity      *int    `json:"totalQuantity"`
	ValidityDate       *string `json:"validityDate"`
	MaxDrawDate        *string `json:"maxDrawDate"`
	PickupDeadlineDays *int    `json:"pickupDeadlineDays"`
	PhotoURL           *string `json:"photoUrl"`
}

type distributeRequest struct {
	StationID string             `json:"radio_station_id"`
	Split     bool               `json:"split"`
	Quantity  int                `json:"quantity"`
	Combo     []models.ComboItem `json:"comboDetails"`
	Notes     string             `json:"notes"`
}

// List returns prizes visible to the session.
func (h *PrizeHandler) List(c *gin.Context) {
	filter := inventory.PrizeFilter{
		StationID: c.Query("radio_station_id"),
		Search:    c.Query("q"),
	}
	if raw := strings.TrimSpace(c.Query("on_air")); raw != "" {
		onAir, errParse := strconv.ParseBool(raw)
		if errParse != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid on_air"})
			return
		}
		filter.OnAir = &onAir
	}
	if raw := strings.TrimSpace(c.Query("available")); raw != "" {
		available, _ := strconv.ParseBool(raw)
		filter.AvailableOnly = available
	}
	prizes, err := h.svc.ListPrizes(c.Request.Context(), permissions.Scope(c), filter)
	if err != nil {
		WriteServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"prizes": prizes})
}

// Get returns one prize.
func (h *PrizeHandler) Get(c *gin.Context) {
	prize, err := h.svc.GetPrize(c.Request.Context(), permissions.Scope(c), c.Param("id"))
	if err != nil {
		WriteServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, prize)
}

// Create adds a prize; station sessions always create in their own station.
func (h *PrizeHandler) Create(c *gin.Context) {
	var body createPrizeRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	in := inventory.PrizeInput{
		Name:               body.Name,
		Description:        body.Description,
		TotalQuantity:      body.TotalQuantity,
		PickupDeadlineDays: body.PickupDeadlineDays,
		IsOnAir:            body.IsOnAir,
		StationID:          body.StationID,
		PhotoURL:           body.PhotoURL,
	}
	var errDate error
	if in.EntryDate, errDate = ParseOptionalTime(body.EntryDate); errDate != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid entryDate"})
		return
	}
	if in.ValidityDate, errDate = ParseOptionalTime(body.ValidityDate); errDate != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid validityDate"})
		return
	}
	if in.MaxDrawDate, errDate = ParseOptionalTime(body.MaxDrawDate); errDate != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid maxDrawDate"})
		return
	}
	if in.ScheduledFor, errDate = ParseOptionalTime(body.ScheduledFor); errDate != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid scheduledFor"})
		return
	}

	prize, err := h.svc.CreatePrize(c.Request.Context(), permissions.Scope(c), in)
	if err != nil {
		WriteServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, prize)
}

// Update edits a prize.
func (h *PrizeHandler) Update(c *gin.Context) {
	var body updatePrizeRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	patch := inventory.PrizePatch{
		Name:               body.Name,
		Description:        body.Description,
		TotalQuantity:      body.TotalQuantity,
		PickupDeadlineDays: body.PickupDeadlineDays,
		PhotoURL:           body.PhotoURL,
	}
	var errDate error
	if patch.ValidityDate, errDate = ParseOptionalTime(body.ValidityDate); errDate != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid validityDate"})
		return
	}
	if patch.MaxDrawDate, errDate = ParseOptionalTime(body.MaxDrawDate); errDate != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid maxDrawDate"})
		return
	}

	prize, err := h.svc.UpdatePrize(c.Request.Context(), permissions.Scope(c), c.Param("id"), patch)
	if err != nil {
		WriteServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, prize)
}

// Delete removes a prize and returns its remaining stock to the lineage source.
func (h *PrizeHandler) Delete(c *gin.Context) {
	if err := h.svc.DeletePrize(c.Request.Context(), permissions.Scope(c), c.Param("id")); err != nil {
		WriteServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ToggleOnAir flips the on-air flag, or sets it from {"isOnAir": bool}.
func (h *PrizeHandler) ToggleOnAir(c *gin.Context) {
	var body struct {
		IsOnAir *bool `json:"isOnAir"`
	}
	if c.Request.ContentLength > 0 {
		if errBind := c.ShouldBindJSON(&body); errBind != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
			return
		}
	}
	prize, err := h.svc.ToggleOnAir(c.Request.Context(), permissions.Scope(c), c.Param("id"), body.IsOnAir)
	if err != nil {
		WriteServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, prize)
}

// Schedule sets or clears the automatic on-air time.
func (h *PrizeHandler) Schedule(c *gin.Context) {
	var body struct {
		ScheduledFor *string `json:"scheduledFor"`
	}
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	at, errDate := ParseOptionalTime(body.ScheduledFor)
	if errDate != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid scheduledFor"})
		return
	}
	prize, err := h.svc.SchedulePrize(c.Request.Context(), permissions.Scope(c), c.Param("id"), at)
	if err != nil {
		WriteServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, prize)
}

// Distribute moves units of a prize to another station or splits them locally.
func (h *PrizeHandler) Distribute(c *gin.Context) {
	var body distributeRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	result, err := h.svc.Distribute(c.Request.Context(), permissions.Scope(c), inventory.DistributeInput{
		SourceID:      c.Param("id"),
		StationID:     body.StationID,
		Split:         body.Split,
		Quantity:      body.Quantity,
		Combo:         body.Combo,
		DistributedBy: permissions.Actor(c),
		Notes:         body.Notes,
	})
	if err != nil {
		WriteServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Script renders the announcer script for a prize.
func (h *PrizeHandler) Script(c *gin.Context) {
	script, err := h.svc.OnAirScript(c.Request.Context(), permissions.Scope(c), c.Param("id"))
	if err != nil {
		WriteServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"script": script})
}
