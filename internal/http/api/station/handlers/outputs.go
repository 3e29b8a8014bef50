package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gilcleber/Controle-Premios-sub000/internal/export"
	"github.com/gilcleber/Controle-Premios-sub000/internal/http/api/permissions"
	"github.com/gilcleber/Controle-Premios-sub000/internal/inventory"
	"github.com/gilcleber/Controle-Premios-sub000/internal/models"
	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// OutputHandler serves winner registration and pickup endpoints.
type OutputHandler struct {
	svc *inventory.Service
	now func() time.Time
}

// NewOutputHandler constructs an OutputHandler.
func NewOutputHandler(svc *inventory.Service) *OutputHandler {
	return &OutputHandler{svc: svc, now: func() time.Time { return time.Now().UTC() }}
}

type registerOutputRequest struct {
	PrizeID       string `json:"prizeId"`
	Quantity      int    `json:"quantity"`
	WinnerName    string `json:"winnerName"`
	WinnerPhone   string `json:"winnerPhone"`
	WinnerEmail   string `json:"winnerEmail"`
	WinnerDoc     string `json:"winnerDoc"`
	WinnerAddress string `json:"winnerAddress"`
	Note          string `json:"note"`
	ProgramID     string `json:"programId"`
	Type          string `json:"type"`
}

type updateOutputRequest struct {
	WinnerName    *string `json:"winnerName"`
	WinnerPhone   *string `json:"winnerPhone"`
	WinnerEmail   *string `json:"winnerEmail"`
	WinnerDoc     *string `json:"winnerDoc"`
	WinnerAddress *string `json:"winnerAddress"`
	Note          *string `json:"note"`
	ProgramID     *string `json:"programId"`
}

func outputFilterFromQuery(c *gin.Context) inventory.OutputFilter {
	filter := inventory.OutputFilter{
		Search:    c.Query("q"),
		Status:    c.Query("status"),
		PrizeID:   c.Query("prize_id"),
		StationID: c.Query("radio_station_id"),
	}
	if late, _ := strconv.ParseBool(c.Query("late")); late {
		filter.LateOnly = true
	}
	if limit, errLimit := strconv.Atoi(c.Query("limit")); errLimit == nil && limit > 0 {
		filter.Limit = limit
	}
	return filter
}

// List returns outputs visible to the session, newest first.
func (h *OutputHandler) List(c *gin.Context) {
	outputs, err := h.svc.ListOutputs(c.Request.Context(), permissions.Scope(c), outputFilterFromQuery(c))
	if err != nil {
		WriteServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"outputs": outputs})
}

// Get returns one output.
func (h *OutputHandler) Get(c *gin.Context) {
	output, err := h.svc.GetOutput(c.Request.Context(), permissions.Scope(c), c.Param("id"))
	if err != nil {
		WriteServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, output)
}

// Register records a winner and debits the prize.
func (h *OutputHandler) Register(c *gin.Context) {
	var body registerOutputRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	output, err := h.svc.RegisterOutput(c.Request.Context(), permissions.Scope(c), inventory.OutputInput{
		PrizeID:       body.PrizeID,
		Quantity:      body.Quantity,
		WinnerName:    body.WinnerName,
		WinnerPhone:   body.WinnerPhone,
		WinnerEmail:   body.WinnerEmail,
		WinnerDoc:     body.WinnerDoc,
		WinnerAddress: body.WinnerAddress,
		Note:          body.Note,
		ProgramID:     body.ProgramID,
		Type:          body.Type,
	})
	if err != nil {
		WriteServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, output)
}

// Update edits winner data on an output.
func (h *OutputHandler) Update(c *gin.Context) {
	var body updateOutputRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	output, err := h.svc.UpdateOutput(c.Request.Context(), permissions.Scope(c), c.Param("id"), inventory.OutputPatch{
		WinnerName:    body.WinnerName,
		WinnerPhone:   body.WinnerPhone,
		WinnerEmail:   body.WinnerEmail,
		WinnerDoc:     body.WinnerDoc,
		WinnerAddress: body.WinnerAddress,
		Note:          body.Note,
		ProgramID:     body.ProgramID,
	})
	if err != nil {
		WriteServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, output)
}

// Confirm marks an output delivered, optionally with a pickup photo URL.
func (h *OutputHandler) Confirm(c *gin.Context) {
	var body struct {
		PickupPhotoURL string `json:"pickupPhotoUrl"`
	}
	if c.Request.ContentLength > 0 {
		if errBind := c.ShouldBindJSON(&body); errBind != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
			return
		}
	}
	output, err := h.svc.ConfirmPickup(c.Request.Context(), permissions.Scope(c), c.Param("id"), body.PickupPhotoURL)
	if err != nil {
		WriteServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, output)
}

// Extend pushes a pending pickup deadline by {"days": n} business days.
func (h *OutputHandler) Extend(c *gin.Context) {
	var body struct {
		Days int `json:"days"`
	}
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	output, err := h.svc.ExtendDeadline(c.Request.Context(), permissions.Scope(c), c.Param("id"), body.Days)
	if err != nil {
		WriteServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, output)
}

// Delete removes an output and returns its quantity to the prize.
func (h *OutputHandler) Delete(c *gin.Context) {
	if err := h.svc.DeleteOutput(c.Request.Context(), permissions.Scope(c), c.Param("id")); err != nil {
		WriteServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Export downloads the filtered outputs as an XLSX workbook.
func (h *OutputHandler) Export(c *gin.Context) {
	views, err := h.svc.ListOutputs(c.Request.Context(), permissions.Scope(c), outputFilterFromQuery(c))
	if err != nil {
		WriteServiceError(c, err)
		return
	}
	outputs := make([]models.Output, 0, len(views))
	for _, v := range views {
		outputs = append(outputs, v.Output)
	}
	now := h.now()
	data, errBook := export.OutputsWorkbook(outputs, now)
	if errBook != nil {
		WriteServiceError(c, errBook)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="saidas_%s.xlsx"`, now.Format("2006-01-02")))
	c.Data(http.StatusOK, xlsxContentType, data)
}

// WinnerHistory lists earlier outputs for a winner name (at least four characters).
func (h *OutputHandler) WinnerHistory(c *gin.Context) {
	name := strings.TrimSpace(c.Query("name"))
	outputs, err := h.svc.WinnerHistory(c.Request.Context(), permissions.Scope(c), name)
	if err != nil {
		WriteServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"outputs": outputs})
}
