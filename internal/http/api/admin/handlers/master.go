package handlers

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gilcleber/Controle-Premios-sub000/internal/http/api/permissions"
	stationhandlers "github.com/gilcleber/Controle-Premios-sub000/internal/http/api/station/handlers"
	"github.com/gilcleber/Controle-Premios-sub000/internal/inventory"
	"github.com/gilcleber/Controle-Premios-sub000/internal/models"
	"github.com/gilcleber/Controle-Premios-sub000/internal/storage"
	"github.com/gin-gonic/gin"
)

// MasterHandler serves the supplier ledger, its audit photos and distribution history.
type MasterHandler struct {
	svc *inventory.Service
}

// NewMasterHandler constructs a MasterHandler.
func NewMasterHandler(svc *inventory.Service) *MasterHandler {
	return &MasterHandler{svc: svc}
}

type createMasterRequest struct {
	ItemName      string  `json:"item_name"`
	Description   string  `json:"description"`
	Category      string  `json:"category"`
	Supplier      string  `json:"supplier"`
	TotalQuantity int     `json:"total_quantity"`
	ReceiptDate   *string `json:"receipt_date"`
	ValidityDate  *string `json:"validity_date"`
	Notes         string  `json:"notes"`
}

type updateMasterRequest struct {
	ItemName      *string `json:"item_name"`
	Description   *string `json:"description"`
	Category      *string `json:"category"`
	Supplier      *string `json:"supplier"`
	TotalQuantity *int    `json:"total_quantity"`
	ReceiptDate   *string `json:"receipt_date"`
	ValidityDate  *string `json:"validity_date"`
	Notes         *string `json:"notes"`
}

type distributeMasterRequest struct {
	StationID string             `json:"radio_station_id"`
	Quantity  int                `json:"quantity"`
	Combo     []models.ComboItem `json:"comboDetails"`
	Notes     string             `json:"notes"`
}

// List returns ledger rows filtered by q, category and available=true.
func (h *MasterHandler) List(c *gin.Context) {
	availableOnly, _ := strconv.ParseBool(c.Query("available"))
	items, err := h.svc.ListMasterItems(c.Request.Context(), inventory.MasterFilter{
		Search:        c.Query("q"),
		Category:      c.Query("category"),
		AvailableOnly: availableOnly,
	})
	if err != nil {
		stationhandlers.WriteServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// Get returns one ledger row with photos.
func (h *MasterHandler) Get(c *gin.Context) {
	item, err := h.svc.GetMasterItem(c.Request.Context(), c.Param("id"))
	if err != nil {
		stationhandlers.WriteServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// Create records a supplier delivery.
func (h *MasterHandler) Create(c *gin.Context) {
	var body createMasterRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	receipt, errReceipt := stationhandlers.ParseOptionalTime(body.ReceiptDate)
	if errReceipt != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid receipt_date"})
		return
	}
	validity, errValidity := stationhandlers.ParseOptionalTime(body.ValidityDate)
	if errValidity != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid validity_date"})
		return
	}
	item, err := h.svc.CreateMasterItem(c.Request.Context(), inventory.MasterItemInput{
		ItemName:      body.ItemName,
		Description:   body.Description,
		Category:      body.Category,
		Supplier:      body.Supplier,
		TotalQuantity: body.TotalQuantity,
		ReceiptDate:   receipt,
		ValidityDate:  validity,
		Notes:         body.Notes,
	})
	if err != nil {
		stationhandlers.WriteServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

// Update edits a ledger row; changing total shifts available by the same amount.
func (h *MasterHandler) Update(c *gin.Context) {
	var body updateMasterRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	receipt, errReceipt := stationhandlers.ParseOptionalTime(body.ReceiptDate)
	if errReceipt != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid receipt_date"})
		return
	}
	validity, errValidity := stationhandlers.ParseOptionalTime(body.ValidityDate)
	if errValidity != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid validity_date"})
		return
	}
	item, err := h.svc.UpdateMasterItem(c.Request.Context(), c.Param("id"), inventory.MasterItemPatch{
		ItemName:      body.ItemName,
		Description:   body.Description,
		Category:      body.Category,
		Supplier:      body.Supplier,
		TotalQuantity: body.TotalQuantity,
		ReceiptDate:   receipt,
		ValidityDate:  validity,
		Notes:         body.Notes,
	})
	if err != nil {
		stationhandlers.WriteServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// Delete removes a ledger row and its photos.
func (h *MasterHandler) Delete(c *gin.Context) {
	if err := h.svc.DeleteMasterItem(c.Request.Context(), c.Param("id")); err != nil {
		stationhandlers.WriteServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Distribute transfers ledger units into a station's prize inventory.
func (h *MasterHandler) Distribute(c *gin.Context) {
	var body distributeMasterRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	result, err := h.svc.DistributeFromMaster(c.Request.Context(), inventory.MasterDistributeInput{
		MasterID:      c.Param("id"),
		StationID:     body.StationID,
		Quantity:      body.Quantity,
		Combo:         body.Combo,
		DistributedBy: permissions.Actor(c),
		Notes:         body.Notes,
	})
	if err != nil {
		stationhandlers.WriteServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// UploadPhoto accepts a multipart "photo" file and an optional "photo_type" field.
func (h *MasterHandler) UploadPhoto(c *gin.Context) {
	fileHeader, errFile := c.FormFile("photo")
	if errFile != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing photo"})
		return
	}
	if fileHeader.Size > storage.MaxPhotoBytes {
		stationhandlers.WriteServiceError(c, storage.ErrPhotoTooLarge)
		return
	}
	file, errOpen := fileHeader.Open()
	if errOpen != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "read photo failed"})
		return
	}
	defer func() {
		_ = file.Close()
	}()
	data, errRead := io.ReadAll(io.LimitReader(file, storage.MaxPhotoBytes+1))
	if errRead != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "read photo failed"})
		return
	}
	if len(data) > storage.MaxPhotoBytes {
		stationhandlers.WriteServiceError(c, storage.ErrPhotoTooLarge)
		return
	}

	photo, err := h.svc.AddMasterPhoto(c.Request.Context(), c.Param("id"), strings.TrimSpace(c.PostForm("photo_type")), data, permissions.Actor(c))
	if err != nil {
		stationhandlers.WriteServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, photo)
}

// DeletePhoto removes one audit photo.
func (h *MasterHandler) DeletePhoto(c *gin.Context) {
	if err := h.svc.DeleteMasterPhoto(c.Request.Context(), c.Param("id"), c.Param("photo_id")); err != nil {
		stationhandlers.WriteServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// History lists distribution records filtered by master_id, radio_station_id and prize_id.
func (h *MasterHandler) History(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "200"))
	rows, err := h.svc.ListDistributionHistory(c.Request.Context(), inventory.HistoryFilter{
		MasterID:  c.Query("master_id"),
		StationID: c.Query("radio_station_id"),
		PrizeID:   c.Query("prize_id"),
		Limit:     limit,
	})
	if err != nil {
		stationhandlers.WriteServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": rows})
}
