package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gilcleber/Controle-Premios-sub000/internal/inventory"
	"github.com/gilcleber/Controle-Premios-sub000/internal/storage"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// WriteServiceError maps inventory and storage errors to an HTTP response.
func WriteServiceError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, inventory.ErrInvalidQuantity),
		errors.Is(err, inventory.ErrMissingWinnerName),
		errors.Is(err, inventory.ErrMissingDestination),
		errors.Is(err, inventory.ErrMissingName),
		errors.Is(err, inventory.ErrInvalidDays),
		errors.Is(err, inventory.ErrInvalidOutputType),
		errors.Is(err, inventory.ErrInvalidPhotoType),
		errors.Is(err, inventory.ErrInvalidBackup),
		errors.Is(err, inventory.ErrInvalidStatus),
		errors.Is(err, storage.ErrEmptyPhoto),
		errors.Is(err, storage.ErrUnsupportedPhotoType):
		status = http.StatusBadRequest
	case errors.Is(err, storage.ErrPhotoTooLarge):
		status = http.StatusRequestEntityTooLarge
	case errors.Is(err, inventory.ErrPrizeNotFound),
		errors.Is(err, inventory.ErrOutputNotFound),
		errors.Is(err, inventory.ErrMasterItemNotFound),
		errors.Is(err, inventory.ErrPhotoNotFound),
		errors.Is(err, inventory.ErrStationNotFound),
		errors.Is(err, inventory.ErrProgramNotFound):
		status = http.StatusNotFound
	case errors.Is(err, inventory.ErrInsufficientStock),
		errors.Is(err, inventory.ErrAlreadyDelivered),
		errors.Is(err, storage.ErrObjectExists):
		status = http.StatusConflict
	case errors.Is(err, inventory.ErrPhotoStoreDisabled):
		status = http.StatusServiceUnavailable
	}
	if status == http.StatusInternalServerError {
		log.WithError(err).WithField("path", c.FullPath()).Error("request failed")
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// ParseTime accepts RFC 3339 timestamps or YYYY-MM-DD dates (midnight UTC).
func ParseTime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// ParseOptionalTime parses raw when it is non-nil and non-blank.
func ParseOptionalTime(raw *string) (*time.Time, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	t, err := ParseTime(*raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
