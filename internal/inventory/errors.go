package inventory

import "errors"

// Validation and state errors returned by Service. Handlers map them with errors.Is.
var (
	ErrInvalidQuantity    = errors.New("quantity out of range")
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrMissingWinnerName  = errors.New("winner name is required")
	ErrMissingDestination = errors.New("destination station is required")
	ErrMissingName        = errors.New("name is required")
	ErrInvalidDays        = errors.New("days must be positive")
	ErrInvalidOutputType  = errors.New("output type must be DRAW or GIFT")
	ErrInvalidPhotoType   = errors.New("photo type must be receipt, product, package or other")
	ErrInvalidBackup      = errors.New("backup has neither prizes nor outputs")
	ErrInvalidStatus      = errors.New("output status must be PENDING or DELIVERED")
	ErrPrizeNotFound      = errors.New("prize not found")
	ErrOutputNotFound     = errors.New("output not found")
	ErrMasterItemNotFound = errors.New("master inventory item not found")
	ErrPhotoNotFound      = errors.New("photo not found")
	ErrStationNotFound    = errors.New("station not found")
	ErrProgramNotFound    = errors.New("program not found")
	ErrAlreadyDelivered   = errors.New("output already delivered")
	ErrPhotoStoreDisabled = errors.New("photo storage is not configured")
)
