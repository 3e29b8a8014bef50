package models

import (
	"time"

	"gorm.io/gorm"
)

// Output statuses.
const (
	OutputStatusPending   = "PENDING"
	OutputStatusDelivered = "DELIVERED"
)

// Output types.
const (
	OutputTypeDraw = "DRAW"
	OutputTypeGift = "GIFT"
)

// Output records a prize awarded to a winner and its pickup state.
type Output struct {
	ID string `gorm:"type:varchar(36);primaryKey" json:"id"`

	PrizeID   string `gorm:"type:varchar(36);not null;index" json:"prizeId"`
	PrizeName string `gorm:"type:text;not null" json:"prizeName"` // Snapshot of the prize name.
	Quantity  int    `gorm:"not null" json:"quantity"`
	Note      string `gorm:"type:text;not null;default:''" json:"note"`
	Type      string `gorm:"type:varchar(16);not null;default:'DRAW'" json:"type"`

	ProgramID   *string `gorm:"type:varchar(36);index" json:"programId,omitempty"`
	ProgramName string  `gorm:"type:text" json:"programName,omitempty"`

	Date           time.Time  `gorm:"not null;index" json:"date"`
	PickupDeadline time.Time  `gorm:"not null;index" json:"pickupDeadline"`
	Status         string     `gorm:"type:varchar(16);not null;default:'PENDING';index" json:"status"`
	DeliveredDate  *time.Time `json:"deliveredDate,omitempty"`
	PickupPhotoURL string     `gorm:"type:text" json:"pickupPhotoUrl,omitempty"`

	WinnerName    string `gorm:"type:text;not null;index" json:"winnerName"`
	WinnerPhone   string `gorm:"type:text;not null;default:''" json:"winnerPhone"`
	WinnerEmail   string `gorm:"type:text" json:"winnerEmail,omitempty"`
	WinnerDoc     string `gorm:"type:text" json:"winnerDoc,omitempty"`
	WinnerAddress string `gorm:"type:text" json:"winnerAddress,omitempty"`

	StationID *string `gorm:"column:radio_station_id;type:varchar(36);index" json:"radio_station_id,omitempty"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// BeforeCreate assigns the UUID primary key.
func (o *Output) BeforeCreate(tx *gorm.DB) error {
	ensureID(&o.ID)
	return nil
}

// IsPending reports whether the prize has not been picked up yet.
func (o *Output) IsPending() bool {
	return o.Status == OutputStatusPending
}
