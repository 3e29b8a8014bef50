package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ComboItem is a secondary prize bundled into a distributed prize.
type ComboItem struct {
	PrizeID  string `json:"prizeId"`
	Quantity int    `json:"quantity"`
}

// Prize is an inventory record for one prize type, optionally scoped to a station.
type Prize struct {
	ID string `gorm:"type:varchar(36);primaryKey" json:"id"` // Primary key (UUID).

	Name        string `gorm:"type:text;not null" json:"name"`                // Display name.
	Description string `gorm:"type:text;not null;default:''" json:"description"` // Free-form details.

	TotalQuantity     int `gorm:"not null;default:0" json:"totalQuantity"`     // Units ever assigned to this record.
	AvailableQuantity int `gorm:"not null;default:0" json:"availableQuantity"` // Units still in stock.

	EntryDate          time.Time  `gorm:"not null" json:"entryDate"`                  // Date the stock was received.
	ValidityDate       *time.Time `json:"validityDate,omitempty"`                     // Product expiry.
	MaxDrawDate        *time.Time `gorm:"index" json:"maxDrawDate,omitempty"`          // Latest date the prize may be drawn.
	PickupDeadlineDays int        `gorm:"not null;default:3" json:"pickupDeadlineDays"` // Business days a winner has to pick up.

	IsOnAir      bool       `gorm:"not null;default:false;index" json:"isOnAir"` // Visible to announcers.
	ScheduledFor *time.Time `gorm:"index" json:"scheduledFor,omitempty"`         // Put on air automatically at this time.

	StationID      *string `gorm:"column:radio_station_id;type:varchar(36);index" json:"radio_station_id,omitempty"` // Owning station.
	SourceMasterID *string `gorm:"type:varchar(36);index" json:"source_master_id,omitempty"`                        // Lineage root.

	ComboDetails datatypes.JSONSlice[ComboItem] `json:"comboDetails,omitempty"` // Bundled secondary items.
	PhotoURL     string                         `gorm:"type:text" json:"photoUrl,omitempty"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// BeforeCreate assigns the UUID primary key.
func (p *Prize) BeforeCreate(tx *gorm.DB) error {
	ensureID(&p.ID)
	return nil
}

// LineageRoot returns the id distributions from this record are linked to.
func (p *Prize) LineageRoot() string {
	if p.SourceMasterID != nil && *p.SourceMasterID != "" {
		return *p.SourceMasterID
	}
	return p.ID
}
