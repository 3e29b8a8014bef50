package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Photo types accepted for master inventory audit photos.
const (
	PhotoTypeReceipt = "receipt"
	PhotoTypeProduct = "product"
	PhotoTypePackage = "package"
	PhotoTypeOther   = "other"
)

// MasterInventory is the "received from supplier" ledger row.
type MasterInventory struct {
	ID string `gorm:"type:varchar(36);primaryKey" json:"id"`

	ItemName    string `gorm:"type:text;not null" json:"item_name"`
	Description string `gorm:"type:text" json:"description,omitempty"`
	Category    string `gorm:"type:text;index" json:"category,omitempty"`
	Supplier    string `gorm:"type:text" json:"supplier,omitempty"`

	TotalQuantity     int `gorm:"not null;default:0" json:"total_quantity"`
	AvailableQuantity int `gorm:"not null;default:0" json:"available_quantity"`

	ReceiptDate  time.Time  `gorm:"not null" json:"receipt_date"`
	ValidityDate *time.Time `json:"validity_date,omitempty"`
	Notes        string     `gorm:"type:text" json:"notes,omitempty"`

	Photos []MasterInventoryPhoto `gorm:"foreignKey:MasterInventoryID;constraint:OnDelete:CASCADE" json:"photos,omitempty"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// TableName overrides the default table name.
func (MasterInventory) TableName() string {
	return "master_inventory"
}

// BeforeCreate assigns the UUID primary key.
func (m *MasterInventory) BeforeCreate(tx *gorm.DB) error {
	ensureID(&m.ID)
	return nil
}

// MasterInventoryPhoto is an audit photo attached to a ledger row.
type MasterInventoryPhoto struct {
	ID string `gorm:"type:varchar(36);primaryKey" json:"id"`

	MasterInventoryID string `gorm:"type:varchar(36);not null;index" json:"master_inventory_id"`
	PhotoURL          string `gorm:"type:text;not null" json:"photo_url"`
	ObjectName        string `gorm:"type:text;not null" json:"-"` // Key in the photo store.
	PhotoType         string `gorm:"type:varchar(16);not null;default:'other'" json:"photo_type"`
	UploadedBy        string `gorm:"type:text" json:"uploaded_by,omitempty"`

	UploadedAt time.Time `gorm:"not null;index" json:"uploaded_at"`
}

// TableName overrides the default table name.
func (MasterInventoryPhoto) TableName() string {
	return "master_inventory_photos"
}

// BeforeCreate assigns the UUID primary key.
func (p *MasterInventoryPhoto) BeforeCreate(tx *gorm.DB) error {
	ensureID(&p.ID)
	return nil
}

// Distribution source kinds.
const (
	DistributionSourcePrize  = "prize"
	DistributionSourceMaster = "master"
)

// DistributionHistory records one quantity transfer.
type DistributionHistory struct {
	ID string `gorm:"type:varchar(36);primaryKey" json:"id"`

	SourceKind        string  `gorm:"type:varchar(16);not null" json:"source_kind"`
	MasterInventoryID *string `gorm:"type:varchar(36);index" json:"master_inventory_id,omitempty"`
	SourcePrizeID     *string `gorm:"type:varchar(36);index" json:"source_prize_id,omitempty"`
	RadioStationID    *string `gorm:"type:varchar(36);index" json:"radio_station_id,omitempty"`
	PrizeID           string  `gorm:"type:varchar(36);not null;index" json:"prize_id"` // Destination record.

	QuantityDistributed int                            `gorm:"not null" json:"quantity_distributed"`
	ComboDetails        datatypes.JSONSlice[ComboItem] `json:"combo_details,omitempty"`
	DistributedBy       string                         `gorm:"type:text" json:"distributed_by,omitempty"`
	Notes               string                         `gorm:"type:text" json:"notes,omitempty"`

	DistributedAt time.Time `gorm:"not null;index" json:"distributed_at"`
}

// TableName overrides the default table name.
func (DistributionHistory) TableName() string {
	return "distribution_history"
}

// BeforeCreate assigns the UUID primary key.
func (d *DistributionHistory) BeforeCreate(tx *gorm.DB) error {
	ensureID(&d.ID)
	return nil
}
