package models

import (
	"time"

	"gorm.io/gorm"
)

// RadioStation is a tenant owning prizes, programs and outputs.
type RadioStation struct {
	ID string `gorm:"type:varchar(36);primaryKey" json:"id"`

	Name    string `gorm:"type:text;not null" json:"name"`
	Slug    string `gorm:"type:varchar(120);not null;uniqueIndex" json:"slug"` // Login handle.
	LogoURL string `gorm:"type:text" json:"logo_url,omitempty"`

	AccessPIN string `gorm:"column:access_pin;type:text;not null;default:''" json:"-"` // bcrypt hash of the operator/reception PIN.
	AdminPIN  string `gorm:"column:admin_pin;type:text;not null;default:''" json:"-"`  // bcrypt hash; empty disables station admin login.
	IsActive  bool   `gorm:"not null;default:true;index" json:"is_active"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// BeforeCreate assigns the UUID primary key.
func (s *RadioStation) BeforeCreate(tx *gorm.DB) error {
	ensureID(&s.ID)
	return nil
}

// Program is an on-air show outputs can be attributed to.
type Program struct {
	ID string `gorm:"type:varchar(36);primaryKey" json:"id"`

	Name      string  `gorm:"type:text;not null" json:"name"`
	Active    bool    `gorm:"not null;default:true" json:"active"`
	StationID *string `gorm:"column:radio_station_id;type:varchar(36);index" json:"radio_station_id,omitempty"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}

// BeforeCreate assigns the UUID primary key.
func (p *Program) BeforeCreate(tx *gorm.DB) error {
	ensureID(&p.ID)
	return nil
}
