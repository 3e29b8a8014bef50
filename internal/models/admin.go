package models

import (
	"time"

	"gorm.io/datatypes"
)

// Admin represents a master administrator account stored in the database.
type Admin struct {
	ID uint64 `gorm:"primaryKey;autoIncrement" json:"id"` // Primary key.

	Username string `gorm:"type:text;not null;uniqueIndex" json:"username"` // Unique login name.
	Password string `gorm:"type:text;not null" json:"-"`                    // Hashed password.

	Active bool `gorm:"not null;default:true" json:"active"` // Whether the admin can sign in.

	IsSuperAdmin bool `gorm:"not null;default:false" json:"is_super_admin"` // Grants all capabilities when true.

	Capabilities datatypes.JSON `gorm:"type:jsonb;not null;default:'[]'" json:"capabilities"` // Capability keys in JSON.

	TOTPSecret string `gorm:"type:text" json:"-"` // TOTP secret for MFA.

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"` // Last update timestamp.
}
