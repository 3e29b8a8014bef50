package models

import "github.com/google/uuid"

// newID returns a random UUID string used as primary key for domain rows.
func newID() string {
	return uuid.NewString()
}

// ensureID assigns a fresh UUID when id is empty.
func ensureID(id *string) {
	if id != nil && *id == "" {
		*id = newID()
	}
}
