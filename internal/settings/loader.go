package settings

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/gilcleber/Controle-Premios-sub000/internal/models"
	"gorm.io/gorm"
)

// Refresh reloads the settings table into the cache. Call it at startup;
// Upsert calls it after every write.
func Refresh(ctx context.Context, db *gorm.DB) error {
	if db == nil {
		return errors.New("settings: nil db")
	}
	var rows []models.Setting
	if errFind := db.WithContext(ctx).Find(&rows).Error; errFind != nil {
		return errFind
	}

	var newest time.Time
	values := make(map[string]json.RawMessage, len(rows))
	for _, row := range rows {
		values[row.Key] = row.Value
		if row.UpdatedAt.After(newest) {
			newest = row.UpdatedAt
		}
	}
	Replace(newest, values)
	return nil
}

// Upsert stores value as JSON under key and refreshes the cache.
func Upsert(ctx context.Context, db *gorm.DB, key string, value any) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("settings: empty key")
	}
	raw, errMarshal := json.Marshal(value)
	if errMarshal != nil {
		return errMarshal
	}
	if errSave := db.WithContext(ctx).Save(&models.Setting{Key: key, Value: raw, UpdatedAt: time.Now().UTC()}).Error; errSave != nil {
		return errSave
	}
	return Refresh(ctx, db)
}
