package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	dbutil "github.com/gilcleber/Controle-Premios-sub000/internal/db"
	"github.com/gilcleber/Controle-Premios-sub000/internal/models"
	"github.com/gilcleber/Controle-Premios-sub000/internal/realtime"
	"github.com/gilcleber/Controle-Premios-sub000/internal/settings"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// PrizeInput captures a new inventory record entered by staff.
type PrizeInput struct {
	Name               string
	Description        string
	TotalQuantity      int
	EntryDate          *time.Time
	ValidityDate       *time.Time
	MaxDrawDate        *time.Time
	PickupDeadlineDays *int // Nil selects the configured default.
	IsOnAir            bool // Quick-draw prizes are created already on air.
	StationID          string
	PhotoURL           string
	ScheduledFor       *time.Time
}

// PrizePatch holds the editable fields of a prize; nil fields are left unchanged.
type PrizePatch struct {
	Name               *string
	Description        *string
	TotalQuantity      *int
	ValidityDate       *time.Time
	MaxDrawDate        *time.Time
	PickupDeadlineDays *int
	PhotoURL           *string
}

// PrizeFilter narrows ListPrizes.
type PrizeFilter struct {
	StationID     string
	OnAir         *bool
	Search        string
	AvailableOnly bool
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil || t.IsZero() {
		return nil
	}
	v := t.UTC()
	return &v
}

// CreatePrize stores a new record with available equal to total.
func (s *Service) CreatePrize(ctx context.Context, scope Scope, in PrizeInput) (*models.Prize, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, ErrMissingName
	}
	if in.TotalQuantity < 1 {
		return nil, ErrInvalidQuantity
	}
	pickupDays := settings.PickupDeadlineDays()
	if in.PickupDeadlineDays != nil {
		if *in.PickupDeadlineDays < 0 {
			return nil, ErrInvalidDays
		}
		pickupDays = *in.PickupDeadlineDays
	}
	stationID := strings.TrimSpace(in.StationID)
	if !scope.Unrestricted() {
		stationID = scope.StationID
	}

	now := s.now()
	entry := now
	if in.EntryDate != nil && !in.EntryDate.IsZero() {
		entry = in.EntryDate.UTC()
	}
	prize := models.Prize{
		Name:               name,
		Description:        strings.TrimSpace(in.Description),
		TotalQuantity:      in.TotalQuantity,
		AvailableQuantity:  in.TotalQuantity,
		EntryDate:          entry,
		ValidityDate:       utcPtr(in.ValidityDate),
		MaxDrawDate:        utcPtr(in.MaxDrawDate),
		PickupDeadlineDays: pickupDays,
		IsOnAir:            in.IsOnAir,
		StationID:          strPtr(stationID),
		PhotoURL:           strings.TrimSpace(in.PhotoURL),
		ScheduledFor:       utcPtr(in.ScheduledFor),
	}

	if errTx := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if stationID != "" {
			if errStation := ensureStation(tx, stationID); errStation != nil {
				return errStation
			}
		}
		return tx.Create(&prize).Error
	}); errTx != nil {
		return nil, errTx
	}

	var events pendingEvents
	events.add(realtime.EntityPrizes, realtime.OpInsert, prize.ID, prize)
	s.publish(ctx, events)
	return &prize, nil
}

// UpdatePrize applies patch. Changing the total shifts available by the same delta,
// so units already consumed stay consumed.
func (s *Service) UpdatePrize(ctx context.Context, scope Scope, id string, patch PrizePatch) (*models.Prize, error) {
	var updated *models.Prize
	errTx := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		prize, errFind := findPrizeForUpdate(tx, scope, id)
		if errFind != nil {
			return errFind
		}

		updates := map[string]any{}
		if patch.Name != nil {
			name := strings.TrimSpace(*patch.Name)
			if name == "" {
				return ErrMissingName
			}
			updates["name"] = name
		}
		if patch.Description != nil {
			updates["description"] = strings.TrimSpace(*patch.Description)
		}
		if patch.TotalQuantity != nil {
			newTotal := *patch.TotalQuantity
			newAvailable := prize.AvailableQuantity + (newTotal - prize.TotalQuantity)
			if newTotal < 0 || newAvailable < 0 {
				return ErrInvalidQuantity
			}
			updates["total_quantity"] = newTotal
			updates["available_quantity"] = newAvailable
		}
		if patch.ValidityDate != nil {
			updates["validity_date"] = utcPtr(patch.ValidityDate)
		}
		if patch.MaxDrawDate != nil {
			updates["max_draw_date"] = utcPtr(patch.MaxDrawDate)
		}
		if patch.PickupDeadlineDays != nil {
			if *patch.PickupDeadlineDays < 0 {
				return ErrInvalidDays
			}
			updates["pickup_deadline_days"] = *patch.PickupDeadlineDays
		}
		if patch.PhotoURL != nil {
			updates["photo_url"] = strings.TrimSpace(*patch.PhotoURL)
		}
		if len(updates) > 0 {
			if errUpdate := tx.Model(&models.Prize{}).Where("id = ?", prize.ID).Updates(updates).Error; errUpdate != nil {
				return errUpdate
			}
		}
		reloaded, errReload := reloadPrize(tx, prize.ID)
		if errReload != nil {
			return errReload
		}
		updated = reloaded
		return nil
	})
	if errTx != nil {
		return nil, errTx
	}

	var events pendingEvents
	events.add(realtime.EntityPrizes, realtime.OpUpdate, updated.ID, updated)
	s.publish(ctx, events)
	return updated, nil
}

// DeletePrize removes a record. Units still available in a distributed copy go back
// to its lineage source, either the master ledger row or the originating prize.
func (s *Service) DeletePrize(ctx context.Context, scope Scope, id string) error {
	var events pendingEvents
	errTx := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		prize, errFind := findPrizeForUpdate(tx, scope, id)
		if errFind != nil {
			return errFind
		}

		if root := derefStr(prize.SourceMasterID); root != "" && root != prize.ID && prize.AvailableQuantity > 0 {
			returned, errMaster := creditMaster(tx, root, prize.AvailableQuantity)
			if errMaster != nil {
				return errMaster
			}
			if !returned {
				credited, errCredit := creditPrize(tx, root, prize.AvailableQuantity, false)
				if errCredit != nil {
					return errCredit
				}
				if credited {
					source, errReload := reloadPrize(tx, root)
					if errReload != nil {
						return errReload
					}
					events.add(realtime.EntityPrizes, realtime.OpUpdate, source.ID, source)
				} else {
					log.WithFields(log.Fields{"prize_id": prize.ID, "lineage_root": root}).
						Warn("inventory: lineage source missing, remaining stock dropped")
				}
			}
		}

		if errDelete := tx.Where("id = ?", prize.ID).Delete(&models.Prize{}).Error; errDelete != nil {
			return errDelete
		}
		events.add(realtime.EntityPrizes, realtime.OpDelete, prize.ID, nil)
		return nil
	})
	if errTx != nil {
		return errTx
	}
	s.publish(ctx, events)
	return nil
}

// ToggleOnAir flips the on-air flag, or sets it when onAir is non-nil.
// Putting a prize on air clears any pending schedule.
func (s *Service) ToggleOnAir(ctx context.Context, scope Scope, id string, onAir *bool) (*models.Prize, error) {
	var updated *models.Prize
	errTx := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		prize, errFind := findPrizeForUpdate(tx, scope, id)
		if errFind != nil {
			return errFind
		}
		next := !prize.IsOnAir
		if onAir != nil {
			next = *onAir
		}
		updates := map[string]any{"is_on_air": next}
		if next {
			updates["scheduled_for"] = nil
		}
		if errUpdate := tx.Model(&models.Prize{}).Where("id = ?", prize.ID).Updates(updates).Error; errUpdate != nil {
			return errUpdate
		}
		reloaded, errReload := reloadPrize(tx, prize.ID)
		if errReload != nil {
			return errReload
		}
		updated = reloaded
		return nil
	})
	if errTx != nil {
		return nil, errTx
	}
	var events pendingEvents
	events.add(realtime.EntityPrizes, realtime.OpUpdate, updated.ID, updated)
	s.publish(ctx, events)
	return updated, nil
}

// SchedulePrize sets the time the prize goes on air automatically; nil clears it.
func (s *Service) SchedulePrize(ctx context.Context, scope Scope, id string, at *time.Time) (*models.Prize, error) {
	var updated *models.Prize
	errTx := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		prize, errFind := findPrizeForUpdate(tx, scope, id)
		if errFind != nil {
			return errFind
		}
		if errUpdate := tx.Model(&models.Prize{}).Where("id = ?", prize.ID).
			Update("scheduled_for", utcPtr(at)).Error; errUpdate != nil {
			return errUpdate
		}
		reloaded, errReload := reloadPrize(tx, prize.ID)
		if errReload != nil {
			return errReload
		}
		updated = reloaded
		return nil
	})
	if errTx != nil {
		return nil, errTx
	}
	var events pendingEvents
	events.add(realtime.EntityPrizes, realtime.OpUpdate, updated.ID, updated)
	s.publish(ctx, events)
	return updated, nil
}

// PutScheduledOnAir activates every prize whose schedule is due and returns how many changed.
func (s *Service) PutScheduledOnAir(ctx context.Context) (int, error) {
	now := s.now()
	var due []models.Prize
	if errFind := s.db.WithContext(ctx).
		Where("scheduled_for IS NOT NULL AND scheduled_for <= ? AND is_on_air = ?", now, false).
		Order("scheduled_for ASC").
		Find(&due).Error; errFind != nil {
		return 0, errFind
	}

	var events pendingEvents
	changed := 0
	for _, prize := range due {
		res := s.db.WithContext(ctx).Model(&models.Prize{}).
			Where("id = ? AND is_on_air = ?", prize.ID, false).
			Updates(map[string]any{"is_on_air": true, "scheduled_for": nil})
		if res.Error != nil {
			return changed, fmt.Errorf("put prize %s on air: %w", prize.ID, res.Error)
		}
		if res.RowsAffected == 0 {
			continue
		}
		changed++
		prize.IsOnAir = true
		prize.ScheduledFor = nil
		prize.UpdatedAt = now
		events.add(realtime.EntityPrizes, realtime.OpUpdate, prize.ID, prize)
	}
	s.publish(ctx, events)
	s.metrics.PutOnAir(changed)
	return changed, nil
}

// ListPrizes returns records visible in scope, newest first.
func (s *Service) ListPrizes(ctx context.Context, scope Scope, filter PrizeFilter) ([]models.Prize, error) {
	q := scope.apply(s.db.WithContext(ctx).Model(&models.Prize{}))
	if stationID := strings.TrimSpace(filter.StationID); stationID != "" && scope.Unrestricted() {
		q = q.Where("radio_station_id = ?", stationID)
	}
	if filter.OnAir != nil {
		q = q.Where("is_on_air = ?", *filter.OnAir)
	}
	if filter.AvailableOnly {
		q = q.Where("available_quantity > 0")
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := dbutil.NormalizeLikePattern(s.db, "%"+search+"%")
		q = q.Where(
			s.db.Where(dbutil.CaseInsensitiveLikeExpr(s.db, "name"), pattern).
				Or(dbutil.CaseInsensitiveLikeExpr(s.db, "description"), pattern),
		)
	}
	var prizes []models.Prize
	if errFind := q.Order("created_at DESC").Find(&prizes).Error; errFind != nil {
		return nil, errFind
	}
	return prizes, nil
}

// GetPrize loads one record visible in scope.
func (s *Service) GetPrize(ctx context.Context, scope Scope, id string) (*models.Prize, error) {
	var prize models.Prize
	if errFind := s.db.WithContext(ctx).Where("id = ?", id).First(&prize).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, ErrPrizeNotFound
		}
		return nil, errFind
	}
	if !scope.Allows(prize.StationID) {
		return nil, ErrPrizeNotFound
	}
	return &prize, nil
}
