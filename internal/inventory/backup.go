package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/gilcleber/Controle-Premios-sub000/internal/models"
	"github.com/gilcleber/Controle-Premios-sub000/internal/realtime"
	"gorm.io/gorm"
)

// Backup is the downloadable snapshot of prizes and outputs.
type Backup struct {
	Prizes     []models.Prize  `json:"prizes"`
	Outputs    []models.Output `json:"outputs"`
	BackupDate time.Time       `json:"backupDate"`
}

// ExportBackup reads every prize and output visible in scope.
func (s *Service) ExportBackup(ctx context.Context, scope Scope) (*Backup, error) {
	backup := &Backup{Prizes: []models.Prize{}, Outputs: []models.Output{}, BackupDate: s.now()}
	if errFind := scope.apply(s.db.WithContext(ctx).Model(&models.Prize{})).Order("created_at ASC").Find(&backup.Prizes).Error; errFind != nil {
		return nil, errFind
	}
	if errFind := scope.apply(s.db.WithContext(ctx).Model(&models.Output{})).Order("date ASC").Find(&backup.Outputs).Error; errFind != nil {
		return nil, errFind
	}
	return backup, nil
}

// RestoreBackup replaces all prizes and outputs with the backup contents in one transaction.
// A backup missing both lists is rejected; a missing list restores as empty.
func (s *Service) RestoreBackup(ctx context.Context, backup *Backup) error {
	if backup == nil || (backup.Prizes == nil && backup.Outputs == nil) {
		return ErrInvalidBackup
	}
	for _, p := range backup.Prizes {
		if p.AvailableQuantity < 0 || p.AvailableQuantity > p.TotalQuantity {
			return ErrInvalidQuantity
		}
	}
	for i := range backup.Outputs {
		switch backup.Outputs[i].Status {
		case "":
			backup.Outputs[i].Status = models.OutputStatusPending
		case models.OutputStatusPending, models.OutputStatusDelivered:
		default:
			return fmt.Errorf("%w: output %s has %q", ErrInvalidStatus, backup.Outputs[i].ID, backup.Outputs[i].Status)
		}
	}

	var before []models.Prize
	var beforeOutputs []models.Output
	errTx := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if errFind := tx.Select("id").Find(&before).Error; errFind != nil {
			return errFind
		}
		if errFind := tx.Select("id").Find(&beforeOutputs).Error; errFind != nil {
			return errFind
		}
		if errDelete := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.Output{}).Error; errDelete != nil {
			return errDelete
		}
		if errDelete := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.Prize{}).Error; errDelete != nil {
			return errDelete
		}
		if len(backup.Prizes) > 0 {
			if errCreate := tx.CreateInBatches(&backup.Prizes, 200).Error; errCreate != nil {
				return errCreate
			}
		}
		if len(backup.Outputs) > 0 {
			if errCreate := tx.CreateInBatches(&backup.Outputs, 200).Error; errCreate != nil {
				return errCreate
			}
		}
		return nil
	})
	if errTx != nil {
		return errTx
	}

	var events pendingEvents
	for _, p := range before {
		events.add(realtime.EntityPrizes, realtime.OpDelete, p.ID, nil)
	}
	for _, o := range beforeOutputs {
		events.add(realtime.EntityOutputs, realtime.OpDelete, o.ID, nil)
	}
	for _, p := range backup.Prizes {
		events.add(realtime.EntityPrizes, realtime.OpInsert, p.ID, p)
	}
	for _, o := range backup.Outputs {
		events.add(realtime.EntityOutputs, realtime.OpInsert, o.ID, o)
	}
	s.publish(ctx, events)
	return nil
}
