package inventory

import (
	"errors"

	"github.com/gilcleber/Controle-Premios-sub000/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// debitPrize subtracts q from a prize only while enough stock remains.
func debitPrize(tx *gorm.DB, id string, q int) error {
	res := tx.Model(&models.Prize{}).
		Where("id = ? AND available_quantity >= ?", id, q).
		Update("available_quantity", gorm.Expr("available_quantity - ?", q))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrInsufficientStock
	}
	return nil
}

// creditPrize returns q units to a prize; growTotal also raises its total.
func creditPrize(tx *gorm.DB, id string, q int, growTotal bool) (bool, error) {
	updates := map[string]any{"available_quantity": gorm.Expr("available_quantity + ?", q)}
	if growTotal {
		updates["total_quantity"] = gorm.Expr("total_quantity + ?", q)
	}
	res := tx.Model(&models.Prize{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// debitMaster subtracts q from a ledger row only while enough stock remains.
func debitMaster(tx *gorm.DB, id string, q int) error {
	res := tx.Model(&models.MasterInventory{}).
		Where("id = ? AND available_quantity >= ?", id, q).
		Update("available_quantity", gorm.Expr("available_quantity - ?", q))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrInsufficientStock
	}
	return nil
}

// creditMaster returns q units to a ledger row without exceeding its total.
func creditMaster(tx *gorm.DB, id string, q int) (bool, error) {
	res := tx.Model(&models.MasterInventory{}).
		Where("id = ? AND available_quantity + ? <= total_quantity", id, q).
		Update("available_quantity", gorm.Expr("available_quantity + ?", q))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func findPrizeForUpdate(tx *gorm.DB, scope Scope, id string) (*models.Prize, error) {
	var prize models.Prize
	if errFind := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(&prize).Error; errFind != nil {
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

func findOutputForUpdate(tx *gorm.DB, scope Scope, id string) (*models.Output, error) {
	var output models.Output
	if errFind := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(&output).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, ErrOutputNotFound
		}
		return nil, errFind
	}
	if !scope.Allows(output.StationID) {
		return nil, ErrOutputNotFound
	}
	return &output, nil
}

func reloadPrize(tx *gorm.DB, id string) (*models.Prize, error) {
	var prize models.Prize
	if errFind := tx.Where("id = ?", id).First(&prize).Error; errFind != nil {
		return nil, errFind
	}
	return &prize, nil
}

func ensureStation(tx *gorm.DB, stationID string) error {
	var count int64
	if errCount := tx.Model(&models.RadioStation{}).Where("id = ?", stationID).Count(&count).Error; errCount != nil {
		return errCount
	}
	if count == 0 {
		return ErrStationNotFound
	}
	return nil
}
