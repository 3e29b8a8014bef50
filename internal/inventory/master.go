package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	dbutil "github.com/gilcleber/Controle-Premios-sub000/internal/db"
	"github.com/gilcleber/Controle-Premios-sub000/internal/models"
	"github.com/gilcleber/Controle-Premios-sub000/internal/storage"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// MasterItemInput captures stock received from a supplier.
type MasterItemInput struct {
	ItemName      string
	Description   string
	Category      string
	Supplier      string
	TotalQuantity int
	ReceiptDate   *time.Time
	ValidityDate  *time.Time
	Notes         string
}

// MasterItemPatch holds editable ledger fields; nil fields are left unchanged.
type MasterItemPatch struct {
	ItemName      *string
	Description   *string
	Category      *string
	Supplier      *string
	TotalQuantity *int
	ReceiptDate   *time.Time
	ValidityDate  *time.Time
	Notes         *string
}

// MasterFilter narrows ListMasterItems.
type MasterFilter struct {
	Search        string
	Category      string
	AvailableOnly bool
}

// HistoryFilter narrows ListDistributionHistory.
type HistoryFilter struct {
	MasterID  string
	StationID string
	PrizeID   string
	Limit     int
}

// CreateMasterItem records a supplier delivery with available equal to total.
func (s *Service) CreateMasterItem(ctx context.Context, in MasterItemInput) (*models.MasterInventory, error) {
	name := strings.TrimSpace(in.ItemName)
	if name == "" {
		return nil, ErrMissingName
	}
	if in.TotalQuantity < 1 {
		return nil, ErrInvalidQuantity
	}
	receipt := s.now()
	if in.ReceiptDate != nil && !in.ReceiptDate.IsZero() {
		receipt = in.ReceiptDate.UTC()
	}
	item := models.MasterInventory{
		ItemName:          name,
		Description:       strings.TrimSpace(in.Description),
		Category:          strings.TrimSpace(in.Category),
		Supplier:          strings.TrimSpace(in.Supplier),
		TotalQuantity:     in.TotalQuantity,
		AvailableQuantity: in.TotalQuantity,
		ReceiptDate:       receipt,
		ValidityDate:      utcPtr(in.ValidityDate),
		Notes:             strings.TrimSpace(in.Notes),
	}
	if errCreate := s.db.WithContext(ctx).Create(&item).Error; errCreate != nil {
		return nil, errCreate
	}
	return &item, nil
}

// UpdateMasterItem applies patch; a total change shifts available by the same delta.
func (s *Service) UpdateMasterItem(ctx context.Context, id string, patch MasterItemPatch) (*models.MasterInventory, error) {
	var item models.MasterInventory
	errTx := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		found, errFind := findMasterItem(tx, id)
		if errFind != nil {
			return errFind
		}
		updates := map[string]any{}
		if patch.ItemName != nil {
			name := strings.TrimSpace(*patch.ItemName)
			if name == "" {
				return ErrMissingName
			}
			updates["item_name"] = name
		}
		for column, v := range map[string]*string{
			"description": patch.Description,
			"category":    patch.Category,
			"supplier":    patch.Supplier,
			"notes":       patch.Notes,
		} {
			if v != nil {
				updates[column] = strings.TrimSpace(*v)
			}
		}
		if patch.TotalQuantity != nil {
			newTotal := *patch.TotalQuantity
			newAvailable := found.AvailableQuantity + (newTotal - found.TotalQuantity)
			if newTotal < 0 || newAvailable < 0 {
				return ErrInvalidQuantity
			}
			updates["total_quantity"] = newTotal
			updates["available_quantity"] = newAvailable
		}
		if patch.ReceiptDate != nil && !patch.ReceiptDate.IsZero() {
			updates["receipt_date"] = patch.ReceiptDate.UTC()
		}
		if patch.ValidityDate != nil {
			updates["validity_date"] = utcPtr(patch.ValidityDate)
		}
		if len(updates) > 0 {
			if errUpdate := tx.Model(&models.MasterInventory{}).Where("id = ?", found.ID).Updates(updates).Error; errUpdate != nil {
				return errUpdate
			}
		}
		return tx.Preload("Photos").Where("id = ?", found.ID).First(&item).Error
	})
	if errTx != nil {
		return nil, errTx
	}
	return &item, nil
}

// ListMasterItems returns ledger rows with their photos, newest receipt first.
func (s *Service) ListMasterItems(ctx context.Context, filter MasterFilter) ([]models.MasterInventory, error) {
	q := s.db.WithContext(ctx).Model(&models.MasterInventory{}).Preload("Photos")
	if category := strings.TrimSpace(filter.Category); category != "" {
		q = q.Where("category = ?", category)
	}
	if filter.AvailableOnly {
		q = q.Where("available_quantity > 0")
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := dbutil.NormalizeLikePattern(s.db, "%"+search+"%")
		q = q.Where(
			s.db.Where(dbutil.CaseInsensitiveLikeExpr(s.db, "item_name"), pattern).
				Or(dbutil.CaseInsensitiveLikeExpr(s.db, "supplier"), pattern).
				Or(dbutil.CaseInsensitiveLikeExpr(s.db, "category"), pattern),
		)
	}
	var items []models.MasterInventory
	if errFind := q.Order("receipt_date DESC").Find(&items).Error; errFind != nil {
		return nil, errFind
	}
	return items, nil
}

// GetMasterItem loads one ledger row with its photos.
func (s *Service) GetMasterItem(ctx context.Context, id string) (*models.MasterInventory, error) {
	var item models.MasterInventory
	if errFind := s.db.WithContext(ctx).Preload("Photos").Where("id = ?", id).First(&item).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, ErrMasterItemNotFound
		}
		return nil, errFind
	}
	return &item, nil
}

// DeleteMasterItem removes a ledger row and its photos. Station copies keep their lineage id.
func (s *Service) DeleteMasterItem(ctx context.Context, id string) error {
	var photos []models.MasterInventoryPhoto
	errTx := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		found, errFind := findMasterItem(tx, id)
		if errFind != nil {
			return errFind
		}
		if errPhotos := tx.Where("master_inventory_id = ?", found.ID).Find(&photos).Error; errPhotos != nil {
			return errPhotos
		}
		if errDelete := tx.Where("master_inventory_id = ?", found.ID).Delete(&models.MasterInventoryPhoto{}).Error; errDelete != nil {
			return errDelete
		}
		return tx.Where("id = ?", found.ID).Delete(&models.MasterInventory{}).Error
	})
	if errTx != nil {
		return errTx
	}
	if s.photos != nil {
		for _, photo := range photos {
			if errDelete := s.photos.Delete(ctx, photo.ObjectName); errDelete != nil {
				log.WithError(errDelete).WithField("object", photo.ObjectName).Warn("inventory: orphaned photo object")
			}
		}
	}
	return nil
}

// AddMasterPhoto uploads an audit photo and records it. When the row cannot be
// written the uploaded object is removed again.
func (s *Service) AddMasterPhoto(ctx context.Context, masterID, photoType string, data []byte, uploadedBy string) (*models.MasterInventoryPhoto, error) {
	if s.photos == nil {
		return nil, ErrPhotoStoreDisabled
	}
	photoType = strings.ToLower(strings.TrimSpace(photoType))
	switch photoType {
	case models.PhotoTypeReceipt, models.PhotoTypeProduct, models.PhotoTypePackage, models.PhotoTypeOther:
	case "":
		photoType = models.PhotoTypeOther
	default:
		return nil, ErrInvalidPhotoType
	}
	ext, contentType, errValidate := storage.ValidatePhoto(data)
	if errValidate != nil {
		return nil, errValidate
	}
	item, errFind := findMasterItem(s.db.WithContext(ctx), masterID)
	if errFind != nil {
		return nil, errFind
	}

	now := s.now()
	name, errName := storage.ObjectName(item.ID, photoType, ext, now)
	if errName != nil {
		return nil, errName
	}
	if errPut := s.photos.Put(ctx, name, data, contentType); errPut != nil {
		return nil, fmt.Errorf("upload photo: %w", errPut)
	}

	photo := models.MasterInventoryPhoto{
		MasterInventoryID: item.ID,
		PhotoURL:          s.photos.PublicURL(name),
		ObjectName:        name,
		PhotoType:         photoType,
		UploadedBy:        strings.TrimSpace(uploadedBy),
		UploadedAt:        now,
	}
	if errCreate := s.db.WithContext(ctx).Create(&photo).Error; errCreate != nil {
		if errDelete := s.photos.Delete(context.WithoutCancel(ctx), name); errDelete != nil {
			log.WithError(errDelete).WithField("object", name).Warn("inventory: rollback photo upload")
		}
		return nil, errCreate
	}
	return &photo, nil
}

// DeleteMasterPhoto removes one audit photo row and its object.
func (s *Service) DeleteMasterPhoto(ctx context.Context, masterID, photoID string) error {
	var photo models.MasterInventoryPhoto
	if errFind := s.db.WithContext(ctx).
		Where("id = ? AND master_inventory_id = ?", photoID, masterID).
		First(&photo).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return ErrPhotoNotFound
		}
		return errFind
	}
	if errDelete := s.db.WithContext(ctx).Where("id = ?", photo.ID).Delete(&models.MasterInventoryPhoto{}).Error; errDelete != nil {
		return errDelete
	}
	if s.photos != nil {
		if errDelete := s.photos.Delete(ctx, photo.ObjectName); errDelete != nil {
			log.WithError(errDelete).WithField("object", photo.ObjectName).Warn("inventory: orphaned photo object")
		}
	}
	return nil
}

// ListDistributionHistory returns transfers newest first.
func (s *Service) ListDistributionHistory(ctx context.Context, filter HistoryFilter) ([]models.DistributionHistory, error) {
	q := s.db.WithContext(ctx).Model(&models.DistributionHistory{})
	if v := strings.TrimSpace(filter.MasterID); v != "" {
		q = q.Where("master_inventory_id = ?", v)
	}
	if v := strings.TrimSpace(filter.StationID); v != "" {
		q = q.Where("radio_station_id = ?", v)
	}
	if v := strings.TrimSpace(filter.PrizeID); v != "" {
		q = q.Where("prize_id = ? OR source_prize_id = ?", v, v)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	var rows []models.DistributionHistory
	if errFind := q.Order("distributed_at DESC").Find(&rows).Error; errFind != nil {
		return nil, errFind
	}
	return rows, nil
}

func findMasterItem(tx *gorm.DB, id string) (*models.MasterInventory, error) {
	var item models.MasterInventory
	if errFind := tx.Where("id = ?", id).First(&item).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, ErrMasterItemNotFound
		}
		return nil, errFind
	}
	return &item, nil
}
