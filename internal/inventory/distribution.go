package inventory

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gilcleber/Controle-Premios-sub000/internal/models"
	"github.com/gilcleber/Controle-Premios-sub000/internal/realtime"
	"github.com/gilcleber/Controle-Premios-sub000/internal/settings"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// defaultMasterValidity applies when a ledger row has no validity date.
const defaultMasterValidity = 365 * 24 * time.Hour

// DistributeInput moves stock from one prize record to a station or to a split record.
type DistributeInput struct {
	SourceID      string
	StationID     string // Destination station; ignored when Split is set.
	Split         bool   // Keep the units in the source's own station as a separate record.
	Quantity      int
	Combo         []models.ComboItem
	DistributedBy string
	Notes         string
}

// MasterDistributeInput moves stock from a master ledger row to a station.
type MasterDistributeInput struct {
	MasterID      string
	StationID     string
	Quantity      int
	Combo         []models.ComboItem
	DistributedBy string
	Notes         string
}

// DistributionResult reports the rows a distribution touched.
type DistributionResult struct {
	Destination models.Prize               `json:"destination"`
	Created     bool                       `json:"created"`
	Source      *models.Prize              `json:"source,omitempty"`
	Master      *models.MasterInventory    `json:"master,omitempty"`
	History     models.DistributionHistory `json:"history"`
}

func validateCombo(items []models.ComboItem) error {
	for _, item := range items {
		if strings.TrimSpace(item.PrizeID) == "" || item.Quantity < 1 {
			return ErrInvalidQuantity
		}
	}
	return nil
}

// mergeCombo adds items into existing, summing quantities per prize.
func mergeCombo(existing, items []models.ComboItem) []models.ComboItem {
	out := make([]models.ComboItem, 0, len(existing)+len(items))
	pos := make(map[string]int, len(existing)+len(items))
	for _, item := range append(append([]models.ComboItem{}, existing...), items...) {
		if i, ok := pos[item.PrizeID]; ok {
			out[i].Quantity += item.Quantity
			continue
		}
		pos[item.PrizeID] = len(out)
		out = append(out, item)
	}
	return out
}

// Distribute transfers Quantity units of a prize. A destination record already
// linked to the source's lineage is incremented; otherwise a copy is created.
func (s *Service) Distribute(ctx context.Context, scope Scope, in DistributeInput) (*DistributionResult, error) {
	if in.Quantity < 1 {
		return nil, ErrInvalidQuantity
	}
	destStation := strings.TrimSpace(in.StationID)
	if !in.Split && destStation == "" {
		return nil, ErrMissingDestination
	}
	if errCombo := validateCombo(in.Combo); errCombo != nil {
		return nil, errCombo
	}

	var (
		result DistributionResult
		events pendingEvents
	)
	errTx := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		source, errFind := findPrizeForUpdate(tx, scope, in.SourceID)
		if errFind != nil {
			return errFind
		}
		if in.Quantity > source.AvailableQuantity {
			return ErrInsufficientStock
		}
		if in.Split {
			destStation = derefStr(source.StationID)
		} else if errStation := ensureStation(tx, destStation); errStation != nil {
			return errStation
		}

		root := source.LineageRoot()
		dest, created, errDest := s.creditDestination(tx, root, source.ID, destStation, in.Quantity, func(now time.Time) models.Prize {
			return models.Prize{
				Name:               source.Name,
				Description:        source.Description,
				EntryDate:          now,
				ValidityDate:       source.ValidityDate,
				MaxDrawDate:        source.MaxDrawDate,
				PickupDeadlineDays: source.PickupDeadlineDays,
				PhotoURL:           source.PhotoURL,
			}
		})
		if errDest != nil {
			return errDest
		}
		if errCombo := s.applyCombo(tx, scope, dest, in.Combo, &events); errCombo != nil {
			return errCombo
		}
		if errDebit := debitPrize(tx, source.ID, in.Quantity); errDebit != nil {
			return errDebit
		}

		history := models.DistributionHistory{
			SourceKind:          models.DistributionSourcePrize,
			SourcePrizeID:       strPtr(source.ID),
			RadioStationID:      strPtr(destStation),
			PrizeID:             dest.ID,
			QuantityDistributed: in.Quantity,
			ComboDetails:        datatypes.JSONSlice[models.ComboItem](in.Combo),
			DistributedBy:       strings.TrimSpace(in.DistributedBy),
			Notes:               strings.TrimSpace(in.Notes),
			DistributedAt:       s.now(),
		}
		if errCreate := tx.Create(&history).Error; errCreate != nil {
			return errCreate
		}

		reloadedDest, errReload := reloadPrize(tx, dest.ID)
		if errReload != nil {
			return errReload
		}
		reloadedSource, errReload := reloadPrize(tx, source.ID)
		if errReload != nil {
			return errReload
		}
		result = DistributionResult{Destination: *reloadedDest, Created: created, Source: reloadedSource, History: history}
		if created {
			events.add(realtime.EntityPrizes, realtime.OpInsert, reloadedDest.ID, reloadedDest)
		} else {
			events.add(realtime.EntityPrizes, realtime.OpUpdate, reloadedDest.ID, reloadedDest)
		}
		events.add(realtime.EntityPrizes, realtime.OpUpdate, reloadedSource.ID, reloadedSource)
		return nil
	})
	if errTx != nil {
		return nil, errTx
	}

	s.publish(ctx, events)
	s.metrics.Distributed(models.DistributionSourcePrize, branchLabel(result.Created), in.Quantity)
	return &result, nil
}

// DistributeFromMaster transfers Quantity units from the supplier ledger into a station.
func (s *Service) DistributeFromMaster(ctx context.Context, in MasterDistributeInput) (*DistributionResult, error) {
	if in.Quantity < 1 {
		return nil, ErrInvalidQuantity
	}
	destStation := strings.TrimSpace(in.StationID)
	if destStation == "" {
		return nil, ErrMissingDestination
	}
	if errCombo := validateCombo(in.Combo); errCombo != nil {
		return nil, errCombo
	}

	var (
		result DistributionResult
		events pendingEvents
	)
	errTx := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var master models.MasterInventory
		if errFind := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", in.MasterID).First(&master).Error; errFind != nil {
			if errors.Is(errFind, gorm.ErrRecordNotFound) {
				return ErrMasterItemNotFound
			}
			return errFind
		}
		if in.Quantity > master.AvailableQuantity {
			return ErrInsufficientStock
		}
		if errStation := ensureStation(tx, destStation); errStation != nil {
			return errStation
		}

		dest, created, errDest := s.creditDestination(tx, master.ID, "", destStation, in.Quantity, func(now time.Time) models.Prize {
			validity := now.Add(defaultMasterValidity)
			if master.ValidityDate != nil {
				validity = master.ValidityDate.UTC()
			}
			maxDraw := validity
			return models.Prize{
				Name:               master.ItemName,
				Description:        master.Description,
				EntryDate:          now,
				ValidityDate:       &validity,
				MaxDrawDate:        &maxDraw,
				PickupDeadlineDays: settings.PickupDeadlineDays(),
			}
		})
		if errDest != nil {
			return errDest
		}
		if errCombo := s.applyCombo(tx, Scope{}, dest, in.Combo, &events); errCombo != nil {
			return errCombo
		}
		if errDebit := debitMaster(tx, master.ID, in.Quantity); errDebit != nil {
			return errDebit
		}

		history := models.DistributionHistory{
			SourceKind:          models.DistributionSourceMaster,
			MasterInventoryID:   strPtr(master.ID),
			RadioStationID:      strPtr(destStation),
			PrizeID:             dest.ID,
			QuantityDistributed: in.Quantity,
			ComboDetails:        datatypes.JSONSlice[models.ComboItem](in.Combo),
			DistributedBy:       strings.TrimSpace(in.DistributedBy),
			Notes:               strings.TrimSpace(in.Notes),
			DistributedAt:       s.now(),
		}
		if errCreate := tx.Create(&history).Error; errCreate != nil {
			return errCreate
		}

		reloadedDest, errReload := reloadPrize(tx, dest.ID)
		if errReload != nil {
			return errReload
		}
		if errReload := tx.Where("id = ?", master.ID).First(&master).Error; errReload != nil {
			return errReload
		}
		result = DistributionResult{Destination: *reloadedDest, Created: created, Master: &master, History: history}
		if created {
			events.add(realtime.EntityPrizes, realtime.OpInsert, reloadedDest.ID, reloadedDest)
		} else {
			events.add(realtime.EntityPrizes, realtime.OpUpdate, reloadedDest.ID, reloadedDest)
		}
		return nil
	})
	if errTx != nil {
		return nil, errTx
	}

	s.publish(ctx, events)
	s.metrics.Distributed(models.DistributionSourceMaster, branchLabel(result.Created), in.Quantity)
	return &result, nil
}

// creditDestination increments the record in station linked to root, or creates one
// from template with total = available = q.
func (s *Service) creditDestination(tx *gorm.DB, root, excludeID, station string, q int, template func(time.Time) models.Prize) (*models.Prize, bool, error) {
	query := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("source_master_id = ?", root)
	if excludeID != "" {
		query = query.Where("id <> ?", excludeID)
	}
	if station == "" {
		query = query.Where("radio_station_id IS NULL")
	} else {
		query = query.Where("radio_station_id = ?", station)
	}

	var existing models.Prize
	errFind := query.Order("created_at ASC").First(&existing).Error
	switch {
	case errFind == nil:
		if _, errCredit := creditPrize(tx, existing.ID, q, true); errCredit != nil {
			return nil, false, errCredit
		}
		existing.TotalQuantity += q
		existing.AvailableQuantity += q
		return &existing, false, nil
	case errors.Is(errFind, gorm.ErrRecordNotFound):
	default:
		return nil, false, errFind
	}

	created := template(s.now())
	created.TotalQuantity = q
	created.AvailableQuantity = q
	created.IsOnAir = false
	created.StationID = strPtr(station)
	created.SourceMasterID = strPtr(root)
	if errCreate := tx.Create(&created).Error; errCreate != nil {
		return nil, false, errCreate
	}
	return &created, true, nil
}

// applyCombo debits each bundled item and merges the bundle into dest.
func (s *Service) applyCombo(tx *gorm.DB, scope Scope, dest *models.Prize, items []models.ComboItem, events *pendingEvents) error {
	if len(items) == 0 {
		return nil
	}
	for _, item := range items {
		comboPrize, errFind := findPrizeForUpdate(tx, scope, item.PrizeID)
		if errFind != nil {
			return errFind
		}
		if item.Quantity > comboPrize.AvailableQuantity {
			return ErrInsufficientStock
		}
		if errDebit := debitPrize(tx, comboPrize.ID, item.Quantity); errDebit != nil {
			return errDebit
		}
		reloaded, errReload := reloadPrize(tx, comboPrize.ID)
		if errReload != nil {
			return errReload
		}
		events.add(realtime.EntityPrizes, realtime.OpUpdate, reloaded.ID, reloaded)
	}
	merged := mergeCombo(dest.ComboDetails, items)
	if errUpdate := tx.Model(&models.Prize{}).Where("id = ?", dest.ID).
		Update("combo_details", datatypes.JSONSlice[models.ComboItem](merged)).Error; errUpdate != nil {
		return errUpdate
	}
	dest.ComboDetails = merged
	return nil
}

func branchLabel(created bool) string {
	if created {
		return "created"
	}
	return "merged"
}
