package inventory

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	dbutil "github.com/gilcleber/Controle-Premios-sub000/internal/db"
	"github.com/gilcleber/Controle-Premios-sub000/internal/deadline"
	"github.com/gilcleber/Controle-Premios-sub000/internal/models"
	"github.com/gilcleber/Controle-Premios-sub000/internal/realtime"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// defaultOutputNote labels outputs registered without a note.
const defaultOutputNote = "Saída Avulsa"

// minHistoryQueryLength is the shortest winner-name query that triggers a history lookup.
const minHistoryQueryLength = 4

// OutputInput captures a winner registration.
type OutputInput struct {
	PrizeID       string
	Quantity      int
	WinnerName    string
	WinnerPhone   string
	WinnerEmail   string
	WinnerDoc     string
	WinnerAddress string
	Note          string
	ProgramID     string
	Type          string // DRAW (default) or GIFT.
}

// OutputPatch holds editable winner fields; nil fields are left unchanged.
type OutputPatch struct {
	WinnerName    *string
	WinnerPhone   *string
	WinnerEmail   *string
	WinnerDoc     *string
	WinnerAddress *string
	Note          *string
	ProgramID     *string
}

// OutputFilter narrows ListOutputs.
type OutputFilter struct {
	Search    string
	Status    string
	LateOnly  bool
	PrizeID   string
	StationID string
	Limit     int
}

// OutputView is an output with its derived late flag.
type OutputView struct {
	models.Output
	Late bool `json:"late"`
}

func (s *Service) view(o models.Output) OutputView {
	return OutputView{Output: o, Late: deadline.IsLate(o.IsPending(), o.PickupDeadline, s.now())}
}

func normalizeOutputType(t string) (string, error) {
	switch strings.ToUpper(strings.TrimSpace(t)) {
	case "", models.OutputTypeDraw:
		return models.OutputTypeDraw, nil
	case models.OutputTypeGift:
		return models.OutputTypeGift, nil
	default:
		return "", ErrInvalidOutputType
	}
}

func findProgram(tx *gorm.DB, scope Scope, id string) (*models.Program, error) {
	var program models.Program
	if errFind := tx.Where("id = ?", id).First(&program).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, ErrProgramNotFound
		}
		return nil, errFind
	}
	if program.StationID != nil && !scope.Allows(program.StationID) {
		return nil, ErrProgramNotFound
	}
	return &program, nil
}

// RegisterOutput records a winner and debits the prize in one transaction.
// The pickup deadline is the prize's pickup window in business days from now.
func (s *Service) RegisterOutput(ctx context.Context, scope Scope, in OutputInput) (*models.Output, error) {
	if in.Quantity < 1 {
		return nil, ErrInvalidQuantity
	}
	winner := strings.TrimSpace(in.WinnerName)
	if winner == "" {
		return nil, ErrMissingWinnerName
	}
	outputType, errType := normalizeOutputType(in.Type)
	if errType != nil {
		return nil, errType
	}
	note := strings.TrimSpace(in.Note)
	if note == "" {
		note = defaultOutputNote
	}

	var (
		output models.Output
		events pendingEvents
	)
	errTx := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		prize, errFind := findPrizeForUpdate(tx, scope, in.PrizeID)
		if errFind != nil {
			return errFind
		}
		if in.Quantity > prize.AvailableQuantity {
			return ErrInsufficientStock
		}

		var programID *string
		programName := ""
		if id := strings.TrimSpace(in.ProgramID); id != "" {
			program, errProgram := findProgram(tx, scope, id)
			if errProgram != nil {
				return errProgram
			}
			programID = &program.ID
			programName = program.Name
		}

		if errDebit := debitPrize(tx, prize.ID, in.Quantity); errDebit != nil {
			return errDebit
		}

		now := s.now()
		output = models.Output{
			PrizeID:        prize.ID,
			PrizeName:      prize.Name,
			Quantity:       in.Quantity,
			Note:           note,
			Type:           outputType,
			ProgramID:      programID,
			ProgramName:    programName,
			Date:           now,
			PickupDeadline: deadline.AddBusinessDays(now, prize.PickupDeadlineDays),
			Status:         models.OutputStatusPending,
			WinnerName:     winner,
			WinnerPhone:    strings.TrimSpace(in.WinnerPhone),
			WinnerEmail:    strings.TrimSpace(in.WinnerEmail),
			WinnerDoc:      strings.TrimSpace(in.WinnerDoc),
			WinnerAddress:  strings.TrimSpace(in.WinnerAddress),
			StationID:      prize.StationID,
		}
		if errCreate := tx.Create(&output).Error; errCreate != nil {
			return errCreate
		}

		reloaded, errReload := reloadPrize(tx, prize.ID)
		if errReload != nil {
			return errReload
		}
		events.add(realtime.EntityOutputs, realtime.OpInsert, output.ID, output)
		events.add(realtime.EntityPrizes, realtime.OpUpdate, reloaded.ID, reloaded)
		return nil
	})
	if errTx != nil {
		return nil, errTx
	}

	s.publish(ctx, events)
	s.metrics.OutputRegistered(output.Type)
	return &output, nil
}

// ConfirmPickup moves a pending output to DELIVERED. photoURL optionally records the pickup proof.
func (s *Service) ConfirmPickup(ctx context.Context, scope Scope, id, photoURL string) (*models.Output, error) {
	var (
		output models.Output
		late   bool
	)
	errTx := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		found, errFind := findOutputForUpdate(tx, scope, id)
		if errFind != nil {
			return errFind
		}
		if !found.IsPending() {
			return ErrAlreadyDelivered
		}
		now := s.now()
		late = deadline.IsLate(true, found.PickupDeadline, now)

		res := tx.Model(&models.Output{}).
			Where("id = ? AND status = ?", found.ID, models.OutputStatusPending).
			Updates(map[string]any{
				"status":           models.OutputStatusDelivered,
				"delivered_date":   now,
				"pickup_photo_url": strings.TrimSpace(photoURL),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrAlreadyDelivered
		}
		return tx.Where("id = ?", found.ID).First(&output).Error
	})
	if errTx != nil {
		return nil, errTx
	}

	var events pendingEvents
	events.add(realtime.EntityOutputs, realtime.OpUpdate, output.ID, output)
	s.publish(ctx, events)
	s.metrics.PickupConfirmed(late)
	return &output, nil
}

// UpdateOutput edits winner contact data, note or program.
func (s *Service) UpdateOutput(ctx context.Context, scope Scope, id string, patch OutputPatch) (*models.Output, error) {
	var output models.Output
	errTx := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		found, errFind := findOutputForUpdate(tx, scope, id)
		if errFind != nil {
			return errFind
		}
		updates := map[string]any{}
		if patch.WinnerName != nil {
			name := strings.TrimSpace(*patch.WinnerName)
			if name == "" {
				return ErrMissingWinnerName
			}
			updates["winner_name"] = name
		}
		setText := func(column string, v *string) {
			if v != nil {
				updates[column] = strings.TrimSpace(*v)
			}
		}
		setText("winner_phone", patch.WinnerPhone)
		setText("winner_email", patch.WinnerEmail)
		setText("winner_doc", patch.WinnerDoc)
		setText("winner_address", patch.WinnerAddress)
		setText("note", patch.Note)
		if patch.ProgramID != nil {
			if id := strings.TrimSpace(*patch.ProgramID); id == "" {
				updates["program_id"] = nil
				updates["program_name"] = ""
			} else {
				program, errProgram := findProgram(tx, scope, id)
				if errProgram != nil {
					return errProgram
				}
				updates["program_id"] = program.ID
				updates["program_name"] = program.Name
			}
		}
		if len(updates) > 0 {
			if errUpdate := tx.Model(&models.Output{}).Where("id = ?", found.ID).Updates(updates).Error; errUpdate != nil {
				return errUpdate
			}
		}
		return tx.Where("id = ?", found.ID).First(&output).Error
	})
	if errTx != nil {
		return nil, errTx
	}

	var events pendingEvents
	events.add(realtime.EntityOutputs, realtime.OpUpdate, output.ID, output)
	s.publish(ctx, events)
	return &output, nil
}

// ExtendDeadline pushes a pending pickup deadline by days business days,
// counted from the later of now and the current deadline.
func (s *Service) ExtendDeadline(ctx context.Context, scope Scope, id string, days int) (*models.Output, error) {
	if days < 1 {
		return nil, ErrInvalidDays
	}
	var output models.Output
	errTx := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		found, errFind := findOutputForUpdate(tx, scope, id)
		if errFind != nil {
			return errFind
		}
		if !found.IsPending() {
			return ErrAlreadyDelivered
		}
		base := s.now()
		if found.PickupDeadline.After(base) {
			base = found.PickupDeadline.UTC()
		}
		if errUpdate := tx.Model(&models.Output{}).Where("id = ?", found.ID).
			Update("pickup_deadline", deadline.AddBusinessDays(base, days)).Error; errUpdate != nil {
			return errUpdate
		}
		return tx.Where("id = ?", found.ID).First(&output).Error
	})
	if errTx != nil {
		return nil, errTx
	}

	var events pendingEvents
	events.add(realtime.EntityOutputs, realtime.OpUpdate, output.ID, output)
	s.publish(ctx, events)
	return &output, nil
}

// DeleteOutput removes an output and returns its quantity to the linked prize atomically.
func (s *Service) DeleteOutput(ctx context.Context, scope Scope, id string) error {
	var (
		events pendingEvents
		status string
	)
	errTx := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		output, errFind := findOutputForUpdate(tx, scope, id)
		if errFind != nil {
			return errFind
		}
		status = output.Status

		credited, errCredit := creditPrize(tx, output.PrizeID, output.Quantity, false)
		if errCredit != nil {
			return errCredit
		}
		if credited {
			prize, errReload := reloadPrize(tx, output.PrizeID)
			if errReload != nil {
				return errReload
			}
			events.add(realtime.EntityPrizes, realtime.OpUpdate, prize.ID, prize)
		} else {
			log.WithFields(log.Fields{"output_id": output.ID, "prize_id": output.PrizeID}).
				Warn("inventory: prize gone, output quantity not returned")
		}

		if errDelete := tx.Where("id = ?", output.ID).Delete(&models.Output{}).Error; errDelete != nil {
			return errDelete
		}
		events.add(realtime.EntityOutputs, realtime.OpDelete, output.ID, nil)
		return nil
	})
	if errTx != nil {
		return errTx
	}
	s.publish(ctx, events)
	s.metrics.OutputDeleted(status)
	return nil
}

// GetOutput loads one output visible in scope.
func (s *Service) GetOutput(ctx context.Context, scope Scope, id string) (*OutputView, error) {
	var output models.Output
	if errFind := s.db.WithContext(ctx).Where("id = ?", id).First(&output).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, ErrOutputNotFound
		}
		return nil, errFind
	}
	if !scope.Allows(output.StationID) {
		return nil, ErrOutputNotFound
	}
	v := s.view(output)
	return &v, nil
}

// ListOutputs returns outputs newest first. Search matches winner name, prize name,
// note, document or the output date (YYYY-MM-DD or DD/MM/YYYY).
func (s *Service) ListOutputs(ctx context.Context, scope Scope, filter OutputFilter) ([]OutputView, error) {
	q := scope.apply(s.db.WithContext(ctx).Model(&models.Output{}))
	if stationID := strings.TrimSpace(filter.StationID); stationID != "" && scope.Unrestricted() {
		q = q.Where("radio_station_id = ?", stationID)
	}
	if prizeID := strings.TrimSpace(filter.PrizeID); prizeID != "" {
		q = q.Where("prize_id = ?", prizeID)
	}
	if status := strings.ToUpper(strings.TrimSpace(filter.Status)); status != "" {
		q = q.Where("status = ?", status)
	}
	if filter.LateOnly {
		q = q.Where("status = ? AND pickup_deadline < ?", models.OutputStatusPending, s.now())
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := dbutil.NormalizeLikePattern(s.db, "%"+search+"%")
		datePattern := "%" + normalizeDateQuery(search) + "%"
		q = q.Where(
			s.db.Where(dbutil.CaseInsensitiveLikeExpr(s.db, "winner_name"), pattern).
				Or(dbutil.CaseInsensitiveLikeExpr(s.db, "prize_name"), pattern).
				Or(dbutil.CaseInsensitiveLikeExpr(s.db, "note"), pattern).
				Or(dbutil.CaseInsensitiveLikeExpr(s.db, "winner_doc"), pattern).
				Or(dbutil.DateTextExpr(s.db, "date")+" LIKE ?", datePattern),
		)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}

	var outputs []models.Output
	if errFind := q.Order("date DESC").Find(&outputs).Error; errFind != nil {
		return nil, errFind
	}
	views := make([]OutputView, 0, len(outputs))
	for _, o := range outputs {
		views = append(views, s.view(o))
	}
	return views, nil
}

// normalizeDateQuery turns DD/MM/YYYY or DD/MM into the stored YYYY-MM-DD prefix form.
func normalizeDateQuery(q string) string {
	if t, err := time.Parse("02/01/2006", q); err == nil {
		return t.Format("2006-01-02")
	}
	if t, err := time.Parse("02/01", q); err == nil {
		return t.Format("-01-02")
	}
	return q
}

// WinnerHistory lists prior outputs whose winner name contains name, ignoring case.
// Queries shorter than four characters return nothing.
func (s *Service) WinnerHistory(ctx context.Context, scope Scope, name string) ([]OutputView, error) {
	name = strings.TrimSpace(name)
	if utf8.RuneCountInString(name) < minHistoryQueryLength {
		return []OutputView{}, nil
	}
	pattern := dbutil.NormalizeLikePattern(s.db, "%"+escapeLike(name)+"%")
	q := scope.apply(s.db.WithContext(ctx).Model(&models.Output{})).
		Where(dbutil.CaseInsensitiveLikeExpr(s.db, "winner_name")+" ESCAPE '\\'", pattern)

	var outputs []models.Output
	if errFind := q.Order("date DESC").Find(&outputs).Error; errFind != nil {
		return nil, errFind
	}
	views := make([]OutputView, 0, len(outputs))
	for _, o := range outputs {
		views = append(views, s.view(o))
	}
	return views, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
