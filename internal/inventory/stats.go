package inventory

import (
	"context"
	"math"
	"sort"

	"github.com/gilcleber/Controle-Premios-sub000/internal/deadline"
	"github.com/gilcleber/Controle-Premios-sub000/internal/models"
	"github.com/gilcleber/Controle-Premios-sub000/internal/settings"
)

// nextToDrawLimit caps the dashboard's next-to-draw list.
const nextToDrawLimit = 5

// ExpiringPrize is a prize whose validity ends inside the configured window.
type ExpiringPrize struct {
	models.Prize
	DaysLeft int `json:"daysLeft"`
}

// Dashboard summarizes stock and pickups for one scope.
type Dashboard struct {
	PrizeRecords     int             `json:"prizeRecords"`
	TotalItems       int             `json:"totalItems"`
	TotalAvailable   int             `json:"totalAvailable"`
	OnAir            int             `json:"onAir"`
	PendingPickups   int             `json:"pendingPickups"`
	DeliveredPickups int             `json:"deliveredPickups"`
	LatePickups      int             `json:"latePickups"`
	ExpiringSoon     []ExpiringPrize `json:"expiringSoon"`
	NextToDraw       []models.Prize  `json:"nextToDraw"`
}

// StationPerformance aggregates one station's stock and deliveries.
type StationPerformance struct {
	StationID    string  `json:"stationId"`
	StationName  string  `json:"stationName"`
	TotalPrizes  int     `json:"totalPrizes"`
	Available    int     `json:"available"`
	Distributed  int     `json:"distributed"`
	Delivered    int     `json:"delivered"`
	Pending      int     `json:"pending"`
	DeliveryRate float64 `json:"deliveryRate"` // Delivered outputs per 100 units received.
}

// Dashboard computes the summary for scope.
func (s *Service) Dashboard(ctx context.Context, scope Scope) (*Dashboard, error) {
	var prizes []models.Prize
	if errFind := scope.apply(s.db.WithContext(ctx).Model(&models.Prize{})).Find(&prizes).Error; errFind != nil {
		return nil, errFind
	}
	var outputs []models.Output
	if errFind := scope.apply(s.db.WithContext(ctx).Model(&models.Output{})).
		Select("id", "status", "pickup_deadline").Find(&outputs).Error; errFind != nil {
		return nil, errFind
	}

	now := s.now()
	window := settings.ExpiringWindowDays()
	out := &Dashboard{PrizeRecords: len(prizes), ExpiringSoon: []ExpiringPrize{}, NextToDraw: []models.Prize{}}
	for _, p := range prizes {
		out.TotalItems += p.TotalQuantity
		out.TotalAvailable += p.AvailableQuantity
		if p.IsOnAir {
			out.OnAir++
		}
		if p.AvailableQuantity <= 0 {
			continue
		}
		if p.ValidityDate != nil {
			if days := deadline.DaysUntil(*p.ValidityDate, now); days > 0 && days <= window {
				out.ExpiringSoon = append(out.ExpiringSoon, ExpiringPrize{Prize: p, DaysLeft: days})
			}
		}
		if p.MaxDrawDate != nil {
			out.NextToDraw = append(out.NextToDraw, p)
		}
	}
	for _, o := range outputs {
		switch o.Status {
		case models.OutputStatusPending:
			out.PendingPickups++
			if deadline.IsLate(true, o.PickupDeadline, now) {
				out.LatePickups++
			}
		case models.OutputStatusDelivered:
			out.DeliveredPickups++
		}
	}

	sort.SliceStable(out.ExpiringSoon, func(i, j int) bool { return out.ExpiringSoon[i].DaysLeft < out.ExpiringSoon[j].DaysLeft })
	sort.SliceStable(out.NextToDraw, func(i, j int) bool { return out.NextToDraw[i].MaxDrawDate.Before(*out.NextToDraw[j].MaxDrawDate) })
	if len(out.NextToDraw) > nextToDrawLimit {
		out.NextToDraw = out.NextToDraw[:nextToDrawLimit]
	}
	return out, nil
}

// StationPerformance reports per-station totals for every station, active or not.
func (s *Service) StationPerformance(ctx context.Context) ([]StationPerformance, error) {
	var stations []models.RadioStation
	if errFind := s.db.WithContext(ctx).Order("name ASC").Find(&stations).Error; errFind != nil {
		return nil, errFind
	}

	type stockRow struct {
		StationID string
		Total     int
		Available int
	}
	var stock []stockRow
	if errStock := s.db.WithContext(ctx).Model(&models.Prize{}).
		Select("radio_station_id AS station_id, COALESCE(SUM(total_quantity), 0) AS total, COALESCE(SUM(available_quantity), 0) AS available").
		Where("radio_station_id IS NOT NULL").
		Group("radio_station_id").
		Scan(&stock).Error; errStock != nil {
		return nil, errStock
	}

	type outputRow struct {
		StationID string
		Status    string
		Count     int
	}
	var counts []outputRow
	if errCount := s.db.WithContext(ctx).Model(&models.Output{}).
		Select("radio_station_id AS station_id, status, COUNT(*) AS count").
		Where("radio_station_id IS NOT NULL").
		Group("radio_station_id, status").
		Scan(&counts).Error; errCount != nil {
		return nil, errCount
	}

	byStation := make(map[string]*StationPerformance, len(stations))
	result := make([]StationPerformance, len(stations))
	for i, st := range stations {
		result[i] = StationPerformance{StationID: st.ID, StationName: st.Name}
		byStation[st.ID] = &result[i]
	}
	for _, row := range stock {
		if perf, ok := byStation[row.StationID]; ok {
			perf.TotalPrizes = row.Total
			perf.Available = row.Available
			perf.Distributed = row.Total - row.Available
		}
	}
	for _, row := range counts {
		perf, ok := byStation[row.StationID]
		if !ok {
			continue
		}
		switch row.Status {
		case models.OutputStatusDelivered:
			perf.Delivered = row.Count
		case models.OutputStatusPending:
			perf.Pending = row.Count
		}
	}
	for i := range result {
		if result[i].TotalPrizes > 0 {
			rate := float64(result[i].Delivered) / float64(result[i].TotalPrizes) * 100
			result[i].DeliveryRate = math.Round(rate*10) / 10
		}
	}
	return result, nil
}
