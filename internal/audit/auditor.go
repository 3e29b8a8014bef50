package audit

import (
	"context"
	"sync"
	"time"

	"github.com/gilcleber/Controle-Premios-sub000/internal/metrics"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const defaultAuditInterval = 15 * time.Minute

// Tables scanned by the auditor.
const (
	TablePrizes          = "prizes"
	TableMasterInventory = "master_inventory"
)

// Anomaly is a row whose available quantity falls outside [0, total].
type Anomaly struct {
	Table             string `json:"table"`
	ID                string `json:"id"`
	Name              string `json:"name"`
	TotalQuantity     int    `json:"total_quantity"`
	AvailableQuantity int    `json:"available_quantity"`
}

// Report is the result of one audit pass.
type Report struct {
	CheckedAt time.Time `json:"checked_at"`
	Anomalies []Anomaly `json:"anomalies"`
}

// StockAuditor periodically checks stock counters and records rows that break 0 <= available <= total.
type StockAuditor struct {
	db       *gorm.DB
	metrics  *metrics.Metrics
	interval time.Duration
	now      func() time.Time

	mu   sync.RWMutex
	last *Report
}

func NewStockAuditor(db *gorm.DB, m *metrics.Metrics, interval time.Duration) *StockAuditor {
	if db == nil {
		return nil
	}
	if interval <= 0 {
		interval = defaultAuditInterval
	}
	return &StockAuditor{
		db:       db,
		metrics:  m,
		interval: interval,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Start launches the audit loop in a background goroutine.
func (a *StockAuditor) Start(ctx context.Context) {
	if a == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	go a.run(ctx)
	log.Infof("stock auditor started (interval=%s)", a.interval)
}

func (a *StockAuditor) run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		if _, err := a.RunOnce(ctx); err != nil && ctx.Err() == nil {
			log.WithError(err).Warn("stock auditor: pass failed")
		}
		timer := time.NewTimer(a.interval)
		select {
		case <-ctx.Done():
			if !timer.Stop() {
				<-timer.C
			}
			return
		case <-timer.C:
		}
	}
}

// RunOnce performs one audit pass and stores its report.
func (a *StockAuditor) RunOnce(ctx context.Context) (*Report, error) {
	if a == nil || a.db == nil {
		return nil, nil
	}
	report := &Report{CheckedAt: a.now(), Anomalies: []Anomaly{}}

	type row struct {
		ID                string
		Name              string
		TotalQuantity     int
		AvailableQuantity int
	}
	scans := []struct {
		table string
		name  string
	}{
		{table: TablePrizes, name: "name"},
		{table: TableMasterInventory, name: "item_name"},
	}
	for _, scan := range scans {
		var rows []row
		if errScan := a.db.WithContext(ctx).Table(scan.table).
			Select("id, "+scan.name+" AS name, total_quantity, available_quantity").
			Where("available_quantity < 0 OR available_quantity > total_quantity").
			Order("id ASC").
			Scan(&rows).Error; errScan != nil {
			return nil, errScan
		}
		for _, r := range rows {
			report.Anomalies = append(report.Anomalies, Anomaly{
				Table:             scan.table,
				ID:                r.ID,
				Name:              r.Name,
				TotalQuantity:     r.TotalQuantity,
				AvailableQuantity: r.AvailableQuantity,
			})
			log.WithFields(log.Fields{
				"table":     scan.table,
				"id":        r.ID,
				"total":     r.TotalQuantity,
				"available": r.AvailableQuantity,
			}).Warn("stock auditor: counter out of range")
		}
		a.metrics.SetStockAnomalies(scan.table, len(rows))
	}

	a.mu.Lock()
	a.last = report
	a.mu.Unlock()
	return report, nil
}

// LastReport returns the most recent report, or nil before the first pass.
func (a *StockAuditor) LastReport() *Report {
	if a == nil {
		return nil
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.last
}
