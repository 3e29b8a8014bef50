package inventory

import (
	"context"
	"time"

	"github.com/gilcleber/Controle-Premios-sub000/internal/metrics"
	"github.com/gilcleber/Controle-Premios-sub000/internal/realtime"
	"github.com/gilcleber/Controle-Premios-sub000/internal/storage"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Service owns every stock mutation. Multi-row changes run in one transaction
// and debits are conditional on the available quantity at write time.
type Service struct {
	db      *gorm.DB
	pub     realtime.Publisher
	metrics *metrics.Metrics
	photos  storage.PhotoStore
	now     func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithPublisher sets the change-feed publisher.
func WithPublisher(pub realtime.Publisher) Option {
	return func(s *Service) {
		if pub != nil {
			s.pub = pub
		}
	}
}

// WithMetrics sets the Prometheus collectors.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithPhotoStore enables master inventory photo uploads.
func WithPhotoStore(store storage.PhotoStore) Option {
	return func(s *Service) { s.photos = store }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService constructs a Service over db.
func NewService(db *gorm.DB, opts ...Option) *Service {
	s := &Service{
		db:  db,
		pub: realtime.NopPublisher{},
		now: func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DB returns the underlying handle.
func (s *Service) DB() *gorm.DB { return s.db }

// Scope restricts an operation to one station. The zero value is unrestricted.
type Scope struct {
	StationID string
}

// Unrestricted reports whether the scope spans all stations.
func (sc Scope) Unrestricted() bool { return sc.StationID == "" }

// Allows reports whether a row owned by stationID is visible in the scope.
func (sc Scope) Allows(stationID *string) bool {
	if sc.Unrestricted() {
		return true
	}
	return stationID != nil && *stationID == sc.StationID
}

func (sc Scope) apply(q *gorm.DB) *gorm.DB {
	if sc.Unrestricted() {
		return q
	}
	return q.Where("radio_station_id = ?", sc.StationID)
}

// pendingEvents collects change events inside a transaction for publishing after commit.
type pendingEvents []realtime.Event

func (p *pendingEvents) add(entity string, op realtime.Operation, id string, payload any) {
	ev, err := realtime.NewEvent(entity, op, id, payload)
	if err != nil {
		log.WithError(err).Warn("inventory: build change event")
		return
	}
	*p = append(*p, ev)
}

// publish emits events in order. A failed publish is logged; the write already committed.
func (s *Service) publish(ctx context.Context, events pendingEvents) {
	for _, ev := range events {
		if errPublish := s.pub.Publish(ctx, ev); errPublish != nil {
			log.WithError(errPublish).WithFields(log.Fields{
				"entity":    ev.Entity,
				"operation": ev.Operation,
				"id":        ev.ID,
			}).Warn("inventory: publish change event")
		}
	}
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func derefStr(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
