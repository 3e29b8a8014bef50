package schedule

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
)

const defaultSchedulerInterval = time.Minute

// Activator puts due scheduled prizes on air and reports how many changed.
type Activator interface {
	PutScheduledOnAir(ctx context.Context) (int, error)
}

// OnAirScheduler polls for prizes whose scheduled air time has passed.
type OnAirScheduler struct {
	activator Activator
	interval  time.Duration
}

func NewOnAirScheduler(activator Activator, interval time.Duration) *OnAirScheduler {
	if activator == nil {
		return nil
	}
	if interval <= 0 {
		interval = defaultSchedulerInterval
	}
	return &OnAirScheduler{activator: activator, interval: interval}
}

// Start launches the polling loop in a background goroutine.
func (s *OnAirScheduler) Start(ctx context.Context) {
	if s == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	go s.run(ctx)
	log.Infof("on-air scheduler started (interval=%s)", s.interval)
}

func (s *OnAirScheduler) run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		s.tick(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *OnAirScheduler) tick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	changed, err := s.activator.PutScheduledOnAir(ctx)
	if err != nil {
		log.WithError(err).Warn("on-air scheduler: activation failed")
	}
	if changed > 0 {
		log.Infof("on-air scheduler: %d prize(s) put on air", changed)
	}
}
