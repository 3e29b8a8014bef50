package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/gilcleber/Controle-Premios-sub000/internal/models"
	log "github.com/sirupsen/logrus"
)

// collection keeps rows in arrival order with an id index.
type collection[T any] struct {
	items []T
	index map[string]int
	id    func(*T) string
}

func newCollection[T any](id func(*T) string) *collection[T] {
	return &collection[T]{index: make(map[string]int), id: id}
}

// upsert replaces the row with the same id or appends it.
func (c *collection[T]) upsert(row T) {
	key := c.id(&row)
	if pos, ok := c.index[key]; ok {
		c.items[pos] = row
		return
	}
	c.index[key] = len(c.items)
	c.items = append(c.items, row)
}

func (c *collection[T]) remove(id string) {
	pos, ok := c.index[id]
	if !ok {
		return
	}
	c.items = append(c.items[:pos], c.items[pos+1:]...)
	delete(c.index, id)
	for i := pos; i < len(c.items); i++ {
		c.index[c.id(&c.items[i])] = i
	}
}

func (c *collection[T]) reset(rows []T) {
	c.items = c.items[:0]
	c.index = make(map[string]int, len(rows))
	for _, row := range rows {
		c.upsert(row)
	}
}

func (c *collection[T]) snapshot() []T {
	out := make([]T, len(c.items))
	copy(out, c.items)
	return out
}

// State is the live board of prizes and outputs.
type State struct {
	Prizes  []models.Prize  `json:"prizes"`
	Outputs []models.Output `json:"outputs"`
}

// Loader reads the full board from the store.
type Loader func(ctx context.Context) ([]models.Prize, []models.Output, error)

// ReconcilerOption configures a Reconciler.
type ReconcilerOption func(*Reconciler)

// WithLoader sets the function Reload uses to rebuild the state.
func WithLoader(load Loader) ReconcilerOption {
	return func(r *Reconciler) { r.load = load }
}

// Reconciler applies change events to local state one at a time in arrival order
// and forwards every applied event to its own subscribers.
// Applying the same event twice leaves the state unchanged.
type Reconciler struct {
	mu      sync.RWMutex
	prizes  *collection[models.Prize]
	outputs *collection[models.Output]
	applied uint64
	subs    map[int]chan Event
	nextSub int
	load    Loader
}

// NewReconciler constructs an empty Reconciler.
func NewReconciler(opts ...ReconcilerOption) *Reconciler {
	r := &Reconciler{
		prizes:  newCollection(func(p *models.Prize) string { return p.ID }),
		outputs: newCollection(func(o *models.Output) string { return o.ID }),
		subs:    make(map[int]chan Event),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Seed replaces the state with a full load from the store. Current subscribers are
// detached since their view no longer follows from the events they were sent.
func (r *Reconciler) Seed(prizes []models.Prize, outputs []models.Output) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prizes.reset(prizes)
	r.outputs.reset(outputs)
	for id, ch := range r.subs {
		delete(r.subs, id)
		close(ch)
	}
}

// Reload seeds the state from the configured Loader. Without a Loader it does nothing.
func (r *Reconciler) Reload(ctx context.Context) error {
	if r.load == nil {
		return nil
	}
	prizes, outputs, err := r.load(ctx)
	if err != nil {
		return err
	}
	r.Seed(prizes, outputs)
	return nil
}

// SubscribeWithSnapshot returns the current state together with a channel of every
// event applied after it. The channel closes when ctx ends, on Seed, or when the
// reader falls a full buffer behind; the reader then resyncs with a new call.
func (r *Reconciler) SubscribeWithSnapshot(ctx context.Context) (State, <-chan Event) {
	ch := make(chan Event, subscriberBuffer)
	r.mu.Lock()
	state := State{Prizes: r.prizes.snapshot(), Outputs: r.outputs.snapshot()}
	id := r.nextSub
	r.nextSub++
	r.subs[id] = ch
	r.mu.Unlock()

	go func() {
		<-ctx.Done()
		r.mu.Lock()
		defer r.mu.Unlock()
		if sub, ok := r.subs[id]; ok {
			delete(r.subs, id)
			close(sub)
		}
	}()
	return state, ch
}

// broadcast must run with r.mu held for writing.
func (r *Reconciler) broadcast(ev Event) {
	for id, ch := range r.subs {
		select {
		case ch <- ev:
		default:
			delete(r.subs, id)
			close(ch)
		}
	}
}

// Apply folds one event into the state.
func (r *Reconciler) Apply(ev Event) error {
	switch ev.Entity {
	case EntityPrizes:
		return applyTo(r, r.prizes, ev)
	case EntityOutputs:
		return applyTo(r, r.outputs, ev)
	default:
		return fmt.Errorf("realtime: unknown entity %q", ev.Entity)
	}
}

func applyTo[T any](r *Reconciler, c *collection[T], ev Event) error {
	var row T
	if ev.Operation != OpDelete {
		if len(ev.Payload) == 0 {
			return fmt.Errorf("realtime: %s %s without payload", ev.Entity, ev.Operation)
		}
		if err := json.Unmarshal(ev.Payload, &row); err != nil {
			return fmt.Errorf("realtime: decode %s payload: %w", ev.Entity, err)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	switch ev.Operation {
	case OpInsert, OpUpdate:
		c.upsert(row)
	case OpDelete:
		c.remove(ev.ID)
	default:
		return fmt.Errorf("realtime: unknown operation %q", ev.Operation)
	}
	r.applied++
	r.broadcast(ev)
	return nil
}

// Run consumes events from sub until ctx ends. When the feed drops the subscription
// Run subscribes again and reloads the state, since events may have been missed.
func (r *Reconciler) Run(ctx context.Context, sub Subscriber) error {
	for resubscribed := false; ; resubscribed = true {
		events, err := sub.Subscribe(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, ErrFeedClosed) {
				return nil
			}
			return err
		}
		if resubscribed {
			if errReload := r.Reload(ctx); errReload != nil {
				log.WithError(errReload).Error("realtime: reload after resubscribe failed")
			}
		}
		if !r.consume(ctx, events) {
			return nil
		}
		log.Warn("realtime: change feed closed the subscription, resubscribing")
	}
}

// consume applies events until the channel closes. It returns false once ctx ends.
func (r *Reconciler) consume(ctx context.Context, events <-chan Event) bool {
	for {
		select {
		case <-ctx.Done():
			return false
		case ev, ok := <-events:
			if !ok {
				return ctx.Err() == nil
			}
			if errApply := r.Apply(ev); errApply != nil {
				log.WithError(errApply).WithField("entity", ev.Entity).Warn("realtime: event not applied")
			}
		}
	}
}

// Snapshot returns a copy of the current state.
func (r *Reconciler) Snapshot() State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return State{Prizes: r.prizes.snapshot(), Outputs: r.outputs.snapshot()}
}

// Applied returns how many events were folded in.
func (r *Reconciler) Applied() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.applied
}
