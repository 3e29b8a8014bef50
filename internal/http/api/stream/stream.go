// Package stream serves the live prize/output board over server-sent events.
package stream

import (
	"encoding/json"
	"io"
	"time"

	"github.com/gilcleber/Controle-Premios-sub000/internal/config"
	"github.com/gilcleber/Controle-Premios-sub000/internal/http/api/permissions"
	"github.com/gilcleber/Controle-Premios-sub000/internal/inventory"
	"github.com/gilcleber/Controle-Premios-sub000/internal/models"
	"github.com/gilcleber/Controle-Premios-sub000/internal/realtime"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Path is the SSE endpoint.
const Path = "/v0/realtime/stream"

const defaultHeartbeat = 25 * time.Second

// Handler streams a snapshot followed by change events.
type Handler struct {
	reconciler *realtime.Reconciler
	heartbeat  time.Duration
}

// NewHandler constructs a Handler; heartbeat <= 0 uses the default.
func NewHandler(reconciler *realtime.Reconciler, heartbeat time.Duration) *Handler {
	if heartbeat <= 0 {
		heartbeat = defaultHeartbeat
	}
	return &Handler{reconciler: reconciler, heartbeat: heartbeat}
}

// RegisterStreamRoutes mounts the stream for admin and station sessions.
func RegisterStreamRoutes(r *gin.Engine, db *gorm.DB, jwtCfg config.JWTConfig, h *Handler) {
	if r == nil || db == nil || h == nil {
		return
	}
	r.GET(Path, permissions.AuthMiddleware(db, jwtCfg.Secret, permissions.SurfaceAny), h.Stream)
}

// Stream writes a "snapshot" event, then a "change" event per committed row change
// visible to the session, and a "ping" on every heartbeat. The stream ends when the
// client falls behind; reconnecting yields a fresh snapshot.
func (h *Handler) Stream(c *gin.Context) {
	ctx := c.Request.Context()
	board, events := h.reconciler.SubscribeWithSnapshot(ctx)

	filter := newScopeFilter(permissions.Scope(c))
	state := filter.snapshot(board)

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.SSEvent("snapshot", state)
	c.Writer.Flush()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case ev, ok := <-events:
			if !ok {
				return false
			}
			if filter.allow(ev) {
				c.SSEvent("change", ev)
			}
			return true
		case <-ticker.C:
			c.SSEvent("ping", time.Now().UTC().Format(time.RFC3339))
			return true
		}
	})
}

// scopeFilter hides other stations' rows from station sessions. Deletes carry no
// payload, so they pass only for ids the client has already been sent.
type scopeFilter struct {
	scope inventory.Scope
	seen  map[string]struct{}
}

func newScopeFilter(scope inventory.Scope) *scopeFilter {
	return &scopeFilter{scope: scope, seen: make(map[string]struct{})}
}

func (f *scopeFilter) snapshot(state realtime.State) realtime.State {
	out := realtime.State{Prizes: []models.Prize{}, Outputs: []models.Output{}}
	for _, p := range state.Prizes {
		if f.scope.Allows(p.StationID) {
			f.seen[realtime.EntityPrizes+":"+p.ID] = struct{}{}
			out.Prizes = append(out.Prizes, p)
		}
	}
	for _, o := range state.Outputs {
		if f.scope.Allows(o.StationID) {
			f.seen[realtime.EntityOutputs+":"+o.ID] = struct{}{}
			out.Outputs = append(out.Outputs, o)
		}
	}
	return out
}

func (f *scopeFilter) allow(ev realtime.Event) bool {
	if f.scope.Unrestricted() {
		return true
	}
	key := ev.Entity + ":" + ev.ID
	if ev.Operation == realtime.OpDelete {
		if _, ok := f.seen[key]; !ok {
			return false
		}
		delete(f.seen, key)
		return true
	}
	var owner struct {
		StationID *string `json:"radio_station_id"`
	}
	if errUnmarshal := json.Unmarshal(ev.Payload, &owner); errUnmarshal != nil {
		log.WithError(errUnmarshal).WithField("entity", ev.Entity).Debug("stream: undecodable payload")
		return false
	}
	if !f.scope.Allows(owner.StationID) {
		return false
	}
	f.seen[key] = struct{}{}
	return true
}
