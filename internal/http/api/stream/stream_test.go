package stream

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gilcleber/Controle-Premios-sub000/internal/config"
	dbutil "github.com/gilcleber/Controle-Premios-sub000/internal/db"
	"github.com/gilcleber/Controle-Premios-sub000/internal/http/api/permissions"
	"github.com/gilcleber/Controle-Premios-sub000/internal/inventory"
	"github.com/gilcleber/Controle-Premios-sub000/internal/models"
	"github.com/gilcleber/Controle-Premios-sub000/internal/realtime"
	"github.com/gilcleber/Controle-Premios-sub000/internal/security"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

const testSecret = "stream-test-secret"

func strPtr(s string) *string { return &s }

func mustEvent(t *testing.T, entity string, op realtime.Operation, id string, payload any) realtime.Event {
	t.Helper()
	ev, err := realtime.NewEvent(entity, op, id, payload)
	if err != nil {
		t.Fatalf("NewEvent: %v", err)
	}
	return ev
}

func TestScopeFilterStationSession(t *testing.T) {
	f := newScopeFilter(inventory.Scope{StationID: "a"})
	state := f.snapshot(realtime.State{
		Prizes: []models.Prize{
			{ID: "p-a", StationID: strPtr("a")},
			{ID: "p-b", StationID: strPtr("b")},
			{ID: "p-none"},
		},
		Outputs: []models.Output{{ID: "o-a", StationID: strPtr("a")}},
	})
	if len(state.Prizes) != 1 || state.Prizes[0].ID != "p-a" {
		t.Fatalf("snapshot prizes = %+v", state.Prizes)
	}
	if len(state.Outputs) != 1 {
		t.Fatalf("snapshot outputs = %+v", state.Outputs)
	}

	cases := []struct {
		name string
		ev   realtime.Event
		want bool
	}{
		{name: "own update", ev: mustEvent(t, realtime.EntityPrizes, realtime.OpUpdate, "p-a", models.Prize{ID: "p-a", StationID: strPtr("a")}), want: true},
		{name: "other station insert", ev: mustEvent(t, realtime.EntityPrizes, realtime.OpInsert, "p-c", models.Prize{ID: "p-c", StationID: strPtr("b")}), want: false},
		{name: "delete of unseen row", ev: mustEvent(t, realtime.EntityPrizes, realtime.OpDelete, "p-b", nil), want: false},
		{name: "delete of seen row", ev: mustEvent(t, realtime.EntityOutputs, realtime.OpDelete, "o-a", nil), want: true},
		{name: "second delete", ev: mustEvent(t, realtime.EntityOutputs, realtime.OpDelete, "o-a", nil), want: false},
	}
	for _, tc := range cases {
		if got := f.allow(tc.ev); got != tc.want {
			t.Fatalf("%s: allow = %v, want %v", tc.name, got, tc.want)
		}
	}

	inserted := mustEvent(t, realtime.EntityOutputs, realtime.OpInsert, "o-new", models.Output{ID: "o-new", StationID: strPtr("a")})
	if !f.allow(inserted) {
		t.Fatalf("own insert filtered")
	}
	if !f.allow(mustEvent(t, realtime.EntityOutputs, realtime.OpDelete, "o-new", nil)) {
		t.Fatalf("delete after insert filtered")
	}
}

func TestScopeFilterMasterSeesEverything(t *testing.T) {
	f := newScopeFilter(inventory.Scope{})
	state := f.snapshot(realtime.State{Prizes: []models.Prize{{ID: "x", StationID: strPtr("b")}, {ID: "y"}}})
	if len(state.Prizes) != 2 {
		t.Fatalf("snapshot = %+v", state.Prizes)
	}
	if !f.allow(mustEvent(t, realtime.EntityPrizes, realtime.OpDelete, "never-seen", nil)) {
		t.Fatalf("master delete filtered")
	}
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:stream_%d?mode=memory&cache=shared", time.Now().UnixNano())
	conn, errOpen := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if errOpen != nil {
		t.Fatalf("open sqlite: %v", errOpen)
	}
	sqlDB, errDB := conn.DB()
	if errDB != nil {
		t.Fatalf("sql db: %v", errDB)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	if errMigrate := dbutil.Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}
	return conn
}

type sseEvent struct {
	name string
	data string
}

func readEvent(t *testing.T, r *bufio.Reader) sseEvent {
	t.Helper()
	var ev sseEvent
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			t.Fatalf("read stream: %v", err)
		}
		line = strings.TrimRight(line, "\r\n")
		switch {
		case line == "":
			if ev.name != "" {
				return ev
			}
		case strings.HasPrefix(line, "event:"):
			ev.name = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			ev.data = strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		}
	}
}

func TestStreamSendsScopedSnapshotAndChanges(t *testing.T) {
	gin.SetMode(gin.TestMode)
	conn := openTestDB(t)
	station := models.RadioStation{Name: "Sul", Slug: "sul", IsActive: true}
	if errCreate := conn.Create(&station).Error; errCreate != nil {
		t.Fatalf("create station: %v", errCreate)
	}

	reconciler := realtime.NewReconciler()
	reconciler.Seed([]models.Prize{
		{ID: "mine", Name: "Ingresso", StationID: strPtr(station.ID)},
		{ID: "theirs", Name: "Camiseta", StationID: strPtr("other")},
	}, nil)

	r := gin.New()
	RegisterStreamRoutes(r, conn, config.JWTConfig{Secret: testSecret, Expiry: time.Hour}, NewHandler(reconciler, time.Hour))
	srv := httptest.NewServer(r)
	defer srv.Close()

	token, errToken := security.GenerateSessionToken(testSecret, security.SessionClaims{
		Role:         permissions.RoleOperator,
		StationID:    station.ID,
		Capabilities: permissions.CapabilitiesFor(permissions.RoleOperator),
	}, time.Hour)
	if errToken != nil {
		t.Fatalf("token: %v", errToken)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+Path+"?token="+token, nil)
	resp, errDo := srv.Client().Do(req)
	if errDo != nil {
		t.Fatalf("request: %v", errDo)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		t.Fatalf("content type = %q", ct)
	}

	reader := bufio.NewReader(resp.Body)
	first := readEvent(t, reader)
	if first.name != "snapshot" {
		t.Fatalf("first event = %q", first.name)
	}
	var state realtime.State
	if errUnmarshal := json.Unmarshal([]byte(first.data), &state); errUnmarshal != nil {
		t.Fatalf("decode snapshot: %v", errUnmarshal)
	}
	if len(state.Prizes) != 1 || state.Prizes[0].ID != "mine" {
		t.Fatalf("snapshot prizes = %+v", state.Prizes)
	}

	if err := reconciler.Apply(mustEvent(t, realtime.EntityPrizes, realtime.OpUpdate, "theirs", models.Prize{ID: "theirs", StationID: strPtr("other")})); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if err := reconciler.Apply(mustEvent(t, realtime.EntityPrizes, realtime.OpDelete, "mine", nil)); err != nil {
		t.Fatalf("apply: %v", err)
	}

	next := readEvent(t, reader)
	if next.name != "change" {
		t.Fatalf("second event = %q", next.name)
	}
	var ev realtime.Event
	if errUnmarshal := json.Unmarshal([]byte(next.data), &ev); errUnmarshal != nil {
		t.Fatalf("decode change: %v", errUnmarshal)
	}
	if ev.ID != "mine" || ev.Operation != realtime.OpDelete {
		t.Fatalf("change = %+v", ev)
	}
}

func TestStreamRejectsMissingToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	conn := openTestDB(t)
	r := gin.New()
	RegisterStreamRoutes(r, conn, config.JWTConfig{Secret: testSecret, Expiry: time.Hour}, NewHandler(realtime.NewReconciler(), 0))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, Path, nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", w.Code)
	}
}
