package settings

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/gilcleber/Controle-Premios-sub000/internal/models"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func TestGettersFallBackToDefaults(t *testing.T) {
	Replace(time.Now(), map[string]json.RawMessage{})

	if got := PickupDeadlineDays(); got != DefaultPickupDeadlineDays {
		t.Fatalf("PickupDeadlineDays = %d", got)
	}
	if got := ExpiringWindowDays(); got != DefaultExpiringWindowDays {
		t.Fatalf("ExpiringWindowDays = %d", got)
	}
	if got := OnAirScriptTemplate(); got != DefaultOnAirScriptTemplate {
		t.Fatalf("unexpected template %q", got)
	}
}

func TestGettersReadSnapshot(t *testing.T) {
	Replace(time.Now(), map[string]json.RawMessage{
		DefaultPickupDeadlineDaysKey: json.RawMessage(`5`),
		ExpiringWindowDaysKey:        json.RawMessage(`"15"`),
		StationNameOnAirKey:          json.RawMessage(`"Rádio Central"`),
	})
	t.Cleanup(func() { Replace(time.Now(), nil) })

	if got := PickupDeadlineDays(); got != 5 {
		t.Fatalf("PickupDeadlineDays = %d, want 5", got)
	}
	if got := ExpiringWindowDays(); got != 15 {
		t.Fatalf("ExpiringWindowDays = %d, want 15", got)
	}
	if got := StationNameOnAir(); got != "Rádio Central" {
		t.Fatalf("StationNameOnAir = %q", got)
	}
}

func TestGettersRejectNonPositive(t *testing.T) {
	Replace(time.Now(), map[string]json.RawMessage{
		DefaultPickupDeadlineDaysKey: json.RawMessage(`0`),
		ExpiringWindowDaysKey:        json.RawMessage(`"abc"`),
	})
	t.Cleanup(func() { Replace(time.Now(), nil) })

	if got := PickupDeadlineDays(); got != DefaultPickupDeadlineDays {
		t.Fatalf("PickupDeadlineDays = %d", got)
	}
	if got := ExpiringWindowDays(); got != DefaultExpiringWindowDays {
		t.Fatalf("ExpiringWindowDays = %d", got)
	}
}

func TestUpsertRefreshesSnapshot(t *testing.T) {
	dsn := fmt.Sprintf("file:settings_upsert_%d?mode=memory&cache=shared", time.Now().UnixNano())
	conn, errOpen := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if errOpen != nil {
		t.Fatalf("open sqlite: %v", errOpen)
	}
	if errMigrate := conn.AutoMigrate(&models.Setting{}); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}
	t.Cleanup(func() { Replace(time.Now(), nil) })

	if errUpsert := Upsert(context.Background(), conn, DefaultPickupDeadlineDaysKey, 7); errUpsert != nil {
		t.Fatalf("upsert: %v", errUpsert)
	}
	if got := PickupDeadlineDays(); got != 7 {
		t.Fatalf("PickupDeadlineDays = %d, want 7", got)
	}
	if errUpsert := Upsert(context.Background(), conn, DefaultPickupDeadlineDaysKey, 4); errUpsert != nil {
		t.Fatalf("second upsert: %v", errUpsert)
	}
	if got := PickupDeadlineDays(); got != 4 {
		t.Fatalf("PickupDeadlineDays = %d, want 4", got)
	}
}

func TestDecodeValue(t *testing.T) {
	cases := []struct {
		name    string
		key     string
		raw     string
		want    any
		wantErr bool
	}{
		{name: "positive int", key: ExpiringWindowDaysKey, raw: `10`, want: 10},
		{name: "zero int", key: DefaultPickupDeadlineDaysKey, raw: `0`, wantErr: true},
		{name: "string for int", key: DefaultPickupDeadlineDaysKey, raw: `"3"`, wantErr: true},
		{name: "station name", key: StationNameOnAirKey, raw: `" Rádio Sul "`, want: "Rádio Sul"},
		{name: "blank station name", key: StationNameOnAirKey, raw: `"  "`, wantErr: true},
		{name: "valid template", key: OnAirScriptTemplateKey, raw: `"{{.PrizeName}}"`, want: "{{.PrizeName}}"},
		{name: "broken template", key: OnAirScriptTemplateKey, raw: `"{{.PrizeName"`, wantErr: true},
		{name: "unknown key", key: "FOO", raw: `1`, wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := DecodeValue(tc.key, json.RawMessage(tc.raw))
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("DecodeValue: %v", err)
			}
			if got != tc.want {
				t.Fatalf("DecodeValue = %#v, want %#v", got, tc.want)
			}
		})
	}
}
