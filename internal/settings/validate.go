package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"text/template"
)

// ErrUnknownKey is returned for settings the application does not read.
var ErrUnknownKey = errors.New("unknown setting")

// Keys lists every DB-backed setting in display order.
var Keys = []string{
	StationNameOnAirKey,
	DefaultPickupDeadlineDaysKey,
	ExpiringWindowDaysKey,
	OnAirScriptTemplateKey,
}

// Effective returns the value currently in force for every known key.
func Effective() map[string]any {
	return map[string]any{
		StationNameOnAirKey:          StationNameOnAir(),
		DefaultPickupDeadlineDaysKey: PickupDeadlineDays(),
		ExpiringWindowDaysKey:        ExpiringWindowDays(),
		OnAirScriptTemplateKey:       OnAirScriptTemplate(),
	}
}

// DecodeValue checks raw against the type expected for key and returns the value to store.
func DecodeValue(key string, raw json.RawMessage) (any, error) {
	switch key {
	case DefaultPickupDeadlineDaysKey, ExpiringWindowDaysKey:
		var n int
		if errUnmarshal := json.Unmarshal(raw, &n); errUnmarshal != nil {
			return nil, fmt.Errorf("%s must be an integer", key)
		}
		if n <= 0 {
			return nil, fmt.Errorf("%s must be positive", key)
		}
		return n, nil
	case StationNameOnAirKey, OnAirScriptTemplateKey:
		var s string
		if errUnmarshal := json.Unmarshal(raw, &s); errUnmarshal != nil {
			return nil, fmt.Errorf("%s must be a string", key)
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return nil, fmt.Errorf("%s cannot be empty", key)
		}
		if key == OnAirScriptTemplateKey {
			if _, errParse := template.New("script").Parse(s); errParse != nil {
				return nil, fmt.Errorf("invalid template: %w", errParse)
			}
		}
		return s, nil
	default:
		return nil, ErrUnknownKey
	}
}
