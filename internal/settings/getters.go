package settings

import (
	"encoding/json"
	"strconv"
	"strings"
)

// PickupDeadlineDays returns the default pickup window in business days.
func PickupDeadlineDays() int {
	return positiveInt(DefaultPickupDeadlineDaysKey, DefaultPickupDeadlineDays)
}

// ExpiringWindowDays returns the dashboard look-ahead for expiring prizes.
func ExpiringWindowDays() int {
	return positiveInt(ExpiringWindowDaysKey, DefaultExpiringWindowDays)
}

// OnAirScriptTemplate returns the announcer script template.
func OnAirScriptTemplate() string {
	return stringValue(OnAirScriptTemplateKey, DefaultOnAirScriptTemplate)
}

// StationNameOnAir returns the station name spoken in scripts.
func StationNameOnAir() string {
	return stringValue(StationNameOnAirKey, DefaultStationNameOnAir)
}

func positiveInt(key string, fallback int) int {
	raw, ok := Raw(key)
	if !ok || len(raw) == 0 {
		return fallback
	}
	var n int
	if errUnmarshal := json.Unmarshal(raw, &n); errUnmarshal != nil {
		// Values saved as JSON strings ("5") are accepted too.
		var s string
		if errString := json.Unmarshal(raw, &s); errString != nil {
			return fallback
		}
		parsed, errAtoi := strconv.Atoi(strings.TrimSpace(s))
		if errAtoi != nil {
			return fallback
		}
		n = parsed
	}
	if n <= 0 {
		return fallback
	}
	return n
}

func stringValue(key, fallback string) string {
	raw, ok := Raw(key)
	if !ok || len(raw) == 0 {
		return fallback
	}
	var s string
	if errUnmarshal := json.Unmarshal(raw, &s); errUnmarshal != nil {
		return fallback
	}
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
