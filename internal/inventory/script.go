package inventory

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"text/template"

	"github.com/gilcleber/Controle-Premios-sub000/internal/deadline"
	"github.com/gilcleber/Controle-Premios-sub000/internal/settings"
)

// scriptData feeds the announcer script template.
type scriptData struct {
	Today       string
	PrizeName   string
	Description string
	PickupDate  string
	PickupDays  int
	StationName string
	Available   int
}

// OnAirScript renders the announcer script for a prize with today's date and
// the pickup date a winner drawn now would get, both as DD/MM.
func (s *Service) OnAirScript(ctx context.Context, scope Scope, prizeID string) (string, error) {
	prize, errFind := s.GetPrize(ctx, scope, prizeID)
	if errFind != nil {
		return "", errFind
	}
	tmpl, errParse := template.New("script").Parse(settings.OnAirScriptTemplate())
	if errParse != nil {
		return "", fmt.Errorf("parse script template: %w", errParse)
	}

	now := s.now()
	data := scriptData{
		Today:       now.Format("02/01"),
		PrizeName:   strings.ToUpper(prize.Name),
		Description: prize.Description,
		PickupDate:  deadline.AddBusinessDays(now, prize.PickupDeadlineDays).Format("02/01"),
		PickupDays:  prize.PickupDeadlineDays,
		StationName: strings.ToUpper(settings.StationNameOnAir()),
		Available:   prize.AvailableQuantity,
	}
	var buf bytes.Buffer
	if errExec := tmpl.Execute(&buf, data); errExec != nil {
		return "", fmt.Errorf("render script: %w", errExec)
	}
	return buf.String(), nil
}
