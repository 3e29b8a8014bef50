package settings

// DB config keys and defaults for settings.
const (
	// StationNameOnAirKey is the station name read by announcers in scripts.
	StationNameOnAirKey = "STATION_NAME_ON_AIR"
	// DefaultStationNameOnAir is the fallback on-air station name.
	DefaultStationNameOnAir = "Rádio"
	// DefaultPickupDeadlineDaysKey is the pickup window applied to new prizes without one.
	DefaultPickupDeadlineDaysKey = "DEFAULT_PICKUP_DEADLINE_DAYS"
	// DefaultPickupDeadlineDays is the fallback pickup window in business days.
	DefaultPickupDeadlineDays = 3
	// ExpiringWindowDaysKey is the look-ahead used by the dashboard expiring list.
	ExpiringWindowDaysKey = "EXPIRING_WINDOW_DAYS"
	// DefaultExpiringWindowDays is the fallback expiring window.
	DefaultExpiringWindowDays = 30
	// OnAirScriptTemplateKey holds the text/template used for announcer scripts.
	OnAirScriptTemplateKey = "ON_AIR_SCRIPT_TEMPLATE"
	// DefaultOnAirScriptTemplate is the fallback announcer script.
	DefaultOnAirScriptTemplate = `{{.Today}}
E HOJE AQUI NA {{.StationName}} VOCÊ PODE GANHAR PRÊMIOS.
*{{.PrizeName}}*
PARTICIPE PELOS NOSSOS CANAIS E BOA SORTE. VAMOS DIVULGAR O GANHADOR NO FINAL DO PROGRAMA.
A RETIRADA É OBRIGATÓRIA DA PESSOA SORTEADA.
RETIRADA ATÉ DIA {{.PickupDate}}`
)
