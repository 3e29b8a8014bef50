package permissions

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// Session roles. MASTER is an administrator account; the others are station sessions.
const (
	RoleMaster    = "MASTER"
	RoleAdmin     = "ADMIN"
	RoleOperator  = "OPERATOR"
	RoleReception = "RECEPTION"
)

// Capability keys granted to sessions.
const (
	CapPrizesRead       = "prizes.read"
	CapPrizesWrite      = "prizes.write"
	CapPrizesDelete     = "prizes.delete"
	CapPrizesOnAir      = "prizes.on_air"
	CapPrizesDistribute = "prizes.distribute"
	CapOutputsRead      = "outputs.read"
	CapOutputsRegister  = "outputs.register"
	CapOutputsConfirm   = "outputs.confirm"
	CapOutputsEdit      = "outputs.edit"
	CapOutputsDelete    = "outputs.delete"
	CapOutputsExport    = "outputs.export"
	CapWinnersHistory   = "winners.history"
	CapScriptRead       = "script.read"
	CapStatsRead        = "stats.read"
	CapStationsManage   = "stations.manage"
	CapProgramsManage   = "programs.manage"
	CapMasterManage     = "master.manage"
	CapBackupManage     = "backup.manage"
	CapSettingsManage   = "settings.manage"
	CapAuditRead        = "audit.read"
	CapAdminsManage     = "admins.manage"
)

// Route prefixes for the two authenticated surfaces.
const (
	AdminPrefix   = "/v0/admin"
	StationPrefix = "/v0/station"
)

var roleCapabilities = map[string][]string{
	RoleMaster: {
		CapPrizesRead, CapPrizesWrite, CapPrizesDelete, CapPrizesOnAir, CapPrizesDistribute,
		CapOutputsRead, CapOutputsRegister, CapOutputsConfirm, CapOutputsEdit, CapOutputsDelete, CapOutputsExport,
		CapWinnersHistory, CapScriptRead, CapStatsRead,
		CapStationsManage, CapProgramsManage, CapMasterManage, CapBackupManage, CapSettingsManage, CapAuditRead, CapAdminsManage,
	},
	RoleAdmin: {
		CapPrizesRead, CapPrizesWrite, CapPrizesDelete, CapPrizesOnAir, CapPrizesDistribute,
		CapOutputsRead, CapOutputsRegister, CapOutputsConfirm, CapOutputsEdit, CapOutputsDelete, CapOutputsExport,
		CapWinnersHistory, CapScriptRead, CapStatsRead,
	},
	RoleOperator: {
		CapPrizesRead, CapOutputsRead, CapOutputsRegister, CapWinnersHistory, CapScriptRead, CapStatsRead,
	},
	RoleReception: {
		CapPrizesRead, CapOutputsRead, CapOutputsConfirm, CapWinnersHistory, CapStatsRead,
	},
}

// NormalizeRole upper-cases role and reports whether it is known.
func NormalizeRole(role string) (string, bool) {
	role = strings.ToUpper(strings.TrimSpace(role))
	_, ok := roleCapabilities[role]
	return role, ok
}

// IsStationRole reports whether role logs in with a station PIN.
func IsStationRole(role string) bool {
	switch role {
	case RoleAdmin, RoleOperator, RoleReception:
		return true
	default:
		return false
	}
}

// CapabilitiesFor returns a copy of the capabilities granted to role.
func CapabilitiesFor(role string) []string {
	caps := roleCapabilities[role]
	out := make([]string, len(caps))
	copy(out, caps)
	return out
}

// ParseCapabilities decodes a stored JSON capability list, dropping unknown keys.
func ParseCapabilities(raw []byte) []string {
	if len(raw) == 0 {
		return []string{}
	}
	var values []string
	if errUnmarshal := json.Unmarshal(raw, &values); errUnmarshal != nil {
		return []string{}
	}
	known := make(map[string]struct{}, len(roleCapabilities[RoleMaster]))
	for _, c := range roleCapabilities[RoleMaster] {
		known[c] = struct{}{}
	}
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if _, ok := known[v]; !ok {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// NormalizeCapabilities trims, dedups and sorts keys, rejecting unknown ones.
func NormalizeCapabilities(keys []string) ([]string, error) {
	known := make(map[string]struct{}, len(roleCapabilities[RoleMaster]))
	for _, c := range roleCapabilities[RoleMaster] {
		known[c] = struct{}{}
	}
	out := make([]string, 0, len(keys))
	seen := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		if _, ok := known[k]; !ok {
			return nil, fmt.Errorf("unknown capability %q", k)
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Strings(out)
	return out, nil
}

// HasCapability reports whether caps contains key.
func HasCapability(caps []string, key string) bool {
	for _, c := range caps {
		if c == key {
			return true
		}
	}
	return false
}

// Definition binds a route to the capability it requires.
type Definition struct {
	Key        string `json:"key"`
	Method     string `json:"method"`
	Path       string `json:"path"`
	Capability string `json:"capability"`
	Module     string `json:"module"`
}

type route struct {
	method     string
	path       string
	capability string
	module     string
}

// sharedRoutes are mounted under both the admin and the station prefix.
var sharedRoutes = []route{
	{http.MethodGet, "/prizes", CapPrizesRead, "prizes"},
	{http.MethodPost, "/prizes", CapPrizesWrite, "prizes"},
	{http.MethodGet, "/prizes/:id", CapPrizesRead, "prizes"},
	{http.MethodPut, "/prizes/:id", CapPrizesWrite, "prizes"},
	{http.MethodDelete, "/prizes/:id", CapPrizesDelete, "prizes"},
	{http.MethodPost, "/prizes/:id/on-air", CapPrizesOnAir, "prizes"},
	{http.MethodPost, "/prizes/:id/schedule", CapPrizesOnAir, "prizes"},
	{http.MethodPost, "/prizes/:id/distribute", CapPrizesDistribute, "prizes"},
	{http.MethodGet, "/prizes/:id/script", CapScriptRead, "prizes"},
	{http.MethodGet, "/outputs", CapOutputsRead, "outputs"},
	{http.MethodPost, "/outputs", CapOutputsRegister, "outputs"},
	{http.MethodGet, "/outputs/export", CapOutputsExport, "outputs"},
	{http.MethodGet, "/outputs/:id", CapOutputsRead, "outputs"},
	{http.MethodPut, "/outputs/:id", CapOutputsEdit, "outputs"},
	{http.MethodDelete, "/outputs/:id", CapOutputsDelete, "outputs"},
	{http.MethodPost, "/outputs/:id/confirm", CapOutputsConfirm, "outputs"},
	{http.MethodPost, "/outputs/:id/extend", CapOutputsEdit, "outputs"},
	{http.MethodGet, "/winners/history", CapWinnersHistory, "outputs"},
	{http.MethodGet, "/programs", CapPrizesRead, "programs"},
	{http.MethodGet, "/dashboard", CapStatsRead, "dashboard"},
}

// adminRoutes exist only under the admin prefix.
var adminRoutes = []route{
	{http.MethodGet, "/stations", CapStationsManage, "stations"},
	{http.MethodPost, "/stations", CapStationsManage, "stations"},
	{http.MethodPut, "/stations/:id", CapStationsManage, "stations"},
	{http.MethodGet, "/stations/performance", CapStatsRead, "stations"},
	{http.MethodPost, "/programs", CapProgramsManage, "programs"},
	{http.MethodPut, "/programs/:id", CapProgramsManage, "programs"},
	{http.MethodDelete, "/programs/:id", CapProgramsManage, "programs"},
	{http.MethodGet, "/master", CapMasterManage, "master"},
	{http.MethodPost, "/master", CapMasterManage, "master"},
	{http.MethodGet, "/master/:id", CapMasterManage, "master"},
	{http.MethodPut, "/master/:id", CapMasterManage, "master"},
	{http.MethodDelete, "/master/:id", CapMasterManage, "master"},
	{http.MethodPost, "/master/:id/distribute", CapMasterManage, "master"},
	{http.MethodPost, "/master/:id/photos", CapMasterManage, "master"},
	{http.MethodDelete, "/master/:id/photos/:photo_id", CapMasterManage, "master"},
	{http.MethodGet, "/distribution-history", CapMasterManage, "master"},
	{http.MethodGet, "/backup", CapBackupManage, "backup"},
	{http.MethodPost, "/backup/restore", CapBackupManage, "backup"},
	{http.MethodGet, "/settings", CapSettingsManage, "settings"},
	{http.MethodPut, "/settings/:key", CapSettingsManage, "settings"},
	{http.MethodGet, "/audit/stock", CapAuditRead, "audit"},
	{http.MethodPost, "/audit/stock/run", CapAuditRead, "audit"},
	{http.MethodGet, "/admins", CapAdminsManage, "admins"},
	{http.MethodPost, "/admins", CapAdminsManage, "admins"},
	{http.MethodPut, "/admins/:id", CapAdminsManage, "admins"},
	{http.MethodGet, "/permissions", CapAdminsManage, "admins"},
}

// Key builds the map key for method and route path.
func Key(method, path string) string {
	return strings.ToUpper(strings.TrimSpace(method)) + " " + strings.TrimSpace(path)
}

// Definitions returns every guarded route.
func Definitions() []Definition {
	defs := make([]Definition, 0, 2*len(sharedRoutes)+len(adminRoutes))
	add := func(prefix string, r route) {
		path := prefix + r.path
		defs = append(defs, Definition{Key: Key(r.method, path), Method: r.method, Path: path, Capability: r.capability, Module: r.module})
	}
	for _, r := range sharedRoutes {
		add(AdminPrefix, r)
		add(StationPrefix, r)
	}
	for _, r := range adminRoutes {
		add(AdminPrefix, r)
	}
	return defs
}

// DefinitionMap returns definitions keyed by Key(method, path).
func DefinitionMap() map[string]Definition {
	defs := Definitions()
	out := make(map[string]Definition, len(defs))
	for _, def := range defs {
		out[def.Key] = def
	}
	return out
}
