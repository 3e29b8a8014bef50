package permissions

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gilcleber/Controle-Premios-sub000/internal/security"
	"github.com/gin-gonic/gin"
)

func TestDefinitionMapIncludesSharedRoutesOnBothSurfaces(t *testing.T) {
	t.Parallel()

	definitionMap := DefinitionMap()
	requiredKeys := []string{
		"POST /v0/admin/outputs",
		"POST /v0/station/outputs",
		"POST /v0/station/outputs/:id/confirm",
		"GET /v0/station/winners/history",
		"POST /v0/admin/master/:id/photos",
		"GET /v0/admin/stations/performance",
	}
	for _, key := range requiredKeys {
		key := key
		t.Run(key, func(t *testing.T) {
			t.Parallel()
			if _, ok := definitionMap[key]; !ok {
				t.Fatalf("DefinitionMap() missing permission key %q", key)
			}
		})
	}
	if _, ok := definitionMap["POST /v0/station/master"]; ok {
		t.Fatalf("master ledger must not be exposed to station sessions")
	}
}

func TestDefinitionCapabilitiesAreGrantedToMaster(t *testing.T) {
	master := CapabilitiesFor(RoleMaster)
	for _, def := range Definitions() {
		if !HasCapability(master, def.Capability) {
			t.Fatalf("%s requires %q which MASTER lacks", def.Key, def.Capability)
		}
	}
}

func TestRoleCapabilities(t *testing.T) {
	cases := []struct {
		role string
		cap  string
		want bool
	}{
		{RoleAdmin, CapOutputsDelete, true},
		{RoleAdmin, CapPrizesOnAir, true},
		{RoleAdmin, CapMasterManage, false},
		{RoleOperator, CapOutputsRegister, true},
		{RoleOperator, CapOutputsConfirm, false},
		{RoleOperator, CapPrizesOnAir, false},
		{RoleReception, CapOutputsConfirm, true},
		{RoleReception, CapOutputsRegister, false},
		{RoleReception, CapScriptRead, false},
		{"UNKNOWN", CapPrizesRead, false},
	}
	for _, tc := range cases {
		if got := HasCapability(CapabilitiesFor(tc.role), tc.cap); got != tc.want {
			t.Fatalf("%s has %s = %v, want %v", tc.role, tc.cap, got, tc.want)
		}
	}
}

func TestNormalizeRole(t *testing.T) {
	if role, ok := NormalizeRole(" reception "); !ok || role != RoleReception {
		t.Fatalf("NormalizeRole = %q, %v", role, ok)
	}
	if _, ok := NormalizeRole("guest"); ok {
		t.Fatalf("guest accepted")
	}
	if IsStationRole(RoleMaster) {
		t.Fatalf("MASTER is not a station role")
	}
}

func TestParseCapabilities(t *testing.T) {
	got := ParseCapabilities([]byte(`["stats.read","bogus","master.manage","stats.read"]`))
	if len(got) != 2 || got[0] != CapMasterManage || got[1] != CapStatsRead {
		t.Fatalf("ParseCapabilities = %v", got)
	}
	if got := ParseCapabilities([]byte(`not json`)); len(got) != 0 {
		t.Fatalf("invalid json = %v", got)
	}
}

func TestNormalizeCapabilities(t *testing.T) {
	got, err := NormalizeCapabilities([]string{" stats.read", "audit.read", "stats.read", ""})
	if err != nil {
		t.Fatalf("NormalizeCapabilities: %v", err)
	}
	if len(got) != 2 || got[0] != CapAuditRead || got[1] != CapStatsRead {
		t.Fatalf("NormalizeCapabilities = %v", got)
	}
	if _, err := NormalizeCapabilities([]string{"prizes.read", "root"}); err == nil {
		t.Fatalf("expected error for unknown capability")
	}
}

func TestMiddlewareEnforcesCapability(t *testing.T) {
	gin.SetMode(gin.TestMode)

	newRouter := func(claims *security.SessionClaims) *gin.Engine {
		r := gin.New()
		g := r.Group(StationPrefix)
		g.Use(func(c *gin.Context) {
			if claims != nil {
				c.Set(sessionContextKey, claims)
			}
			c.Next()
		}, Middleware())
		g.POST("/outputs/:id/confirm", func(c *gin.Context) { c.Status(http.StatusNoContent) })
		g.GET("/unlisted", func(c *gin.Context) { c.Status(http.StatusNoContent) })
		return r
	}

	cases := []struct {
		name   string
		claims *security.SessionClaims
		path   string
		method string
		want   int
	}{
		{name: "reception confirms", claims: &security.SessionClaims{Role: RoleReception, StationID: "s1", Capabilities: CapabilitiesFor(RoleReception)}, method: http.MethodPost, path: "/v0/station/outputs/abc/confirm", want: http.StatusNoContent},
		{name: "operator cannot confirm", claims: &security.SessionClaims{Role: RoleOperator, StationID: "s1", Capabilities: CapabilitiesFor(RoleOperator)}, method: http.MethodPost, path: "/v0/station/outputs/abc/confirm", want: http.StatusForbidden},
		{name: "unlisted route", claims: &security.SessionClaims{Role: RoleAdmin, StationID: "s1", Capabilities: CapabilitiesFor(RoleAdmin)}, method: http.MethodGet, path: "/v0/station/unlisted", want: http.StatusForbidden},
		{name: "no session", method: http.MethodPost, path: "/v0/station/outputs/abc/confirm", want: http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(tc.method, tc.path, nil)
			newRouter(tc.claims).ServeHTTP(rec, req)
			if rec.Code != tc.want {
				t.Fatalf("status = %d, want %d", rec.Code, tc.want)
			}
		})
	}
}

func TestScopeAndActor(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	if scope := Scope(c); !scope.Unrestricted() {
		t.Fatalf("scope without session = %+v", scope)
	}

	c.Set(sessionContextKey, &security.SessionClaims{Role: RoleOperator, StationID: "s1"})
	if scope := Scope(c); scope.StationID != "s1" {
		t.Fatalf("station scope = %+v", scope)
	}
	if actor := Actor(c); actor != "operator@s1" {
		t.Fatalf("actor = %q", actor)
	}

	c.Set(sessionContextKey, &security.SessionClaims{Role: RoleMaster, Username: "root", StationID: "ignored"})
	if scope := Scope(c); !scope.Unrestricted() {
		t.Fatalf("master scope = %+v", scope)
	}
	if actor := Actor(c); actor != "root" {
		t.Fatalf("actor = %q", actor)
	}
}

func TestBearerToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/stream?token=abc", nil)
	if token, ok := BearerToken(c); !ok || token != "abc" {
		t.Fatalf("query token = %q, %v", token, ok)
	}
	c.Request.Header.Set("Authorization", "Bearer xyz")
	if token, ok := BearerToken(c); !ok || token != "xyz" {
		t.Fatalf("header token = %q, %v", token, ok)
	}
	c.Request.Header.Set("Authorization", "Basic xyz")
	if _, ok := BearerToken(c); ok {
		t.Fatalf("basic auth accepted")
	}
}
