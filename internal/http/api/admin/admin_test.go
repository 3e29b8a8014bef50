package admin

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gilcleber/Controle-Premios-sub000/internal/audit"
	"github.com/gilcleber/Controle-Premios-sub000/internal/config"
	dbutil "github.com/gilcleber/Controle-Premios-sub000/internal/db"
	"github.com/gilcleber/Controle-Premios-sub000/internal/http/api/permissions"
	"github.com/gilcleber/Controle-Premios-sub000/internal/http/api/station"
	"github.com/gilcleber/Controle-Premios-sub000/internal/inventory"
	"github.com/gilcleber/Controle-Premios-sub000/internal/models"
	"github.com/gilcleber/Controle-Premios-sub000/internal/security"
	"github.com/gilcleber/Controle-Premios-sub000/internal/settings"
	"github.com/gilcleber/Controle-Premios-sub000/internal/storage"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/pquerna/otp/totp"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var testJWT = config.JWTConfig{Secret: "admin-test-secret", Expiry: time.Hour}

var pngPhoto = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

type testEnv struct {
	router *gin.Engine
	db     *gorm.DB
	svc    *inventory.Service
}

func newTestEnv(t *testing.T, auditor bool) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:admin_%d?mode=memory&cache=shared", time.Now().UnixNano())
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

	photos, errStore := storage.NewLocalStore(t.TempDir(), "/photos")
	if errStore != nil {
		t.Fatalf("local store: %v", errStore)
	}
	svc := inventory.NewService(conn, inventory.WithPhotoStore(photos))

	var stockAuditor *audit.StockAuditor
	if auditor {
		stockAuditor = audit.NewStockAuditor(conn, nil, time.Hour)
	}

	r := gin.New()
	RegisterAdminRoutes(r, conn, testJWT, svc, stockAuditor)
	station.RegisterStationRoutes(r, conn, testJWT, svc)
	return &testEnv{router: r, db: conn, svc: svc}
}

func (e *testEnv) createAdmin(t *testing.T, username, password string, super bool, caps []string) models.Admin {
	t.Helper()
	hash, errHash := security.HashPassword(password)
	if errHash != nil {
		t.Fatalf("hash: %v", errHash)
	}
	raw, _ := json.Marshal(caps)
	admin := models.Admin{Username: username, Password: hash, Active: true, IsSuperAdmin: super, Capabilities: datatypes.JSON(raw)}
	if errCreate := e.db.Create(&admin).Error; errCreate != nil {
		t.Fatalf("create admin: %v", errCreate)
	}
	return admin
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, errMarshal := json.Marshal(body)
		if errMarshal != nil {
			t.Fatalf("marshal: %v", errMarshal)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) login(t *testing.T, username, password string) string {
	t.Helper()
	w := e.do(t, http.MethodPost, "/v0/admin/login", "", gin.H{"username": username, "password": password})
	if w.Code != http.StatusOK {
		t.Fatalf("login status = %d body=%s", w.Code, w.Body.String())
	}
	var resp struct {
		Token string `json:"token"`
	}
	if errUnmarshal := json.Unmarshal(w.Body.Bytes(), &resp); errUnmarshal != nil || resp.Token == "" {
		t.Fatalf("decode login: %v body=%s", errUnmarshal, w.Body.String())
	}
	return resp.Token
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if errUnmarshal := json.Unmarshal(w.Body.Bytes(), &out); errUnmarshal != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), errUnmarshal)
	}
	return out
}

func TestAdminLoginAndCapabilities(t *testing.T) {
	env := newTestEnv(t, false)
	env.createAdmin(t, "root", "s3cret", true, nil)
	env.createAdmin(t, "viewer", "s3cret", false, []string{permissions.CapStatsRead, permissions.CapPrizesRead})

	if w := env.do(t, http.MethodPost, "/v0/admin/login", "", gin.H{"username": "root", "password": "wrong"}); w.Code != http.StatusUnauthorized {
		t.Fatalf("wrong password status = %d", w.Code)
	}

	rootToken := env.login(t, "root", "s3cret")
	if w := env.do(t, http.MethodGet, "/v0/admin/stations", rootToken, nil); w.Code != http.StatusOK {
		t.Fatalf("root list stations = %d", w.Code)
	}

	viewerToken := env.login(t, "viewer", "s3cret")
	if w := env.do(t, http.MethodGet, "/v0/admin/stations", viewerToken, nil); w.Code != http.StatusForbidden {
		t.Fatalf("viewer list stations = %d", w.Code)
	}
	if w := env.do(t, http.MethodGet, "/v0/admin/dashboard", viewerToken, nil); w.Code != http.StatusOK {
		t.Fatalf("viewer dashboard = %d body=%s", w.Code, w.Body.String())
	}
	if w := env.do(t, http.MethodGet, "/v0/admin/me", viewerToken, nil); w.Code != http.StatusOK {
		t.Fatalf("viewer me = %d", w.Code)
	}
	if w := env.do(t, http.MethodGet, "/v0/admin/stations", "", nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous list stations = %d", w.Code)
	}
}

func TestAdminLoginRejectsDisabledAccount(t *testing.T) {
	env := newTestEnv(t, false)
	admin := env.createAdmin(t, "root", "s3cret", true, nil)
	token := env.login(t, "root", "s3cret")

	if errUpdate := env.db.Model(&models.Admin{}).Where("id = ?", admin.ID).Update("active", false).Error; errUpdate != nil {
		t.Fatalf("disable: %v", errUpdate)
	}
	if w := env.do(t, http.MethodPost, "/v0/admin/login", "", gin.H{"username": "root", "password": "s3cret"}); w.Code != http.StatusForbidden {
		t.Fatalf("login disabled = %d", w.Code)
	}
	if w := env.do(t, http.MethodGet, "/v0/admin/stations", token, nil); w.Code != http.StatusForbidden {
		t.Fatalf("existing token after disable = %d", w.Code)
	}
}

func TestTOTPEnrollmentAndLogin(t *testing.T) {
	env := newTestEnv(t, false)
	env.createAdmin(t, "root", "s3cret", true, nil)
	token := env.login(t, "root", "s3cret")

	w := env.do(t, http.MethodPost, "/v0/admin/mfa/totp/prepare", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("prepare = %d", w.Code)
	}
	prepared := decode[struct {
		Secret string `json:"secret"`
		URL    string `json:"otpauth_url"`
	}](t, w)
	if prepared.Secret == "" || !strings.HasPrefix(prepared.URL, "otpauth://") {
		t.Fatalf("prepare response = %+v", prepared)
	}

	if w := env.do(t, http.MethodPost, "/v0/admin/mfa/totp/confirm", token, gin.H{"code": "000000"}); w.Code != http.StatusUnauthorized {
		t.Fatalf("confirm wrong code = %d", w.Code)
	}
	code, errCode := totp.GenerateCode(prepared.Secret, time.Now())
	if errCode != nil {
		t.Fatalf("generate code: %v", errCode)
	}
	if w := env.do(t, http.MethodPost, "/v0/admin/mfa/totp/confirm", token, gin.H{"code": code}); w.Code != http.StatusOK {
		t.Fatalf("confirm = %d body=%s", w.Code, w.Body.String())
	}

	if w := env.do(t, http.MethodPost, "/v0/admin/login", "", gin.H{"username": "root", "password": "s3cret"}); w.Code != http.StatusForbidden {
		t.Fatalf("login without code = %d", w.Code)
	}
	if w := env.do(t, http.MethodPost, "/v0/admin/login", "", gin.H{"username": "root", "password": "s3cret", "totp_code": "000000"}); w.Code != http.StatusUnauthorized {
		t.Fatalf("login wrong code = %d", w.Code)
	}
	code, _ = totp.GenerateCode(prepared.Secret, time.Now())
	if w := env.do(t, http.MethodPost, "/v0/admin/login", "", gin.H{"username": "root", "password": "s3cret", "totp_code": code}); w.Code != http.StatusOK {
		t.Fatalf("login with code = %d", w.Code)
	}

	status := decode[struct {
		Enabled bool `json:"totp_enabled"`
	}](t, env.do(t, http.MethodGet, "/v0/admin/mfa", token, nil))
	if !status.Enabled {
		t.Fatalf("expected totp enabled")
	}
	if w := env.do(t, http.MethodDelete, "/v0/admin/mfa/totp", token, nil); w.Code != http.StatusOK {
		t.Fatalf("disable totp = %d", w.Code)
	}
}

func TestStationManagementAndStationLogin(t *testing.T) {
	env := newTestEnv(t, false)
	env.createAdmin(t, "root", "s3cret", true, nil)
	token := env.login(t, "root", "s3cret")

	if w := env.do(t, http.MethodPost, "/v0/admin/stations", token, gin.H{"name": "Rádio Sul FM", "pin": "1234", "admin_pin": "1234"}); w.Code != http.StatusBadRequest {
		t.Fatalf("admin pin equal to access pin = %d", w.Code)
	}
	w := env.do(t, http.MethodPost, "/v0/admin/stations", token, gin.H{"name": "Rádio Sul FM", "pin": "1234", "admin_pin": "5678"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create station = %d body=%s", w.Code, w.Body.String())
	}
	created := decode[models.RadioStation](t, w)
	if created.Slug != "radio-sul-fm" || !created.IsActive {
		t.Fatalf("created = %+v", created)
	}
	if strings.Contains(w.Body.String(), "access_pin") || strings.Contains(w.Body.String(), "admin_pin") {
		t.Fatalf("pin hash leaked: %s", w.Body.String())
	}

	if w := env.do(t, http.MethodPost, "/v0/admin/stations", token, gin.H{"name": "Outra", "slug": "Rádio Sul FM", "pin": "9999"}); w.Code != http.StatusConflict {
		t.Fatalf("duplicate slug = %d", w.Code)
	}
	if w := env.do(t, http.MethodPost, "/v0/admin/stations", token, gin.H{"name": "Norte", "pin": "12"}); w.Code != http.StatusBadRequest {
		t.Fatalf("weak pin = %d", w.Code)
	}

	login := gin.H{"slug": "radio-sul-fm", "pin": "1234", "role": "reception"}
	if w := env.do(t, http.MethodPost, "/v0/station/login", "", login); w.Code != http.StatusOK {
		t.Fatalf("station login = %d body=%s", w.Code, w.Body.String())
	}
	if w := env.do(t, http.MethodPost, "/v0/station/login", "", gin.H{"slug": "radio-sul-fm", "pin": "1234", "role": "admin"}); w.Code != http.StatusUnauthorized {
		t.Fatalf("station admin with access pin = %d", w.Code)
	}
	if w := env.do(t, http.MethodPost, "/v0/station/login", "", gin.H{"slug": "radio-sul-fm", "pin": "5678", "role": "admin"}); w.Code != http.StatusOK {
		t.Fatalf("station admin login = %d body=%s", w.Code, w.Body.String())
	}
	if w := env.do(t, http.MethodPut, "/v0/admin/stations/"+created.ID, token, gin.H{"admin_pin": ""}); w.Code != http.StatusOK {
		t.Fatalf("clear admin pin = %d", w.Code)
	}
	if w := env.do(t, http.MethodPost, "/v0/station/login", "", gin.H{"slug": "radio-sul-fm", "pin": "5678", "role": "admin"}); w.Code != http.StatusUnauthorized {
		t.Fatalf("station admin after clearing pin = %d", w.Code)
	}

	if w := env.do(t, http.MethodPut, "/v0/admin/stations/"+created.ID, token, gin.H{"is_active": false}); w.Code != http.StatusOK {
		t.Fatalf("disable station = %d", w.Code)
	}
	if w := env.do(t, http.MethodPost, "/v0/station/login", "", login); w.Code != http.StatusForbidden {
		t.Fatalf("login disabled station = %d", w.Code)
	}
	if w := env.do(t, http.MethodPut, "/v0/admin/stations/missing", token, gin.H{"name": "X"}); w.Code != http.StatusNotFound {
		t.Fatalf("update missing = %d", w.Code)
	}
}

func TestStationSessionCannotUseAdminRoutes(t *testing.T) {
	env := newTestEnv(t, false)
	st := models.RadioStation{Name: "Sul", Slug: "sul", IsActive: true}
	if errCreate := env.db.Create(&st).Error; errCreate != nil {
		t.Fatalf("create station: %v", errCreate)
	}
	token, errToken := security.GenerateSessionToken(testJWT.Secret, security.SessionClaims{
		Role:         permissions.RoleAdmin,
		StationID:    st.ID,
		Capabilities: permissions.CapabilitiesFor(permissions.RoleAdmin),
	}, time.Hour)
	if errToken != nil {
		t.Fatalf("token: %v", errToken)
	}
	if w := env.do(t, http.MethodGet, "/v0/admin/prizes", token, nil); w.Code != http.StatusForbidden {
		t.Fatalf("station token on admin surface = %d", w.Code)
	}
	if w := env.do(t, http.MethodGet, "/v0/station/prizes", token, nil); w.Code != http.StatusOK {
		t.Fatalf("station token on station surface = %d", w.Code)
	}
}

func TestProgramsCRUD(t *testing.T) {
	env := newTestEnv(t, false)
	env.createAdmin(t, "root", "s3cret", true, nil)
	token := env.login(t, "root", "s3cret")

	if w := env.do(t, http.MethodPost, "/v0/admin/programs", token, gin.H{"name": "Manhã", "radio_station_id": "nope"}); w.Code != http.StatusNotFound {
		t.Fatalf("program for unknown station = %d", w.Code)
	}
	w := env.do(t, http.MethodPost, "/v0/admin/programs", token, gin.H{"name": "Manhã Total"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create program = %d body=%s", w.Code, w.Body.String())
	}
	program := decode[models.Program](t, w)

	w = env.do(t, http.MethodPut, "/v0/admin/programs/"+program.ID, token, gin.H{"active": false})
	if w.Code != http.StatusOK {
		t.Fatalf("update program = %d", w.Code)
	}
	if updated := decode[models.Program](t, w); updated.Active {
		t.Fatalf("program still active")
	}

	if w := env.do(t, http.MethodDelete, "/v0/admin/programs/"+program.ID, token, nil); w.Code != http.StatusNoContent {
		t.Fatalf("delete program = %d", w.Code)
	}
	if w := env.do(t, http.MethodDelete, "/v0/admin/programs/"+program.ID, token, nil); w.Code != http.StatusNotFound {
		t.Fatalf("delete again = %d", w.Code)
	}
}

func TestMasterDistributeAndPhotos(t *testing.T) {
	env := newTestEnv(t, false)
	env.createAdmin(t, "root", "s3cret", true, nil)
	token := env.login(t, "root", "s3cret")
	st := models.RadioStation{Name: "Sul", Slug: "sul", IsActive: true}
	if errCreate := env.db.Create(&st).Error; errCreate != nil {
		t.Fatalf("create station: %v", errCreate)
	}

	w := env.do(t, http.MethodPost, "/v0/admin/master", token, gin.H{"item_name": "Fone Bluetooth", "supplier": "Loja X", "total_quantity": 10, "receipt_date": "2025-12-01"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create master = %d body=%s", w.Code, w.Body.String())
	}
	item := decode[models.MasterInventory](t, w)

	w = env.do(t, http.MethodPost, "/v0/admin/master/"+item.ID+"/distribute", token, gin.H{"radio_station_id": st.ID, "quantity": 4})
	if w.Code != http.StatusOK {
		t.Fatalf("distribute = %d body=%s", w.Code, w.Body.String())
	}
	result := decode[inventory.DistributionResult](t, w)
	if result.Destination.AvailableQuantity != 4 || result.History.DistributedBy != "root" {
		t.Fatalf("result = %+v", result)
	}

	if w := env.do(t, http.MethodPost, "/v0/admin/master/"+item.ID+"/distribute", token, gin.H{"radio_station_id": st.ID, "quantity": 7}); w.Code != http.StatusConflict {
		t.Fatalf("over-distribute = %d", w.Code)
	}

	history := decode[struct {
		History []models.DistributionHistory `json:"history"`
	}](t, env.do(t, http.MethodGet, "/v0/admin/distribution-history?master_id="+item.ID, token, nil))
	if len(history.History) != 1 || history.History[0].QuantityDistributed != 4 {
		t.Fatalf("history = %+v", history.History)
	}

	upload := func(content []byte, photoType string) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		_ = mw.WriteField("photo_type", photoType)
		part, _ := mw.CreateFormFile("photo", "nota.png")
		_, _ = part.Write(content)
		_ = mw.Close()
		req := httptest.NewRequest(http.MethodPost, "/v0/admin/master/"+item.ID+"/photos", &buf)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		env.router.ServeHTTP(rec, req)
		return rec
	}

	w = upload(pngPhoto, "receipt")
	if w.Code != http.StatusCreated {
		t.Fatalf("upload = %d body=%s", w.Code, w.Body.String())
	}
	photo := decode[models.MasterInventoryPhoto](t, w)
	if !strings.HasPrefix(photo.PhotoURL, "/photos/"+item.ID+"/receipt_") {
		t.Fatalf("photo url = %q", photo.PhotoURL)
	}
	if w := upload([]byte("not an image"), "receipt"); w.Code != http.StatusBadRequest {
		t.Fatalf("upload text = %d", w.Code)
	}
	if w := upload(pngPhoto, "selfie"); w.Code != http.StatusBadRequest {
		t.Fatalf("upload bad type = %d", w.Code)
	}

	if w := env.do(t, http.MethodDelete, "/v0/admin/master/"+item.ID+"/photos/"+photo.ID, token, nil); w.Code != http.StatusNoContent {
		t.Fatalf("delete photo = %d", w.Code)
	}
	if w := env.do(t, http.MethodGet, "/v0/admin/master/missing", token, nil); w.Code != http.StatusNotFound {
		t.Fatalf("get missing = %d", w.Code)
	}
}

func TestSettingsUpdate(t *testing.T) {
	env := newTestEnv(t, false)
	t.Cleanup(func() { settings.Replace(time.Now(), nil) })
	env.createAdmin(t, "root", "s3cret", true, nil)
	token := env.login(t, "root", "s3cret")

	if w := env.do(t, http.MethodPut, "/v0/admin/settings/expiring_window_days", token, gin.H{"value": 10}); w.Code != http.StatusOK {
		t.Fatalf("update = %d body=%s", w.Code, w.Body.String())
	}
	if got := settings.ExpiringWindowDays(); got != 10 {
		t.Fatalf("ExpiringWindowDays = %d", got)
	}
	if w := env.do(t, http.MethodPut, "/v0/admin/settings/EXPIRING_WINDOW_DAYS", token, gin.H{"value": -1}); w.Code != http.StatusBadRequest {
		t.Fatalf("negative = %d", w.Code)
	}
	if w := env.do(t, http.MethodPut, "/v0/admin/settings/NOPE", token, gin.H{"value": 1}); w.Code != http.StatusNotFound {
		t.Fatalf("unknown = %d", w.Code)
	}

	list := decode[struct {
		Settings []struct {
			Key        string `json:"key"`
			Overridden bool   `json:"overridden"`
		} `json:"settings"`
	}](t, env.do(t, http.MethodGet, "/v0/admin/settings", token, nil))
	if len(list.Settings) != len(settings.Keys) {
		t.Fatalf("settings = %+v", list.Settings)
	}
	for _, s := range list.Settings {
		if s.Key == settings.ExpiringWindowDaysKey && !s.Overridden {
			t.Fatalf("expected override flag on %s", s.Key)
		}
	}
}

func TestAdminsManagement(t *testing.T) {
	env := newTestEnv(t, false)
	root := env.createAdmin(t, "root", "s3cret", true, nil)
	token := env.login(t, "root", "s3cret")

	if w := env.do(t, http.MethodPost, "/v0/admin/admins", token, gin.H{"username": "ana", "password": "pw", "capabilities": []string{"root.everything"}}); w.Code != http.StatusBadRequest {
		t.Fatalf("unknown capability = %d", w.Code)
	}
	w := env.do(t, http.MethodPost, "/v0/admin/admins", token, gin.H{"username": "ana", "password": "pw", "capabilities": []string{permissions.CapBackupManage}})
	if w.Code != http.StatusCreated {
		t.Fatalf("create admin = %d body=%s", w.Code, w.Body.String())
	}
	if w := env.do(t, http.MethodPost, "/v0/admin/admins", token, gin.H{"username": "ana", "password": "pw"}); w.Code != http.StatusConflict {
		t.Fatalf("duplicate admin = %d", w.Code)
	}
	if w := env.do(t, http.MethodPut, fmt.Sprintf("/v0/admin/admins/%d", root.ID), token, gin.H{"active": false}); w.Code != http.StatusBadRequest {
		t.Fatalf("self disable = %d", w.Code)
	}

	anaToken := env.login(t, "ana", "pw")
	if w := env.do(t, http.MethodGet, "/v0/admin/backup", anaToken, nil); w.Code != http.StatusOK {
		t.Fatalf("ana backup = %d", w.Code)
	}
	if w := env.do(t, http.MethodGet, "/v0/admin/admins", anaToken, nil); w.Code != http.StatusForbidden {
		t.Fatalf("ana admins = %d", w.Code)
	}
}

func TestBackupExportAndRestore(t *testing.T) {
	env := newTestEnv(t, false)
	env.createAdmin(t, "root", "s3cret", true, nil)
	token := env.login(t, "root", "s3cret")

	if w := env.do(t, http.MethodPost, "/v0/admin/prizes", token, gin.H{"name": "Ingresso Show", "totalQuantity": 2}); w.Code != http.StatusCreated {
		t.Fatalf("create prize = %d body=%s", w.Code, w.Body.String())
	}
	w := env.do(t, http.MethodGet, "/v0/admin/backup", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("export = %d", w.Code)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "backup_premios_") {
		t.Fatalf("content disposition = %q", cd)
	}
	backup := decode[inventory.Backup](t, w)
	if len(backup.Prizes) != 1 {
		t.Fatalf("backup prizes = %d", len(backup.Prizes))
	}

	if w := env.do(t, http.MethodPost, "/v0/admin/backup/restore", token, gin.H{}); w.Code != http.StatusBadRequest {
		t.Fatalf("restore empty = %d", w.Code)
	}
	backup.Prizes[0].Name = "Ingresso Restaurado"
	if w := env.do(t, http.MethodPost, "/v0/admin/backup/restore", token, backup); w.Code != http.StatusOK {
		t.Fatalf("restore = %d body=%s", w.Code, w.Body.String())
	}
	var prize models.Prize
	if errFind := env.db.First(&prize).Error; errFind != nil || prize.Name != "Ingresso Restaurado" {
		t.Fatalf("restored prize = %+v err=%v", prize, errFind)
	}
}

func TestAuditEndpoints(t *testing.T) {
	disabled := newTestEnv(t, false)
	disabled.createAdmin(t, "root", "s3cret", true, nil)
	token := disabled.login(t, "root", "s3cret")
	if w := disabled.do(t, http.MethodGet, "/v0/admin/audit/stock", token, nil); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("disabled auditor = %d", w.Code)
	}

	env := newTestEnv(t, true)
	env.createAdmin(t, "root", "s3cret", true, nil)
	token = env.login(t, "root", "s3cret")
	broken := models.Prize{Name: "Quebrado", TotalQuantity: 1, AvailableQuantity: 3, EntryDate: time.Now().UTC()}
	if errCreate := env.db.Create(&broken).Error; errCreate != nil {
		t.Fatalf("create prize: %v", errCreate)
	}
	w := env.do(t, http.MethodPost, "/v0/admin/audit/stock/run", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("run audit = %d", w.Code)
	}
	resp := decode[struct {
		Report audit.Report `json:"report"`
	}](t, w)
	if len(resp.Report.Anomalies) != 1 || resp.Report.Anomalies[0].ID != broken.ID {
		t.Fatalf("report = %+v", resp.Report)
	}
	last := decode[struct {
		Report *audit.Report `json:"report"`
	}](t, env.do(t, http.MethodGet, "/v0/admin/audit/stock", token, nil))
	if last.Report == nil || len(last.Report.Anomalies) != 1 {
		t.Fatalf("last report = %+v", last.Report)
	}
}

func TestHealthzAndPermissionsList(t *testing.T) {
	env := newTestEnv(t, false)
	if w := env.do(t, http.MethodGet, "/healthz", "", nil); w.Code != http.StatusOK {
		t.Fatalf("healthz = %d", w.Code)
	}
	env.createAdmin(t, "root", "s3cret", true, nil)
	token := env.login(t, "root", "s3cret")
	resp := decode[struct {
		Permissions []permissions.Definition `json:"permissions"`
		Roles       map[string][]string      `json:"roles"`
	}](t, env.do(t, http.MethodGet, "/v0/admin/permissions", token, nil))
	if len(resp.Permissions) != len(permissions.Definitions()) {
		t.Fatalf("permissions = %d", len(resp.Permissions))
	}
	if len(resp.Roles[permissions.RoleReception]) == 0 {
		t.Fatalf("roles = %+v", resp.Roles)
	}
}
