package admin

import (
	"github.com/gilcleber/Controle-Premios-sub000/internal/audit"
	"github.com/gilcleber/Controle-Premios-sub000/internal/config"
	"github.com/gilcleber/Controle-Premios-sub000/internal/http/api/admin/handlers"
	"github.com/gilcleber/Controle-Premios-sub000/internal/http/api/permissions"
	"github.com/gilcleber/Controle-Premios-sub000/internal/http/api/station"
	"github.com/gilcleber/Controle-Premios-sub000/internal/inventory"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// RegisterAdminRoutes registers the health probe, master admin login and the
// MASTER-session API. The auditor may be nil.
func RegisterAdminRoutes(r *gin.Engine, db *gorm.DB, jwtCfg config.JWTConfig, svc *inventory.Service, auditor *audit.StockAuditor) {
	if r == nil || db == nil || svc == nil {
		return
	}

	healthHandler := handlers.NewHealthHandler(db)
	r.GET("/healthz", healthHandler.Healthz)

	group := r.Group(permissions.AdminPrefix)

	authHandler := handlers.NewAuthHandler(db, jwtCfg)
	group.POST("/login", authHandler.Login)

	// Account routes any signed-in admin may use regardless of capabilities.
	self := group.Group("")
	self.Use(permissions.AuthMiddleware(db, jwtCfg.Secret, permissions.SurfaceAdmin))
	mfaHandler := handlers.NewMFAHandler(db)
	self.GET("/me", authHandler.Me)
	self.GET("/version", handlers.NewVersionHandler().GetVersion)
	self.GET("/mfa", mfaHandler.Status)
	self.POST("/mfa/totp/prepare", mfaHandler.PrepareTOTP)
	self.POST("/mfa/totp/confirm", mfaHandler.ConfirmTOTP)
	self.DELETE("/mfa/totp", mfaHandler.DisableTOTP)

	authed := group.Group("")
	authed.Use(permissions.AuthMiddleware(db, jwtCfg.Secret, permissions.SurfaceAdmin), permissions.Middleware())
	station.MountInventoryRoutes(authed, db, svc)

	stationHandler := handlers.NewStationHandler(db, svc)
	authed.GET("/stations", stationHandler.List)
	authed.POST("/stations", stationHandler.Create)
	authed.PUT("/stations/:id", stationHandler.Update)
	authed.GET("/stations/performance", stationHandler.Performance)

	programHandler := handlers.NewProgramHandler(db)
	authed.POST("/programs", programHandler.Create)
	authed.PUT("/programs/:id", programHandler.Update)
	authed.DELETE("/programs/:id", programHandler.Delete)

	masterHandler := handlers.NewMasterHandler(svc)
	authed.GET("/master", masterHandler.List)
	authed.POST("/master", masterHandler.Create)
	authed.GET("/master/:id", masterHandler.Get)
	authed.PUT("/master/:id", masterHandler.Update)
	authed.DELETE("/master/:id", masterHandler.Delete)
	authed.POST("/master/:id/distribute", masterHandler.Distribute)
	authed.POST("/master/:id/photos", masterHandler.UploadPhoto)
	authed.DELETE("/master/:id/photos/:photo_id", masterHandler.DeletePhoto)
	authed.GET("/distribution-history", masterHandler.History)

	backupHandler := handlers.NewBackupHandler(svc)
	authed.GET("/backup", backupHandler.Export)
	authed.POST("/backup/restore", backupHandler.Restore)

	settingsHandler := handlers.NewSettingsHandler(db)
	authed.GET("/settings", settingsHandler.List)
	authed.PUT("/settings/:key", settingsHandler.Update)

	auditHandler := handlers.NewAuditHandler(auditor)
	authed.GET("/audit/stock", auditHandler.Last)
	authed.POST("/audit/stock/run", auditHandler.Run)

	adminHandler := handlers.NewAdminHandler(db)
	authed.GET("/admins", adminHandler.List)
	authed.POST("/admins", adminHandler.Create)
	authed.PUT("/admins/:id", adminHandler.Update)

	permissionHandler := handlers.NewPermissionHandler()
	authed.GET("/permissions", permissionHandler.List)
}
