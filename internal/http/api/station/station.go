package station

import (
	"github.com/gilcleber/Controle-Premios-sub000/internal/config"
	"github.com/gilcleber/Controle-Premios-sub000/internal/http/api/permissions"
	"github.com/gilcleber/Controle-Premios-sub000/internal/http/api/station/handlers"
	"github.com/gilcleber/Controle-Premios-sub000/internal/inventory"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// RegisterStationRoutes registers the station login and the station-session API.
func RegisterStationRoutes(r *gin.Engine, db *gorm.DB, jwtCfg config.JWTConfig, svc *inventory.Service) {
	if r == nil || db == nil || svc == nil {
		return
	}

	group := r.Group(permissions.StationPrefix)

	authHandler := handlers.NewAuthHandler(db, jwtCfg)
	group.GET("/stations", authHandler.Stations)
	group.POST("/login", authHandler.Login)

	authed := group.Group("")
	authed.Use(permissions.AuthMiddleware(db, jwtCfg.Secret, permissions.SurfaceStation), permissions.Middleware())
	MountInventoryRoutes(authed, db, svc)
}

// MountInventoryRoutes registers the prize, output and dashboard routes shared by
// the admin and station surfaces. Scoping comes from the session.
func MountInventoryRoutes(g *gin.RouterGroup, db *gorm.DB, svc *inventory.Service) {
	prizeHandler := handlers.NewPrizeHandler(svc)
	g.GET("/prizes", prizeHandler.List)
	g.POST("/prizes", prizeHandler.Create)
	g.GET("/prizes/:id", prizeHandler.Get)
	g.PUT("/prizes/:id", prizeHandler.Update)
	g.DELETE("/prizes/:id", prizeHandler.Delete)
	g.POST("/prizes/:id/on-air", prizeHandler.ToggleOnAir)
	g.POST("/prizes/:id/schedule", prizeHandler.Schedule)
	g.POST("/prizes/:id/distribute", prizeHandler.Distribute)
	g.GET("/prizes/:id/script", prizeHandler.Script)

	outputHandler := handlers.NewOutputHandler(svc)
	g.GET("/outputs", outputHandler.List)
	g.POST("/outputs", outputHandler.Register)
	g.GET("/outputs/export", outputHandler.Export)
	g.GET("/outputs/:id", outputHandler.Get)
	g.PUT("/outputs/:id", outputHandler.Update)
	g.DELETE("/outputs/:id", outputHandler.Delete)
	g.POST("/outputs/:id/confirm", outputHandler.Confirm)
	g.POST("/outputs/:id/extend", outputHandler.Extend)
	g.GET("/winners/history", outputHandler.WinnerHistory)

	programHandler := handlers.NewProgramHandler(db)
	g.GET("/programs", programHandler.List)

	dashboardHandler := handlers.NewDashboardHandler(svc)
	g.GET("/dashboard", dashboardHandler.Summary)
}
