package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	gcs "cloud.google.com/go/storage"
	"github.com/gilcleber/Controle-Premios-sub000/internal/audit"
	"github.com/gilcleber/Controle-Premios-sub000/internal/buildinfo"
	"github.com/gilcleber/Controle-Premios-sub000/internal/config"
	"github.com/gilcleber/Controle-Premios-sub000/internal/db"
	relayhttp "github.com/gilcleber/Controle-Premios-sub000/internal/http"
	"github.com/gilcleber/Controle-Premios-sub000/internal/http/api/admin"
	"github.com/gilcleber/Controle-Premios-sub000/internal/http/api/station"
	"github.com/gilcleber/Controle-Premios-sub000/internal/http/api/stream"
	"github.com/gilcleber/Controle-Premios-sub000/internal/inventory"
	"github.com/gilcleber/Controle-Premios-sub000/internal/logging"
	"github.com/gilcleber/Controle-Premios-sub000/internal/metrics"
	"github.com/gilcleber/Controle-Premios-sub000/internal/models"
	"github.com/gilcleber/Controle-Premios-sub000/internal/realtime"
	"github.com/gilcleber/Controle-Premios-sub000/internal/schedule"
	"github.com/gilcleber/Controle-Premios-sub000/internal/security"
	"github.com/gilcleber/Controle-Premios-sub000/internal/settings"
	"github.com/gilcleber/Controle-Premios-sub000/internal/storage"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	shutdownTimeout   = 15 * time.Second
	poolStatsInterval = 30 * time.Second
)

// Migrate opens the database and runs migrations.
func Migrate(ctx context.Context, cfg config.AppConfig) error {
	appCfg, err := config.Load(config.ResolveConfigPath(cfg.ConfigPath))
	if err != nil {
		return err
	}
	conn, err := openDatabase(appCfg)
	if err != nil {
		return err
	}
	if errMigrate := db.Migrate(conn.WithContext(ctx)); errMigrate != nil {
		return errMigrate
	}
	log.Info("migrations applied")
	return nil
}

// RunServer boots the HTTP API with its background jobs and blocks until ctx ends.
func RunServer(ctx context.Context, cfg config.AppConfig) error {
	configPath := config.ResolveConfigPath(cfg.ConfigPath)
	appCfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logCloser, errLogging := logging.Setup(appCfg.Logging)
	if errLogging != nil {
		return errLogging
	}
	defer func() {
		_ = logCloser.Close()
	}()

	conn, err := openDatabase(appCfg)
	if err != nil {
		return err
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		return errMigrate
	}
	if errRefresh := settings.Refresh(ctx, conn); errRefresh != nil {
		return fmt.Errorf("load settings: %w", errRefresh)
	}
	if errBootstrap := bootstrapAdmin(ctx, conn, appCfg.Bootstrap); errBootstrap != nil {
		return errBootstrap
	}

	feed, err := buildFeed(ctx, appCfg.Redis)
	if err != nil {
		return err
	}
	defer func() {
		_ = feed.Close()
	}()

	photos, localPhotos, err := buildPhotoStore(ctx, appCfg.Storage)
	if err != nil {
		return err
	}

	m := metrics.New()
	svc := inventory.NewService(conn,
		inventory.WithPublisher(feed),
		inventory.WithMetrics(m),
		inventory.WithPhotoStore(photos),
	)

	reconciler := realtime.NewReconciler(realtime.WithLoader(boardLoader(conn)))
	if errSeed := reconciler.Reload(ctx); errSeed != nil {
		return errSeed
	}
	go func() {
		if errRun := reconciler.Run(ctx, feed); errRun != nil {
			log.WithError(errRun).Error("realtime: reconciler stopped")
		}
	}()

	var auditor *audit.StockAuditor
	if appCfg.Audit.Enabled {
		auditor = audit.NewStockAuditor(conn, m, appCfg.Audit.Interval)
		auditor.Start(ctx)
	}
	if appCfg.Scheduler.Enabled {
		schedule.NewOnAirScheduler(svc, appCfg.Scheduler.Interval).Start(ctx)
	}
	go recordPoolStats(ctx, conn, m)

	if mode := strings.TrimSpace(appCfg.Server.Mode); mode != "" {
		gin.SetMode(mode)
	}
	engine := gin.New()
	engine.Use(relayhttp.RecoveryMiddleware(), relayhttp.AccessLogMiddleware(), m.GinMiddleware())
	engine.GET("/metrics", gin.WrapH(m.Handler()))
	if localPhotos != nil {
		engine.Static(localPhotoRoute(appCfg.Storage.PublicBaseURL), localPhotos.Dir())
	}
	admin.RegisterAdminRoutes(engine, conn, appCfg.JWT, svc, auditor)
	station.RegisterStationRoutes(engine, conn, appCfg.JWT, svc)
	stream.RegisterStreamRoutes(engine, conn, appCfg.JWT, stream.NewHandler(reconciler, 0))

	srv := &http.Server{
		Addr:              appCfg.Server.Addr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.WithFields(log.Fields{
			"addr":    appCfg.Server.Addr,
			"config":  configPath,
			"version": buildinfo.Version,
		}).Info("starting prize desk")
		if errServe := srv.ListenAndServe(); errServe != nil && !errors.Is(errServe, http.ErrServerClosed) {
			errCh <- errServe
		}
		close(errCh)
	}()

	select {
	case errServe := <-errCh:
		return errServe
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	// SSE handlers block until their request context ends; Shutdown waits for them.
	if errShutdown := srv.Shutdown(shutdownCtx); errShutdown != nil {
		return fmt.Errorf("shutdown: %w", errShutdown)
	}
	return nil
}

func openDatabase(cfg config.Config) (*gorm.DB, error) {
	return db.OpenWithOptions(cfg.Database.DSN, db.Options{
		MaxOpenConns:  cfg.Database.MaxOpenConns,
		TimeZone:      cfg.Database.TimeZone,
		SlowThreshold: 500 * time.Millisecond,
	})
}

// bootstrapAdmin creates the first super admin when the admins table is empty.
func bootstrapAdmin(ctx context.Context, conn *gorm.DB, cfg config.BootstrapConfig) error {
	username := strings.TrimSpace(cfg.AdminUsername)
	password := strings.TrimSpace(cfg.AdminPassword)
	var count int64
	if errCount := conn.WithContext(ctx).Model(&models.Admin{}).Count(&count).Error; errCount != nil {
		return fmt.Errorf("count admins: %w", errCount)
	}
	if count > 0 {
		return nil
	}
	if username == "" || password == "" {
		log.Warn("no admin accounts exist and bootstrap credentials are not configured")
		return nil
	}
	hash, errHash := security.HashPassword(password)
	if errHash != nil {
		return fmt.Errorf("hash bootstrap password: %w", errHash)
	}
	account := models.Admin{Username: username, Password: hash, Active: true, IsSuperAdmin: true}
	if errCreate := conn.WithContext(ctx).Create(&account).Error; errCreate != nil {
		return fmt.Errorf("create bootstrap admin: %w", errCreate)
	}
	log.WithField("username", username).Info("bootstrap admin created")
	return nil
}

func buildFeed(ctx context.Context, cfg config.RedisConfig) (realtime.Feed, error) {
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		return realtime.NewMemoryFeed(), nil
	}
	client := redis.NewClient(&redis.Options{Addr: addr, Password: cfg.Password, DB: cfg.DB})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if errPing := client.Ping(pingCtx).Err(); errPing != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, errPing)
	}
	log.WithField("addr", addr).Info("realtime: using redis change feed")
	return realtime.NewRedisFeed(client, cfg.Channel), nil
}

// buildPhotoStore returns the configured store and, for the local driver, the
// store itself so its directory can be served.
func buildPhotoStore(ctx context.Context, cfg config.StorageConfig) (storage.PhotoStore, *storage.LocalStore, error) {
	switch cfg.Driver {
	case "gcs":
		client, errClient := gcs.NewClient(ctx)
		if errClient != nil {
			return nil, nil, fmt.Errorf("gcs client: %w", errClient)
		}
		return storage.NewGCSStore(client, cfg.Bucket, cfg.PublicBaseURL), nil, nil
	default:
		local, errLocal := storage.NewLocalStore(cfg.Dir, localPhotoRoute(cfg.PublicBaseURL))
		if errLocal != nil {
			return nil, nil, errLocal
		}
		return local, local, nil
	}
}

func localPhotoRoute(base string) string {
	base = "/" + strings.Trim(strings.TrimSpace(base), "/")
	if base == "/" {
		return "/photos"
	}
	return base
}

func boardLoader(conn *gorm.DB) realtime.Loader {
	return func(ctx context.Context) ([]models.Prize, []models.Output, error) {
		var prizes []models.Prize
		if errFind := conn.WithContext(ctx).Order("created_at ASC").Find(&prizes).Error; errFind != nil {
			return nil, nil, fmt.Errorf("load prizes: %w", errFind)
		}
		var outputs []models.Output
		if errFind := conn.WithContext(ctx).Order("date ASC").Find(&outputs).Error; errFind != nil {
			return nil, nil, fmt.Errorf("load outputs: %w", errFind)
		}
		return prizes, outputs, nil
	}
}

func recordPoolStats(ctx context.Context, conn *gorm.DB, m *metrics.Metrics) {
	sqlDB, errDB := conn.DB()
	if errDB != nil {
		return
	}
	ticker := time.NewTicker(poolStatsInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s := sqlDB.Stats()
			m.RecordDBPoolStats(s.OpenConnections, s.InUse, s.Idle, s.WaitCount, s.WaitDuration)
		}
	}
}
