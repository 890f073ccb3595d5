package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/surerank/core/internal/config"
	"github.com/surerank/core/internal/database"
	"github.com/surerank/core/internal/middleware"
	"github.com/surerank/core/internal/modules/media"
	"github.com/surerank/core/internal/modules/porter"
	"github.com/surerank/core/internal/modules/settings"
	"github.com/surerank/core/internal/modules/sitemap"
	"github.com/surerank/core/internal/pkg/cron"
	"github.com/surerank/core/internal/pkg/jwt"
	redisc "github.com/surerank/core/internal/pkg/redis"
	"github.com/surerank/core/internal/pkg/taskqueue"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// App wires configuration, storage, services and the HTTP surface together.
type App struct {
	cfg    *config.AppConfig
	log    *zap.Logger
	db     *gorm.DB
	rc     *redisc.Client
	engine *gin.Engine
	sched  *cron.Scheduler

	settingsSvc *settings.Service
	mediaSvc    *media.Service
	sitemapSvc  *sitemap.Service
	exporter    *porter.Exporter
	importer    *porter.Importer
}

func New(cfg *config.AppConfig, log *zap.Logger) (*App, error) {
	jwt.SetSecret(cfg.JWTSecret)

	db, err := database.Connect(cfg, true)
	if err != nil {
		return nil, err
	}

	rc, err := redisc.Connect(cfg.RedisURL)
	if err != nil {
		return nil, err
	}

	if cfg.IsDev() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	a := &App{
		cfg:   cfg,
		log:   log,
		db:    db,
		rc:    rc,
		sched: cron.New(),
	}

	a.settingsSvc = settings.NewService(db)
	a.mediaSvc = media.NewService(db, cfg.StaticDir(), log)

	cache := sitemap.NewCache(cfg.CacheDir(), cfg.Sitemap.CachePrefix, cfg.Sitemap.ChunkSize)
	a.sitemapSvc = sitemap.NewService(sitemap.NewGormQuery(db), a.settingsSvc, cache, log)

	fetcher := porter.NewHTTPFetcher()
	a.exporter = porter.NewExporter(a.settingsSvc, a.mediaSvc, fetcher, log)
	resolver := porter.NewResolver(a.mediaSvc, fetcher, log)
	a.importer = porter.NewImporter(a.settingsSvc, resolver, porter.AlwaysCompatible, log)

	tasks := taskqueue.NewService(rc)

	a.engine = gin.New()
	a.engine.Use(gin.Recovery(), middleware.Logger(log), a.corsMiddleware())
	a.registerRoutes(tasks)
	a.registerJobs()

	return a, nil
}

func (a *App) corsMiddleware() gin.HandlerFunc {
	corsCfg := cors.DefaultConfig()
	if len(a.cfg.AllowedOrigins) > 0 {
		corsCfg.AllowOrigins = a.cfg.AllowedOrigins
	} else {
		corsCfg.AllowAllOrigins = true
	}
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "Authorization")
	return cors.New(corsCfg)
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	a.sched.Start(ctx)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", a.cfg.Port),
		Handler: a.engine,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("server listening", zap.Int("port", a.cfg.Port), zap.String("env", a.cfg.Env))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
