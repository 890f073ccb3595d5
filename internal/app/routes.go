package app

import (
	"github.com/gin-gonic/gin"
	"github.com/surerank/core/internal/middleware"
	"github.com/surerank/core/internal/modules/auth"
	"github.com/surerank/core/internal/modules/media"
	"github.com/surerank/core/internal/modules/porter"
	"github.com/surerank/core/internal/modules/settings"
	"github.com/surerank/core/internal/modules/sitemap"
	"github.com/surerank/core/internal/pkg/response"
	"github.com/surerank/core/internal/pkg/taskqueue"
)

func (a *App) registerRoutes(tasks *taskqueue.Service) {
	authMW := middleware.Auth(a.db)

	sitemapHandler := sitemap.NewHandler(a.sitemapSvc, a.settingsSvc, tasks, a.log)
	sitemapHandler.RegisterPublic(a.engine)
	a.engine.Static(media.URLPrefix, a.cfg.StaticDir())
	a.engine.NoRoute(sitemapHandler.Fallback())

	api := a.engine.Group("/api/v1")
	auth.NewHandler(a.db, a.log).RegisterRoutes(api)
	settings.NewHandler(a.settingsSvc, a.log).RegisterRoutes(api, authMW)
	porter.NewHandler(a.exporter, a.importer, a.log).RegisterRoutes(api, authMW)
	media.NewHandler(a.db, a.log).RegisterRoutes(api, authMW)
	sitemapHandler.RegisterRoutes(api, authMW)

	cronGrp := api.Group("/cron", authMW)
	cronGrp.GET("/jobs", func(c *gin.Context) {
		response.OK(c, a.sched.List())
	})
	cronGrp.POST("/jobs/:name/run", func(c *gin.Context) {
		if err := a.sched.Run(c.Request.Context(), c.Param("name")); err != nil {
			response.NotFoundMsg(c, err.Error())
			return
		}
		response.Accepted(c, gin.H{"name": c.Param("name")})
	})
}
