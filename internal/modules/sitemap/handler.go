package sitemap

import (
	"context"
	"net/http"
	"regexp"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/surerank/core/internal/pkg/response"
	"github.com/surerank/core/internal/pkg/taskqueue"
	"go.uber.org/zap"
)

const (
	taskTypeRebuild = "rebuild_sitemap_cache"
	rebuildDedupKey = "sitemap_rebuild"

	canonicalIndexPath = "/sitemap_index.xml"
	contentTypeXML     = "application/xml; charset=utf-8"
)

// legacyPaths are conventional sitemap filenames redirected to the canonical
// index URL.
var legacyPaths = map[string]struct{}{
	"/sitemap.xml":    {},
	"/wp-sitemap.xml": {},
	"/index.xml":      {},
}

var prettyLeafPath = regexp.MustCompile(`^/([a-z0-9_-]+)-sitemap(?:-([0-9]+))?\.xml$`)

type Handler struct {
	svc   *Service
	st    Settings
	tasks *taskqueue.Service
	log   *zap.Logger
}

func NewHandler(svc *Service, st Settings, tasks *taskqueue.Service, log *zap.Logger) *Handler {
	return &Handler{svc: svc, st: st, tasks: tasks, log: log}
}

// RegisterPublic mounts the unauthenticated sitemap endpoints.
func (h *Handler) RegisterPublic(r *gin.Engine) {
	r.GET("/sitemap", h.serveQuery)
	r.GET("/sitemap.xsl", h.serveStylesheet)
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	grp := rg.Group("/sitemap", authMW)
	grp.POST("/rebuild", h.rebuild)
	grp.GET("/tasks", h.listTasks)
	grp.GET("/tasks/:id", h.taskStatus)
}

// Fallback resolves the pretty sitemap paths. It is meant to run as the
// router's no-route handler so static file routes keep working.
func (h *Handler) Fallback() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			response.NotFound(c)
			return
		}
		path := c.Request.URL.Path

		if _, legacy := legacyPaths[path]; legacy {
			c.Redirect(http.StatusMovedPermanently, canonicalIndexPath)
			return
		}
		if path == canonicalIndexPath {
			h.writeIndex(c, "")
			return
		}
		if m := prettyLeafPath.FindStringSubmatch(path); m != nil {
			page := 1
			if m[2] != "" {
				page, _ = strconv.Atoi(m[2])
			}
			h.writeLeaf(c, m[1], page, "")
			return
		}

		response.NotFound(c)
	}
}

// GET /sitemap?type=&page=&style=
func (h *Handler) serveQuery(c *gin.Context) {
	typ := c.Query("type")
	style := c.Query("style")

	if typ == "" || typ == "index" {
		h.writeIndex(c, style)
		return
	}

	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	h.writeLeaf(c, typ, page, style)
}

func (h *Handler) writeIndex(c *gin.Context, style string) {
	if !h.st.SitemapEnabled() {
		response.NotFound(c)
		return
	}

	body, err := RenderIndex(h.svc.IndexDocument(), styleHref(style))
	if err != nil {
		h.log.Error("sitemap: index render failed", zap.Error(err))
		response.InternalError(c, err)
		return
	}
	c.Data(http.StatusOK, contentTypeXML, body)
}

func (h *Handler) writeLeaf(c *gin.Context, typ string, page int, style string) {
	if !h.st.SitemapEnabled() {
		response.NotFound(c)
		return
	}

	body, err := RenderURLSet(h.svc.PageDocument(typ, page), styleHref(style))
	if err != nil {
		h.log.Error("sitemap: leaf render failed", zap.String("type", typ), zap.Error(err))
		response.InternalError(c, err)
		return
	}
	c.Data(http.StatusOK, contentTypeXML, body)
}

// GET /sitemap.xsl
func (h *Handler) serveStylesheet(c *gin.Context) {
	c.Data(http.StatusOK, "text/xsl; charset=utf-8", []byte(xslStylesheet))
}

// POST /api/v1/sitemap/rebuild
//
// Generation never runs inline; the request only schedules it.
func (h *Handler) rebuild(c *gin.Context) {
	task, err := h.tasks.Enqueue(c.Request.Context(), taskTypeRebuild, gin.H{}, rebuildDedupKey)
	if err != nil {
		h.log.Error("sitemap: enqueue rebuild failed", zap.Error(err))
		response.InternalError(c, err)
		return
	}

	if task.Status == taskqueue.TaskPending {
		go h.runRebuild(task.ID)
	}
	response.Accepted(c, task)
}

func (h *Handler) runRebuild(taskID string) {
	ctx := context.Background()
	if err := h.tasks.UpdateStatus(ctx, taskID, taskqueue.TaskRunning, nil, ""); err != nil {
		h.log.Warn("sitemap: task status update failed", zap.String("task", taskID), zap.Error(err))
	}

	if err := h.svc.Rebuild(); err != nil {
		h.log.Error("sitemap: rebuild failed", zap.String("task", taskID), zap.Error(err))
		_ = h.tasks.UpdateStatus(ctx, taskID, taskqueue.TaskFailed, nil, err.Error())
		return
	}

	h.log.Info("sitemap: cache rebuilt", zap.String("task", taskID))
	_ = h.tasks.UpdateStatus(ctx, taskID, taskqueue.TaskCompleted, gin.H{"rebuilt": true}, "")
}

// GET /api/v1/sitemap/tasks
func (h *Handler) listTasks(c *gin.Context) {
	tasks, err := h.tasks.List(c.Request.Context(), 20)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, tasks)
}

// GET /api/v1/sitemap/tasks/:id
func (h *Handler) taskStatus(c *gin.Context) {
	task, err := h.tasks.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if task == nil {
		response.NotFoundMsg(c, "task not found")
		return
	}
	response.OK(c, task)
}

func styleHref(style string) string {
	if style == "" || style == "0" {
		return ""
	}
	return "/sitemap.xsl"
}

const xslStylesheet = `<?xml version="1.0" encoding="UTF-8"?>
<xsl:stylesheet version="1.0" xmlns:xsl="http://www.w3.org/1999/XSL/Transform"
    xmlns:sm="http://www.sitemaps.org/schemas/sitemap/0.9">
  <xsl:output method="html" encoding="UTF-8"/>
  <xsl:template match="/">
    <html>
      <head><title>XML Sitemap</title></head>
      <body>
        <h1>XML Sitemap</h1>
        <table>
          <tr><th>URL</th><th>Last Modified</th></tr>
          <xsl:for-each select="sm:sitemapindex/sm:sitemap|sm:urlset/sm:url">
            <tr>
              <td><a href="{sm:loc}"><xsl:value-of select="sm:loc"/></a></td>
              <td><xsl:value-of select="sm:lastmod"/></td>
            </tr>
          </xsl:for-each>
        </table>
      </body>
    </html>
  </xsl:template>
</xsl:stylesheet>
`
