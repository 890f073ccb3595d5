package settings

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/surerank/core/internal/pkg/response"
	"go.uber.org/zap"
)

type Handler struct {
	svc *Service
	log *zap.Logger
}

func NewHandler(svc *Service, log *zap.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	grp := rg.Group("/settings", authMW)
	grp.GET("", h.getAll)
	grp.PATCH("", h.patch)
	grp.GET("/backups", h.listBackups)
	grp.POST("/backups/:key/restore", h.restoreBackup)
}

// GET /api/v1/settings
func (h *Handler) getAll(c *gin.Context) {
	values, err := h.svc.All()
	if err != nil {
		h.log.Error("settings: load failed", zap.Error(err))
		response.InternalError(c, err)
		return
	}
	response.OK(c, values)
}

// PATCH /api/v1/settings
func (h *Handler) patch(c *gin.Context) {
	var body map[string]interface{}
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "request body must be a JSON object")
		return
	}
	if len(body) == 0 {
		response.BadRequest(c, "no settings provided")
		return
	}

	for key := range body {
		if !knownKey(key) {
			response.UnprocessableEntity(c, "unknown setting: "+key)
			return
		}
	}

	for key, value := range body {
		if err := h.svc.Set(key, value); err != nil {
			h.log.Error("settings: write failed", zap.String("key", key), zap.Error(err))
			response.InternalError(c, err)
			return
		}
	}

	values, err := h.svc.All()
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, values)
}

// GET /api/v1/settings/backups
func (h *Handler) listBackups(c *gin.Context) {
	backups, err := h.svc.ListBackups()
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, backups)
}

// POST /api/v1/settings/backups/:key/restore
func (h *Handler) restoreBackup(c *gin.Context) {
	key := c.Param("key")
	if err := h.svc.Restore(key); err != nil {
		if errors.Is(err, ErrBackupNotFound) {
			response.NotFoundMsg(c, "backup not found")
			return
		}
		h.log.Error("settings: restore failed", zap.String("key", key), zap.Error(err))
		response.InternalError(c, err)
		return
	}
	response.NoContent(c)
}

func knownKey(key string) bool {
	for _, cat := range Categories {
		if KeyAllowed(cat, key) {
			return true
		}
	}
	return false
}
