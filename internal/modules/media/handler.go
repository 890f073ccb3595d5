package media

import (
	"github.com/gin-gonic/gin"
	"github.com/surerank/core/internal/models"
	"github.com/surerank/core/internal/pkg/pagination"
	"github.com/surerank/core/internal/pkg/response"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Handler struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewHandler(db *gorm.DB, log *zap.Logger) *Handler {
	return &Handler{db: db, log: log}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	rg.GET("/media", authMW, h.list)
}

// GET /api/v1/media
func (h *Handler) list(c *gin.Context) {
	q := pagination.FromContext(c)

	var attachments []models.AttachmentModel
	query := h.db.Model(&models.AttachmentModel{}).Order("created_at DESC")
	meta, err := pagination.Paginate(query, q, &attachments)
	if err != nil {
		h.log.Error("media: list failed", zap.Error(err))
		response.InternalError(c, err)
		return
	}

	response.Paged(c, attachments, meta)
}
