package porter

import (
	"encoding/json"
	"io"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/surerank/core/internal/modules/settings"
	"github.com/surerank/core/internal/pkg/response"
	"go.uber.org/zap"
)

const maxUploadSize = 5 << 20

type Handler struct {
	exporter *Exporter
	importer *Importer
	log      *zap.Logger
}

func NewHandler(exporter *Exporter, importer *Importer, log *zap.Logger) *Handler {
	return &Handler{exporter: exporter, importer: importer, log: log}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	grp := rg.Group("/settings", authMW)
	grp.POST("/export", h.export)
	grp.POST("/import", h.importSettings)
}

type exportRequest struct {
	Categories    []string `json:"categories"`
	IncludeImages bool     `json:"include_images"`
}

// POST /api/v1/settings/export
func (h *Handler) export(c *gin.Context) {
	req := exportRequest{IncludeImages: true}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, "request body must be a JSON object")
			return
		}
	}
	if len(req.Categories) == 0 {
		req.Categories = settings.Categories
	}

	env, err := h.exporter.Export(c.Request.Context(), req.Categories, req.IncludeImages)
	if err != nil {
		if err == ErrNothingToExport {
			response.UnprocessableEntity(c, err.Error())
			return
		}
		h.log.Error("export failed", zap.Error(err))
		response.InternalError(c, err)
		return
	}
	response.OK(c, env)
}

type importRequest struct {
	Envelope      json.RawMessage `json:"envelope"`
	Data          string          `json:"data"`
	Overwrite     *bool           `json:"overwrite"`
	CreateBackup  *bool           `json:"create_backup"`
	ProcessImages *bool           `json:"process_images"`
}

// POST /api/v1/settings/import
//
// The payload is either a multipart upload of a .json file, a JSON body
// carrying the envelope under "envelope" or as a string under "data", or the
// bare envelope object itself.
func (h *Handler) importSettings(c *gin.Context) {
	var env *Envelope
	opts := DefaultImportOptions()

	if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		parsed, ok := h.envelopeFromUpload(c)
		if !ok {
			return
		}
		env = parsed
		opts.Overwrite = formBool(c, "overwrite", opts.Overwrite)
		opts.CreateBackup = formBool(c, "create_backup", opts.CreateBackup)
		opts.ProcessImages = formBool(c, "process_images", opts.ProcessImages)
	} else {
		raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxUploadSize+1))
		if err != nil || len(raw) == 0 {
			response.BadRequest(c, "request body is required")
			return
		}
		if len(raw) > maxUploadSize {
			response.BadRequest(c, "import payload exceeds 5MB")
			return
		}

		var req importRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			response.BadRequest(c, "request body must be valid JSON")
			return
		}

		switch {
		case len(req.Envelope) > 0:
			env = decodeEnvelope(c, req.Envelope)
		case req.Data != "":
			env = decodeEnvelope(c, []byte(req.Data))
		default:
			env = decodeEnvelope(c, raw)
		}
		if env == nil {
			return
		}
		opts.Overwrite = boolOpt(req.Overwrite, opts.Overwrite)
		opts.CreateBackup = boolOpt(req.CreateBackup, opts.CreateBackup)
		opts.ProcessImages = boolOpt(req.ProcessImages, opts.ProcessImages)
	}

	result := h.importer.Import(c.Request.Context(), env, opts)
	response.OK(c, result)
}

// envelopeFromUpload validates and parses the uploaded file. The file must
// carry a .json extension and stay within the size limit.
func (h *Handler) envelopeFromUpload(c *gin.Context) (*Envelope, bool) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "multipart upload must carry a \"file\" field")
		return nil, false
	}
	if !strings.EqualFold(filepath.Ext(fileHeader.Filename), ".json") {
		response.BadRequest(c, "import file must have a .json extension")
		return nil, false
	}
	if fileHeader.Size > maxUploadSize {
		response.BadRequest(c, "import file exceeds 5MB")
		return nil, false
	}

	f, err := fileHeader.Open()
	if err != nil {
		response.BadRequest(c, "import file could not be read")
		return nil, false
	}
	defer f.Close()

	raw, err := io.ReadAll(io.LimitReader(f, maxUploadSize+1))
	if err != nil || len(raw) > maxUploadSize {
		response.BadRequest(c, "import file could not be read")
		return nil, false
	}

	env := decodeEnvelope(c, raw)
	return env, env != nil
}

func decodeEnvelope(c *gin.Context, raw []byte) *Envelope {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		response.BadRequest(c, "envelope must be valid JSON")
		return nil
	}
	return &env
}

func boolOpt(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}

func formBool(c *gin.Context, field string, def bool) bool {
	switch c.PostForm(field) {
	case "true", "1", "yes", "on":
		return true
	case "false", "0", "no", "off":
		return false
	}
	return def
}
