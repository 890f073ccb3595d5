package media

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"mime"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	mysqlDriver "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/surerank/core/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// URLPrefix is the public path prefix all stored objects are served under.
const URLPrefix = "/objects"

// Service stores uploaded objects on disk and tracks them in the attachments
// table. Identical content is never stored twice: an object matches an
// existing attachment only when both its byte size and its SHA-256 digest
// match.
type Service struct {
	db        *gorm.DB
	staticDir string
	log       *zap.Logger
}

func NewService(db *gorm.DB, staticDir string, log *zap.Logger) *Service {
	return &Service{db: db, staticDir: staticDir, log: log}
}

// StaticDir returns the on-disk root objects are written under.
func (s *Service) StaticDir() string {
	return s.staticDir
}

// HashBytes returns the hex SHA-256 digest of data.
func HashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

const (
	dedupCandidateLimit = 50
	dedupRecentWindow   = 100
)

// FindExisting looks up an attachment holding identical content. Phase one
// restricts candidates to filenames resembling the hint; phase two falls back
// to a bounded window of the most recently stored objects. A candidate
// matches only when both its byte size and its digest are equal. Returns
// (nil, nil) when no match exists.
func (s *Service) FindExisting(size int64, hash, filenameHint string) (*models.AttachmentModel, error) {
	if hint := hintStem(filenameHint); hint != "" {
		var candidates []models.AttachmentModel
		err := s.db.Where("file_name LIKE ?", "%"+hint+"%").
			Order("created_at DESC").
			Limit(dedupCandidateLimit).
			Find(&candidates).Error
		if err != nil {
			return nil, fmt.Errorf("dedup candidates: %w", err)
		}
		if m := matchContent(candidates, size, hash); m != nil {
			return m, nil
		}
	}

	var recent []models.AttachmentModel
	err := s.db.Order("created_at DESC").
		Limit(dedupRecentWindow).
		Find(&recent).Error
	if err != nil {
		return nil, fmt.Errorf("dedup recent scan: %w", err)
	}
	return matchContent(recent, size, hash), nil
}

func matchContent(candidates []models.AttachmentModel, size int64, hash string) *models.AttachmentModel {
	for i := range candidates {
		if candidates[i].ByteSize != size {
			continue
		}
		if candidates[i].Hash != hash {
			continue
		}
		return &candidates[i]
	}
	return nil
}

// hintStem strips the path and extension from a filename hint so close
// variants of the same upload still match.
func hintStem(hint string) string {
	if strings.TrimSpace(hint) == "" {
		return ""
	}
	base := sanitizeFilename(hint)
	stem := strings.TrimSuffix(base, path.Ext(base))
	stem = strings.ReplaceAll(stem, "%", "")
	stem = strings.ReplaceAll(stem, "_", "")
	if len(stem) < 3 {
		return ""
	}
	return stem
}

// SaveObject persists data under the given filename and returns its
// attachment record. When an attachment with identical content already
// exists, that record is returned and nothing is written.
func (s *Service) SaveObject(filename string, data []byte) (*models.AttachmentModel, error) {
	if len(data) == 0 {
		return nil, errors.New("empty object")
	}

	hash := HashBytes(data)
	size := int64(len(data))

	if existing, err := s.FindExisting(size, hash, filename); err != nil {
		return nil, err
	} else if existing != nil {
		return existing, nil
	}

	name := sanitizeFilename(filename)
	subdir := time.Now().Format("2006/01")
	dir := filepath.Join(s.staticDir, subdir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create object dir: %w", err)
	}

	diskName := name
	target := filepath.Join(dir, diskName)
	if _, err := os.Stat(target); err == nil {
		ext := path.Ext(name)
		base := strings.TrimSuffix(name, ext)
		diskName = fmt.Sprintf("%s-%s%s", base, uuid.NewString()[:8], ext)
		target = filepath.Join(dir, diskName)
	}

	if err := os.WriteFile(target, data, 0o644); err != nil {
		return nil, fmt.Errorf("write object: %w", err)
	}

	width, height := imageDimensions(data)
	att := models.AttachmentModel{
		FileName: diskName,
		FileURL:  path.Join(URLPrefix, subdir, diskName),
		MimeType: detectMime(diskName, data),
		ByteSize: size,
		Hash:     hash,
		Width:    width,
		Height:   height,
	}

	if err := s.db.Create(&att).Error; err != nil {
		var mysqlErr *mysqlDriver.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == 1062 {
			// Lost a race against a concurrent save of the same content.
			os.Remove(target)
			return s.FindExisting(size, hash, filename)
		}
		os.Remove(target)
		return nil, fmt.Errorf("create attachment: %w", err)
	}

	if width > 0 {
		if err := s.generateVariants(target, data); err != nil {
			s.log.Warn("media: variant generation failed",
				zap.String("file", diskName), zap.Error(err))
		}
	}

	return &att, nil
}

// LocalPathFromURL maps a stored object URL back to its on-disk path. The
// second return is false when the URL does not point at this host's object
// store.
func (s *Service) LocalPathFromURL(rawURL string) (string, bool) {
	p := rawURL
	if i := strings.Index(p, "://"); i >= 0 {
		rest := p[i+3:]
		slash := strings.Index(rest, "/")
		if slash < 0 {
			return "", false
		}
		p = rest[slash:]
	}
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	if !strings.HasPrefix(p, URLPrefix+"/") {
		return "", false
	}

	rel := strings.TrimPrefix(p, URLPrefix+"/")
	clean := filepath.Clean(filepath.FromSlash(rel))
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.Join(s.staticDir, clean), true
}

func sanitizeFilename(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "" || name == "." || name == "/" {
		name = uuid.NewString()
	}
	return name
}

func imageDimensions(data []byte) (int, int) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0
	}
	return cfg.Width, cfg.Height
}

func detectMime(name string, data []byte) string {
	if mt := mime.TypeByExtension(path.Ext(name)); mt != "" {
		return mt
	}
	return http.DetectContentType(data)
}
