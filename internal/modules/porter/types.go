package porter

import (
	"context"

	"github.com/surerank/core/internal/models"
)

// PluginName identifies envelopes produced by this plugin. Imports reject
// anything else before touching the store.
const PluginName = "surerank"

// EnvelopeVersion is written into every export.
const EnvelopeVersion = "1.0.0"

// SettingsStore is the persistence surface the porter mutates. It is always
// injected, never reached as ambient state.
type SettingsStore interface {
	All() (map[string]interface{}, error)
	Saved() (map[string]interface{}, error)
	Replace(values map[string]interface{}) error
	Snapshot() (string, error)
	BackupBeforeImport() bool
}

// ObjectStore stores binary media and answers content-addressed lookups.
type ObjectStore interface {
	SaveObject(filename string, data []byte) (*models.AttachmentModel, error)
	FindExisting(size int64, hash, filenameHint string) (*models.AttachmentModel, error)
	LocalPathFromURL(url string) (string, bool)
}

// Fetcher retrieves remote bytes with a bounded timeout.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// CompatFunc decides whether an envelope version can be imported. The
// current policy accepts everything; the hook exists for future gating.
type CompatFunc func(version string) bool

// AlwaysCompatible is the default version predicate.
func AlwaysCompatible(string) bool { return true }

// InlineImage is one base64 payload carried inside an envelope, keyed by the
// original URL it replaces.
type InlineImage struct {
	Data     string `json:"data"`
	Mime     string `json:"mime"`
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
}

// Envelope is the export/import document.
type Envelope struct {
	Plugin    string                            `json:"plugin"`
	Version   string                            `json:"version"`
	Timestamp string                            `json:"timestamp"`
	SiteURL   string                            `json:"site_url"`
	Settings  map[string]map[string]interface{} `json:"settings"`
	Images    map[string]InlineImage            `json:"images,omitempty"`
}

// ImportOptions control one import call.
type ImportOptions struct {
	Overwrite     bool
	CreateBackup  bool
	ProcessImages bool
}

// DefaultImportOptions apply when the caller leaves an option unset.
func DefaultImportOptions() ImportOptions {
	return ImportOptions{Overwrite: true, CreateBackup: true, ProcessImages: true}
}

// ImportResult is the structured outcome of one import call.
type ImportResult struct {
	Success       bool     `json:"success"`
	ImportedCount int      `json:"imported_count"`
	Errors        []string `json:"errors"`
	Warnings      []string `json:"warnings"`
	SuccessItems  []string `json:"success_items"`
	BackupKey     string   `json:"backup_key,omitempty"`
	Message       string   `json:"message"`
}

func newImportResult() *ImportResult {
	return &ImportResult{
		Errors:       []string{},
		Warnings:     []string{},
		SuccessItems: []string{},
	}
}

func (r *ImportResult) fail(message string) *ImportResult {
	r.Success = false
	r.Errors = append(r.Errors, message)
	r.Message = message
	return r
}
