package porter

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/surerank/core/internal/modules/settings"
	"go.uber.org/zap"
)

// ErrNothingToExport is returned when no requested category yields any data.
var ErrNothingToExport = errors.New("no exportable settings in the requested categories")

// Exporter serializes whitelisted settings into an envelope, optionally
// inlining referenced images as base64 payloads.
type Exporter struct {
	store   SettingsStore
	objects ObjectStore
	fetch   Fetcher
	log     *zap.Logger
}

func NewExporter(store SettingsStore, objects ObjectStore, fetch Fetcher, log *zap.Logger) *Exporter {
	return &Exporter{store: store, objects: objects, fetch: fetch, log: log}
}

// Export builds an envelope for the requested categories. Invalid category
// names are skipped silently; a category contributes only keys with a present
// merged value. The export fails only when zero categories produced data.
// Per-image failures omit that one image and continue.
func (e *Exporter) Export(ctx context.Context, categories []string, includeImages bool) (*Envelope, error) {
	merged, err := e.store.All()
	if err != nil {
		return nil, err
	}

	env := &Envelope{
		Plugin:    PluginName,
		Version:   EnvelopeVersion,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Settings:  map[string]map[string]interface{}{},
	}
	if site, ok := merged["site_url"].(string); ok {
		env.SiteURL = site
	}

	seen := map[string]struct{}{}
	for _, category := range categories {
		if _, dup := seen[category]; dup {
			continue
		}
		seen[category] = struct{}{}
		if !settings.ValidCategory(category) {
			continue
		}

		projected := map[string]interface{}{}
		for _, key := range settings.CategoryKeys[category] {
			if v, ok := merged[key]; ok {
				projected[key] = v
			}
		}
		if len(projected) > 0 {
			env.Settings[category] = projected
		}
	}

	if len(env.Settings) == 0 {
		return nil, ErrNothingToExport
	}

	if includeImages {
		env.Images = e.collectImages(ctx, env)
	}
	return env, nil
}

// collectImages inlines every distinct image URL referenced by the exported
// settings. The first occurrence of a URL wins; later duplicates reuse it.
func (e *Exporter) collectImages(ctx context.Context, env *Envelope) map[string]InlineImage {
	images := map[string]InlineImage{}

	for _, category := range settings.Categories {
		values, ok := env.Settings[category]
		if !ok {
			continue
		}
		for _, key := range settings.CategoryKeys[category] {
			if !settings.IsImageKey(key) {
				continue
			}
			url, ok := values[key].(string)
			if !ok || url == "" {
				continue
			}
			if _, dup := images[url]; dup {
				continue
			}

			img, err := e.loadImage(ctx, url)
			if err != nil {
				e.log.Warn("export: image inline failed",
					zap.String("key", key), zap.String("url", url), zap.Error(err))
				continue
			}
			images[url] = img
		}
	}
	if len(images) == 0 {
		return nil
	}
	return images
}

func (e *Exporter) loadImage(ctx context.Context, url string) (InlineImage, error) {
	var data []byte
	var err error

	if localPath, ok := e.objects.LocalPathFromURL(url); ok {
		data, err = os.ReadFile(localPath)
	} else {
		data, err = e.fetch.Fetch(ctx, url)
	}
	if err != nil {
		return InlineImage{}, err
	}

	return encodeInlineImage(url, data), nil
}
