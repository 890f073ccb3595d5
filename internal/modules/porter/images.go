package porter

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	fetchTimeout = 5 * time.Second
	maxImageSize = 20 << 20
)

// Resolver turns an image-typed setting value into a concrete stored-object
// URL during import. Any failure leaves the original value untouched.
type Resolver struct {
	objects ObjectStore
	fetch   Fetcher
	log     *zap.Logger
}

func NewResolver(objects ObjectStore, fetch Fetcher, log *zap.Logger) *Resolver {
	return &Resolver{objects: objects, fetch: fetch, log: log}
}

// Resolve attempts, in order: decode an inline payload keyed by the literal
// URL; keep an already-local URL unchanged; fetch the remote URL. Stored
// bytes go through content-addressed dedup inside the object store, so
// re-importing known content reuses the existing object URL.
func (r *Resolver) Resolve(ctx context.Context, value interface{}, settingKey string, inline map[string]InlineImage) interface{} {
	url, ok := value.(string)
	if !ok || url == "" {
		return value
	}

	if img, carried := inline[url]; carried {
		data, err := decodeInlineData(img.Data)
		if err != nil {
			r.log.Warn("import: inline image decode failed",
				zap.String("key", settingKey), zap.Error(err))
			return value
		}
		att, err := r.objects.SaveObject(imageFilename(settingKey, img.Filename, img.Mime), data)
		if err != nil {
			r.log.Warn("import: inline image store failed",
				zap.String("key", settingKey), zap.Error(err))
			return value
		}
		return att.FileURL
	}

	if _, local := r.objects.LocalPathFromURL(url); local {
		// Re-importing this site's own export; the object already exists.
		return url
	}

	data, err := r.fetch.Fetch(ctx, url)
	if err != nil {
		r.log.Warn("import: image fetch failed",
			zap.String("key", settingKey), zap.String("url", url), zap.Error(err))
		return value
	}
	att, err := r.objects.SaveObject(imageFilename(settingKey, path.Base(url), ""), data)
	if err != nil {
		r.log.Warn("import: fetched image store failed",
			zap.String("key", settingKey), zap.Error(err))
		return value
	}
	return att.FileURL
}

// decodeInlineData streams the base64 payload through a decoder instead of
// materializing an intermediate decoded copy. Data URI prefixes are
// tolerated.
func decodeInlineData(encoded string) ([]byte, error) {
	if i := strings.Index(encoded, ";base64,"); i >= 0 && strings.HasPrefix(encoded, "data:") {
		encoded = encoded[i+len(";base64,"):]
	}
	encoded = strings.TrimSpace(encoded)
	if encoded == "" {
		return nil, fmt.Errorf("empty image payload")
	}

	dec := base64.NewDecoder(base64.StdEncoding, strings.NewReader(encoded))
	data, err := io.ReadAll(io.LimitReader(dec, maxImageSize+1))
	if err != nil {
		return nil, fmt.Errorf("decode image payload: %w", err)
	}
	if len(data) > maxImageSize {
		return nil, fmt.Errorf("image payload exceeds %d bytes", maxImageSize)
	}
	return data, nil
}

func encodeInlineImage(url string, data []byte) InlineImage {
	filename := path.Base(strings.SplitN(url, "?", 2)[0])
	mimeType := mime.TypeByExtension(path.Ext(filename))
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}
	return InlineImage{
		Data:     base64.StdEncoding.EncodeToString(data),
		Mime:     mimeType,
		Filename: filename,
		Size:     int64(len(data)),
	}
}

// imageFilename derives a storage name for an imported image, preferring the
// carried filename and falling back to the setting key.
func imageFilename(settingKey, hint, mimeType string) string {
	hint = strings.TrimSpace(hint)
	if hint != "" && hint != "." && hint != "/" {
		return hint
	}

	ext := ".png"
	if exts, err := mime.ExtensionsByType(mimeType); err == nil && len(exts) > 0 {
		ext = exts[0]
	}
	return strings.ReplaceAll(settingKey, "_", "-") + ext
}

// HTTPFetcher is the default Fetcher: a plain GET with a short timeout and a
// bounded response size. Failed fetches are not retried.
type HTTPFetcher struct {
	client *http.Client
}

func NewHTTPFetcher() *HTTPFetcher {
	return &HTTPFetcher{client: &http.Client{Timeout: fetchTimeout}}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %q: unexpected status %d", url, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxImageSize {
		return nil, fmt.Errorf("fetch %q: response exceeds %d bytes", url, maxImageSize)
	}
	return data, nil
}
