package settings

// Typed accessors over the effective (defaults-merged) settings. JSON numbers
// decode as float64, so numeric knobs coerce before use.

const (
	keySiteURL            = "site_url"
	keySitemapEnabled     = "enable_xml_sitemap"
	keyImageSitemap       = "enable_xml_image_sitemap"
	keySitemapMaxLinks    = "sitemap_display_max_links"
	keyNoindexPostTypes   = "noindex_post_types"
	keyNoindexTaxonomies  = "noindex_taxonomies"
	keyAuthorArchive      = "author_archive"
	keyBackupBeforeImport = "backup_before_import"
)

// SiteURL returns the configured site base URL, without a trailing slash.
func (s *Service) SiteURL() string {
	v, _, err := s.Get(keySiteURL)
	if err != nil {
		return ""
	}
	u, _ := v.(string)
	for len(u) > 0 && u[len(u)-1] == '/' {
		u = u[:len(u)-1]
	}
	return u
}

// SitemapEnabled reports whether the XML sitemap is served at all.
func (s *Service) SitemapEnabled() bool {
	return s.boolKnob(keySitemapEnabled, true)
}

// ImageSitemapEnabled reports whether image entries are included in sitemaps.
func (s *Service) ImageSitemapEnabled() bool {
	return s.boolKnob(keyImageSitemap, false)
}

// SitemapMaxLinks returns the per-sitemap link threshold.
func (s *Service) SitemapMaxLinks() int {
	v, _, err := s.Get(keySitemapMaxLinks)
	if err != nil {
		return 200
	}
	n := intValue(v, 200)
	if n < 1 {
		n = 200
	}
	return n
}

// AuthorArchiveEnabled reports whether author archives are indexable.
func (s *Service) AuthorArchiveEnabled() bool {
	return s.boolKnob(keyAuthorArchive, true)
}

// NoindexPostTypes returns the post types excluded from indexing.
func (s *Service) NoindexPostTypes() []string {
	return s.sliceKnob(keyNoindexPostTypes)
}

// NoindexTaxonomies returns the taxonomies excluded from indexing.
func (s *Service) NoindexTaxonomies() []string {
	return s.sliceKnob(keyNoindexTaxonomies)
}

// BackupBeforeImport reports whether imports snapshot the live settings first.
func (s *Service) BackupBeforeImport() bool {
	return s.boolKnob(keyBackupBeforeImport, true)
}

func (s *Service) boolKnob(key string, def bool) bool {
	v, _, err := s.Get(key)
	if err != nil {
		return def
	}
	if b, ok := v.(bool); ok {
		return b
	}
	return def
}

func (s *Service) sliceKnob(key string) []string {
	v, _, err := s.Get(key)
	if err != nil {
		return nil
	}
	switch vv := v.(type) {
	case []string:
		return vv
	case []interface{}:
		out := make([]string, 0, len(vv))
		for _, item := range vv {
			if str, ok := item.(string); ok {
				out = append(out, str)
			}
		}
		return out
	}
	return nil
}

func intValue(v interface{}, def int) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	}
	return def
}
