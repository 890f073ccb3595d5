package sitemap

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Settings is the slice of the settings store the sitemap engine reads.
type Settings interface {
	SiteURL() string
	SitemapEnabled() bool
	ImageSitemapEnabled() bool
	SitemapMaxLinks() int
	AuthorArchiveEnabled() bool
	NoindexPostTypes() []string
	NoindexTaxonomies() []string
}

// Service builds sitemap index and leaf documents, serving from the chunk
// cache when present and falling back to live queries.
type Service struct {
	query ContentQuery
	st    Settings
	cache *Cache
	log   *zap.Logger
}

func NewService(query ContentQuery, st Settings, cache *Cache, log *zap.Logger) *Service {
	return &Service{query: query, st: st, cache: cache, log: log}
}

// TypeCounts collects the per-type item counts driving the index build.
// Collection order is fixed: post types, then taxonomies, then the synthetic
// author bucket. Types flagged noindex are dropped here; zero-count buckets
// are kept and dropped by the index builder.
func (s *Service) TypeCounts() []TypeCount {
	var buckets []TypeCount

	noindexTypes := toSet(s.st.NoindexPostTypes())
	types, err := s.query.PostTypes()
	if err != nil {
		s.log.Warn("sitemap: listing post types failed", zap.Error(err))
	}
	for _, t := range types {
		if _, skip := noindexTypes[t]; skip {
			continue
		}
		n, err := s.query.CountPosts(t)
		if err != nil {
			s.log.Warn("sitemap: count failed", zap.String("type", t), zap.Error(err))
			continue
		}
		buckets = append(buckets, TypeCount{Kind: KindPostType, Name: t, Count: n})
	}

	noindexTax := toSet(s.st.NoindexTaxonomies())
	taxonomies, err := s.query.Taxonomies()
	if err != nil {
		s.log.Warn("sitemap: listing taxonomies failed", zap.Error(err))
	}
	for _, tax := range taxonomies {
		if _, skip := noindexTax[tax]; skip {
			continue
		}
		n, err := s.query.CountTerms(tax)
		if err != nil {
			s.log.Warn("sitemap: count failed", zap.String("taxonomy", tax), zap.Error(err))
			continue
		}
		buckets = append(buckets, TypeCount{Kind: KindTaxonomy, Name: tax, Count: n})
	}

	if s.st.AuthorArchiveEnabled() {
		n, err := s.query.CountAuthors()
		if err != nil {
			s.log.Warn("sitemap: author count failed", zap.Error(err))
		} else {
			buckets = append(buckets, TypeCount{Kind: KindAuthor, Name: AuthorType, Count: n})
		}
	}

	return buckets
}

// BuildIndex produces the index entries for every non-empty bucket. A bucket
// whose count reaches the threshold splits into ceil(count/threshold)
// numbered sub-sitemaps; smaller buckets emit a single unnumbered entry. All
// entries of one bucket share that bucket's last-modified stamp.
func (s *Service) BuildIndex() []IndexEntry {
	threshold := int64(s.st.SitemapMaxLinks())
	base := s.st.SiteURL()

	var entries []IndexEntry
	for _, bucket := range s.TypeCounts() {
		if bucket.Count == 0 {
			continue
		}

		updated := ""
		if st := stamp(s.bucketLastModified(bucket)); st != nil {
			updated = *st
		}

		if bucket.Count >= threshold {
			pages := (bucket.Count + threshold - 1) / threshold
			for i := int64(1); i <= pages; i++ {
				entries = append(entries, IndexEntry{
					Link:    fmt.Sprintf("%s/%s-sitemap-%d.xml", base, bucket.Name, i),
					Updated: updated,
				})
			}
			continue
		}

		entries = append(entries, IndexEntry{
			Link:    fmt.Sprintf("%s/%s-sitemap.xml", base, bucket.Name),
			Updated: updated,
		})
	}
	return entries
}

// BuildLeaf produces one page of entries for a type. Any query failure or
// empty result degrades to an empty list, never an error.
func (s *Service) BuildLeaf(typ string, page, pageSize int) []Entry {
	if page < 1 || pageSize < 1 {
		return []Entry{}
	}

	switch {
	case typ == AuthorType:
		return s.authorEntries(page, pageSize)
	case s.isTaxonomy(typ):
		return s.termEntries(typ, page, pageSize)
	default:
		return s.postEntries(typ, page, pageSize)
	}
}

// IndexDocument serves the sitemap index, cache first.
func (s *Service) IndexDocument() []IndexEntry {
	if entries, ok := s.cache.ReadIndex(); ok {
		return entries
	}
	return s.BuildIndex()
}

// PageDocument serves one leaf page, cache first. The threshold doubles as
// the public page size.
func (s *Service) PageDocument(typ string, page int) []Entry {
	threshold := s.st.SitemapMaxLinks()
	if entries, ok := s.cache.ReadPage(typ, page, threshold); ok {
		return entries
	}
	return s.BuildLeaf(typ, page, threshold)
}

// Rebuild regenerates the whole chunk cache: the index file plus, per type,
// every page's entries sliced into chunk files. Pages keep their fixed chunk
// ranges, so a page with skipped items simply leaves its trailing chunks
// unwritten.
func (s *Service) Rebuild() error {
	threshold := s.st.SitemapMaxLinks()

	if err := s.cache.WriteIndex(s.BuildIndex()); err != nil {
		return fmt.Errorf("write sitemap index cache: %w", err)
	}

	for _, bucket := range s.TypeCounts() {
		if bucket.Count == 0 {
			continue
		}
		if err := s.cache.ClearType(bucket.Name); err != nil {
			s.log.Warn("sitemap: clearing stale chunks failed",
				zap.String("type", bucket.Name), zap.Error(err))
		}

		pages := (bucket.Count + int64(threshold) - 1) / int64(threshold)
		for p := int64(1); p <= pages; p++ {
			entries := s.BuildLeaf(bucket.Name, int(p), threshold)
			if err := s.cache.WritePage(bucket.Name, int(p), threshold, entries); err != nil {
				return fmt.Errorf("write chunks for %s page %d: %w", bucket.Name, p, err)
			}
		}
	}
	return nil
}

func (s *Service) bucketLastModified(bucket TypeCount) (t time.Time) {
	switch bucket.Kind {
	case KindPostType:
		t, _ = s.query.PostsLastModified(bucket.Name)
	case KindTaxonomy:
		t, _ = s.query.TaxonomyLastModified(bucket.Name)
	case KindAuthor:
		t, _ = s.query.AuthorsLastRegistered()
	}
	return t
}

func (s *Service) isTaxonomy(typ string) bool {
	taxonomies, err := s.query.Taxonomies()
	if err != nil {
		return false
	}
	for _, tax := range taxonomies {
		if tax == typ {
			return true
		}
	}
	return false
}

func (s *Service) postEntries(postType string, page, pageSize int) []Entry {
	items, err := s.query.Posts(postType, page, pageSize)
	if err != nil {
		s.log.Warn("sitemap: post query failed", zap.String("type", postType), zap.Error(err))
		return []Entry{}
	}

	base := s.st.SiteURL()
	withImages := s.st.ImageSitemapEnabled()

	entries := make([]Entry, 0, len(items))
	for _, item := range items {
		if item.Noindex {
			continue
		}
		entry := Entry{
			Link:    fmt.Sprintf("%s/%s/", base, item.Slug),
			Updated: stamp(item.Updated),
		}
		if withImages {
			for _, img := range ExtractImages(item.Content, base) {
				entry.ImagesData = append(entry.ImagesData, ImageEntry{
					Link:    img,
					Updated: entry.Updated,
				})
			}
			entry.Images = len(entry.ImagesData)
		}
		entries = append(entries, entry)
	}
	return entries
}

func (s *Service) termEntries(taxonomy string, page, pageSize int) []Entry {
	items, err := s.query.Terms(taxonomy, page, pageSize)
	if err != nil {
		s.log.Warn("sitemap: term query failed", zap.String("taxonomy", taxonomy), zap.Error(err))
		return []Entry{}
	}

	base := s.st.SiteURL()
	lastMod, _ := s.query.TaxonomyLastModified(taxonomy)
	updated := stamp(lastMod)

	entries := make([]Entry, 0, len(items))
	for _, item := range items {
		if item.Noindex {
			continue
		}
		entries = append(entries, Entry{
			Link:    fmt.Sprintf("%s/%s/%s/", base, item.Taxonomy, item.Slug),
			Updated: updated,
		})
	}
	return entries
}

func (s *Service) authorEntries(page, pageSize int) []Entry {
	items, err := s.query.Authors(page, pageSize)
	if err != nil {
		s.log.Warn("sitemap: author query failed", zap.Error(err))
		return []Entry{}
	}

	base := s.st.SiteURL()
	entries := make([]Entry, 0, len(items))
	for _, item := range items {
		entries = append(entries, Entry{
			Link:    fmt.Sprintf("%s/author/%s/", base, item.Slug),
			Updated: stamp(item.Registered),
		})
	}
	return entries
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}
