package sitemap

import "time"

// Entry is one URL in a leaf sitemap. Updated is an RFC 3339 stamp, nil when
// the item has no known modification time. The JSON shape doubles as the
// cache chunk format.
type Entry struct {
	Link       string       `json:"link"`
	Updated    *string      `json:"updated"`
	Images     int          `json:"images"`
	ImagesData []ImageEntry `json:"images_data,omitempty"`
}

// ImageEntry is one image sub-entry, stamped with its parent item's
// modification time.
type ImageEntry struct {
	Link    string  `json:"link"`
	Updated *string `json:"updated"`
}

// IndexEntry is one sub-sitemap reference in the sitemap index.
type IndexEntry struct {
	Link    string `json:"link"`
	Updated string `json:"updated"`
}

// Kind tags a type-count bucket.
type Kind string

const (
	KindPostType Kind = "post_type"
	KindTaxonomy Kind = "taxonomy"
	KindAuthor   Kind = "author"
)

// AuthorType is the synthetic type key for the author sitemap.
const AuthorType = "author"

// TypeCount is one bucket of the per-type count table that drives the index
// build. Buckets keep collection order: post types first, then taxonomies,
// then the synthetic author bucket.
type TypeCount struct {
	Kind  Kind
	Name  string
	Count int64
}

func stamp(t time.Time) *string {
	if t.IsZero() {
		return nil
	}
	s := t.UTC().Format(time.RFC3339)
	return &s
}
