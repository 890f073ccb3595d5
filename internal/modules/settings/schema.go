package settings

// Category names form a fixed closed set. The per-category key whitelists
// below are the single source of truth for both export projection and import
// validation; a key outside its category's whitelist is never written to the
// store.
const (
	CategoryGeneral  = "general"
	CategorySocial   = "social"
	CategoryAdvanced = "advanced"
	CategorySchema   = "schema"
	CategoryImages   = "images"
)

// Categories lists all categories in their canonical order.
var Categories = []string{
	CategoryGeneral,
	CategorySocial,
	CategoryAdvanced,
	CategorySchema,
	CategoryImages,
}

// CategoryKeys maps each category to its ordered key whitelist.
var CategoryKeys = map[string][]string{
	CategoryGeneral: {
		"site_url",
		"separator",
		"page_title",
		"page_description",
		"auto_generate_description",
		"enable_xml_sitemap",
		"enable_xml_image_sitemap",
		"sitemap_display_max_links",
		"noindex_paginated_pages",
	},
	CategorySocial: {
		"open_graph_tags",
		"facebook_page_url",
		"facebook_author_url",
		"twitter_card_type",
		"twitter_profile_username",
		"twitter_same_as_facebook",
		"social_profiles",
	},
	CategoryAdvanced: {
		"noindex_post_types",
		"noindex_taxonomies",
		"author_archive",
		"date_archive",
		"redirect_attachment_pages",
		"robots_directives",
		"backup_before_import",
	},
	CategorySchema: {
		"enable_schema",
		"site_type",
		"organization_name",
		"person_name",
		"schema_social_share_image_url",
	},
	CategoryImages: {
		"home_page_facebook_image_url",
		"home_page_twitter_image_url",
		"fallback_image_url",
		"organization_logo_url",
	},
}

// imageKeys is the fixed set of setting keys whose values reference images.
// Export inlines these as base64 payloads; import routes them through image
// resolution.
var imageKeys = map[string]struct{}{
	"home_page_facebook_image_url":  {},
	"home_page_twitter_image_url":   {},
	"fallback_image_url":            {},
	"organization_logo_url":         {},
	"schema_social_share_image_url": {},
}

// Defaults holds the process-wide default value for every known key that has
// one. Saved values win over defaults when merging.
var Defaults = map[string]interface{}{
	"separator":                 "-",
	"page_title":                "%title% %separator% %site_name%",
	"auto_generate_description": true,
	"enable_xml_sitemap":        true,
	"enable_xml_image_sitemap":  false,
	"sitemap_display_max_links": 200,
	"noindex_paginated_pages":   false,
	"open_graph_tags":           true,
	"twitter_card_type":         "summary_large_image",
	"twitter_same_as_facebook":  true,
	"author_archive":            true,
	"date_archive":              false,
	"redirect_attachment_pages": true,
	"backup_before_import":      true,
	"enable_schema":             true,
	"site_type":                 "organization",
}

// ValidCategory reports whether name is one of the fixed categories.
func ValidCategory(name string) bool {
	_, ok := CategoryKeys[name]
	return ok
}

// KeyAllowed reports whether key belongs to category's whitelist.
func KeyAllowed(category, key string) bool {
	for _, k := range CategoryKeys[category] {
		if k == key {
			return true
		}
	}
	return false
}

// IsImageKey reports whether key carries an image reference.
func IsImageKey(key string) bool {
	_, ok := imageKeys[key]
	return ok
}
