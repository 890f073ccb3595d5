package models

// Post statuses recognized by the sitemap pipeline.
const (
	PostStatusPublished = "publish"
	PostStatusDraft     = "draft"
)

// PostModel is one content item of a registered post type ("post", "page", ...).
type PostModel struct {
	Base
	Type    string `json:"type"    gorm:"index;not null;default:'post'"`
	Title   string `json:"title"   gorm:"not null"`
	Slug    string `json:"slug"    gorm:"uniqueIndex;not null"`
	Content string `json:"content" gorm:"type:longtext"` // rendered HTML
	Status  string `json:"status"  gorm:"index;default:'draft'"`
	Noindex bool   `json:"noindex" gorm:"default:false"`
}

func (PostModel) TableName() string { return "posts" }
