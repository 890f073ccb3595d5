package models

// TermModel is a taxonomy term (category, post-tag, product-category, ...).
type TermModel struct {
	Base
	Taxonomy string `json:"taxonomy" gorm:"index;not null"`
	Name     string `json:"name"     gorm:"not null"`
	Slug     string `json:"slug"     gorm:"index;not null"`
	Noindex  bool   `json:"noindex"  gorm:"default:false"`

	Posts []PostModel `json:"posts,omitempty" gorm:"many2many:post_terms;joinForeignKey:TermID;joinReferences:PostID"`
}

func (TermModel) TableName() string { return "terms" }
