package sitemap

import (
	"fmt"
	"time"

	"github.com/surerank/core/internal/models"
	"gorm.io/gorm"
)

// PostItem is the slice of a post the leaf builder needs.
type PostItem struct {
	Slug    string
	Updated time.Time
	Noindex bool
	Content string
}

// TermItem is one taxonomy term.
type TermItem struct {
	Slug     string
	Taxonomy string
	Noindex  bool
}

// AuthorItem is one author-archive user.
type AuthorItem struct {
	Slug       string
	Registered time.Time
}

// ContentQuery is the read surface the sitemap engine consumes. All listing
// methods return empty slices, never errors, for out-of-range pages.
type ContentQuery interface {
	PostTypes() ([]string, error)
	Taxonomies() ([]string, error)

	CountPosts(postType string) (int64, error)
	CountTerms(taxonomy string) (int64, error)
	CountAuthors() (int64, error)

	PostsLastModified(postType string) (time.Time, error)
	TaxonomyLastModified(taxonomy string) (time.Time, error)
	AuthorsLastRegistered() (time.Time, error)

	Posts(postType string, page, pageSize int) ([]PostItem, error)
	Terms(taxonomy string, page, pageSize int) ([]TermItem, error)
	Authors(page, pageSize int) ([]AuthorItem, error)
}

// GormQuery implements ContentQuery over the posts/terms/users tables.
type GormQuery struct {
	db *gorm.DB
}

func NewGormQuery(db *gorm.DB) *GormQuery {
	return &GormQuery{db: db}
}

func (q *GormQuery) published() *gorm.DB {
	return q.db.Model(&models.PostModel{}).Where("status = ?", models.PostStatusPublished)
}

func (q *GormQuery) PostTypes() ([]string, error) {
	var types []string
	err := q.published().Distinct("type").Order("type").Pluck("type", &types).Error
	if err != nil {
		return nil, fmt.Errorf("list post types: %w", err)
	}
	return types, nil
}

func (q *GormQuery) Taxonomies() ([]string, error) {
	var taxonomies []string
	err := q.db.Model(&models.TermModel{}).
		Distinct("taxonomy").Order("taxonomy").
		Pluck("taxonomy", &taxonomies).Error
	if err != nil {
		return nil, fmt.Errorf("list taxonomies: %w", err)
	}
	return taxonomies, nil
}

func (q *GormQuery) CountPosts(postType string) (int64, error) {
	var n int64
	err := q.published().Where("type = ?", postType).Count(&n).Error
	return n, err
}

func (q *GormQuery) CountTerms(taxonomy string) (int64, error) {
	var n int64
	err := q.db.Model(&models.TermModel{}).Where("taxonomy = ?", taxonomy).Count(&n).Error
	return n, err
}

func (q *GormQuery) CountAuthors() (int64, error) {
	var n int64
	err := q.db.Model(&models.UserModel{}).Where("role IN ?", models.AuthorRoles).Count(&n).Error
	return n, err
}

func (q *GormQuery) PostsLastModified(postType string) (time.Time, error) {
	var post models.PostModel
	err := q.published().Where("type = ?", postType).
		Order("updated_at DESC").
		Select("updated_at").
		First(&post).Error
	if err != nil {
		return time.Time{}, nil
	}
	return post.UpdatedAt, nil
}

// TaxonomyLastModified returns the modification time of the most recently
// updated published post carrying any term of the taxonomy. One query per
// call; the stamp is shared by every term entry of that taxonomy.
func (q *GormQuery) TaxonomyLastModified(taxonomy string) (time.Time, error) {
	var post models.PostModel
	err := q.db.Table("posts").
		Joins("JOIN post_terms ON post_terms.post_id = posts.id").
		Joins("JOIN terms ON terms.id = post_terms.term_id").
		Where("terms.taxonomy = ? AND posts.status = ?", taxonomy, models.PostStatusPublished).
		Order("posts.updated_at DESC").
		Select("posts.updated_at").
		First(&post).Error
	if err != nil {
		return time.Time{}, nil
	}
	return post.UpdatedAt, nil
}

func (q *GormQuery) AuthorsLastRegistered() (time.Time, error) {
	var user models.UserModel
	err := q.db.Model(&models.UserModel{}).
		Where("role IN ?", models.AuthorRoles).
		Order("created_at DESC").
		Select("created_at").
		First(&user).Error
	if err != nil {
		return time.Time{}, nil
	}
	return user.CreatedAt, nil
}

func (q *GormQuery) Posts(postType string, page, pageSize int) ([]PostItem, error) {
	var posts []models.PostModel
	err := q.published().Where("type = ?", postType).
		Order("updated_at DESC, id").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&posts).Error
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}

	items := make([]PostItem, 0, len(posts))
	for _, p := range posts {
		items = append(items, PostItem{
			Slug:    p.Slug,
			Updated: p.UpdatedAt,
			Noindex: p.Noindex,
			Content: p.Content,
		})
	}
	return items, nil
}

func (q *GormQuery) Terms(taxonomy string, page, pageSize int) ([]TermItem, error) {
	var terms []models.TermModel
	err := q.db.Where("taxonomy = ?", taxonomy).
		Order("slug").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&terms).Error
	if err != nil {
		return nil, fmt.Errorf("list terms: %w", err)
	}

	items := make([]TermItem, 0, len(terms))
	for _, t := range terms {
		items = append(items, TermItem{Slug: t.Slug, Taxonomy: t.Taxonomy, Noindex: t.Noindex})
	}
	return items, nil
}

func (q *GormQuery) Authors(page, pageSize int) ([]AuthorItem, error) {
	var users []models.UserModel
	err := q.db.Where("role IN ?", models.AuthorRoles).
		Order("created_at, id").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("list authors: %w", err)
	}

	items := make([]AuthorItem, 0, len(users))
	for _, u := range users {
		items = append(items, AuthorItem{Slug: u.Slug, Registered: u.CreatedAt})
	}
	return items, nil
}
