package models

// User roles eligible for author archive listings.
const (
	RoleAdministrator = "administrator"
	RoleEditor        = "editor"
	RoleAuthor        = "author"
	RoleSubscriber    = "subscriber"
)

// UserModel represents a site user/author.
type UserModel struct {
	Base
	Username string `json:"username" gorm:"uniqueIndex;not null"`
	Name     string `json:"name"`
	Slug     string `json:"slug"     gorm:"uniqueIndex;not null"`
	Password string `json:"-"        gorm:"not null"` // bcrypt hash
	Mail     string `json:"mail"`
	Role     string `json:"role"     gorm:"index;default:'subscriber'"`
}

func (UserModel) TableName() string { return "users" }

// AuthorRoles are the roles included in the author sitemap.
var AuthorRoles = []string{RoleAdministrator, RoleEditor, RoleAuthor}
