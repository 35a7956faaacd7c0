package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User roles
const (
	RoleUser      = "user"
	RoleModerator = "moderator"
	RoleAdmin     = "admin"
)

// User is the minimal account record the engagement engine needs: identity,
// username for @-mentions, contact email for moderation notices, and role for
// the moderator-only operations. Account management lives in the auth service.
type User struct {
	ID        string     `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Username  string     `gorm:"type:varchar(50);uniqueIndex;not null" json:"username"`
	FullName  string     `gorm:"type:varchar(255)" json:"full_name"`
	Email     string     `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	AvatarURL *string    `gorm:"type:text" json:"avatar_url,omitempty"`
	Role      string     `gorm:"type:varchar(20);default:'user'" json:"role"`
	IsBanned  bool       `gorm:"default:false" json:"is_banned"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
	LastSeen  *time.Time `gorm:"type:timestamp" json:"last_seen,omitempty"`
}

// BeforeCreate hook to generate UUID
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name
func (User) TableName() string {
	return "users"
}

// IsModerator reports whether the user may hide other users' comments.
func (u *User) IsModerator() bool {
	return u.Role == RoleModerator || u.Role == RoleAdmin
}
