package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Counter field names shared by the cache layer and the durable store.
const (
	CounterLikes     = "like_count"
	CounterFavorites = "favorite_count"
	CounterShares    = "share_count"
	CounterComments  = "comment_count"
	CounterViews     = "view_count"
	CounterDownloads = "download_count"
	CounterReports   = "report_count"
	CounterFollowers = "follower_count"
)

// Track is a media content item (song or video episode)
type Track struct {
	ID          string  `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	ArtistID    string  `gorm:"type:uuid;not null;index" json:"artist_id"`
	Title       string  `gorm:"type:varchar(255);not null" json:"title"`
	Description *string `gorm:"type:text" json:"description,omitempty"`
	MediaURL    string  `gorm:"type:text" json:"media_url"`
	Duration    int     `gorm:"default:0" json:"duration"` // seconds

	// Aggregate counters. Each equals the count of active interaction records
	// of the corresponding type, modulo the cache reconciliation window.
	LikeCount     int64 `gorm:"default:0" json:"like_count"`
	CommentCount  int64 `gorm:"default:0" json:"comment_count"` // top-level + replies
	ShareCount    int64 `gorm:"default:0" json:"share_count"`
	ViewCount     int64 `gorm:"default:0" json:"view_count"`
	FavoriteCount int64 `gorm:"default:0" json:"favorite_count"`
	DownloadCount int64 `gorm:"default:0" json:"download_count"`
	ReportCount   int64 `gorm:"default:0" json:"report_count"`

	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Artist Artist `gorm:"foreignKey:ArtistID;references:ID" json:"artist,omitempty"`
}

// BeforeCreate hook to generate UUID
func (t *Track) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name
func (Track) TableName() string {
	return "tracks"
}

// Artist is a creator profile. "Liking" an artist is a follow relationship,
// not a like record.
type Artist struct {
	ID       string  `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	UserID   string  `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	Name     string  `gorm:"type:varchar(255);not null" json:"name"`
	Bio      *string `gorm:"type:text" json:"bio,omitempty"`
	ImageURL *string `gorm:"type:text" json:"image_url,omitempty"`

	FollowerCount int64 `gorm:"default:0" json:"follower_count"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// Relationships
	User User `gorm:"foreignKey:UserID;references:ID" json:"user,omitempty"`
}

// BeforeCreate hook to generate UUID
func (a *Artist) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name
func (Artist) TableName() string {
	return "artists"
}

// Follow is the bidirectional follower edge between a user and an artist.
// One row answers both "who follows this artist" and "who does this user follow".
type Follow struct {
	ID         string    `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	FollowerID string    `gorm:"type:uuid;not null;index:idx_follower_artist,unique" json:"follower_id"`
	ArtistID   string    `gorm:"type:uuid;not null;index:idx_follower_artist,unique" json:"artist_id"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`

	// Relationships
	Follower User   `gorm:"foreignKey:FollowerID;references:ID" json:"follower,omitempty"`
	Artist   Artist `gorm:"foreignKey:ArtistID;references:ID" json:"artist,omitempty"`
}

// BeforeCreate hook to generate UUID
func (f *Follow) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name
func (Follow) TableName() string {
	return "follows"
}

// Merch is a merchandise item. Toggling a merch item uses the favorite
// interaction type instead of like.
type Merch struct {
	ID          string  `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	ArtistID    string  `gorm:"type:uuid;not null;index" json:"artist_id"`
	Name        string  `gorm:"type:varchar(255);not null" json:"name"`
	Description *string `gorm:"type:text" json:"description,omitempty"`
	ImageURL    *string `gorm:"type:text" json:"image_url,omitempty"`
	PriceCents  int64   `gorm:"default:0" json:"price_cents"`

	FavoriteCount int64 `gorm:"default:0" json:"favorite_count"`

	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Artist Artist `gorm:"foreignKey:ArtistID;references:ID" json:"artist,omitempty"`
}

// BeforeCreate hook to generate UUID
func (m *Merch) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name
func (Merch) TableName() string {
	return "merch"
}
