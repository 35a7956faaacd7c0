package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Interaction is one (user, content, type) edge in the engagement ledger.
// Toggle-type interactions (like, favorite) are soft-deleted on toggle-off and
// restored on toggle-on so the record's history survives; comments carry the
// thread fields (parent, body, reactions, moderation state) on the same row.
type Interaction struct {
	ID          string `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	UserID      string `gorm:"type:uuid;not null;index:idx_user_content" json:"user_id"`
	ContentID   string `gorm:"type:uuid;not null;index:idx_user_content;index:idx_content_type" json:"content_id"`
	ContentKind string `gorm:"type:varchar(20);not null" json:"content_kind"` // media, artist, merch
	Type        string `gorm:"type:varchar(20);not null;index:idx_user_content;index:idx_content_type" json:"type"`
	Deleted     bool   `gorm:"default:false;index" json:"-"`

	// Engagement payload (views)
	WatchSeconds int  `gorm:"default:0" json:"watch_seconds,omitempty"`
	Completed    bool `gorm:"default:false" json:"completed,omitempty"`

	// Comment thread fields
	ParentID      *string `gorm:"type:uuid;index" json:"parent_id,omitempty"`
	Body          string  `gorm:"type:text" json:"body,omitempty"`
	ReplyCount    int     `gorm:"default:0" json:"reply_count"`
	Reactions     string  `gorm:"type:jsonb;default:'{}'" json:"-"` // reaction kind -> user IDs
	ReactionCount int     `gorm:"default:0" json:"reaction_count"`

	// Moderation state
	Hidden       bool    `gorm:"default:false" json:"hidden"`
	HiddenBy     *string `gorm:"type:uuid" json:"hidden_by,omitempty"`
	HiddenReason string  `gorm:"type:text" json:"hidden_reason,omitempty"`
	ReportCount  int     `gorm:"default:0" json:"report_count"`
	ReportedBy   string  `gorm:"type:jsonb;default:'[]'" json:"-"` // user IDs who reported

	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	LastActivityAt time.Time `gorm:"autoUpdateTime" json:"last_activity_at"`

	// Relationships
	User User `gorm:"foreignKey:UserID;references:ID" json:"user,omitempty"`
}

// BeforeCreate hook to generate UUID
func (i *Interaction) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name
func (Interaction) TableName() string {
	return "interactions"
}

// Constants for interaction types
const (
	TypeLike     = "like"
	TypeFavorite = "favorite"
	TypeShare    = "share"
	TypeComment  = "comment"
	TypeView     = "view"
	TypeDownload = "download"
)

// IsActive reports whether the record counts toward content counters.
func (i *Interaction) IsActive() bool {
	return !i.Deleted
}

// SoftDelete transitions Active -> SoftDeleted (toggle-off, comment removal).
func (i *Interaction) SoftDelete() {
	i.Deleted = true
}

// Restore transitions SoftDeleted -> Active (toggle-on of a previously removed
// record). CreatedAt is intentionally left untouched.
func (i *Interaction) Restore() {
	i.Deleted = false
}

// IsReply reports whether the comment is a reply to another comment.
func (i *Interaction) IsReply() bool {
	return i.ParentID != nil && *i.ParentID != ""
}

// GetReactions returns the reaction map (reaction kind -> user IDs)
func (i *Interaction) GetReactions() map[string][]string {
	reactions := map[string][]string{}
	if i.Reactions == "" || i.Reactions == "{}" {
		return reactions
	}
	if err := json.Unmarshal([]byte(i.Reactions), &reactions); err != nil {
		return map[string][]string{}
	}
	return reactions
}

// SetReactions stores the reaction map as JSON and refreshes the denormalized
// reaction total used for "top" sorting.
func (i *Interaction) SetReactions(reactions map[string][]string) error {
	bytes, err := json.Marshal(reactions)
	if err != nil {
		return err
	}
	i.Reactions = string(bytes)
	total := 0
	for _, users := range reactions {
		total += len(users)
	}
	i.ReactionCount = total
	return nil
}

// HasReacted checks whether the user is present in the reaction set
func (i *Interaction) HasReacted(reaction, userID string) bool {
	for _, uid := range i.GetReactions()[reaction] {
		if uid == userID {
			return true
		}
	}
	return false
}

// GetReportedBy returns the reporter user IDs
func (i *Interaction) GetReportedBy() []string {
	if i.ReportedBy == "" || i.ReportedBy == "[]" {
		return []string{}
	}
	var reporters []string
	if err := json.Unmarshal([]byte(i.ReportedBy), &reporters); err != nil {
		return []string{}
	}
	return reporters
}

// SetReportedBy stores the reporter user IDs as JSON
func (i *Interaction) SetReportedBy(reporters []string) error {
	if len(reporters) == 0 {
		i.ReportedBy = "[]"
		return nil
	}
	bytes, err := json.Marshal(reporters)
	if err != nil {
		return err
	}
	i.ReportedBy = string(bytes)
	return nil
}

// HasReported checks whether the user has already reported this comment
func (i *Interaction) HasReported(userID string) bool {
	for _, uid := range i.GetReportedBy() {
		if uid == userID {
			return true
		}
	}
	return false
}
