package repository

import (
	"errors"

	"soundrise/internal/model"

	"gorm.io/gorm"
)

// Comment sort orders accepted by FindTopLevelComments
const (
	SortNewest = "newest"
	SortOldest = "oldest"
	SortTop    = "top"
)

type InteractionRepository interface {
	Create(interaction *model.Interaction) error
	Save(interaction *model.Interaction) error
	FindByID(id string) (*model.Interaction, error)
	FindActive(userID, contentID, interactionType string) ([]*model.Interaction, error)
	FindLatestDeleted(userID, contentID, interactionType string) (*model.Interaction, error)
	SoftDeleteByIDs(ids []string) error
	HasActive(userID, contentID, interactionType string) (bool, error)
	CountActive(contentID, interactionType string) (int64, error)

	// Comment thread queries
	FindTopLevelComments(contentID string, limit, offset int, sort string) ([]*model.Interaction, error)
	CountTopLevelComments(contentID string) (int64, error)
	CountReplies(contentID string) (int64, error)
	FindActiveReplies(parentIDs []string) ([]*model.Interaction, error)
	IncrementReplyCount(commentID string, delta int) error

	// Batch queries for the metadata aggregator. One query regardless of how
	// many content IDs are passed.
	FindUserActiveTargets(userID, interactionType string, contentIDs []string) (map[string]bool, error)
	CountActiveByContents(interactionType string, contentIDs []string) (map[string]int64, error)
}

type interactionRepository struct {
	db *gorm.DB
}

func NewInteractionRepository(db *gorm.DB) InteractionRepository {
	return &interactionRepository{db: db}
}

// Create creates a new interaction record
func (r *interactionRepository) Create(interaction *model.Interaction) error {
	return r.db.Create(interaction).Error
}

// Save persists changes to an existing interaction record
func (r *interactionRepository) Save(interaction *model.Interaction) error {
	return r.db.Save(interaction).Error
}

// FindByID finds an interaction by ID regardless of soft-delete state
func (r *interactionRepository) FindByID(id string) (*model.Interaction, error) {
	var interaction model.Interaction
	err := r.db.Preload("User").Where("id = ?", id).First(&interaction).Error
	if err != nil {
		return nil, err
	}
	return &interaction, nil
}

// FindActive finds all active (non-soft-deleted) records for a
// (user, content, type) tuple. More than one result means a historical
// duplicate slipped in; callers soft-delete them all together.
func (r *interactionRepository) FindActive(userID, contentID, interactionType string) ([]*model.Interaction, error) {
	var interactions []*model.Interaction
	err := r.db.
		Where("user_id = ? AND content_id = ? AND type = ? AND deleted = ?", userID, contentID, interactionType, false).
		Find(&interactions).Error
	if err != nil {
		return nil, err
	}
	return interactions, nil
}

// FindLatestDeleted finds the most recent soft-deleted record for the tuple,
// or nil if none exists.
func (r *interactionRepository) FindLatestDeleted(userID, contentID, interactionType string) (*model.Interaction, error) {
	var interaction model.Interaction
	err := r.db.
		Where("user_id = ? AND content_id = ? AND type = ? AND deleted = ?", userID, contentID, interactionType, true).
		Order("last_activity_at DESC").
		First(&interaction).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &interaction, nil
}

// SoftDeleteByIDs marks the given records deleted in one statement
func (r *interactionRepository) SoftDeleteByIDs(ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.Model(&model.Interaction{}).
		Where("id IN ?", ids).
		Update("deleted", true).Error
}

// HasActive checks whether an active record exists for the tuple
func (r *interactionRepository) HasActive(userID, contentID, interactionType string) (bool, error) {
	var count int64
	err := r.db.Model(&model.Interaction{}).
		Where("user_id = ? AND content_id = ? AND type = ? AND deleted = ?", userID, contentID, interactionType, false).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// CountActive counts active records of a type for a content item. This is the
// authoritative value the content counters must equal.
func (r *interactionRepository) CountActive(contentID, interactionType string) (int64, error) {
	var count int64
	err := r.db.Model(&model.Interaction{}).
		Where("content_id = ? AND type = ? AND deleted = ?", contentID, interactionType, false).
		Count(&count).Error
	return count, err
}

// FindTopLevelComments finds active, non-hidden top-level comments for a
// content item, paginated. Hidden comments stay counted but are not listed.
func (r *interactionRepository) FindTopLevelComments(contentID string, limit, offset int, sort string) ([]*model.Interaction, error) {
	query := r.db.Preload("User").
		Where("content_id = ? AND type = ? AND deleted = ? AND hidden = ? AND parent_id IS NULL",
			contentID, model.TypeComment, false, false)

	switch sort {
	case SortOldest:
		query = query.Order("created_at ASC")
	case SortTop:
		query = query.Order("(reply_count + reaction_count) DESC, created_at DESC")
	default:
		query = query.Order("created_at DESC")
	}

	var comments []*model.Interaction
	err := query.Limit(limit).Offset(offset).Find(&comments).Error
	if err != nil {
		return nil, err
	}
	return comments, nil
}

// CountTopLevelComments counts active top-level comments for a content item
func (r *interactionRepository) CountTopLevelComments(contentID string) (int64, error) {
	var count int64
	err := r.db.Model(&model.Interaction{}).
		Where("content_id = ? AND type = ? AND deleted = ? AND parent_id IS NULL", contentID, model.TypeComment, false).
		Count(&count).Error
	return count, err
}

// CountReplies counts active replies across all comments of a content item
func (r *interactionRepository) CountReplies(contentID string) (int64, error) {
	var count int64
	err := r.db.Model(&model.Interaction{}).
		Where("content_id = ? AND type = ? AND deleted = ? AND parent_id IS NOT NULL", contentID, model.TypeComment, false).
		Count(&count).Error
	return count, err
}

// FindActiveReplies finds active, non-hidden replies for a set of parent
// comments, newest first. Callers cap the per-parent hydration themselves.
func (r *interactionRepository) FindActiveReplies(parentIDs []string) ([]*model.Interaction, error) {
	if len(parentIDs) == 0 {
		return []*model.Interaction{}, nil
	}
	var replies []*model.Interaction
	err := r.db.Preload("User").
		Where("parent_id IN ? AND deleted = ? AND hidden = ?", parentIDs, false, false).
		Order("created_at DESC").
		Find(&replies).Error
	if err != nil {
		return nil, err
	}
	return replies, nil
}

// IncrementReplyCount atomically adjusts a comment's reply counter
func (r *interactionRepository) IncrementReplyCount(commentID string, delta int) error {
	return r.db.Model(&model.Interaction{}).
		Where("id = ?", commentID).
		Update("reply_count", gorm.Expr("reply_count + ?", delta)).Error
}

// FindUserActiveTargets returns which of the given content IDs the user has an
// active interaction of the given type with. Single query per type.
func (r *interactionRepository) FindUserActiveTargets(userID, interactionType string, contentIDs []string) (map[string]bool, error) {
	if len(contentIDs) == 0 {
		return map[string]bool{}, nil
	}
	var interactions []model.Interaction
	err := r.db.Select("content_id").
		Where("user_id = ? AND type = ? AND content_id IN ? AND deleted = ?", userID, interactionType, contentIDs, false).
		Find(&interactions).Error
	if err != nil {
		return nil, err
	}
	m := make(map[string]bool)
	for _, interaction := range interactions {
		m[interaction.ContentID] = true
	}
	return m, nil
}

// CountActiveByContents counts active records of a type for multiple content
// items in one grouped query.
func (r *interactionRepository) CountActiveByContents(interactionType string, contentIDs []string) (map[string]int64, error) {
	if len(contentIDs) == 0 {
		return map[string]int64{}, nil
	}
	var results []struct {
		ContentID string
		Count     int64
	}
	err := r.db.Model(&model.Interaction{}).
		Select("content_id, count(*) as count").
		Where("type = ? AND content_id IN ? AND deleted = ?", interactionType, contentIDs, false).
		Group("content_id").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	m := make(map[string]int64)
	for _, row := range results {
		m[row.ContentID] = row.Count
	}
	for _, id := range contentIDs {
		if _, ok := m[id]; !ok {
			m[id] = 0
		}
	}
	return m, nil
}
