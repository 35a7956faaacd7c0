package repository

import (
	"errors"
	"fmt"

	"soundrise/internal/model"

	"gorm.io/gorm"
)

type ContentRepository interface {
	// Tracks (media kind)
	TrackExists(id string) (bool, error)
	FindTrackByID(id string) (*model.Track, error)
	FindTracksByIDs(ids []string) ([]*model.Track, error)
	IncrementTrackCounter(id, field string, delta int64) error
	GetTrackCounter(id, field string) (int64, error)

	// Merch (favorite toggles)
	MerchExists(id string) (bool, error)
	FindMerchByID(id string) (*model.Merch, error)
	FindMerchByIDs(ids []string) ([]*model.Merch, error)
	IncrementMerchFavorites(id string, delta int64) error
	GetMerchFavoriteCount(id string) (int64, error)

	// Artists (follow relationship)
	ArtistExists(id string) (bool, error)
	FindArtistByID(id string) (*model.Artist, error)
	FindArtistsByIDs(ids []string) ([]*model.Artist, error)
	FindFollows(followerID, artistID string) ([]*model.Follow, error)
	CreateFollow(followerID, artistID string) error
	DeleteFollows(followerID, artistID string) (int64, error)
	IncrementArtistFollowers(id string, delta int64) error
	GetArtistFollowerCount(id string) (int64, error)
	FindFollowedArtists(followerID string, artistIDs []string) (map[string]bool, error)
}

// trackCounterColumns whitelists counter fields that may be adjusted on tracks
var trackCounterColumns = map[string]bool{
	model.CounterLikes:     true,
	model.CounterFavorites: true,
	model.CounterShares:    true,
	model.CounterComments:  true,
	model.CounterViews:     true,
	model.CounterDownloads: true,
	model.CounterReports:   true,
}

type contentRepository struct {
	db *gorm.DB
}

func NewContentRepository(db *gorm.DB) ContentRepository {
	return &contentRepository{db: db}
}

// TrackExists checks whether a track exists
func (r *contentRepository) TrackExists(id string) (bool, error) {
	var count int64
	err := r.db.Model(&model.Track{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

// FindTrackByID finds a track by ID
func (r *contentRepository) FindTrackByID(id string) (*model.Track, error) {
	var track model.Track
	err := r.db.Preload("Artist").Where("id = ?", id).First(&track).Error
	if err != nil {
		return nil, err
	}
	return &track, nil
}

// FindTracksByIDs fetches multiple tracks in one query
func (r *contentRepository) FindTracksByIDs(ids []string) ([]*model.Track, error) {
	if len(ids) == 0 {
		return []*model.Track{}, nil
	}
	var tracks []*model.Track
	err := r.db.Where("id IN ?", ids).Find(&tracks).Error
	if err != nil {
		return nil, err
	}
	return tracks, nil
}

// IncrementTrackCounter atomically adjusts a counter column on a track. The
// math happens in the database, never read-modify-write in the application.
func (r *contentRepository) IncrementTrackCounter(id, field string, delta int64) error {
	if !trackCounterColumns[field] {
		return fmt.Errorf("unknown track counter field: %s", field)
	}
	return r.db.Model(&model.Track{}).
		Where("id = ?", id).
		Update(field, gorm.Expr(field+" + ?", delta)).Error
}

// GetTrackCounter reads a single counter column from a track
func (r *contentRepository) GetTrackCounter(id, field string) (int64, error) {
	if !trackCounterColumns[field] {
		return 0, fmt.Errorf("unknown track counter field: %s", field)
	}
	var count int64
	err := r.db.Model(&model.Track{}).
		Where("id = ?", id).
		Select(field).
		Scan(&count).Error
	return count, err
}

// MerchExists checks whether a merch item exists
func (r *contentRepository) MerchExists(id string) (bool, error) {
	var count int64
	err := r.db.Model(&model.Merch{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

// FindMerchByID finds a merch item by ID
func (r *contentRepository) FindMerchByID(id string) (*model.Merch, error) {
	var merch model.Merch
	err := r.db.Preload("Artist").Where("id = ?", id).First(&merch).Error
	if err != nil {
		return nil, err
	}
	return &merch, nil
}

// FindMerchByIDs fetches multiple merch items in one query
func (r *contentRepository) FindMerchByIDs(ids []string) ([]*model.Merch, error) {
	if len(ids) == 0 {
		return []*model.Merch{}, nil
	}
	var items []*model.Merch
	err := r.db.Where("id IN ?", ids).Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// IncrementMerchFavorites atomically adjusts a merch item's favorite counter
func (r *contentRepository) IncrementMerchFavorites(id string, delta int64) error {
	return r.db.Model(&model.Merch{}).
		Where("id = ?", id).
		Update("favorite_count", gorm.Expr("favorite_count + ?", delta)).Error
}

// GetMerchFavoriteCount reads a merch item's favorite counter
func (r *contentRepository) GetMerchFavoriteCount(id string) (int64, error) {
	var count int64
	err := r.db.Model(&model.Merch{}).
		Where("id = ?", id).
		Select("favorite_count").
		Scan(&count).Error
	return count, err
}

// ArtistExists checks whether an artist exists
func (r *contentRepository) ArtistExists(id string) (bool, error) {
	var count int64
	err := r.db.Model(&model.Artist{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

// FindArtistByID finds an artist by ID
func (r *contentRepository) FindArtistByID(id string) (*model.Artist, error) {
	var artist model.Artist
	err := r.db.Where("id = ?", id).First(&artist).Error
	if err != nil {
		return nil, err
	}
	return &artist, nil
}

// FindArtistsByIDs fetches multiple artists in one query
func (r *contentRepository) FindArtistsByIDs(ids []string) ([]*model.Artist, error) {
	if len(ids) == 0 {
		return []*model.Artist{}, nil
	}
	var artists []*model.Artist
	err := r.db.Where("id IN ?", ids).Find(&artists).Error
	if err != nil {
		return nil, err
	}
	return artists, nil
}

// FindFollows finds all follow edges between a user and an artist. The unique
// index should guarantee at most one, but duplicates are cleaned up together
// if they ever appear.
func (r *contentRepository) FindFollows(followerID, artistID string) ([]*model.Follow, error) {
	var follows []*model.Follow
	err := r.db.Where("follower_id = ? AND artist_id = ?", followerID, artistID).Find(&follows).Error
	if err != nil {
		return nil, err
	}
	return follows, nil
}

// CreateFollow creates a follow edge
func (r *contentRepository) CreateFollow(followerID, artistID string) error {
	return r.db.Create(&model.Follow{
		FollowerID: followerID,
		ArtistID:   artistID,
	}).Error
}

// DeleteFollows removes all follow edges for the pair and returns how many
// rows were removed.
func (r *contentRepository) DeleteFollows(followerID, artistID string) (int64, error) {
	result := r.db.Where("follower_id = ? AND artist_id = ?", followerID, artistID).Delete(&model.Follow{})
	return result.RowsAffected, result.Error
}

// IncrementArtistFollowers atomically adjusts an artist's follower counter
func (r *contentRepository) IncrementArtistFollowers(id string, delta int64) error {
	return r.db.Model(&model.Artist{}).
		Where("id = ?", id).
		Update("follower_count", gorm.Expr("follower_count + ?", delta)).Error
}

// GetArtistFollowerCount reads an artist's follower counter
func (r *contentRepository) GetArtistFollowerCount(id string) (int64, error) {
	var count int64
	err := r.db.Model(&model.Artist{}).
		Where("id = ?", id).
		Select("follower_count").
		Scan(&count).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	return count, err
}

// FindFollowedArtists returns which of the given artists the user follows, in
// one query.
func (r *contentRepository) FindFollowedArtists(followerID string, artistIDs []string) (map[string]bool, error) {
	if len(artistIDs) == 0 {
		return map[string]bool{}, nil
	}
	var follows []model.Follow
	err := r.db.Select("artist_id").
		Where("follower_id = ? AND artist_id IN ?", followerID, artistIDs).
		Find(&follows).Error
	if err != nil {
		return nil, err
	}
	m := make(map[string]bool)
	for _, follow := range follows {
		m[follow.ArtistID] = true
	}
	return m, nil
}
