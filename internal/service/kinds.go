package service

import (
	"errors"
	"fmt"

	"soundrise/internal/model"
	"soundrise/internal/repository"

	"gorm.io/gorm"
)

// ContentKind is the closed set of interaction targets. Raw kinds from the
// API are collapsed to one of these before any dispatch happens.
type ContentKind string

const (
	KindMedia  ContentKind = "media"
	KindArtist ContentKind = "artist"
	KindMerch  ContentKind = "merch"
)

// kindAliases maps every accepted raw kind to its canonical kind. Songs and
// video episodes share the tracks table, so both collapse to media.
var kindAliases = map[string]ContentKind{
	"media":   KindMedia,
	"track":   KindMedia,
	"song":    KindMedia,
	"video":   KindMedia,
	"artist":  KindArtist,
	"creator": KindArtist,
	"merch":   KindMerch,
	"product": KindMerch,
}

// NormalizeKind collapses a raw content kind to its canonical form
func NormalizeKind(raw string) (ContentKind, error) {
	if kind, ok := kindAliases[raw]; ok {
		return kind, nil
	}
	return "", ErrUnsupportedKind
}

// SupportsComments reports whether the kind carries a comment thread
func (k ContentKind) SupportsComments() bool {
	return k == KindMedia
}

// RoomKey derives the realtime room for a content item
func RoomKey(kind ContentKind, contentID string) string {
	return fmt.Sprintf("content:%s:%s", kind, contentID)
}

// kindStrategy binds a canonical kind to its toggle behavior. Toggle runs
// inside the caller's transaction and must leave the counter equal to the
// number of active records (or follow edges) when it returns.
type kindStrategy interface {
	ToggleType() string
	CounterField() string
	VerifyExists(s repository.Store, contentID string) error
	OwnerID(s repository.Store, contentID string) (string, error)
	Toggle(s repository.Store, userID, contentID string) (bool, error)
	Counter(s repository.Store, contentID string) (int64, error)
	HasToggled(s repository.Store, userID, contentID string) (bool, error)
}

func newKindStrategies() map[ContentKind]kindStrategy {
	return map[ContentKind]kindStrategy{
		KindMedia:  &mediaStrategy{},
		KindArtist: &artistStrategy{},
		KindMerch:  &merchStrategy{},
	}
}

// mediaStrategy toggles a like record against a track
type mediaStrategy struct{}

func (mediaStrategy) ToggleType() string   { return model.TypeLike }
func (mediaStrategy) CounterField() string { return model.CounterLikes }

func (mediaStrategy) VerifyExists(s repository.Store, contentID string) error {
	exists, err := s.Content().TrackExists(contentID)
	if err != nil {
		return err
	}
	if !exists {
		return ErrContentNotFound
	}
	return nil
}

func (mediaStrategy) OwnerID(s repository.Store, contentID string) (string, error) {
	track, err := s.Content().FindTrackByID(contentID)
	if err != nil {
		return "", err
	}
	return track.Artist.UserID, nil
}

func (st mediaStrategy) Toggle(s repository.Store, userID, contentID string) (bool, error) {
	return toggleInteraction(s, userID, contentID, string(KindMedia), model.TypeLike,
		func(delta int64) error {
			return s.Content().IncrementTrackCounter(contentID, model.CounterLikes, delta)
		})
}

func (mediaStrategy) Counter(s repository.Store, contentID string) (int64, error) {
	return s.Content().GetTrackCounter(contentID, model.CounterLikes)
}

func (mediaStrategy) HasToggled(s repository.Store, userID, contentID string) (bool, error) {
	return s.Interactions().HasActive(userID, contentID, model.TypeLike)
}

// merchStrategy toggles a favorite record against a merch item
type merchStrategy struct{}

func (merchStrategy) ToggleType() string   { return model.TypeFavorite }
func (merchStrategy) CounterField() string { return model.CounterFavorites }

func (merchStrategy) VerifyExists(s repository.Store, contentID string) error {
	exists, err := s.Content().MerchExists(contentID)
	if err != nil {
		return err
	}
	if !exists {
		return ErrContentNotFound
	}
	return nil
}

func (merchStrategy) OwnerID(s repository.Store, contentID string) (string, error) {
	merch, err := s.Content().FindMerchByID(contentID)
	if err != nil {
		return "", err
	}
	return merch.Artist.UserID, nil
}

func (merchStrategy) Toggle(s repository.Store, userID, contentID string) (bool, error) {
	return toggleInteraction(s, userID, contentID, string(KindMerch), model.TypeFavorite,
		func(delta int64) error {
			return s.Content().IncrementMerchFavorites(contentID, delta)
		})
}

func (merchStrategy) Counter(s repository.Store, contentID string) (int64, error) {
	return s.Content().GetMerchFavoriteCount(contentID)
}

func (merchStrategy) HasToggled(s repository.Store, userID, contentID string) (bool, error) {
	return s.Interactions().HasActive(userID, contentID, model.TypeFavorite)
}

// artistStrategy reinterprets "like" as a follow relationship: the acting
// user joins the artist's follower set, and the follower count is
// denormalized on the artist row.
type artistStrategy struct{}

func (artistStrategy) ToggleType() string   { return model.TypeLike }
func (artistStrategy) CounterField() string { return model.CounterFollowers }

func (artistStrategy) VerifyExists(s repository.Store, contentID string) error {
	exists, err := s.Content().ArtistExists(contentID)
	if err != nil {
		return err
	}
	if !exists {
		return ErrContentNotFound
	}
	return nil
}

func (artistStrategy) OwnerID(s repository.Store, contentID string) (string, error) {
	artist, err := s.Content().FindArtistByID(contentID)
	if err != nil {
		return "", err
	}
	return artist.UserID, nil
}

func (artistStrategy) Toggle(s repository.Store, userID, contentID string) (bool, error) {
	follows, err := s.Content().FindFollows(userID, contentID)
	if err != nil {
		return false, err
	}
	if len(follows) > 0 {
		removed, err := s.Content().DeleteFollows(userID, contentID)
		if err != nil {
			return false, err
		}
		if err := s.Content().IncrementArtistFollowers(contentID, -removed); err != nil {
			return false, err
		}
		return false, nil
	}

	if err := s.Content().CreateFollow(userID, contentID); err != nil {
		return false, err
	}
	if err := s.Content().IncrementArtistFollowers(contentID, 1); err != nil {
		return false, err
	}
	return true, nil
}

func (artistStrategy) Counter(s repository.Store, contentID string) (int64, error) {
	return s.Content().GetArtistFollowerCount(contentID)
}

func (artistStrategy) HasToggled(s repository.Store, userID, contentID string) (bool, error) {
	follows, err := s.Content().FindFollows(userID, contentID)
	if err != nil {
		return false, err
	}
	return len(follows) > 0, nil
}

// toggleInteraction is the shared record state machine for like/favorite
// toggles. If any active records exist they are all soft-deleted together
// (historical duplicates included) and the counter drops by the exact number
// removed. Otherwise the most recent soft-deleted record is restored, or a
// fresh one created, and the counter rises by one.
func toggleInteraction(s repository.Store, userID, contentID, kind, interactionType string, adjust func(delta int64) error) (bool, error) {
	active, err := s.Interactions().FindActive(userID, contentID, interactionType)
	if err != nil {
		return false, err
	}

	if len(active) > 0 {
		ids := make([]string, 0, len(active))
		for _, record := range active {
			ids = append(ids, record.ID)
		}
		if err := s.Interactions().SoftDeleteByIDs(ids); err != nil {
			return false, err
		}
		if err := adjust(-int64(len(active))); err != nil {
			return false, err
		}
		return false, nil
	}

	previous, err := s.Interactions().FindLatestDeleted(userID, contentID, interactionType)
	if err != nil {
		return false, err
	}
	if previous != nil {
		previous.Restore()
		if err := s.Interactions().Save(previous); err != nil {
			return false, err
		}
	} else {
		record := &model.Interaction{
			UserID:      userID,
			ContentID:   contentID,
			ContentKind: kind,
			Type:        interactionType,
		}
		if err := s.Interactions().Create(record); err != nil {
			return false, err
		}
	}

	if err := adjust(1); err != nil {
		return false, err
	}
	return true, nil
}

// notFound reports whether a repository error means "no such row"
func notFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
