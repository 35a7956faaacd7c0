package service

import (
	"soundrise/internal/model"
	"soundrise/internal/repository"
)

// maxBatchSize caps one metadata request
const maxBatchSize = 100

// ContentMetadata is the per-item payload of a batch metadata response.
// Unknown IDs are simply absent from the result.
type ContentMetadata struct {
	ContentID     string `json:"content_id"`
	LikeCount     int64  `json:"like_count"`
	CommentCount  int64  `json:"comment_count,omitempty"`
	ShareCount    int64  `json:"share_count,omitempty"`
	ViewCount     int64  `json:"view_count,omitempty"`
	FavoriteCount int64  `json:"favorite_count,omitempty"`
	DownloadCount int64  `json:"download_count,omitempty"`
	IsLiked       bool   `json:"is_liked"`
	IsFavorited   bool   `json:"is_favorited"`
	IsShared      bool   `json:"is_shared"`
	IsViewed      bool   `json:"is_viewed"`
}

type MetadataService interface {
	// BatchMetadata returns counters and per-viewer flags for up to
	// maxBatchSize content items of one kind. Query cost is bounded by a
	// constant number of queries regardless of batch size.
	BatchMetadata(viewerID, rawKind string, contentIDs []string) (map[string]*ContentMetadata, error)
}

type metadataService struct {
	store repository.Store
}

func NewMetadataService(store repository.Store) MetadataService {
	return &metadataService{store: store}
}

func (s *metadataService) BatchMetadata(viewerID, rawKind string, contentIDs []string) (map[string]*ContentMetadata, error) {
	kind, err := NormalizeKind(rawKind)
	if err != nil {
		return nil, err
	}
	if len(contentIDs) == 0 {
		return nil, ErrMissingContentIDs
	}
	if len(contentIDs) > maxBatchSize {
		contentIDs = contentIDs[:maxBatchSize]
	}
	contentIDs = dedupe(contentIDs)

	switch kind {
	case KindMedia:
		return s.mediaMetadata(viewerID, contentIDs)
	case KindMerch:
		return s.merchMetadata(viewerID, contentIDs)
	case KindArtist:
		return s.artistMetadata(viewerID, contentIDs)
	}
	return nil, ErrUnsupportedKind
}

// mediaMetadata serves the full counter set plus four viewer flags. Five
// queries total: one for the tracks, one per flag type.
func (s *metadataService) mediaMetadata(viewerID string, contentIDs []string) (map[string]*ContentMetadata, error) {
	tracks, err := s.store.Content().FindTracksByIDs(contentIDs)
	if err != nil {
		return nil, err
	}

	liked, err := s.store.Interactions().FindUserActiveTargets(viewerID, model.TypeLike, contentIDs)
	if err != nil {
		return nil, err
	}
	favorited, err := s.store.Interactions().FindUserActiveTargets(viewerID, model.TypeFavorite, contentIDs)
	if err != nil {
		return nil, err
	}
	shared, err := s.store.Interactions().FindUserActiveTargets(viewerID, model.TypeShare, contentIDs)
	if err != nil {
		return nil, err
	}
	viewed, err := s.store.Interactions().FindUserActiveTargets(viewerID, model.TypeView, contentIDs)
	if err != nil {
		return nil, err
	}

	result := make(map[string]*ContentMetadata, len(tracks))
	for _, track := range tracks {
		result[track.ID] = &ContentMetadata{
			ContentID:     track.ID,
			LikeCount:     track.LikeCount,
			CommentCount:  track.CommentCount,
			ShareCount:    track.ShareCount,
			ViewCount:     track.ViewCount,
			FavoriteCount: track.FavoriteCount,
			DownloadCount: track.DownloadCount,
			IsLiked:       liked[track.ID],
			IsFavorited:   favorited[track.ID],
			IsShared:      shared[track.ID],
			IsViewed:      viewed[track.ID],
		}
	}
	return result, nil
}

// merchMetadata serves the favorite counter and flag only
func (s *metadataService) merchMetadata(viewerID string, contentIDs []string) (map[string]*ContentMetadata, error) {
	items, err := s.store.Content().FindMerchByIDs(contentIDs)
	if err != nil {
		return nil, err
	}
	favorited, err := s.store.Interactions().FindUserActiveTargets(viewerID, model.TypeFavorite, contentIDs)
	if err != nil {
		return nil, err
	}

	result := make(map[string]*ContentMetadata, len(items))
	for _, item := range items {
		result[item.ID] = &ContentMetadata{
			ContentID:     item.ID,
			FavoriteCount: item.FavoriteCount,
			IsFavorited:   favorited[item.ID],
		}
	}
	return result, nil
}

// artistMetadata maps the follower count onto the like counter and the
// follow edge onto the liked flag, so clients render all kinds the same way.
func (s *metadataService) artistMetadata(viewerID string, contentIDs []string) (map[string]*ContentMetadata, error) {
	artists, err := s.store.Content().FindArtistsByIDs(contentIDs)
	if err != nil {
		return nil, err
	}
	followed, err := s.store.Content().FindFollowedArtists(viewerID, contentIDs)
	if err != nil {
		return nil, err
	}

	result := make(map[string]*ContentMetadata, len(artists))
	for _, artist := range artists {
		result[artist.ID] = &ContentMetadata{
			ContentID: artist.ID,
			LikeCount: artist.FollowerCount,
			IsLiked:   followed[artist.ID],
		}
	}
	return result, nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
