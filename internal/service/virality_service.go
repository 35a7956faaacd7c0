package service

import (
	"time"

	"soundrise/internal/config"
	"soundrise/internal/model"
	"soundrise/internal/repository"
)

// viralCounters are the track counters that can trip a milestone
var viralCounters = []string{
	model.CounterLikes,
	model.CounterViews,
	model.CounterShares,
}

// ViralityService fires a one-time notification to the content owner each
// time a counter crosses a configured threshold. Dedupe markers live in Redis
// with a long TTL so a restart or a second instance does not re-fire them.
type ViralityService struct {
	store      repository.Store
	cache      InteractionCache
	notifier   Notifier
	milestones []int64
	markerTTL  time.Duration
}

func NewViralityService(
	store repository.Store,
	cache InteractionCache,
	notifier Notifier,
	cfg *config.Config,
) *ViralityService {
	return &ViralityService{
		store:      store,
		cache:      cache,
		notifier:   notifier,
		milestones: cfg.ViralMilestones,
		markerTTL:  cfg.MilestoneMarkerTTL,
	}
}

// CheckMilestones evaluates every viral counter of a content item against the
// configured thresholds. Only media carries milestones.
func (s *ViralityService) CheckMilestones(contentID string, kind ContentKind) error {
	if kind != KindMedia {
		return nil
	}

	track, err := s.store.Content().FindTrackByID(contentID)
	if err != nil {
		if notFound(err) {
			return nil
		}
		return err
	}

	for _, counter := range viralCounters {
		var value int64
		switch counter {
		case model.CounterLikes:
			value = track.LikeCount
		case model.CounterViews:
			value = track.ViewCount
		case model.CounterShares:
			value = track.ShareCount
		}

		for _, milestone := range s.milestones {
			if value < milestone {
				break
			}
			first, err := s.cache.MarkMilestoneOnce(string(kind), contentID, counter, milestone, s.markerTTL)
			if err != nil || !first {
				continue
			}
			if track.Artist.UserID == "" {
				continue
			}
			if err := s.notifier.Notify("", track.Artist.UserID, model.NotificationTypeViralMilestone, map[string]interface{}{
				"content_id": contentID,
				"counter":    counter,
				"milestone":  milestone,
			}); err != nil {
				return err
			}
		}
	}
	return nil
}
