package service

import (
	"soundrise/internal/model"
	"soundrise/internal/repository"
)

// EngagementService records the non-toggle interaction types. Each is unique
// per (user, content): the counter moves only the first time, repeats just
// refresh the payload.
type EngagementService interface {
	RecordShare(userID, contentID string) error
	RecordView(userID, contentID string, watchSeconds int, completed bool) error
	RecordDownload(userID, contentID string) error
}

type engagementService struct {
	store      repository.Store
	cache      InteractionCache
	dispatcher *Dispatcher
	virality   ViralityChecker
}

func NewEngagementService(
	store repository.Store,
	cache InteractionCache,
	dispatcher *Dispatcher,
	virality ViralityChecker,
) EngagementService {
	return &engagementService{
		store:      store,
		cache:      cache,
		dispatcher: dispatcher,
		virality:   virality,
	}
}

// RecordShare records that the user shared a track
func (s *engagementService) RecordShare(userID, contentID string) error {
	return s.record(userID, contentID, model.TypeShare, model.CounterShares, nil)
}

// RecordView records a playback event. Watch progress on a repeat view only
// moves forward, never backward.
func (s *engagementService) RecordView(userID, contentID string, watchSeconds int, completed bool) error {
	return s.record(userID, contentID, model.TypeView, model.CounterViews, func(record *model.Interaction) {
		if watchSeconds > record.WatchSeconds {
			record.WatchSeconds = watchSeconds
		}
		if completed {
			record.Completed = true
		}
	})
}

// RecordDownload records that the user downloaded a track
func (s *engagementService) RecordDownload(userID, contentID string) error {
	return s.record(userID, contentID, model.TypeDownload, model.CounterDownloads, nil)
}

func (s *engagementService) record(userID, contentID, interactionType, counterField string, update func(*model.Interaction)) error {
	var created bool
	err := s.store.WithTx(func(tx repository.Store) error {
		exists, err := tx.Content().TrackExists(contentID)
		if err != nil {
			return err
		}
		if !exists {
			return ErrContentNotFound
		}

		existing, err := tx.Interactions().FindActive(userID, contentID, interactionType)
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			if update == nil {
				return nil
			}
			record := existing[0]
			update(record)
			return tx.Interactions().Save(record)
		}

		record := &model.Interaction{
			UserID:      userID,
			ContentID:   contentID,
			ContentKind: string(KindMedia),
			Type:        interactionType,
		}
		if update != nil {
			update(record)
		}
		if err := tx.Interactions().Create(record); err != nil {
			return err
		}
		if err := tx.Content().IncrementTrackCounter(contentID, counterField, 1); err != nil {
			return err
		}
		created = true
		return nil
	})
	if err != nil {
		return err
	}

	if created {
		s.cache.AdjustCounter(string(KindMedia), contentID, counterField, 1)
		s.dispatcher.Enqueue("virality_check", func() error {
			return s.virality.CheckMilestones(contentID, KindMedia)
		})
	}
	return nil
}
