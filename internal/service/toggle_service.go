package service

import (
	"log"
	"time"

	"soundrise/internal/config"
	"soundrise/internal/model"
	"soundrise/internal/repository"
)

// InteractionCache is the fast-path store consumed by the engines. Absence of
// a key is reported, not treated as an error; the durable store fills gaps.
type InteractionCache interface {
	GetToggle(kind, contentID, userID string) (bool, bool, error)
	SetToggle(kind, contentID, userID string, on bool) error
	GetCounter(kind, contentID, field string) (int64, bool, error)
	SetCounter(kind, contentID, field string, value int64) error
	AdjustCounter(kind, contentID, field string, delta int64) (int64, error)
	MarkMilestoneOnce(kind, contentID, field string, milestone int64, ttl time.Duration) (bool, error)
}

// Broadcaster publishes realtime events into a content room
type Broadcaster interface {
	Publish(event, room string, payload map[string]interface{})
}

// Notifier delivers a notification to a user. Fire-and-forget: callers route
// it through the dispatcher and never depend on the result.
type Notifier interface {
	Notify(actorID, targetUserID, eventKind string, data map[string]interface{}) error
}

// ViralityChecker evaluates milestone thresholds for a content item
type ViralityChecker interface {
	CheckMilestones(contentID string, kind ContentKind) error
}

// ToggleResult is what the toggle endpoint returns
type ToggleResult struct {
	ContentID string `json:"content_id"`
	Liked     bool   `json:"liked"`
	LikeCount int64  `json:"like_count"`
}

type ToggleService interface {
	// Toggle is the fast path: cache-only, returns within a cache round trip,
	// and schedules the durable confirmation in the background.
	Toggle(userID, rawKind, contentID string) (*ToggleResult, error)

	// ToggleDurable is the authoritative path. After it commits, the content
	// counter equals the count of active records for the pair.
	ToggleDurable(userID, rawKind, contentID string) (bool, error)

	HasToggled(userID, rawKind, contentID string) (bool, error)
}

type toggleService struct {
	store          repository.Store
	cache          InteractionCache
	broadcaster    Broadcaster
	dispatcher     *Dispatcher
	virality       ViralityChecker
	notifier       Notifier
	strategies     map[ContentKind]kindStrategy
	driftTolerance int64
}

func NewToggleService(
	store repository.Store,
	cache InteractionCache,
	broadcaster Broadcaster,
	dispatcher *Dispatcher,
	virality ViralityChecker,
	notifier Notifier,
	cfg *config.Config,
) ToggleService {
	return &toggleService{
		store:          store,
		cache:          cache,
		broadcaster:    broadcaster,
		dispatcher:     dispatcher,
		virality:       virality,
		notifier:       notifier,
		strategies:     newKindStrategies(),
		driftTolerance: cfg.CounterDriftTolerance,
	}
}

// Toggle flips the toggle state optimistically in the cache and answers from
// there. No durable-store writes happen on this path; the durable
// confirmation runs behind the dispatcher and reconciliation corrects any
// counter drift it finds.
func (s *toggleService) Toggle(userID, rawKind, contentID string) (*ToggleResult, error) {
	kind, err := NormalizeKind(rawKind)
	if err != nil {
		return nil, err
	}
	strategy := s.strategies[kind]

	// Current state: cache first, durable read-through on a miss
	liked, found, _ := s.cache.GetToggle(string(kind), contentID, userID)
	if !found {
		liked, err = strategy.HasToggled(s.store, userID, contentID)
		if err != nil {
			return nil, err
		}
	}

	newState := !liked
	if err := s.cache.SetToggle(string(kind), contentID, userID, newState); err != nil {
		log.Printf("Toggle state write failed for %s/%s: %v", kind, contentID, err)
	}

	var delta int64 = 1
	if !newState {
		delta = -1
	}

	// Seed the cache counter from the durable store when it is cold, so the
	// increment lands on a real baseline instead of zero.
	count, ok, _ := s.cache.GetCounter(string(kind), contentID, strategy.CounterField())
	if !ok {
		if durable, err := strategy.Counter(s.store, contentID); err == nil {
			s.cache.SetCounter(string(kind), contentID, strategy.CounterField(), durable)
			count = durable
		}
	}

	newCount, err := s.cache.AdjustCounter(string(kind), contentID, strategy.CounterField(), delta)
	if err != nil {
		// Cache unreachable: answer from the durable baseline
		newCount = count + delta
	}
	if newCount < 0 {
		newCount = 0
	}

	s.broadcaster.Publish("toggle_updated", RoomKey(kind, contentID), map[string]interface{}{
		"content_id": contentID,
		"kind":       string(kind),
		"liked":      newState,
		"count":      newCount,
		"optimistic": true,
	})

	s.dispatcher.Enqueue("durable_toggle", func() error {
		_, err := s.ToggleDurable(userID, rawKind, contentID)
		return err
	})

	return &ToggleResult{
		ContentID: contentID,
		Liked:     newState,
		LikeCount: newCount,
	}, nil
}

// ToggleDurable runs the toggle inside a storage transaction and is the
// correctness anchor: concurrent toggles on the same pair serialize on the
// row locks, and the counter always matches the active-record count after
// commit.
func (s *toggleService) ToggleDurable(userID, rawKind, contentID string) (bool, error) {
	kind, err := NormalizeKind(rawKind)
	if err != nil {
		return false, err
	}
	strategy := s.strategies[kind]

	var liked bool
	err = s.store.WithTx(func(tx repository.Store) error {
		if err := strategy.VerifyExists(tx, contentID); err != nil {
			return err
		}

		if ownerID, err := strategy.OwnerID(tx, contentID); err == nil && ownerID == userID {
			// Allowed, but worth a trace for the analytics side
			log.Printf("Self-interaction: user %s toggled own %s %s", userID, kind, contentID)
		}

		liked, err = strategy.Toggle(tx, userID, contentID)
		return err
	})
	if err != nil {
		return false, err
	}

	// Pin the cache toggle state to the committed outcome
	s.cache.SetToggle(string(kind), contentID, userID, liked)

	s.dispatcher.Enqueue("reconcile_counter", func() error {
		return s.reconcile(kind, contentID, strategy)
	})

	if liked {
		s.dispatcher.Enqueue("toggle_notification", func() error {
			return s.notifyOwner(kind, userID, contentID, strategy)
		})
		s.dispatcher.Enqueue("virality_check", func() error {
			return s.virality.CheckMilestones(contentID, kind)
		})
	}

	if count, err := strategy.Counter(s.store, contentID); err == nil {
		s.broadcaster.Publish("toggle_confirmed", RoomKey(kind, contentID), map[string]interface{}{
			"content_id": contentID,
			"kind":       string(kind),
			"liked":      liked,
			"count":      count,
		})
	}

	return liked, nil
}

// HasToggled answers whether the user currently has the toggle on, from the
// authoritative store.
func (s *toggleService) HasToggled(userID, rawKind, contentID string) (bool, error) {
	kind, err := NormalizeKind(rawKind)
	if err != nil {
		return false, err
	}
	return s.strategies[kind].HasToggled(s.store, userID, contentID)
}

// reconcile overwrites the cached counter with the durable value once drift
// exceeds the tolerance. Small drift is left alone; it converges on the next
// pass anyway and overwriting on every toggle would defeat the cache.
func (s *toggleService) reconcile(kind ContentKind, contentID string, strategy kindStrategy) error {
	durable, err := strategy.Counter(s.store, contentID)
	if err != nil {
		return err
	}

	cached, found, err := s.cache.GetCounter(string(kind), contentID, strategy.CounterField())
	if err != nil || !found {
		return s.cache.SetCounter(string(kind), contentID, strategy.CounterField(), durable)
	}

	drift := cached - durable
	if drift < 0 {
		drift = -drift
	}
	if drift > s.driftTolerance {
		return s.cache.SetCounter(string(kind), contentID, strategy.CounterField(), durable)
	}
	return nil
}

func (s *toggleService) notifyOwner(kind ContentKind, actorID, contentID string, strategy kindStrategy) error {
	ownerID, err := strategy.OwnerID(s.store, contentID)
	if err != nil {
		return err
	}
	if ownerID == actorID {
		return nil
	}

	eventKind := model.NotificationTypeContentLiked
	if kind == KindArtist {
		eventKind = model.NotificationTypeArtistFollowed
	}

	return s.notifier.Notify(actorID, ownerID, eventKind, map[string]interface{}{
		"content_id":   contentID,
		"content_kind": string(kind),
	})
}
