package service

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"soundrise/internal/model"
	"soundrise/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// In-memory fakes for the repository and cache layers. They implement the
// real interfaces so the services under test run their actual decision logic.

type fakeInteractionRepo struct {
	mu      sync.Mutex
	records []*model.Interaction
}

func (r *fakeInteractionRepo) Create(interaction *model.Interaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if interaction.ID == "" {
		interaction.ID = uuid.New().String()
	}
	now := time.Now()
	if interaction.CreatedAt.IsZero() {
		interaction.CreatedAt = now
	}
	interaction.LastActivityAt = now
	clone := *interaction
	r.records = append(r.records, &clone)
	return nil
}

func (r *fakeInteractionRepo) Save(interaction *model.Interaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	interaction.LastActivityAt = time.Now()
	for i, record := range r.records {
		if record.ID == interaction.ID {
			clone := *interaction
			r.records[i] = &clone
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *fakeInteractionRepo) FindByID(id string) (*model.Interaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, record := range r.records {
		if record.ID == id {
			clone := *record
			return &clone, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeInteractionRepo) FindActive(userID, contentID, interactionType string) ([]*model.Interaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Interaction
	for _, record := range r.records {
		if record.UserID == userID && record.ContentID == contentID && record.Type == interactionType && !record.Deleted {
			clone := *record
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *fakeInteractionRepo) FindLatestDeleted(userID, contentID, interactionType string) (*model.Interaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var latest *model.Interaction
	for _, record := range r.records {
		if record.UserID == userID && record.ContentID == contentID && record.Type == interactionType && record.Deleted {
			if latest == nil || record.LastActivityAt.After(latest.LastActivityAt) {
				latest = record
			}
		}
	}
	if latest == nil {
		return nil, nil
	}
	clone := *latest
	return &clone, nil
}

func (r *fakeInteractionRepo) SoftDeleteByIDs(ids []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	for _, record := range r.records {
		if set[record.ID] {
			record.Deleted = true
			record.LastActivityAt = time.Now()
		}
	}
	return nil
}

func (r *fakeInteractionRepo) HasActive(userID, contentID, interactionType string) (bool, error) {
	active, _ := r.FindActive(userID, contentID, interactionType)
	return len(active) > 0, nil
}

func (r *fakeInteractionRepo) CountActive(contentID, interactionType string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, record := range r.records {
		if record.ContentID == contentID && record.Type == interactionType && !record.Deleted {
			count++
		}
	}
	return count, nil
}

func (r *fakeInteractionRepo) FindTopLevelComments(contentID string, limit, offset int, sortOrder string) ([]*model.Interaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var comments []*model.Interaction
	for _, record := range r.records {
		if record.ContentID == contentID && record.Type == model.TypeComment && !record.Deleted && !record.Hidden && record.ParentID == nil {
			clone := *record
			comments = append(comments, &clone)
		}
	}
	switch sortOrder {
	case repository.SortOldest:
		sort.Slice(comments, func(i, j int) bool { return comments[i].CreatedAt.Before(comments[j].CreatedAt) })
	case repository.SortTop:
		sort.Slice(comments, func(i, j int) bool {
			si := comments[i].ReplyCount + comments[i].ReactionCount
			sj := comments[j].ReplyCount + comments[j].ReactionCount
			if si != sj {
				return si > sj
			}
			return comments[i].CreatedAt.After(comments[j].CreatedAt)
		})
	default:
		sort.Slice(comments, func(i, j int) bool { return comments[i].CreatedAt.After(comments[j].CreatedAt) })
	}
	if offset >= len(comments) {
		return []*model.Interaction{}, nil
	}
	comments = comments[offset:]
	if limit < len(comments) {
		comments = comments[:limit]
	}
	return comments, nil
}

func (r *fakeInteractionRepo) CountTopLevelComments(contentID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, record := range r.records {
		if record.ContentID == contentID && record.Type == model.TypeComment && !record.Deleted && record.ParentID == nil {
			count++
		}
	}
	return count, nil
}

func (r *fakeInteractionRepo) CountReplies(contentID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, record := range r.records {
		if record.ContentID == contentID && record.Type == model.TypeComment && !record.Deleted && record.ParentID != nil {
			count++
		}
	}
	return count, nil
}

func (r *fakeInteractionRepo) FindActiveReplies(parentIDs []string) ([]*model.Interaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	set := make(map[string]bool, len(parentIDs))
	for _, id := range parentIDs {
		set[id] = true
	}
	var replies []*model.Interaction
	for _, record := range r.records {
		if record.ParentID != nil && set[*record.ParentID] && !record.Deleted && !record.Hidden {
			clone := *record
			replies = append(replies, &clone)
		}
	}
	sort.Slice(replies, func(i, j int) bool { return replies[i].CreatedAt.After(replies[j].CreatedAt) })
	return replies, nil
}

func (r *fakeInteractionRepo) IncrementReplyCount(commentID string, delta int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, record := range r.records {
		if record.ID == commentID {
			record.ReplyCount += delta
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *fakeInteractionRepo) FindUserActiveTargets(userID, interactionType string, contentIDs []string) (map[string]bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	set := make(map[string]bool, len(contentIDs))
	for _, id := range contentIDs {
		set[id] = true
	}
	out := make(map[string]bool)
	for _, record := range r.records {
		if record.UserID == userID && record.Type == interactionType && !record.Deleted && set[record.ContentID] {
			out[record.ContentID] = true
		}
	}
	return out, nil
}

func (r *fakeInteractionRepo) CountActiveByContents(interactionType string, contentIDs []string) (map[string]int64, error) {
	out := make(map[string]int64, len(contentIDs))
	for _, id := range contentIDs {
		count, _ := r.CountActive(id, interactionType)
		out[id] = count
	}
	return out, nil
}

type fakeContentRepo struct {
	mu      sync.Mutex
	tracks  map[string]*model.Track
	merch   map[string]*model.Merch
	artists map[string]*model.Artist
	follows []*model.Follow
}

func newFakeContentRepo() *fakeContentRepo {
	return &fakeContentRepo{
		tracks:  make(map[string]*model.Track),
		merch:   make(map[string]*model.Merch),
		artists: make(map[string]*model.Artist),
	}
}

func (r *fakeContentRepo) TrackExists(id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.tracks[id]
	return ok, nil
}

func (r *fakeContentRepo) FindTrackByID(id string) (*model.Track, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	track, ok := r.tracks[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *track
	return &clone, nil
}

func (r *fakeContentRepo) FindTracksByIDs(ids []string) ([]*model.Track, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Track
	for _, id := range ids {
		if track, ok := r.tracks[id]; ok {
			clone := *track
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *fakeContentRepo) IncrementTrackCounter(id, field string, delta int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	track, ok := r.tracks[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	switch field {
	case model.CounterLikes:
		track.LikeCount += delta
	case model.CounterComments:
		track.CommentCount += delta
	case model.CounterShares:
		track.ShareCount += delta
	case model.CounterViews:
		track.ViewCount += delta
	case model.CounterFavorites:
		track.FavoriteCount += delta
	case model.CounterDownloads:
		track.DownloadCount += delta
	case model.CounterReports:
		track.ReportCount += delta
	default:
		return fmt.Errorf("unknown track counter field: %s", field)
	}
	return nil
}

func (r *fakeContentRepo) GetTrackCounter(id, field string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	track, ok := r.tracks[id]
	if !ok {
		return 0, gorm.ErrRecordNotFound
	}
	switch field {
	case model.CounterLikes:
		return track.LikeCount, nil
	case model.CounterComments:
		return track.CommentCount, nil
	case model.CounterShares:
		return track.ShareCount, nil
	case model.CounterViews:
		return track.ViewCount, nil
	case model.CounterFavorites:
		return track.FavoriteCount, nil
	case model.CounterDownloads:
		return track.DownloadCount, nil
	case model.CounterReports:
		return track.ReportCount, nil
	}
	return 0, fmt.Errorf("unknown track counter field: %s", field)
}

func (r *fakeContentRepo) MerchExists(id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.merch[id]
	return ok, nil
}

func (r *fakeContentRepo) FindMerchByID(id string) (*model.Merch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	merch, ok := r.merch[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *merch
	return &clone, nil
}

func (r *fakeContentRepo) FindMerchByIDs(ids []string) ([]*model.Merch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Merch
	for _, id := range ids {
		if merch, ok := r.merch[id]; ok {
			clone := *merch
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *fakeContentRepo) IncrementMerchFavorites(id string, delta int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	merch, ok := r.merch[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	merch.FavoriteCount += delta
	return nil
}

func (r *fakeContentRepo) GetMerchFavoriteCount(id string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	merch, ok := r.merch[id]
	if !ok {
		return 0, gorm.ErrRecordNotFound
	}
	return merch.FavoriteCount, nil
}

func (r *fakeContentRepo) ArtistExists(id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.artists[id]
	return ok, nil
}

func (r *fakeContentRepo) FindArtistByID(id string) (*model.Artist, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	artist, ok := r.artists[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *artist
	return &clone, nil
}

func (r *fakeContentRepo) FindArtistsByIDs(ids []string) ([]*model.Artist, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Artist
	for _, id := range ids {
		if artist, ok := r.artists[id]; ok {
			clone := *artist
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *fakeContentRepo) FindFollows(followerID, artistID string) ([]*model.Follow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Follow
	for _, follow := range r.follows {
		if follow.FollowerID == followerID && follow.ArtistID == artistID {
			clone := *follow
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *fakeContentRepo) CreateFollow(followerID, artistID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.follows = append(r.follows, &model.Follow{
		ID:         uuid.New().String(),
		FollowerID: followerID,
		ArtistID:   artistID,
		CreatedAt:  time.Now(),
	})
	return nil
}

func (r *fakeContentRepo) DeleteFollows(followerID, artistID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var kept []*model.Follow
	var removed int64
	for _, follow := range r.follows {
		if follow.FollowerID == followerID && follow.ArtistID == artistID {
			removed++
			continue
		}
		kept = append(kept, follow)
	}
	r.follows = kept
	return removed, nil
}

func (r *fakeContentRepo) IncrementArtistFollowers(id string, delta int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	artist, ok := r.artists[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	artist.FollowerCount += delta
	return nil
}

func (r *fakeContentRepo) GetArtistFollowerCount(id string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	artist, ok := r.artists[id]
	if !ok {
		return 0, nil
	}
	return artist.FollowerCount, nil
}

func (r *fakeContentRepo) FindFollowedArtists(followerID string, artistIDs []string) (map[string]bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	set := make(map[string]bool, len(artistIDs))
	for _, id := range artistIDs {
		set[id] = true
	}
	out := make(map[string]bool)
	for _, follow := range r.follows {
		if follow.FollowerID == followerID && set[follow.ArtistID] {
			out[follow.ArtistID] = true
		}
	}
	return out, nil
}

// fakeStore bundles the fake repos
type fakeStore struct {
	txMu         sync.Mutex
	interactions *fakeInteractionRepo
	content      *fakeContentRepo
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		interactions: &fakeInteractionRepo{},
		content:      newFakeContentRepo(),
	}
}

func (s *fakeStore) Interactions() repository.InteractionRepository { return s.interactions }
func (s *fakeStore) Content() repository.ContentRepository          { return s.content }

// WithTx serializes callbacks the way row-level transaction locking does;
// rollback is not simulated.
func (s *fakeStore) WithTx(fn func(repository.Store) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	return fn(s)
}

func (s *fakeStore) addTrack(id, artistID string) *model.Track {
	track := &model.Track{ID: id, ArtistID: artistID, Title: "t-" + id}
	if artist, ok := s.content.artists[artistID]; ok {
		track.Artist = *artist
	}
	s.content.tracks[id] = track
	return track
}

func (s *fakeStore) addArtist(id, userID string) *model.Artist {
	artist := &model.Artist{ID: id, UserID: userID, Name: "a-" + id}
	s.content.artists[id] = artist
	return artist
}

func (s *fakeStore) addMerch(id, artistID string) *model.Merch {
	merch := &model.Merch{ID: id, ArtistID: artistID, Name: "m-" + id}
	if artist, ok := s.content.artists[artistID]; ok {
		merch.Artist = *artist
	}
	s.content.merch[id] = merch
	return merch
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*model.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*model.User)}
}

func (r *fakeUserRepo) add(id, username string) *model.User {
	user := &model.User{ID: id, Username: username, FullName: "User " + username}
	r.mu.Lock()
	r.users[id] = user
	r.mu.Unlock()
	return user
}

func (r *fakeUserRepo) Create(user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) FindByID(id string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *user
	return &clone, nil
}

func (r *fakeUserRepo) FindByIDs(ids []string) ([]*model.User, error) {
	var out []*model.User
	for _, id := range ids {
		if user, err := r.FindByID(id); err == nil {
			out = append(out, user)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) FindByUsername(username string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Username == username {
			clone := *user
			return &clone, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) FindByUsernames(usernames []string) ([]*model.User, error) {
	var out []*model.User
	for _, username := range usernames {
		if user, err := r.FindByUsername(username); err == nil {
			out = append(out, user)
		}
	}
	return out, nil
}

// fakeCache mirrors the Redis interaction cache in memory. available=false
// simulates Redis being down.
type fakeCache struct {
	mu         sync.Mutex
	available  bool
	toggles    map[string]bool
	counters   map[string]int64
	milestones map[string]bool
}

func newFakeCache() *fakeCache {
	return &fakeCache{
		available:  true,
		toggles:    make(map[string]bool),
		counters:   make(map[string]int64),
		milestones: make(map[string]bool),
	}
}

func cacheKey(parts ...string) string {
	key := parts[0]
	for _, p := range parts[1:] {
		key += ":" + p
	}
	return key
}

func (c *fakeCache) GetToggle(kind, contentID, userID string) (bool, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.available {
		return false, false, nil
	}
	on, ok := c.toggles[cacheKey(kind, contentID, userID)]
	return on, ok, nil
}

func (c *fakeCache) SetToggle(kind, contentID, userID string, on bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.available {
		return fmt.Errorf("cache unavailable")
	}
	c.toggles[cacheKey(kind, contentID, userID)] = on
	return nil
}

func (c *fakeCache) GetCounter(kind, contentID, field string) (int64, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.available {
		return 0, false, nil
	}
	value, ok := c.counters[cacheKey(kind, contentID, field)]
	return value, ok, nil
}

func (c *fakeCache) SetCounter(kind, contentID, field string, value int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.available {
		return fmt.Errorf("cache unavailable")
	}
	c.counters[cacheKey(kind, contentID, field)] = value
	return nil
}

func (c *fakeCache) AdjustCounter(kind, contentID, field string, delta int64) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.available {
		return 0, fmt.Errorf("cache unavailable")
	}
	key := cacheKey(kind, contentID, field)
	c.counters[key] += delta
	return c.counters[key], nil
}

func (c *fakeCache) MarkMilestoneOnce(kind, contentID, field string, milestone int64, ttl time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.available {
		return false, fmt.Errorf("cache unavailable")
	}
	key := cacheKey(kind, contentID, field, fmt.Sprintf("%d", milestone))
	if c.milestones[key] {
		return false, nil
	}
	c.milestones[key] = true
	return true, nil
}

type broadcastEvent struct {
	event   string
	room    string
	payload map[string]interface{}
}

type fakeBroadcaster struct {
	mu     sync.Mutex
	events []broadcastEvent
}

func (b *fakeBroadcaster) Publish(event, room string, payload map[string]interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, broadcastEvent{event: event, room: room, payload: payload})
}

func (b *fakeBroadcaster) eventsNamed(name string) []broadcastEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []broadcastEvent
	for _, e := range b.events {
		if e.event == name {
			out = append(out, e)
		}
	}
	return out
}

type sentNotification struct {
	actorID   string
	targetID  string
	eventKind string
	data      map[string]interface{}
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
}

func (n *fakeNotifier) Notify(actorID, targetUserID, eventKind string, data map[string]interface{}) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentNotification{actorID: actorID, targetID: targetUserID, eventKind: eventKind, data: data})
	return nil
}

func (n *fakeNotifier) ofKind(eventKind string) []sentNotification {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []sentNotification
	for _, s := range n.sent {
		if s.eventKind == eventKind {
			out = append(out, s)
		}
	}
	return out
}

type fakeVirality struct {
	mu     sync.Mutex
	checks []string
}

func (v *fakeVirality) CheckMilestones(contentID string, kind ContentKind) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.checks = append(v.checks, contentID)
	return nil
}

type fakeMentions struct {
	mu    sync.Mutex
	calls []string
}

func (m *fakeMentions) NotifyMentions(actorID, body, contentID, commentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, body)
	return nil
}
