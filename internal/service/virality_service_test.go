package service

import (
	"testing"

	"soundrise/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newViralityFixture(t *testing.T) (*fakeStore, *fakeCache, *fakeNotifier, *ViralityService) {
	t.Helper()
	store := newFakeStore()
	cache := newFakeCache()
	notifier := &fakeNotifier{}
	svc := NewViralityService(store, cache, notifier, testConfig())
	store.addArtist("a1", "owner")
	return store, cache, notifier, svc
}

func TestCheckMilestonesFiresOncePerThreshold(t *testing.T) {
	store, _, notifier, svc := newViralityFixture(t)
	track := store.addTrack("t1", "a1")
	track.Artist = *store.content.artists["a1"]
	track.LikeCount = 150

	require.NoError(t, svc.CheckMilestones("t1", KindMedia))
	sent := notifier.ofKind(model.NotificationTypeViralMilestone)
	require.Len(t, sent, 1)
	assert.Equal(t, "owner", sent[0].targetID)
	assert.Equal(t, int64(100), sent[0].data["milestone"])
	assert.Equal(t, model.CounterLikes, sent[0].data["counter"])

	// Re-checking the same counter fires nothing new
	require.NoError(t, svc.CheckMilestones("t1", KindMedia))
	assert.Len(t, notifier.ofKind(model.NotificationTypeViralMilestone), 1)
}

func TestCheckMilestonesCrossingSeveralAtOnce(t *testing.T) {
	store, _, notifier, svc := newViralityFixture(t)
	track := store.addTrack("t1", "a1")
	track.Artist = *store.content.artists["a1"]
	track.ViewCount = 5000

	require.NoError(t, svc.CheckMilestones("t1", KindMedia))

	// Views crossed both 100 and 1000
	sent := notifier.ofKind(model.NotificationTypeViralMilestone)
	assert.Len(t, sent, 2)
}

func TestCheckMilestonesIgnoresOtherKinds(t *testing.T) {
	_, _, notifier, svc := newViralityFixture(t)

	require.NoError(t, svc.CheckMilestones("a1", KindArtist))
	assert.Empty(t, notifier.sent)
}

func TestCheckMilestonesBelowThreshold(t *testing.T) {
	store, _, notifier, svc := newViralityFixture(t)
	track := store.addTrack("t1", "a1")
	track.Artist = *store.content.artists["a1"]
	track.LikeCount = 99

	require.NoError(t, svc.CheckMilestones("t1", KindMedia))
	assert.Empty(t, notifier.sent)
}
