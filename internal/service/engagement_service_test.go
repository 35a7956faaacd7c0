package service

import (
	"testing"

	"soundrise/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type engagementFixture struct {
	store      *fakeStore
	cache      *fakeCache
	dispatcher *Dispatcher
	virality   *fakeVirality
	svc        EngagementService
}

func newEngagementFixture(t *testing.T) *engagementFixture {
	t.Helper()
	f := &engagementFixture{
		store:      newFakeStore(),
		cache:      newFakeCache(),
		dispatcher: NewDispatcher(1, 64),
		virality:   &fakeVirality{},
	}
	f.svc = NewEngagementService(f.store, f.cache, f.dispatcher, f.virality)
	f.store.addArtist("a1", "owner")
	f.store.addTrack("t1", "a1")
	return f
}

func TestRecordShareCountsOncePerUser(t *testing.T) {
	f := newEngagementFixture(t)

	require.NoError(t, f.svc.RecordShare("u1", "t1"))
	require.NoError(t, f.svc.RecordShare("u1", "t1"))
	require.NoError(t, f.svc.RecordShare("u2", "t1"))

	count, _ := f.store.content.GetTrackCounter("t1", model.CounterShares)
	assert.Equal(t, int64(2), count)

	f.dispatcher.Stop()
	// Only the two first-time shares trigger a virality check
	assert.Len(t, f.virality.checks, 2)
}

func TestRecordViewProgressOnlyMovesForward(t *testing.T) {
	f := newEngagementFixture(t)

	require.NoError(t, f.svc.RecordView("u1", "t1", 30, false))

	count, _ := f.store.content.GetTrackCounter("t1", model.CounterViews)
	assert.Equal(t, int64(1), count)

	// Repeat view updates progress without moving the counter
	require.NoError(t, f.svc.RecordView("u1", "t1", 90, true))
	count, _ = f.store.content.GetTrackCounter("t1", model.CounterViews)
	assert.Equal(t, int64(1), count)

	records, _ := f.store.interactions.FindActive("u1", "t1", model.TypeView)
	require.Len(t, records, 1)
	assert.Equal(t, 90, records[0].WatchSeconds)
	assert.True(t, records[0].Completed)

	// A shorter rewatch never loses progress
	require.NoError(t, f.svc.RecordView("u1", "t1", 10, false))
	records, _ = f.store.interactions.FindActive("u1", "t1", model.TypeView)
	require.Len(t, records, 1)
	assert.Equal(t, 90, records[0].WatchSeconds)
	assert.True(t, records[0].Completed)

	f.dispatcher.Stop()
}

func TestRecordDownloadUnknownTrack(t *testing.T) {
	f := newEngagementFixture(t)

	err := f.svc.RecordDownload("u1", "missing")
	assert.ErrorIs(t, err, ErrContentNotFound)

	f.dispatcher.Stop()
}
