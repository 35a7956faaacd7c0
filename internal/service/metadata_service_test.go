package service

import (
	"fmt"
	"testing"

	"soundrise/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatchMetadataMedia(t *testing.T) {
	store := newFakeStore()
	store.addArtist("a1", "owner")
	t1 := store.addTrack("t1", "a1")
	t1.LikeCount = 5
	t1.CommentCount = 3
	t1.ViewCount = 40
	store.addTrack("t2", "a1")

	require.NoError(t, store.interactions.Create(&model.Interaction{
		UserID: "u1", ContentID: "t1", ContentKind: "media", Type: model.TypeLike,
	}))
	require.NoError(t, store.interactions.Create(&model.Interaction{
		UserID: "u1", ContentID: "t2", ContentKind: "media", Type: model.TypeView,
	}))

	svc := NewMetadataService(store)
	result, err := svc.BatchMetadata("u1", "media", []string{"t1", "t2", "missing"})
	require.NoError(t, err)
	require.Len(t, result, 2)

	first := result["t1"]
	require.NotNil(t, first)
	assert.Equal(t, int64(5), first.LikeCount)
	assert.Equal(t, int64(3), first.CommentCount)
	assert.Equal(t, int64(40), first.ViewCount)
	assert.True(t, first.IsLiked)
	assert.False(t, first.IsViewed)

	second := result["t2"]
	require.NotNil(t, second)
	assert.False(t, second.IsLiked)
	assert.True(t, second.IsViewed)

	// Unknown IDs are absent, not errors
	assert.Nil(t, result["missing"])
}

func TestBatchMetadataSoftDeletedDoesNotFlag(t *testing.T) {
	store := newFakeStore()
	store.addArtist("a1", "owner")
	store.addTrack("t1", "a1")

	record := &model.Interaction{UserID: "u1", ContentID: "t1", ContentKind: "media", Type: model.TypeLike}
	require.NoError(t, store.interactions.Create(record))
	require.NoError(t, store.interactions.SoftDeleteByIDs([]string{record.ID}))

	svc := NewMetadataService(store)
	result, err := svc.BatchMetadata("u1", "media", []string{"t1"})
	require.NoError(t, err)
	assert.False(t, result["t1"].IsLiked)
}

func TestBatchMetadataMerch(t *testing.T) {
	store := newFakeStore()
	store.addArtist("a1", "owner")
	m1 := store.addMerch("m1", "a1")
	m1.FavoriteCount = 9

	require.NoError(t, store.interactions.Create(&model.Interaction{
		UserID: "u1", ContentID: "m1", ContentKind: "merch", Type: model.TypeFavorite,
	}))

	svc := NewMetadataService(store)
	result, err := svc.BatchMetadata("u1", "merch", []string{"m1"})
	require.NoError(t, err)

	item := result["m1"]
	require.NotNil(t, item)
	assert.Equal(t, int64(9), item.FavoriteCount)
	assert.True(t, item.IsFavorited)
	assert.Zero(t, item.LikeCount)
}

func TestBatchMetadataArtist(t *testing.T) {
	store := newFakeStore()
	a1 := store.addArtist("a1", "owner")
	a1.FollowerCount = 12
	store.addArtist("a2", "other")

	require.NoError(t, store.content.CreateFollow("u1", "a1"))

	svc := NewMetadataService(store)
	result, err := svc.BatchMetadata("u1", "artist", []string{"a1", "a2"})
	require.NoError(t, err)

	assert.Equal(t, int64(12), result["a1"].LikeCount)
	assert.True(t, result["a1"].IsLiked)
	assert.False(t, result["a2"].IsLiked)
}

func TestBatchMetadataValidation(t *testing.T) {
	svc := NewMetadataService(newFakeStore())

	_, err := svc.BatchMetadata("u1", "media", nil)
	assert.ErrorIs(t, err, ErrMissingContentIDs)

	_, err = svc.BatchMetadata("u1", "playlist", []string{"x"})
	assert.ErrorIs(t, err, ErrUnsupportedKind)
}

func TestBatchMetadataCapsAndDedupes(t *testing.T) {
	store := newFakeStore()
	store.addArtist("a1", "owner")
	for i := 0; i < 3; i++ {
		store.addTrack(fmt.Sprintf("t%d", i), "a1")
	}

	ids := make([]string, 0, maxBatchSize+50)
	for i := 0; i < maxBatchSize+50; i++ {
		ids = append(ids, fmt.Sprintf("t%d", i%3))
	}

	svc := NewMetadataService(store)
	result, err := svc.BatchMetadata("u1", "media", ids)
	require.NoError(t, err)
	assert.Len(t, result, 3)
}
