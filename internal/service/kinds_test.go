package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeKind(t *testing.T) {
	cases := map[string]ContentKind{
		"media":   KindMedia,
		"track":   KindMedia,
		"song":    KindMedia,
		"video":   KindMedia,
		"artist":  KindArtist,
		"creator": KindArtist,
		"merch":   KindMerch,
		"product": KindMerch,
	}
	for raw, want := range cases {
		kind, err := NormalizeKind(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, kind, raw)
	}
}

func TestNormalizeKindRejectsUnknown(t *testing.T) {
	for _, raw := range []string{"", "playlist", "MEDIA", "podcast"} {
		_, err := NormalizeKind(raw)
		assert.ErrorIs(t, err, ErrUnsupportedKind, raw)
	}
}

func TestSupportsComments(t *testing.T) {
	assert.True(t, KindMedia.SupportsComments())
	assert.False(t, KindArtist.SupportsComments())
	assert.False(t, KindMerch.SupportsComments())
}

func TestRoomKey(t *testing.T) {
	assert.Equal(t, "content:media:t1", RoomKey(KindMedia, "t1"))
	assert.Equal(t, "content:artist:a9", RoomKey(KindArtist, "a9"))
}
