package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryResumeCacheRoundTrip(t *testing.T) {
	cache := NewMemoryResumeCache()
	ctx := context.Background()

	state, err := cache.Restore(ctx, "a1")
	require.NoError(t, err)
	assert.Nil(t, state, "missing entry restores as nil, nil")

	saved := &ResumeState{
		DragOrders:   map[string][]string{"q5": {"main", "senja", "pulang"}},
		LastPageRead: 6,
		DraftAnswers: map[string]string{"q6": "La Dana..."},
	}
	require.NoError(t, cache.Persist(ctx, "a1", saved))
	assert.False(t, saved.SavedAt.IsZero())

	state, err = cache.Restore(ctx, "a1")
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, 6, state.LastPageRead)
	assert.Equal(t, []string{"main", "senja", "pulang"}, state.DragOrders["q5"])

	// Entries are isolated per attempt.
	other, err := cache.Restore(ctx, "a2")
	require.NoError(t, err)
	assert.Nil(t, other)

	require.NoError(t, cache.Clear(ctx, "a1"))
	state, err = cache.Restore(ctx, "a1")
	require.NoError(t, err)
	assert.Nil(t, state)

	// Clearing a missing entry is not an error.
	require.NoError(t, cache.Clear(ctx, "a1"))
}
