package state

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryManager(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryManager()

	done, err := m.Done(ctx)
	require.NoError(t, err)
	assert.Empty(t, done)

	require.NoError(t, m.MarkDone(ctx, "meyve"))
	require.NoError(t, m.MarkDone(ctx, "icecek"))
	require.NoError(t, m.MarkDone(ctx, "meyve")) // marking twice is harmless

	done, err = m.Done(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"meyve", "icecek"}, done)

	require.NoError(t, m.Reset(ctx))
	done, err = m.Done(ctx)
	require.NoError(t, err)
	assert.Empty(t, done)
}
