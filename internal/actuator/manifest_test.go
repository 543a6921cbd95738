package actuator

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"actuation/internal/storage"
)

func TestManifestMatchesLayout(t *testing.T) {
	m := NewManager()
	require.NoError(t, m.Add(newFake("b", 1, 3, 2)))
	require.NoError(t, m.Add(newFake("a", 2)))

	manifest, err := m.Manifest("gridworld")
	require.NoError(t, err)
	assert.True(t, m.Finalized())

	_, err = uuid.Parse(manifest.ID)
	require.NoError(t, err)
	assert.Equal(t, "gridworld", manifest.Environment)
	assert.Equal(t, 5, manifest.TotalNumberOfActions())
	require.Len(t, manifest.Units, 2)
	assert.Equal(t, "a", manifest.Units[0].Name)
	assert.Equal(t, "continuous", manifest.Units[0].Kind)
	assert.Equal(t, "discrete", manifest.Units[1].Kind)
	assert.Equal(t, []int{3, 2}, manifest.Units[1].BranchSizes)

	store := storage.NewMemoryStore()
	require.NoError(t, store.Init(context.Background()))
	require.NoError(t, store.SaveManifest(context.Background(), manifest))

	other, err := m.Manifest("gridworld")
	require.NoError(t, err)
	assert.NotEqual(t, manifest.ID, other.ID)
}

func TestManifestFailsWhenFinalizeFails(t *testing.T) {
	m := NewManager()
	require.NoError(t, m.Add(newFake("a", 1)))
	require.NoError(t, m.Add(newFake("a", 2)))

	_, err := m.Manifest("default")
	assert.ErrorIs(t, err, ErrDuplicateName)
	assert.False(t, m.Finalized())
}
