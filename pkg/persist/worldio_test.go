package persist

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/burrowgame/burrow/pkg/world"
)

func TestSaveLoadWorld(t *testing.T) {
	dir := t.TempDir()
	levels := world.GenerateWorld(32, 24, 2, 7)
	w := world.New(levels, 7)

	require.NoError(t, SaveWorld(dir, w))

	loaded, err := LoadWorld(dir, 7)
	require.NoError(t, err)
	require.Equal(t, 2, loaded.LevelCount())
	for i := 0; i < 2; i++ {
		assert.Equal(t, w.Level(i).Tiles, loaded.Level(i).Tiles, "level %d tiles", i)
		assert.Equal(t, w.Level(i).Data, loaded.Level(i).Data, "level %d data", i)
	}
}

func TestLoadWorldMissing(t *testing.T) {
	_, err := LoadWorld(t.TempDir(), 1)
	assert.True(t, IsNotFound(err))
}

func TestBackupRoundTrip(t *testing.T) {
	dir := t.TempDir()
	levels := world.GenerateWorld(16, 16, 1, 3)
	w := world.New(levels, 3)

	path, err := WriteBackup(dir, w)
	require.NoError(t, err)
	assert.Contains(t, path, ".zst")

	restored, err := ReadBackup(path, 3)
	require.NoError(t, err)
	require.Equal(t, 1, restored.LevelCount())
	assert.Equal(t, w.Level(0).Tiles, restored.Level(0).Tiles)
}

func TestGeneratedWorldIsDeterministic(t *testing.T) {
	a := world.GenerateWorld(32, 32, 2, 42)
	b := world.GenerateWorld(32, 32, 2, 42)
	for i := range a {
		assert.Equal(t, a[i].Tiles, b[i].Tiles, "level %d", i)
	}

	c := world.GenerateWorld(32, 32, 2, 43)
	assert.NotEqual(t, a[0].Tiles, c[0].Tiles)
}
