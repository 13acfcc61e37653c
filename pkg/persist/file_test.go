package persist

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileRepositoryPlayers(t *testing.T) {
	ctx := context.Background()
	repo, err := NewFileRepository(t.TempDir())
	require.NoError(t, err)
	defer repo.Close(ctx)

	_, err = repo.LoadPlayer(ctx, "alice")
	assert.True(t, IsNotFound(err))

	require.NoError(t, repo.SavePlayer(ctx, "alice", "100,200,0,1,10,null;wood~5"))
	require.NoError(t, repo.SavePlayer(ctx, "bob", "48,48,1,0,8,bow;arrow~12"))

	data, err := repo.LoadPlayer(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "100,200,0,1,10,null;wood~5", data)

	// Saving again overwrites.
	require.NoError(t, repo.SavePlayer(ctx, "alice", "0,0,0,0,1,null;"))
	data, err = repo.LoadPlayer(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "0,0,0,0,1,null;", data)

	keys, err := repo.ListPlayerKeys(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"alice", "bob"}, keys)
}

func TestFileRepositoryHostPlayer(t *testing.T) {
	ctx := context.Background()
	repo, err := NewFileRepository(t.TempDir())
	require.NoError(t, err)
	defer repo.Close(ctx)

	_, err = repo.LoadHostPlayer(ctx)
	assert.True(t, IsNotFound(err))

	require.NoError(t, repo.SaveHostPlayer(ctx, "100,200,0,1,10,null", "wood~5,gem"))
	combined, err := repo.LoadHostPlayer(ctx)
	require.NoError(t, err)
	assert.Equal(t, "100,200,0,1,10,null\nwood~5,gem", combined)

	// The host does not appear in the keyed player listing.
	keys, err := repo.ListPlayerKeys(ctx)
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestNewRepositoryScheme(t *testing.T) {
	ctx := context.Background()

	repo, err := NewRepository(ctx, "file://"+t.TempDir())
	require.NoError(t, err)
	assert.IsType(t, &FileRepository{}, repo)
	repo.Close(ctx)

	_, err = NewRepository(ctx, "redis://localhost")
	assert.Error(t, err)
}
