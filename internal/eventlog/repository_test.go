package eventlog

import (
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strefethen/soundbar-hub-go/internal/db"
)

func testRepo(t *testing.T) *Repository {
	t.Helper()

	pair, err := db.Init(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { pair.Close() })

	return NewRepository(pair)
}

func TestInsertAndList(t *testing.T) {
	repo := testRepo(t)

	_, err := repo.Insert("bar-1", "EQ_VIEW_INFO", []byte(`{"i_bass": 3}`))
	require.NoError(t, err)
	_, err = repo.Insert("bar-1", "WEIRD", nil)
	require.NoError(t, err)
	_, err = repo.Insert("bar-2", "FUNC_VIEW_INFO", []byte(`{}`))
	require.NoError(t, err)

	events, err := repo.ListBySoundbar("bar-1", 10)
	require.NoError(t, err)
	require.Len(t, events, 2)

	// Newest first.
	assert.Equal(t, "WEIRD", events[0].Kind)
	assert.Equal(t, "EQ_VIEW_INFO", events[1].Kind)
	assert.Equal(t, float64(3), events[1].Payload["i_bass"])
	assert.Equal(t, map[string]any{}, events[0].Payload)
}

func TestListRespectsLimit(t *testing.T) {
	repo := testRepo(t)

	for i := 0; i < 5; i++ {
		_, err := repo.Insert("bar-1", "SPK_LIST_VIEW_INFO", []byte(`{}`))
		require.NoError(t, err)
	}

	events, err := repo.ListBySoundbar("bar-1", 3)
	require.NoError(t, err)
	assert.Len(t, events, 3)
}

func TestDeleteOlderThan(t *testing.T) {
	repo := testRepo(t)

	_, err := repo.Insert("bar-1", "EQ_VIEW_INFO", []byte(`{}`))
	require.NoError(t, err)

	deleted, err := repo.DeleteOlderThan(time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Zero(t, deleted, "fresh events survive the cutoff")

	deleted, err = repo.DeleteOlderThan(time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 1, deleted)
}

func TestDeleteBySoundbar(t *testing.T) {
	repo := testRepo(t)

	_, err := repo.Insert("bar-1", "EQ_VIEW_INFO", []byte(`{}`))
	require.NoError(t, err)
	_, err = repo.Insert("bar-2", "EQ_VIEW_INFO", []byte(`{}`))
	require.NoError(t, err)

	require.NoError(t, repo.DeleteBySoundbar("bar-1"))

	events, err := repo.ListBySoundbar("bar-1", 10)
	require.NoError(t, err)
	assert.Empty(t, events)

	events, err = repo.ListBySoundbar("bar-2", 10)
	require.NoError(t, err)
	assert.Len(t, events, 1)
}
