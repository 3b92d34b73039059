package history

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sub", "history.db")
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestInsertAndRecentRoundTrip(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.Insert(Entry{
		Text:           "hello world",
		AudioDuration:  2.0,
		ProcessingTime: 0.3,
		AppContext:     "claude code on kitty",
		AppID:          "kitty",
		Agent:          "claude",
	}))

	entries, err := s.Recent(10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "hello world", entries[0].Text)
	assert.Equal(t, "claude", entries[0].Agent)
	assert.NotZero(t, entries[0].ID)
	assert.NotEmpty(t, entries[0].Timestamp)
}

func TestRecentIsNewestFirst(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Insert(Entry{Text: "first"}))
	require.NoError(t, s.Insert(Entry{Text: "second"}))

	entries, err := s.Recent(10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "second", entries[0].Text)
	assert.Equal(t, "first", entries[1].Text)
}

func TestRecentZeroLimitIsEmpty(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Insert(Entry{Text: "x"}))

	entries, err := s.Recent(0)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestEmptyStringFieldsRoundTripAsEmpty(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Insert(Entry{Text: "no context"}))

	entries, err := s.Recent(1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "", entries[0].AppContext)
	assert.Equal(t, "", entries[0].Agent)
}

func TestNullStoreIsNoop(t *testing.T) {
	var s Store = NullStore{}
	assert.NoError(t, s.Insert(Entry{Text: "ignored"}))
	entries, err := s.Recent(10)
	assert.NoError(t, err)
	assert.Nil(t, entries)
	assert.NoError(t, s.Close())
}
