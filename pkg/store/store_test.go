package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundprediction/estratto/pkg/types"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir(), time.Hour)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStoreRoundTrip(t *testing.T) {
	s := openTestStore(t)

	answers := []types.Answer{
		{Text: "quick brown fox", StartT: 1, EndT: 3, StartCh: 4, EndCh: 20, Score: 9.2},
		{Text: "", StartT: -1, EndT: -1, Score: 6.5},
	}
	require.NoError(t, s.Put("doc1-q1", answers))

	got, ok, err := s.Get("doc1-q1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, answers, got)
}

func TestStoreMiss(t *testing.T) {
	s := openTestStore(t)

	got, ok, err := s.Get("absent")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, got)
}

func TestStoreDelete(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.Put("doc1-q1", []types.Answer{{Text: "x"}}))
	require.NoError(t, s.Delete("doc1-q1"))

	_, ok, err := s.Get("doc1-q1")
	require.NoError(t, err)
	assert.False(t, ok)
}
