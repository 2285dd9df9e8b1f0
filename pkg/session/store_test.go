package session

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore(filepath.Join(t.TempDir(), "sessions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return store
}

func TestNewStore(t *testing.T) {
	t.Run("creates database and parent directory", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "sessions.db")
		store, err := NewStore(path)
		require.NoError(t, err)
		defer store.Close()
	})

	t.Run("empty path is rejected", func(t *testing.T) {
		_, err := NewStore("")
		assert.Error(t, err)
	})
}

func TestAppendAndHistory(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, "42", Message{Role: "user", Content: "ciao"}))
	require.NoError(t, store.Append(ctx, "42", Message{Role: "assistant", Content: "ciao a te"}))
	require.NoError(t, store.Append(ctx, "99", Message{Role: "user", Content: "altro"}))

	history, err := store.History(ctx, "42")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "user", history[0].Role)
	assert.Equal(t, "ciao", history[0].Content)
	assert.Equal(t, "assistant", history[1].Role)
	assert.False(t, history[0].CreatedAt.IsZero())

	// Namespaces are independent
	other, err := store.History(ctx, "99")
	require.NoError(t, err)
	assert.Len(t, other, 1)
}

func TestAppendValidation(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	assert.Error(t, store.Append(ctx, "", Message{Role: "user", Content: "x"}))
	assert.Error(t, store.Append(ctx, "42", Message{Role: "", Content: "x"}))
	assert.Error(t, store.Append(ctx, "42", Message{Role: "user", Content: ""}))
}

func TestHistoryEmptySession(t *testing.T) {
	store := newTestStore(t)

	history, err := store.History(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestClear(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, "42", Message{Role: "user", Content: "ciao"}))
	require.NoError(t, store.Append(ctx, "99", Message{Role: "user", Content: "altro"}))

	require.NoError(t, store.Clear(ctx, "42"))

	history, err := store.History(ctx, "42")
	require.NoError(t, err)
	assert.Empty(t, history)

	// Other sessions untouched
	other, err := store.History(ctx, "99")
	require.NoError(t, err)
	assert.Len(t, other, 1)

	// Clearing a missing session is not an error
	assert.NoError(t, store.Clear(ctx, "missing"))
}
