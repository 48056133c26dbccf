package session

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Seka35/visual-crm/internal/llm"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := OpenStore(filepath.Join(t.TempDir(), "sessions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStoreRoundTrip(t *testing.T) {
	store := newTestStore(t)

	s := NewSession(42)
	s.SetUser("u1", "ann@example.com", "Europe/Paris")
	s.SetWorkflow("w1", "Sales")
	s.AddMessage(llm.Message{Role: "user", Content: "show my deals"})
	s.AddMessage(llm.Message{Role: "assistant", Content: "Found deals: none"})

	require.NoError(t, store.Save(s.Snapshot()))

	snap, err := store.Load(42)
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, "u1", snap.UserID)
	assert.Equal(t, "ann@example.com", snap.Email)
	assert.Equal(t, "w1", snap.WorkflowID)
	assert.Equal(t, "Sales", snap.WorkflowName)
	require.Len(t, snap.Messages, 2)
	assert.Equal(t, "show my deals", snap.Messages[0].Content)
}

func TestStoreLoadAbsent(t *testing.T) {
	store := newTestStore(t)

	snap, err := store.Load(404)
	require.NoError(t, err)
	assert.Nil(t, snap)
}

func TestStoreSaveOverwrites(t *testing.T) {
	store := newTestStore(t)

	s := NewSession(7)
	s.SetUser("u1", "ann@example.com", "UTC")
	require.NoError(t, store.Save(s.Snapshot()))

	s.SetWorkflow("w2", "Support")
	require.NoError(t, store.Save(s.Snapshot()))

	snap, err := store.Load(7)
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, "w2", snap.WorkflowID)
}

func TestStoreDelete(t *testing.T) {
	store := newTestStore(t)

	s := NewSession(7)
	require.NoError(t, store.Save(s.Snapshot()))
	require.NoError(t, store.Delete(7))

	snap, err := store.Load(7)
	require.NoError(t, err)
	assert.Nil(t, snap)
}

func TestManagerCreatesAndReuses(t *testing.T) {
	m := NewManager(nil)

	a := m.Get(1)
	b := m.Get(1)
	assert.Same(t, a, b)

	c := m.Get(2)
	assert.NotSame(t, a, c)
}

func TestManagerRestoresFromStore(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "sessions.db")

	store, err := OpenStore(dbPath)
	require.NoError(t, err)

	m := NewManager(store)
	s := m.Get(11)
	s.SetUser("u1", "ann@example.com", "UTC")
	s.AddMessage(llm.Message{Role: "user", Content: "hello"})
	m.Save(s)
	require.NoError(t, store.Close())

	store2, err := OpenStore(dbPath)
	require.NoError(t, err)
	defer store2.Close()

	m2 := NewManager(store2)
	restored := m2.Get(11)
	assert.Equal(t, "u1", restored.UserID)
	require.Len(t, restored.Messages(), 1)
	assert.Equal(t, "hello", restored.Messages()[0].Content)
}

func TestManagerSaveSkipsClean(t *testing.T) {
	store := newTestStore(t)
	m := NewManager(store)

	s := m.Get(5)
	m.Save(s)
	assert.False(t, s.Dirty())

	// A second save with no changes is a no-op.
	m.Save(s)
	assert.False(t, s.Dirty())
}
