package session

import (
	"sync"

	"github.com/Seka35/visual-crm/internal/logger"
)

// Manager hands out one session per Telegram chat. With a store attached it
// lazily restores sessions from disk and persists them on Save.
type Manager struct {
	mu       sync.Mutex
	sessions map[int64]*Session
	store    *Store
	log      *logger.Logger
}

// NewManager creates a manager. store may be nil for in-memory operation.
func NewManager(store *Store) *Manager {
	return &Manager{
		sessions: make(map[int64]*Session),
		store:    store,
		log:      logger.Global().WithPrefix("session"),
	}
}

// Get returns the session for a chat, restoring it from the store or
// creating a fresh one as needed.
func (m *Manager) Get(chatID int64) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[chatID]; ok {
		return s
	}

	if m.store != nil {
		snap, err := m.store.Load(chatID)
		if err != nil {
			m.log.Warn("could not restore session %d: %v", chatID, err)
		} else if snap != nil {
			s := Restore(*snap)
			m.sessions[chatID] = s
			return s
		}
	}

	s := NewSession(chatID)
	m.sessions[chatID] = s
	return s
}

// Save persists the session if it changed since the last save.
func (m *Manager) Save(s *Session) {
	if m.store == nil || !s.Dirty() {
		return
	}
	if err := m.store.Save(s.Snapshot()); err != nil {
		m.log.Error("could not persist session %d: %v", s.ChatID, err)
		return
	}
	s.MarkSaved()
}

// Drop forgets a session in memory and on disk.
func (m *Manager) Drop(chatID int64) {
	m.mu.Lock()
	delete(m.sessions, chatID)
	m.mu.Unlock()

	if m.store != nil {
		if err := m.store.Delete(chatID); err != nil {
			m.log.Warn("could not delete stored session %d: %v", chatID, err)
		}
	}
}

// Flush persists every dirty session, typically on shutdown.
func (m *Manager) Flush() {
	m.mu.Lock()
	all := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		all = append(all, s)
	}
	m.mu.Unlock()

	for _, s := range all {
		m.Save(s)
	}
}
