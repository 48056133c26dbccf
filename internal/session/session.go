package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Seka35/visual-crm/internal/consts"
	"github.com/Seka35/visual-crm/internal/crm"
	"github.com/Seka35/visual-crm/internal/llm"
)

// PendingAction is a mutating tool call waiting for user confirmation.
// At most one exists per session; proposing a new one replaces it.
type PendingAction struct {
	ID        string                 `json:"id"`
	Tool      string                 `json:"tool"`
	Args      map[string]interface{} `json:"args"`
	CreatedAt time.Time              `json:"created_at"`
}

// Expired reports whether the action outlived its confirmation window.
func (p *PendingAction) Expired(now time.Time) bool {
	return now.Sub(p.CreatedAt) > consts.PendingActionTTL
}

// Session holds the per-chat conversation state: who the user is, which
// workflow is active, the bounded message history, and the pending action
// if a mutation awaits confirmation.
type Session struct {
	ChatID       int64
	UserID       string
	Email        string
	Timezone     string
	WorkflowID   string
	WorkflowName string

	messages []llm.Message
	pending  *PendingAction

	// turn serializes whole turns for this chat; mu only protects
	// individual field accesses within a turn.
	turn      sync.Mutex
	mu        sync.RWMutex
	UpdatedAt time.Time
	dirty     bool
}

// NewSession creates an empty session for a Telegram chat.
func NewSession(chatID int64) *Session {
	return &Session{
		ChatID:    chatID,
		UpdatedAt: time.Now(),
		dirty:     true,
	}
}

// LockTurn blocks until the caller owns the session for a full turn.
// Updates for the same chat can arrive concurrently in webhook mode; the
// turn lock keeps history and pending-action mutations from interleaving.
func (s *Session) LockTurn() {
	s.turn.Lock()
}

// UnlockTurn releases turn ownership.
func (s *Session) UnlockTurn() {
	s.turn.Unlock()
}

// Authenticated reports whether the chat is linked to a CRM user.
func (s *Session) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.UserID != ""
}

// Scope returns the record-visibility scope for CRM queries. An empty
// WorkflowID selects the user's private partition.
func (s *Session) Scope() crm.Scope {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return crm.Scope{UserID: s.UserID, WorkflowID: s.WorkflowID}
}

// SetUser links the session to a CRM user.
func (s *Session) SetUser(userID, email, timezone string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.UserID = userID
	s.Email = email
	s.Timezone = timezone
	s.touch()
}

// SetWorkflow switches the active workflow. Empty id means the private
// partition.
func (s *Session) SetWorkflow(id, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.WorkflowID = id
	s.WorkflowName = name
	s.touch()
}

// SetTimezone records the user's display timezone.
func (s *Session) SetTimezone(tz string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Timezone = tz
	s.touch()
}

// Logout detaches the CRM user and wipes conversation state.
func (s *Session) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.UserID = ""
	s.Email = ""
	s.Timezone = ""
	s.WorkflowID = ""
	s.WorkflowName = ""
	s.messages = nil
	s.pending = nil
	s.touch()
}

// AddMessage appends a message and evicts the oldest entries beyond the
// storage cap.
func (s *Session) AddMessage(msg llm.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	s.messages = append(s.messages, msg)
	if excess := len(s.messages) - consts.HistoryStorageLimit; excess > 0 {
		s.messages = append([]llm.Message(nil), s.messages[excess:]...)
	}
	s.touch()
}

// Messages returns a copy of the stored history.
func (s *Session) Messages() []llm.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]llm.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// PromptMessages returns the most recent messages that go into an LLM
// prompt, capped tighter than storage.
func (s *Session) PromptMessages() []llm.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	msgs := s.messages
	if len(msgs) > consts.HistoryPromptLimit {
		msgs = msgs[len(msgs)-consts.HistoryPromptLimit:]
	}
	out := make([]llm.Message, len(msgs))
	copy(out, msgs)
	return out
}

// ClearHistory drops the conversation history but keeps identity state.
func (s *Session) ClearHistory() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = nil
	s.touch()
}

// SetPending stages a mutating tool call for confirmation, replacing any
// previous pending action.
func (s *Session) SetPending(tool string, args map[string]interface{}) *PendingAction {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = &PendingAction{
		ID:        uuid.NewString(),
		Tool:      tool,
		Args:      args,
		CreatedAt: time.Now(),
	}
	s.touch()
	return s.pending
}

// Pending returns the staged action, or nil when none is staged or the
// staged one has expired. Expired actions are dropped on read.
func (s *Session) Pending() *PendingAction {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == nil {
		return nil
	}
	if s.pending.Expired(time.Now()) {
		s.pending = nil
		return nil
	}
	return s.pending
}

// TakePending atomically removes and returns the staged action, nil when
// none (or only an expired one) is present.
func (s *Session) TakePending() *PendingAction {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.pending
	s.pending = nil
	if p == nil || p.Expired(time.Now()) {
		return nil
	}
	s.touch()
	return p
}

// ClearPending discards the staged action if any.
func (s *Session) ClearPending() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = nil
	s.touch()
}

// Dirty reports whether the session changed since the last save.
func (s *Session) Dirty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dirty
}

// MarkSaved clears the dirty flag after a successful persist.
func (s *Session) MarkSaved() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dirty = false
}

// Snapshot captures the persistable state. Pending actions are deliberately
// excluded: a confirmation must not survive a restart.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	msgs := make([]llm.Message, len(s.messages))
	copy(msgs, s.messages)
	return Snapshot{
		ChatID:       s.ChatID,
		UserID:       s.UserID,
		Email:        s.Email,
		Timezone:     s.Timezone,
		WorkflowID:   s.WorkflowID,
		WorkflowName: s.WorkflowName,
		Messages:     msgs,
		UpdatedAt:    s.UpdatedAt,
	}
}

// Restore rebuilds a session from a stored snapshot.
func Restore(snap Snapshot) *Session {
	return &Session{
		ChatID:       snap.ChatID,
		UserID:       snap.UserID,
		Email:        snap.Email,
		Timezone:     snap.Timezone,
		WorkflowID:   snap.WorkflowID,
		WorkflowName: snap.WorkflowName,
		messages:     snap.Messages,
		UpdatedAt:    snap.UpdatedAt,
	}
}

// touch must be called with the lock held.
func (s *Session) touch() {
	s.UpdatedAt = time.Now()
	s.dirty = true
}
