package session

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Seka35/visual-crm/internal/consts"
	"github.com/Seka35/visual-crm/internal/llm"
)

func TestHistoryStorageCap(t *testing.T) {
	s := NewSession(1)

	for i := 0; i < consts.HistoryStorageLimit+7; i++ {
		s.AddMessage(llm.Message{Role: "user", Content: fmt.Sprintf("msg %d", i)})
	}

	msgs := s.Messages()
	require.Len(t, msgs, consts.HistoryStorageLimit)
	// Oldest entries are evicted first.
	assert.Equal(t, "msg 7", msgs[0].Content)
	assert.Equal(t, fmt.Sprintf("msg %d", consts.HistoryStorageLimit+6), msgs[len(msgs)-1].Content)
}

func TestPromptMessagesCap(t *testing.T) {
	s := NewSession(1)

	for i := 0; i < 15; i++ {
		s.AddMessage(llm.Message{Role: "user", Content: fmt.Sprintf("msg %d", i)})
	}

	prompt := s.PromptMessages()
	require.Len(t, prompt, consts.HistoryPromptLimit)
	assert.Equal(t, "msg 5", prompt[0].Content)
	assert.Equal(t, "msg 14", prompt[len(prompt)-1].Content)
}

func TestPromptMessagesShortHistory(t *testing.T) {
	s := NewSession(1)
	s.AddMessage(llm.Message{Role: "user", Content: "hello"})

	prompt := s.PromptMessages()
	require.Len(t, prompt, 1)
	assert.Equal(t, "hello", prompt[0].Content)
}

func TestPendingActionLifecycle(t *testing.T) {
	s := NewSession(1)
	assert.Nil(t, s.Pending())

	p := s.SetPending("delete_task", map[string]interface{}{"task_id": "t1"})
	require.NotNil(t, p)
	assert.NotEmpty(t, p.ID)

	got := s.Pending()
	require.NotNil(t, got)
	assert.Equal(t, "delete_task", got.Tool)

	taken := s.TakePending()
	require.NotNil(t, taken)
	assert.Equal(t, p.ID, taken.ID)
	assert.Nil(t, s.Pending(), "take must clear the staged action")
}

func TestPendingActionReplaced(t *testing.T) {
	s := NewSession(1)

	first := s.SetPending("delete_task", map[string]interface{}{"task_id": "t1"})
	second := s.SetPending("add_contact", map[string]interface{}{"name": "Ann"})

	got := s.Pending()
	require.NotNil(t, got)
	assert.Equal(t, second.ID, got.ID)
	assert.NotEqual(t, first.ID, got.ID)
}

func TestPendingActionExpiry(t *testing.T) {
	s := NewSession(1)
	p := s.SetPending("delete_task", map[string]interface{}{"task_id": "t1"})
	p.CreatedAt = time.Now().Add(-consts.PendingActionTTL - time.Minute)

	assert.Nil(t, s.Pending(), "expired action must not be returned")
	assert.Nil(t, s.TakePending())
}

func TestLogoutWipesState(t *testing.T) {
	s := NewSession(1)
	s.SetUser("u1", "ann@example.com", "Europe/Paris")
	s.SetWorkflow("w1", "Sales")
	s.AddMessage(llm.Message{Role: "user", Content: "hi"})
	s.SetPending("delete_task", map[string]interface{}{"task_id": "t1"})

	require.True(t, s.Authenticated())
	s.Logout()

	assert.False(t, s.Authenticated())
	assert.Empty(t, s.Messages())
	assert.Nil(t, s.Pending())
	assert.Empty(t, s.WorkflowID)
}

func TestScope(t *testing.T) {
	s := NewSession(1)
	s.SetUser("u1", "ann@example.com", "UTC")

	scope := s.Scope()
	assert.Equal(t, "u1", scope.UserID)
	assert.Empty(t, scope.WorkflowID, "no workflow selected means private partition")

	s.SetWorkflow("w1", "Sales")
	assert.Equal(t, "w1", s.Scope().WorkflowID)
}

func TestTurnLockSerializesTurns(t *testing.T) {
	s := NewSession(1)

	s.LockTurn()
	started := make(chan struct{})
	done := make(chan struct{})
	go func() {
		close(started)
		s.LockTurn()
		s.AddMessage(llm.Message{Role: "user", Content: "second"})
		s.UnlockTurn()
		close(done)
	}()

	<-started
	s.AddMessage(llm.Message{Role: "user", Content: "first"})
	s.UnlockTurn()
	<-done

	msgs := s.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "first", msgs[0].Content)
	assert.Equal(t, "second", msgs[1].Content)
}

func TestSnapshotExcludesPending(t *testing.T) {
	s := NewSession(9)
	s.SetUser("u1", "ann@example.com", "UTC")
	s.AddMessage(llm.Message{Role: "user", Content: "hi"})
	s.SetPending("delete_task", map[string]interface{}{"task_id": "t1"})

	restored := Restore(s.Snapshot())
	assert.Equal(t, int64(9), restored.ChatID)
	assert.Equal(t, "u1", restored.UserID)
	require.Len(t, restored.Messages(), 1)
	assert.Nil(t, restored.Pending(), "pending actions must not survive a restore")
}
