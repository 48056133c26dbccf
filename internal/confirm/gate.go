package confirm

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Seka35/visual-crm/internal/crm"
	"github.com/Seka35/visual-crm/internal/logger"
	"github.com/Seka35/visual-crm/internal/session"
)

// Writer executes a mutating tool. *tools.Executor satisfies it.
type Writer interface {
	ExecuteWrite(ctx context.Context, name string, args map[string]interface{}, scope crm.Scope) (string, error)
}

// Result is the user-facing outcome of a gate decision.
type Result struct {
	Text     string
	Executed bool
}

// Gate owns the confirmation step between a proposed mutation and the CRM
// write. Nothing mutating reaches the repository except through Confirm.
type Gate struct {
	exec Writer
	log  *logger.Logger
}

// NewGate creates a gate over the given write executor.
func NewGate(exec Writer) *Gate {
	return &Gate{exec: exec, log: logger.Global().WithPrefix("confirm")}
}

// Propose stages a mutating tool call on the session and returns the
// confirmation message to show the user. Any previously staged action is
// replaced.
func (g *Gate) Propose(s *session.Session, lead, tool string, args map[string]interface{}) string {
	p := s.SetPending(tool, args)
	g.log.Info("staged %s (%s) for chat %d", p.Tool, p.ID, s.ChatID)
	return fmt.Sprintf("%s\n\nAction: %s\nArgs: %s", lead, tool, formatArgs(args))
}

// Confirm executes the staged action in the session's scope. The staged
// action is cleared whether the write succeeds or not; a failed write needs
// a fresh proposal, not a retry of a stale one.
func (g *Gate) Confirm(ctx context.Context, s *session.Session) Result {
	p := s.TakePending()
	if p == nil {
		return Result{Text: "No pending action found."}
	}

	out, err := g.exec.ExecuteWrite(ctx, p.Tool, p.Args, s.Scope())
	if err != nil {
		g.log.Error("write %s (%s) failed: %v", p.Tool, p.ID, err)
		return Result{Text: fmt.Sprintf("❌ Error executing %s: %v", p.Tool, err)}
	}

	g.log.Info("executed %s (%s) for chat %d", p.Tool, p.ID, s.ChatID)
	text := fmt.Sprintf("✅ Action %s confirmed and executed.", p.Tool)
	if out != "" {
		text += "\n" + out
	}
	return Result{Text: text, Executed: true}
}

// Cancel discards the staged action. Cancelling with nothing staged is a
// no-op with a friendly reply.
func (g *Gate) Cancel(s *session.Session) Result {
	if s.TakePending() == nil {
		return Result{Text: "No pending action found."}
	}
	return Result{Text: "❌ Action cancelled."}
}

// Modify discards the staged action and invites a corrected request; the
// follow-up message goes through the normal conversation path.
func (g *Gate) Modify(s *session.Session) Result {
	s.ClearPending()
	return Result{Text: "Okay, tell me what you want to change."}
}

func formatArgs(args map[string]interface{}) string {
	b, err := json.Marshal(args)
	if err != nil {
		return fmt.Sprintf("%v", args)
	}
	return string(b)
}
