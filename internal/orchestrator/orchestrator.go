package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Seka35/visual-crm/internal/crm"
	"github.com/Seka35/visual-crm/internal/llm"
	"github.com/Seka35/visual-crm/internal/logger"
	"github.com/Seka35/visual-crm/internal/session"
	"github.com/Seka35/visual-crm/internal/tools"
)

// Reader executes read-only tools. *tools.Executor satisfies it.
type Reader interface {
	ExecuteRead(ctx context.Context, name string, args map[string]interface{}, scope crm.Scope) (string, error)
}

// Result is the outcome of one conversational turn. When
// ConfirmationNeeded is set, Action and Args describe the mutation waiting
// for the user's decision and nothing has been written yet.
type Result struct {
	Text               string
	ConfirmationNeeded bool
	Action             string
	Args               map[string]interface{}
}

// Orchestrator runs the two-phase tool-calling loop: one completion with
// the tool catalog attached, read tools executed inline, then a final
// completion without tools for the user-facing prose. Mutating tool calls
// short-circuit the loop into a confirmation request.
type Orchestrator struct {
	client   llm.Client
	registry *tools.Registry
	reader   Reader
	log      *logger.Logger
	now      func() time.Time
}

// New creates an orchestrator over the given LLM client and tool surface.
func New(client llm.Client, registry *tools.Registry, reader Reader) *Orchestrator {
	return &Orchestrator{
		client:   client,
		registry: registry,
		reader:   reader,
		log:      logger.Global().WithPrefix("orchestrator"),
		now:      time.Now,
	}
}

// Respond handles one user message for an authenticated session. The
// session history is updated in place; the caller persists it.
func (o *Orchestrator) Respond(ctx context.Context, userText string, s *session.Session) (*Result, error) {
	if o.client == nil {
		return &Result{Text: "Error: OPENAI_API_KEY not set."}, nil
	}

	prompt := BuildSystemPrompt(o.now(), s.Timezone, s.WorkflowID, s.WorkflowName)
	userMsg := llm.Message{Role: "user", Content: userText}

	req := &llm.CompletionRequest{
		Messages:     append(s.PromptMessages(), userMsg),
		Tools:        o.registry.Schemas(),
		SystemPrompt: prompt,
	}

	resp, err := o.client.CompleteWithRequest(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("completion failed: %w", err)
	}

	s.AddMessage(userMsg)

	if len(resp.ToolCalls) == 0 {
		s.AddMessage(llm.Message{Role: "assistant", Content: resp.Content})
		return &Result{Text: resp.Content}, nil
	}

	toolCalls := llm.NormalizeToolCallIDs(resp.ToolCalls)

	// Iterate in the order the model returned. The first mutating call
	// stops the loop: it is never executed here, and every call after it
	// is discarded. Read outputs gathered before the stop are discarded
	// with it since no second completion happens.
	var toolMsgs []llm.Message
	for i, call := range toolCalls {
		name := llm.ToolCallName(call)

		if o.registry.IsMutating(name) {
			args, argErr := llm.ToolCallArguments(call)
			if argErr != nil {
				o.log.Warn("mutating call %s with bad arguments: %v", name, argErr)
				text := fmt.Sprintf("I got a garbled %s request from the model. Try rephrasing.", strings.ReplaceAll(name, "_", " "))
				s.AddMessage(llm.Message{Role: "assistant", Content: text})
				return &Result{Text: text}, nil
			}

			text := fmt.Sprintf("I need your confirmation to %s.", strings.ReplaceAll(name, "_", " "))
			s.AddMessage(llm.Message{Role: "assistant", Content: text})
			o.log.Info("mutation %s proposed for chat %d, %d call(s) discarded",
				name, s.ChatID, len(toolCalls)-1-i)
			return &Result{
				Text:               text,
				ConfirmationNeeded: true,
				Action:             name,
				Args:               args,
			}, nil
		}

		output := o.runReadTool(ctx, name, call, s.Scope())
		toolMsgs = append(toolMsgs, llm.Message{
			Role: "tool", Content: output,
			ToolID: llm.ToolCallID(call), ToolName: name,
		})
	}

	// All calls were read-only: record the assistant tool-call message and
	// the tool outputs, then loop them back for the final prose pass.
	assistantMsg := llm.Message{Role: "assistant", Content: resp.Content, ToolCalls: toolCalls}
	s.AddMessage(assistantMsg)
	followUp := append(req.Messages, assistantMsg)
	for _, toolMsg := range toolMsgs {
		s.AddMessage(toolMsg)
		followUp = append(followUp, toolMsg)
	}

	// Final call carries no tools so the model must answer in prose.
	finalReq := &llm.CompletionRequest{
		Messages:     followUp,
		SystemPrompt: prompt,
	}
	final, err := o.client.CompleteWithRequest(ctx, finalReq)
	if err != nil {
		return nil, fmt.Errorf("final completion failed: %w", err)
	}

	s.AddMessage(llm.Message{Role: "assistant", Content: final.Content})
	return &Result{Text: final.Content}, nil
}

// runReadTool degrades every failure into tool-output text: a broken read
// should produce a grumpy answer, not kill the turn.
func (o *Orchestrator) runReadTool(ctx context.Context, name string, call map[string]interface{}, scope crm.Scope) string {
	args, err := llm.ToolCallArguments(call)
	if err != nil {
		o.log.Warn("read call %s with bad arguments: %v", name, err)
		return fmt.Sprintf("Error executing %s: %v", name, err)
	}

	output, err := o.reader.ExecuteRead(ctx, name, args, scope)
	if errors.Is(err, tools.ErrNotImplemented) {
		return "Function not implemented yet."
	}
	if err != nil {
		o.log.Warn("read tool %s failed: %v", name, err)
		return fmt.Sprintf("Error executing %s: %v", name, err)
	}
	return output
}
