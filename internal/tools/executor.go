package tools

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Seka35/visual-crm/internal/consts"
	"github.com/Seka35/visual-crm/internal/crm"
	"github.com/Seka35/visual-crm/internal/logger"
)

// ErrNotImplemented is returned when a tool name has no registered handler.
// The orchestrator degrades it to a textual tool output instead of failing
// the turn.
var ErrNotImplemented = errors.New("tool not implemented")

// Repository is the filtered CRUD surface the executor needs. *crm.Client
// satisfies it; tests substitute a fake.
type Repository interface {
	List(ctx context.Context, collection string, scope crm.Scope, filters ...crm.Filter) ([]crm.Record, error)
	Create(ctx context.Context, collection string, fields crm.Record, scope crm.Scope) (crm.Record, error)
	Update(ctx context.Context, collection, id string, fields crm.Record) (crm.Record, error)
	Delete(ctx context.Context, collection, id string) error
}

type handler func(ctx context.Context, args map[string]interface{}, scope crm.Scope) (string, error)

// Executor dispatches tool calls to typed handlers over the repository.
// Read handlers run automatically during a turn; write handlers only run
// from the confirmation gate.
type Executor struct {
	registry *Registry
	repo     Repository
	reads    map[string]handler
	writes   map[string]handler
	log      *logger.Logger
}

// NewExecutor wires the dispatch tables for the given repository.
func NewExecutor(registry *Registry, repo Repository) *Executor {
	e := &Executor{
		registry: registry,
		repo:     repo,
		log:      logger.Global().WithPrefix("tools"),
	}

	e.reads = map[string]handler{
		"get_contacts": e.listContacts,
		"get_deals":    e.listDeals,
		"get_tasks":    e.listTasks,
		"get_debts":    e.listDebts,
		"get_events":   e.listEvents,
	}

	e.writes = map[string]handler{
		"add_contact":    e.addRecord(crm.CollectionContacts, "Contact"),
		"update_contact": e.updateRecord(crm.CollectionContacts, "contact_id", "Contact"),
		"delete_contact": e.deleteRecord(crm.CollectionContacts, "contact_id", "Contact"),
		"add_deal":       e.addRecord(crm.CollectionDeals, "Deal"),
		"update_deal":    e.updateRecord(crm.CollectionDeals, "deal_id", "Deal"),
		"delete_deal":    e.deleteRecord(crm.CollectionDeals, "deal_id", "Deal"),
		"add_task":       e.addRecord(crm.CollectionTasks, "Task"),
		"update_task":    e.updateRecord(crm.CollectionTasks, "task_id", "Task"),
		"delete_task":    e.deleteRecord(crm.CollectionTasks, "task_id", "Task"),
		"add_debt":       e.addRecord(crm.CollectionDebts, "Debt"),
		"update_debt":    e.updateRecord(crm.CollectionDebts, "debt_id", "Debt"),
		"delete_debt":    e.deleteRecord(crm.CollectionDebts, "debt_id", "Debt"),
		"add_event":      e.addRecord(crm.CollectionEvents, "Event"),
		"update_event":   e.updateRecord(crm.CollectionEvents, "event_id", "Event"),
		"delete_event":   e.deleteRecord(crm.CollectionEvents, "event_id", "Event"),
	}

	return e
}

// ExecuteRead runs a read-only tool and returns a bounded textual summary
// for the model.
func (e *Executor) ExecuteRead(ctx context.Context, name string, args map[string]interface{}, scope crm.Scope) (string, error) {
	h, ok := e.reads[name]
	if !ok {
		return "", ErrNotImplemented
	}
	e.log.Debug("read tool %s user=%s workflow=%s", name, scope.UserID, scope.WorkflowID)
	return h(ctx, args, scope)
}

// ExecuteWrite runs a mutating tool after validating its arguments against
// the registry schema. Only the confirmation gate calls this.
func (e *Executor) ExecuteWrite(ctx context.Context, name string, args map[string]interface{}, scope crm.Scope) (string, error) {
	h, ok := e.writes[name]
	if !ok {
		return "", ErrNotImplemented
	}
	if err := e.registry.ValidateArgs(name, args); err != nil {
		return "", err
	}
	e.log.Info("write tool %s user=%s workflow=%s", name, scope.UserID, scope.WorkflowID)
	return h(ctx, args, scope)
}

// IsWritable reports whether the executor can carry out a given mutating
// tool name.
func (e *Executor) IsWritable(name string) bool {
	_, ok := e.writes[name]
	return ok
}

// --- read handlers ---

func (e *Executor) listContacts(ctx context.Context, _ map[string]interface{}, scope crm.Scope) (string, error) {
	records, err := e.repo.List(ctx, crm.CollectionContacts, scope)
	if err != nil {
		return "", err
	}
	return summarize("Found contacts", records, func(r crm.Record) string {
		return fmt.Sprintf("- %s (ID: %s)", r.String("name"), r.ID())
	}), nil
}

func (e *Executor) listDeals(ctx context.Context, _ map[string]interface{}, scope crm.Scope) (string, error) {
	records, err := e.repo.List(ctx, crm.CollectionDeals, scope)
	if err != nil {
		return "", err
	}
	return summarize("Found deals", records, func(r crm.Record) string {
		return fmt.Sprintf("- %s (%s) - %s (ID: %s)", r.String("title"), formatCurrency(r.String("amount")), r.String("status"), r.ID())
	}), nil
}

func (e *Executor) listTasks(ctx context.Context, _ map[string]interface{}, scope crm.Scope) (string, error) {
	records, err := e.repo.List(ctx, crm.CollectionTasks, scope,
		crm.Filter{Key: "completed", Op: "eq", Value: "false"})
	if err != nil {
		return "", err
	}
	return summarize("Found tasks", records, func(r crm.Record) string {
		return fmt.Sprintf("- %s (ID: %s, Due: %s)", r.String("title"), r.ID(), r.String("due_date"))
	}), nil
}

func (e *Executor) listDebts(ctx context.Context, _ map[string]interface{}, scope crm.Scope) (string, error) {
	records, err := e.repo.List(ctx, crm.CollectionDebts, scope)
	if err != nil {
		return "", err
	}
	return summarize("Found debts", records, func(r crm.Record) string {
		return fmt.Sprintf("- %s: %s (ID: %s)", r.String("borrower_name"), formatCurrency(r.String("amount_lent")), r.ID())
	}), nil
}

func (e *Executor) listEvents(ctx context.Context, _ map[string]interface{}, scope crm.Scope) (string, error) {
	records, err := e.repo.List(ctx, crm.CollectionEvents, scope)
	if err != nil {
		return "", err
	}
	return summarize("Found events", records, func(r crm.Record) string {
		return fmt.Sprintf("- %s (%s, ID: %s)", r.String("title"), r.String("start_time"), r.ID())
	}), nil
}

// formatCurrency renders an amount as $1,234.56, falling back to "$"+raw
// when the value is not numeric.
func formatCurrency(amount string) string {
	v, err := strconv.ParseFloat(amount, 64)
	if err != nil {
		return "$" + amount
	}
	return "$" + groupThousands(fmt.Sprintf("%.2f", v))
}

func groupThousands(s string) string {
	neg := false
	if len(s) > 0 && s[0] == '-' {
		neg = true
		s = s[1:]
	}
	intPart, frac := s, ""
	for i := 0; i < len(s); i++ {
		if s[i] == '.' {
			intPart, frac = s[:i], s[i:]
			break
		}
	}
	out := ""
	for i, d := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			out += ","
		}
		out += string(d)
	}
	if neg {
		out = "-" + out
	}
	return out + frac
}

func summarize(label string, records []crm.Record, line func(crm.Record) string) string {
	if len(records) == 0 {
		return label + ": none"
	}

	shown := records
	if len(shown) > consts.MaxListedRecords {
		shown = shown[:consts.MaxListedRecords]
	}

	var sb strings.Builder
	sb.WriteString(label)
	sb.WriteString(":\n")
	for i, r := range shown {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(line(r))
	}
	if rest := len(records) - len(shown); rest > 0 {
		sb.WriteString(fmt.Sprintf("\n(and %d more not shown)", rest))
	}
	return sb.String()
}

// --- write handlers ---

func (e *Executor) addRecord(collection, label string) handler {
	return func(ctx context.Context, args map[string]interface{}, scope crm.Scope) (string, error) {
		fields := make(crm.Record, len(args))
		for k, v := range args {
			fields[k] = v
		}
		created, err := e.repo.Create(ctx, collection, fields, scope)
		if err != nil {
			return "", err
		}
		name := created.String("name")
		if name == "" {
			name = created.String("title")
		}
		if name == "" {
			name = created.String("borrower_name")
		}
		return fmt.Sprintf("%s added: %s", label, name), nil
	}
}

func (e *Executor) updateRecord(collection, idParam, label string) handler {
	return func(ctx context.Context, args map[string]interface{}, _ crm.Scope) (string, error) {
		id := stringArg(args, idParam)
		updates, ok := args["updates"].(map[string]interface{})
		if !ok || len(updates) == 0 {
			return "", fmt.Errorf("updates must be a non-empty object")
		}
		if _, err := e.repo.Update(ctx, collection, id, crm.Record(updates)); err != nil {
			return "", err
		}
		return fmt.Sprintf("%s updated.", label), nil
	}
}

func (e *Executor) deleteRecord(collection, idParam, label string) handler {
	return func(ctx context.Context, args map[string]interface{}, _ crm.Scope) (string, error) {
		id := stringArg(args, idParam)
		if err := e.repo.Delete(ctx, collection, id); err != nil {
			return "", err
		}
		return fmt.Sprintf("%s deleted.", label), nil
	}
}

func stringArg(args map[string]interface{}, key string) string {
	if s, ok := args[key].(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}
