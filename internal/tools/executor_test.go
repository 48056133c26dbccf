package tools

import (
	"context"
	"fmt"
	"testing"

	"github.com/Seka35/visual-crm/internal/crm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type repoCall struct {
	method     string
	collection string
	id         string
	fields     crm.Record
	scope      crm.Scope
}

type fakeRepo struct {
	records []crm.Record
	err     error
	calls   []repoCall
}

func (f *fakeRepo) List(_ context.Context, collection string, scope crm.Scope, _ ...crm.Filter) ([]crm.Record, error) {
	f.calls = append(f.calls, repoCall{method: "list", collection: collection, scope: scope})
	return f.records, f.err
}

func (f *fakeRepo) Create(_ context.Context, collection string, fields crm.Record, scope crm.Scope) (crm.Record, error) {
	f.calls = append(f.calls, repoCall{method: "create", collection: collection, fields: fields, scope: scope})
	if f.err != nil {
		return nil, f.err
	}
	created := crm.Record{"id": "new-1"}
	for k, v := range fields {
		created[k] = v
	}
	return created, nil
}

func (f *fakeRepo) Update(_ context.Context, collection, id string, fields crm.Record) (crm.Record, error) {
	f.calls = append(f.calls, repoCall{method: "update", collection: collection, id: id, fields: fields})
	if f.err != nil {
		return nil, f.err
	}
	return crm.Record{"id": id}, nil
}

func (f *fakeRepo) Delete(_ context.Context, collection, id string) error {
	f.calls = append(f.calls, repoCall{method: "delete", collection: collection, id: id})
	return f.err
}

func newTestExecutor(repo *fakeRepo) *Executor {
	return NewExecutor(NewRegistry(), repo)
}

func TestExecuteReadListsTasks(t *testing.T) {
	repo := &fakeRepo{records: []crm.Record{
		{"id": "t1", "title": "read book", "due_date": "2026-09-01 09:00"},
		{"id": "t2", "title": "call mike", "due_date": "2026-09-02 09:00"},
	}}
	e := newTestExecutor(repo)

	out, err := e.ExecuteRead(context.Background(), "get_tasks", nil, crm.Scope{UserID: "u1"})
	require.NoError(t, err)

	assert.Contains(t, out, "Found tasks:")
	assert.Contains(t, out, "read book (ID: t1, Due: 2026-09-01 09:00)")
	assert.Contains(t, out, "call mike")

	require.Len(t, repo.calls, 1)
	assert.Equal(t, "list", repo.calls[0].method)
	assert.Equal(t, crm.CollectionTasks, repo.calls[0].collection)
	assert.Equal(t, "u1", repo.calls[0].scope.UserID)
}

func TestExecuteReadTruncatesToTen(t *testing.T) {
	repo := &fakeRepo{}
	for i := 0; i < 25; i++ {
		repo.records = append(repo.records, crm.Record{
			"id":   fmt.Sprintf("c%d", i),
			"name": fmt.Sprintf("Contact %d", i),
		})
	}
	e := newTestExecutor(repo)

	out, err := e.ExecuteRead(context.Background(), "get_contacts", nil, crm.Scope{UserID: "u1"})
	require.NoError(t, err)

	assert.Contains(t, out, "Contact 9")
	assert.NotContains(t, out, "Contact 10")
	assert.Contains(t, out, "(and 15 more not shown)")
}

func TestExecuteReadFormatsDealAmounts(t *testing.T) {
	repo := &fakeRepo{records: []crm.Record{
		{"id": "d1", "title": "Airfield sale", "amount": "1234.5", "status": "open"},
		{"id": "d2", "title": "Scrap run", "amount": "TBD", "status": "open"},
	}}
	e := newTestExecutor(repo)

	out, err := e.ExecuteRead(context.Background(), "get_deals", nil, crm.Scope{UserID: "u1"})
	require.NoError(t, err)

	assert.Contains(t, out, "Airfield sale ($1,234.50) - open (ID: d1)")
	assert.Contains(t, out, "Scrap run ($TBD) - open (ID: d2)", "non-numeric amounts pass through")
}

func TestExecuteReadFormatsDebtAmounts(t *testing.T) {
	repo := &fakeRepo{records: []crm.Record{
		{"id": "b1", "borrower_name": "Wade", "amount_lent": "1000000"},
	}}
	e := newTestExecutor(repo)

	out, err := e.ExecuteRead(context.Background(), "get_debts", nil, crm.Scope{UserID: "u1"})
	require.NoError(t, err)

	assert.Contains(t, out, "Wade: $1,000,000.00 (ID: b1)")
}

func TestFormatCurrency(t *testing.T) {
	assert.Equal(t, "$1,234.50", formatCurrency("1234.5"))
	assert.Equal(t, "$500.00", formatCurrency("500"))
	assert.Equal(t, "$1,000,000.00", formatCurrency("1000000"))
	assert.Equal(t, "$-1,500.00", formatCurrency("-1500"))
	assert.Equal(t, "$TBD", formatCurrency("TBD"))
}

func TestExecuteReadEmpty(t *testing.T) {
	e := newTestExecutor(&fakeRepo{})

	out, err := e.ExecuteRead(context.Background(), "get_debts", nil, crm.Scope{UserID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, "Found debts: none", out)
}

func TestExecuteReadUnknownTool(t *testing.T) {
	e := newTestExecutor(&fakeRepo{})

	_, err := e.ExecuteRead(context.Background(), "get_invoices", nil, crm.Scope{})
	assert.ErrorIs(t, err, ErrNotImplemented)
}

func TestExecuteReadRepositoryError(t *testing.T) {
	e := newTestExecutor(&fakeRepo{err: fmt.Errorf("connection refused")})

	_, err := e.ExecuteRead(context.Background(), "get_deals", nil, crm.Scope{UserID: "u1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestExecuteWriteAddContact(t *testing.T) {
	repo := &fakeRepo{}
	e := newTestExecutor(repo)

	out, err := e.ExecuteWrite(context.Background(), "add_contact",
		map[string]interface{}{"name": "Franklin", "company": "FC"},
		crm.Scope{UserID: "u1", WorkflowID: "w9"})
	require.NoError(t, err)
	assert.Equal(t, "Contact added: Franklin", out)

	require.Len(t, repo.calls, 1)
	call := repo.calls[0]
	assert.Equal(t, "create", call.method)
	assert.Equal(t, crm.CollectionContacts, call.collection)
	assert.Equal(t, "Franklin", call.fields["name"])
	assert.Equal(t, "w9", call.scope.WorkflowID)
}

func TestExecuteWriteDeleteTask(t *testing.T) {
	repo := &fakeRepo{}
	e := newTestExecutor(repo)

	out, err := e.ExecuteWrite(context.Background(), "delete_task",
		map[string]interface{}{"task_id": "t42"}, crm.Scope{UserID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, "Task deleted.", out)

	require.Len(t, repo.calls, 1)
	assert.Equal(t, "delete", repo.calls[0].method)
	assert.Equal(t, "t42", repo.calls[0].id)
}

func TestExecuteWriteUpdateDeal(t *testing.T) {
	repo := &fakeRepo{}
	e := newTestExecutor(repo)

	out, err := e.ExecuteWrite(context.Background(), "update_deal",
		map[string]interface{}{
			"deal_id": "d3",
			"updates": map[string]interface{}{"status": "Closed Won"},
		}, crm.Scope{UserID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, "Deal updated.", out)

	require.Len(t, repo.calls, 1)
	assert.Equal(t, "update", repo.calls[0].method)
	assert.Equal(t, "Closed Won", repo.calls[0].fields["status"])
}

func TestExecuteWriteValidatesArgs(t *testing.T) {
	repo := &fakeRepo{}
	e := newTestExecutor(repo)

	_, err := e.ExecuteWrite(context.Background(), "update_task",
		map[string]interface{}{"task_id": "t1"}, crm.Scope{UserID: "u1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing required parameter")
	assert.Empty(t, repo.calls, "invalid args must not reach the repository")
}

func TestExecuteWriteEmptyUpdates(t *testing.T) {
	e := newTestExecutor(&fakeRepo{})

	_, err := e.ExecuteWrite(context.Background(), "update_contact",
		map[string]interface{}{"contact_id": "c1", "updates": map[string]interface{}{}},
		crm.Scope{UserID: "u1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "non-empty")
}

func TestExecuteWriteUnknownTool(t *testing.T) {
	e := newTestExecutor(&fakeRepo{})

	_, err := e.ExecuteWrite(context.Background(), "erase_everything", nil, crm.Scope{})
	assert.ErrorIs(t, err, ErrNotImplemented)
}

func TestEveryMutatingToolHasWriteHandler(t *testing.T) {
	r := NewRegistry()
	e := NewExecutor(r, &fakeRepo{})

	for _, name := range r.order {
		def := r.defs[name]
		if def.Mutating {
			assert.True(t, e.IsWritable(name), "mutating tool %s has no write handler", name)
		} else {
			_, ok := e.reads[name]
			assert.True(t, ok, "read tool %s has no read handler", name)
		}
	}
}
