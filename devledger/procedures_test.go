package devledger

import (
	"context"
	"testing"

	"github.com/layer-3/taskchain/core"
	"github.com/layer-3/taskchain/ledgerapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func call(t *testing.T, l *Ledger, session *core.LedgerSession, name string, args ...any) ([]byte, error) {
	t.Helper()
	op, err := ledgerapi.EncodeOperation(name, args)
	require.NoError(t, err)
	return l.Call(context.Background(), session, op)
}

func registeredSession(t *testing.T, l *Ledger) *core.LedgerSession {
	t.Helper()
	signer := newTestSigner(t)
	registered, err := signer.register(t, l, "")
	require.NoError(t, err)

	session, err := l.Authenticate(context.Background(), registered.SessionToken)
	require.NoError(t, err)
	return session
}

func TestProcedures_TaskLifecycle(t *testing.T) {
	l := newTestLedger(t, 0)
	session := registeredSession(t, l)
	user := session.AccountID

	raw, err := call(t, l, session, core.ProcCreateTask, "Buy milk", "two litres", int64(1741910400000))
	require.NoError(t, err)
	milk := decodeResult[core.Task](t, raw)
	assert.Equal(t, "Buy milk", milk.Title)
	assert.Equal(t, core.Millis(1741910400000), milk.DueDate)
	assert.False(t, milk.Completed)

	raw, err = call(t, l, session, core.ProcCreateTask, "Walk dog", "", int64(1741996800000))
	require.NoError(t, err)
	dog := decodeResult[core.Task](t, raw)

	_, err = call(t, l, session, core.ProcUpdateTask, milk.ID, "Buy oat milk", "one litre", int64(1741996800000))
	require.NoError(t, err)
	_, err = call(t, l, session, core.ProcCompleteTask, milk.ID)
	require.NoError(t, err)

	raw, err = call(t, l, session, core.ProcGetMyTasks, user, 0, 10)
	require.NoError(t, err)
	all := decodeResult[core.TaskPage](t, raw)
	require.Len(t, all.Tasks, 2)
	assert.Equal(t, int64(2), all.Pointer)
	assert.Equal(t, "Buy oat milk", all.Tasks[0].Title)
	assert.True(t, all.Tasks[0].Completed)

	raw, err = call(t, l, session, core.ProcGetCompletedTasks, user)
	require.NoError(t, err)
	completed := decodeResult[core.TaskPage](t, raw)
	require.Len(t, completed.Tasks, 1)
	assert.Equal(t, milk.ID, completed.Tasks[0].ID)

	raw, err = call(t, l, session, core.ProcGetPendingTasks, user)
	require.NoError(t, err)
	pending := decodeResult[core.TaskPage](t, raw)
	require.Len(t, pending.Tasks, 1)
	assert.Equal(t, dog.ID, pending.Tasks[0].ID)

	raw, err = call(t, l, session, core.ProcDeleteTask, milk.ID)
	require.NoError(t, err)
	assert.JSONEq(t, `null`, string(raw))

	_, err = call(t, l, session, core.ProcCompleteTask, milk.ID)
	requireLedgerError(t, err, 404, ledgerapi.CodeNotFound)
}

func TestProcedures_Pagination(t *testing.T) {
	l := newTestLedger(t, 0)
	session := registeredSession(t, l)

	for _, title := range []string{"a", "b", "c"} {
		_, err := call(t, l, session, core.ProcCreateTask, title, "", int64(0))
		require.NoError(t, err)
	}

	raw, err := call(t, l, session, core.ProcGetMyTasks, session.AccountID, 1, 1)
	require.NoError(t, err)
	page := decodeResult[core.TaskPage](t, raw)
	require.Len(t, page.Tasks, 1)
	assert.Equal(t, "b", page.Tasks[0].Title)
	assert.Equal(t, int64(2), page.Pointer)

	raw, err = call(t, l, session, core.ProcGetMyTasks, session.AccountID, 5, 10)
	require.NoError(t, err)
	page = decodeResult[core.TaskPage](t, raw)
	assert.Empty(t, page.Tasks)
	assert.NotNil(t, page.Tasks)
}

func TestProcedures_Ownership(t *testing.T) {
	l := newTestLedger(t, 0)
	alice := registeredSession(t, l)
	bob := registeredSession(t, l)

	raw, err := call(t, l, alice, core.ProcCreateTask, "secret", "", int64(0))
	require.NoError(t, err)
	task := decodeResult[core.Task](t, raw)

	_, err = call(t, l, bob, core.ProcCompleteTask, task.ID)
	requireLedgerError(t, err, 404, ledgerapi.CodeNotFound)
	_, err = call(t, l, bob, core.ProcDeleteTask, task.ID)
	requireLedgerError(t, err, 404, ledgerapi.CodeNotFound)

	_, err = call(t, l, bob, core.ProcGetMyTasks, alice.AccountID, 0, 10)
	requireLedgerError(t, err, 403, ledgerapi.CodeUnauthorized)
	_, err = call(t, l, bob, core.ProcGetPendingTasks, alice.AccountID)
	requireLedgerError(t, err, 403, ledgerapi.CodeUnauthorized)
}

func TestProcedures_BadArguments(t *testing.T) {
	l := newTestLedger(t, 0)
	session := registeredSession(t, l)

	_, err := call(t, l, session, core.ProcCreateTask, "only title")
	requireLedgerError(t, err, 400, ledgerapi.CodeBadRequest)

	_, err = call(t, l, session, core.ProcCreateTask, "  ", "", int64(0))
	requireLedgerError(t, err, 422, ledgerapi.CodeRejected)

	_, err = call(t, l, session, core.ProcCompleteTask, 42)
	requireLedgerError(t, err, 400, ledgerapi.CodeBadRequest)

	_, err = call(t, l, session, "drop_tables")
	requireLedgerError(t, err, 404, ledgerapi.CodeNotFound)
}
