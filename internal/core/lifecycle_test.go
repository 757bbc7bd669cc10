package core

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/edvin/mailcycle/internal/model"
)

func newLifecycleService(db DB, dir Directory) *LifecycleService {
	logger := zerolog.Nop()
	return NewLifecycleService(db, dir, NewAuditService(db, logger), logger, 60)
}

func accountFixture(status string) *model.Account {
	return &model.Account{
		ID:       "acc-1",
		ZimbraID: "zid-1",
		Email:    "alice@example.com",
		Domain:   "example.com",
		Status:   status,
	}
}

// ---------- Transition table ----------

func TestTransitionTable_Complete(t *testing.T) {
	statuses := []string{
		model.StatusActive, model.StatusLocked, model.StatusClosed,
		model.StatusPendingPurge, model.StatusPurged,
	}

	allowed := map[string]bool{
		"active->locked":        true,
		"active->closed":        true,
		"locked->active":        true,
		"locked->closed":        true,
		"closed->active":        true,
		"pending_purge->active": true,
	}

	for _, from := range statuses {
		for _, to := range statuses {
			if from == to {
				continue
			}
			want := allowed[from+"->"+to]
			assert.Equal(t, want, transitionAllowed(from, to), "%s -> %s", from, to)
		}
	}
}

// ---------- Business rejections ----------

func TestLifecycleService_ChangeStatus_NoOp(t *testing.T) {
	db := &mockDB{}
	dir := &mockDirectory{}
	svc := newLifecycleService(db, dir)

	ok, msg, err := svc.ChangeStatus(context.Background(), accountFixture(model.StatusActive),
		model.StatusActive, nil, "")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, "account is already active", msg)
	db.AssertNotCalled(t, "Exec", mock.Anything, mock.Anything, mock.Anything)
	dir.AssertNotCalled(t, "SetAccountStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestLifecycleService_ChangeStatus_PurgedIsTerminal(t *testing.T) {
	svc := newLifecycleService(&mockDB{}, &mockDirectory{})

	ok, msg, err := svc.ChangeStatus(context.Background(), accountFixture(model.StatusPurged),
		model.StatusActive, nil, "")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Contains(t, msg, "purged")
}

func TestLifecycleService_ChangeStatus_DisallowedTransition(t *testing.T) {
	svc := newLifecycleService(&mockDB{}, &mockDirectory{})

	ok, msg, err := svc.ChangeStatus(context.Background(), accountFixture(model.StatusClosed),
		model.StatusLocked, nil, "")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Contains(t, msg, "cannot transition from closed to locked")
	assert.Contains(t, msg, "valid transitions: active")
}

// ---------- Remote push ordering ----------

func TestLifecycleService_ChangeStatus_RemoteFailureLeavesLocalUntouched(t *testing.T) {
	db := &mockDB{}
	dir := &mockDirectory{}
	svc := newLifecycleService(db, dir)
	account := accountFixture(model.StatusActive)

	dir.On("SetAccountStatus", mock.Anything, "zid-1", "locked").
		Return(errors.New("directory unavailable"))

	ok, _, err := svc.ChangeStatus(context.Background(), account, model.StatusLocked, nil, "")
	require.Error(t, err)
	assert.False(t, ok)
	assert.Contains(t, err.Error(), "set directory status")
	assert.Equal(t, model.StatusActive, account.Status)
	db.AssertNotCalled(t, "Exec", mock.Anything, mock.Anything, mock.Anything)
}

// ---------- Successful transitions ----------

func TestLifecycleService_ChangeStatus_Lock(t *testing.T) {
	db := &mockDB{}
	dir := &mockDirectory{}
	svc := newLifecycleService(db, dir)
	account := accountFixture(model.StatusActive)
	actor := "admin@example.com"

	dir.On("SetAccountStatus", mock.Anything, "zid-1", "locked").Return(nil)
	db.On("Exec", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Return(pgconn.CommandTag{}, nil)

	ok, msg, err := svc.ChangeStatus(context.Background(), account, model.StatusLocked, &actor, "abuse report")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "status changed from active to locked", msg)
	assert.Equal(t, model.StatusLocked, account.Status)
	assert.Equal(t, "locked", account.ZimbraStatus)
	require.NotNil(t, account.StatusChangedBy)
	assert.Equal(t, actor, *account.StatusChangedBy)
	assert.NotNil(t, account.StatusChangedAt)
	assert.Nil(t, account.ClosedAt)
	dir.AssertExpectations(t)
}

func TestLifecycleService_ChangeStatus_CloseQueuesPurge(t *testing.T) {
	db := &mockDB{}
	dir := &mockDirectory{}
	svc := newLifecycleService(db, dir)
	account := accountFixture(model.StatusActive)

	dir.On("SetAccountStatus", mock.Anything, "zid-1", "closed").Return(nil)
	db.On("Exec", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Return(pgconn.CommandTag{}, nil)

	before := time.Now().UTC()
	ok, _, err := svc.ChangeStatus(context.Background(), account, model.StatusClosed, nil, "user request")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NotNil(t, account.ClosedAt)
	require.NotNil(t, account.PurgeEligibleDate)
	wantEligible := dateOnly(before.AddDate(0, 0, 60))
	assert.Equal(t, wantEligible, *account.PurgeEligibleDate)
	assert.Equal(t, 0, account.PurgeEligibleDate.Hour())

	var sawCancel, sawInsert bool
	for _, call := range db.Calls {
		if call.Method != "Exec" {
			continue
		}
		sql := call.Arguments.String(1)
		if strings.Contains(sql, "UPDATE purge_queue") {
			sawCancel = true
		}
		if strings.Contains(sql, "INSERT INTO purge_queue") {
			sawInsert = true
			args := call.Arguments.Get(2).([]any)
			assert.Equal(t, "acc-1", args[1])
			assert.Equal(t, model.PurgeWaiting, args[3])
		}
	}
	assert.True(t, sawCancel, "stale open entries should be cancelled before queueing")
	assert.True(t, sawInsert, "closing should queue a purge entry")
}

func TestLifecycleService_ChangeStatus_ReactivateClearsLifecycleFields(t *testing.T) {
	db := &mockDB{}
	dir := &mockDirectory{}
	svc := newLifecycleService(db, dir)

	account := accountFixture(model.StatusClosed)
	closedAt := time.Now().UTC().AddDate(0, 0, -10)
	eligible := dateOnly(closedAt.AddDate(0, 0, 60))
	account.ClosedAt = &closedAt
	account.PurgeEligibleDate = &eligible

	dir.On("SetAccountStatus", mock.Anything, "zid-1", "active").Return(nil)
	db.On("Exec", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Return(pgconn.CommandTag{}, nil)

	ok, _, err := svc.ChangeStatus(context.Background(), account, model.StatusActive, nil, "")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Nil(t, account.ClosedAt)
	assert.Nil(t, account.PurgeEligibleDate)

	var sawCancel bool
	for _, call := range db.Calls {
		if call.Method == "Exec" && strings.Contains(call.Arguments.String(1), "UPDATE purge_queue") {
			sawCancel = true
		}
	}
	assert.True(t, sawCancel, "reactivation should cancel open purge entries")
}

func TestLifecycleService_ChangeStatus_PendingPurgeHasNoRemotePush(t *testing.T) {
	db := &mockDB{}
	dir := &mockDirectory{}
	svc := newLifecycleService(db, dir)
	account := accountFixture(model.StatusPendingPurge)

	dir.On("SetAccountStatus", mock.Anything, "zid-1", "active").Return(nil)
	db.On("Exec", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Return(pgconn.CommandTag{}, nil)

	ok, _, err := svc.ChangeStatus(context.Background(), account, model.StatusActive, nil, "")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, model.StatusActive, account.Status)
}

func TestLifecycleService_ChangeStatus_CloseWritesQueueBeforeAccountRow(t *testing.T) {
	db := &mockDB{}
	dir := &mockDirectory{}
	svc := newLifecycleService(db, dir)
	account := accountFixture(model.StatusActive)

	dir.On("SetAccountStatus", mock.Anything, "zid-1", "closed").Return(nil)
	db.On("Exec", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Return(pgconn.CommandTag{}, nil)

	ok, _, err := svc.ChangeStatus(context.Background(), account, model.StatusClosed, nil, "")
	require.NoError(t, err)
	require.True(t, ok)

	// The queue entry must land before the account row flips to closed. A
	// failure in between then leaves an open entry for a non-closed
	// account, which the purge processor cancels on its next pass; the
	// reverse order would leave a closed account no purge run ever visits.
	insertIdx, updateIdx := -1, -1
	for i, call := range db.Calls {
		if call.Method != "Exec" {
			continue
		}
		sql := call.Arguments.String(1)
		if strings.Contains(sql, "INSERT INTO purge_queue") {
			insertIdx = i
		}
		if strings.Contains(sql, "UPDATE accounts") {
			updateIdx = i
		}
	}
	require.NotEqual(t, -1, insertIdx)
	require.NotEqual(t, -1, updateIdx)
	assert.Less(t, insertIdx, updateIdx)
}
