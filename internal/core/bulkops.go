package core

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/edvin/mailcycle/internal/model"
)

// bulkOpTargets maps a bulk operation type to its lifecycle target status.
var bulkOpTargets = map[string]string{
	model.BulkOpLock:       model.StatusLocked,
	model.BulkOpClose:      model.StatusClosed,
	model.BulkOpReactivate: model.StatusActive,
}

// BulkOpsService applies one lifecycle transition to a list of accounts
// identified by email. Individual failures never abort the batch; callers
// get structured per-account results.
type BulkOpsService struct {
	db        DB
	lifecycle *LifecycleService
	audit     *AuditService
	logger    zerolog.Logger
}

func NewBulkOpsService(db DB, lifecycle *LifecycleService, audit *AuditService, logger zerolog.Logger) *BulkOpsService {
	return &BulkOpsService{db: db, lifecycle: lifecycle, audit: audit, logger: logger}
}

// Validate resolves emails against local accounts, preserving input order.
func (s *BulkOpsService) Validate(ctx context.Context, emails []string) ([]model.Account, []string, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE email = ANY($1)`, emails)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve bulk op accounts: %w", err)
	}
	defer rows.Close()

	byEmail := make(map[string]model.Account)
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, nil, fmt.Errorf("scan account: %w", err)
		}
		byEmail[a.Email] = *a
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate accounts: %w", err)
	}

	var found []model.Account
	var notFound []string
	for _, email := range emails {
		if a, ok := byEmail[email]; ok {
			found = append(found, a)
		} else {
			notFound = append(notFound, email)
		}
	}
	return found, notFound, nil
}

// Execute runs one bulk operation. Infrastructure failures on individual
// accounts are recorded as failed items rather than aborting the batch.
func (s *BulkOpsService) Execute(ctx context.Context, opType string, emails []string, actor *string, reason string) (*model.BulkOpResult, error) {
	target, ok := bulkOpTargets[opType]
	if !ok {
		return nil, fmt.Errorf("unknown bulk operation type %q", opType)
	}

	found, notFound, err := s.Validate(ctx, emails)
	if err != nil {
		return nil, err
	}

	result := &model.BulkOpResult{Requested: len(emails), NotFound: notFound}
	for i := range found {
		account := &found[i]
		ok, message, err := s.lifecycle.ChangeStatus(ctx, account, target, actor, reason)
		if err != nil {
			ok, message = false, err.Error()
		}
		if ok {
			result.Succeeded++
		} else {
			result.Failed++
		}
		result.Items = append(result.Items, model.BulkOpItem{
			Email: account.Email, OK: ok, Message: message,
		})
	}
	result.Failed += len(notFound)

	s.audit.record(ctx, model.AuditBulkOp, actor, "bulk_op", opType, map[string]any{
		"operation": opType,
		"requested": result.Requested,
		"succeeded": result.Succeeded,
		"failed":    result.Failed,
		"reason":    reason,
	})

	return result, nil
}
