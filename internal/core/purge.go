package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/edvin/mailcycle/internal/model"
)

// PurgeService executes scheduled deletions. Every entry is re-validated
// against current account state at execution time; the queue is an intent,
// not a verdict.
type PurgeService struct {
	db     DB
	dir    Directory
	audit  *AuditService
	logger zerolog.Logger
}

func NewPurgeService(db DB, dir Directory, audit *AuditService, logger zerolog.Logger) *PurgeService {
	return &PurgeService{db: db, dir: dir, audit: audit, logger: logger}
}

// Process walks every waiting entry whose eligible date has arrived. In
// dry-run mode dispositions are counted but nothing is written and no
// remote deletion happens.
func (s *PurgeService) Process(ctx context.Context, dryRun bool) (*model.PurgeResult, error) {
	today := dateOnly(time.Now().UTC())

	entries, err := s.dueEntries(ctx, today)
	if err != nil {
		return nil, err
	}

	result := &model.PurgeResult{DryRun: dryRun}
	for _, entry := range entries {
		account, err := s.loadAccount(ctx, entry.AccountID)
		if errors.Is(err, pgx.ErrNoRows) {
			// Entry pointing at a vanished account: a consistency wrinkle,
			// not an operator-facing error.
			continue
		}
		if err != nil {
			return nil, err
		}
		result.Processed++

		if account.Protected() {
			reason := fmt.Sprintf("protected: forwarding to %s", account.ForwardingAddress)
			if !dryRun {
				if err := s.markEntry(ctx, entry.ID, model.PurgeSkipped, reason); err != nil {
					return nil, err
				}
			}
			result.Skipped++
			result.Details = append(result.Details, model.PurgeResultItem{
				Email: account.Email, Action: "skipped", Reason: reason,
			})
			continue
		}

		if account.Status != model.StatusClosed && account.Status != model.StatusPendingPurge {
			// Reactivated after the entry was queued; transitions cancel
			// open entries, but entries predating that path still surface
			// here.
			if !dryRun {
				if err := s.markEntry(ctx, entry.ID, model.PurgeCancelled, ""); err != nil {
					return nil, err
				}
			}
			result.Skipped++
			result.Details = append(result.Details, model.PurgeResultItem{
				Email: account.Email, Action: "skipped",
				Reason: fmt.Sprintf("account status is %s", account.Status),
			})
			continue
		}

		if dryRun {
			result.Purged++
			result.Details = append(result.Details, model.PurgeResultItem{
				Email: account.Email, Action: "would_purge",
			})
			continue
		}

		if err := s.dir.DeleteAccount(ctx, account.ZimbraID); err != nil {
			// Entry stays waiting; the next run retries.
			s.logger.Error().Err(err).Str("email", account.Email).Msg("purge failed")
			result.Errors++
			result.Details = append(result.Details, model.PurgeResultItem{
				Email: account.Email, Action: "error", Reason: err.Error(),
			})
			continue
		}

		_, err = s.db.Exec(ctx,
			`UPDATE accounts SET status = $1, purged_at = now(), updated_at = now() WHERE id = $2`,
			model.StatusPurged, account.ID,
		)
		if err != nil {
			return nil, fmt.Errorf("mark account %s purged: %w", account.Email, err)
		}
		if err := s.markEntry(ctx, entry.ID, model.PurgeExecuted, ""); err != nil {
			return nil, err
		}

		s.audit.record(ctx, model.AuditPurge, nil, "account", account.ID, map[string]any{
			"email": account.Email,
		})
		s.logger.Info().Str("email", account.Email).Msg("account purged")

		result.Purged++
		result.Details = append(result.Details, model.PurgeResultItem{
			Email: account.Email, Action: "purged",
		})
	}

	return result, nil
}

// dueEntries loads all waiting entries eligible on or before today. The
// slice is materialized up front so no rows stay open across the remote
// calls that follow.
func (s *PurgeService) dueEntries(ctx context.Context, today time.Time) ([]model.PurgeQueueEntry, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, account_id, eligible_date, status FROM purge_queue
		 WHERE status = $1 AND eligible_date <= $2 ORDER BY eligible_date`,
		model.PurgeWaiting, today,
	)
	if err != nil {
		return nil, fmt.Errorf("list due purge entries: %w", err)
	}
	defer rows.Close()

	var entries []model.PurgeQueueEntry
	for rows.Next() {
		var e model.PurgeQueueEntry
		if err := rows.Scan(&e.ID, &e.AccountID, &e.EligibleDate, &e.Status); err != nil {
			return nil, fmt.Errorf("scan purge entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ListEntries returns purge queue entries, optionally filtered by status,
// paged by an id cursor.
func (s *PurgeService) ListEntries(ctx context.Context, status string, limit int, cursor string) ([]model.PurgeQueueEntry, bool, error) {
	query := `SELECT id, account_id, eligible_date, status, approved_by, approved_at,
		skipped_reason, created_at, updated_at FROM purge_queue WHERE 1=1`
	args := []any{}
	argIdx := 1

	if status != "" {
		query += fmt.Sprintf(` AND status = $%d`, argIdx)
		args = append(args, status)
		argIdx++
	}
	if cursor != "" {
		query += fmt.Sprintf(` AND id > $%d`, argIdx)
		args = append(args, cursor)
		argIdx++
	}

	query += fmt.Sprintf(` ORDER BY id LIMIT $%d`, argIdx)
	args = append(args, limit+1)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, false, fmt.Errorf("list purge entries: %w", err)
	}
	defer rows.Close()

	var entries []model.PurgeQueueEntry
	for rows.Next() {
		var e model.PurgeQueueEntry
		err := rows.Scan(&e.ID, &e.AccountID, &e.EligibleDate, &e.Status, &e.ApprovedBy,
			&e.ApprovedAt, &e.SkippedReason, &e.CreatedAt, &e.UpdatedAt)
		if err != nil {
			return nil, false, fmt.Errorf("scan purge entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("iterate purge entries: %w", err)
	}

	hasMore := len(entries) > limit
	if hasMore {
		entries = entries[:limit]
	}
	return entries, hasMore, nil
}

func (s *PurgeService) loadAccount(ctx context.Context, accountID string) (*model.Account, error) {
	var a model.Account
	err := s.db.QueryRow(ctx,
		`SELECT id, zimbra_id, email, status, forwarding_address FROM accounts WHERE id = $1`,
		accountID,
	).Scan(&a.ID, &a.ZimbraID, &a.Email, &a.Status, &a.ForwardingAddress)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("load account %s for purge: %w", accountID, err)
	}
	return &a, nil
}

func (s *PurgeService) markEntry(ctx context.Context, entryID, status, skippedReason string) error {
	_, err := s.db.Exec(ctx,
		`UPDATE purge_queue SET status = $1, skipped_reason = $2, updated_at = now() WHERE id = $3`,
		status, skippedReason, entryID,
	)
	if err != nil {
		return fmt.Errorf("mark purge entry %s %s: %w", entryID, status, err)
	}
	return nil
}
