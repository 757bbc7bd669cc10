package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/edvin/mailcycle/internal/model"
	"github.com/edvin/mailcycle/internal/platform"
	"github.com/edvin/mailcycle/internal/zimbra"
)

// validTransitions is the full lifecycle table. Purged is terminal: no
// outgoing edges.
var validTransitions = map[string][]string{
	model.StatusActive:       {model.StatusLocked, model.StatusClosed},
	model.StatusLocked:       {model.StatusActive, model.StatusClosed},
	model.StatusClosed:       {model.StatusActive},
	model.StatusPendingPurge: {model.StatusActive},
	model.StatusPurged:       {},
}

func transitionAllowed(from, to string) bool {
	for _, t := range validTransitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

// LifecycleService owns account status and lifecycle fields, and the purge
// queue entries created and cancelled as transition side effects.
type LifecycleService struct {
	db             DB
	dir            Directory
	audit          *AuditService
	logger         zerolog.Logger
	purgeDelayDays int
}

func NewLifecycleService(db DB, dir Directory, audit *AuditService, logger zerolog.Logger, purgeDelayDays int) *LifecycleService {
	if purgeDelayDays <= 0 {
		purgeDelayDays = 60
	}
	return &LifecycleService{db: db, dir: dir, audit: audit, logger: logger, purgeDelayDays: purgeDelayDays}
}

// ChangeStatus validates and executes one lifecycle transition. Business
// rejections (no-op, disallowed transition, terminal account) come back as
// (false, reason, nil); only infrastructure failures return an error. The
// remote push happens before any local write, so a directory failure
// leaves local state untouched.
func (s *LifecycleService) ChangeStatus(ctx context.Context, account *model.Account, target string, actor *string, reason string) (bool, string, error) {
	old := account.Status

	if target == old {
		return false, fmt.Sprintf("account is already %s", old), nil
	}
	if old == model.StatusPurged {
		return false, "cannot change status of a purged account", nil
	}
	if !transitionAllowed(old, target) {
		allowed := validTransitions[old]
		if len(allowed) == 0 {
			return false, fmt.Sprintf("cannot transition from %s to %s", old, target), nil
		}
		return false, fmt.Sprintf("cannot transition from %s to %s; valid transitions: %s",
			old, target, strings.Join(allowed, ", ")), nil
	}

	now := time.Now().UTC()

	remoteStatus, hasRemote := zimbra.RemoteStatusFor(target)
	if hasRemote {
		if err := s.dir.SetAccountStatus(ctx, account.ZimbraID, remoteStatus); err != nil {
			s.logger.Error().Err(err).Str("email", account.Email).Str("target", target).
				Msg("directory status change failed")
			return false, "", fmt.Errorf("set directory status for %s: %w", account.Email, err)
		}
	}

	account.Status = target
	account.StatusChangedAt = &now
	account.StatusChangedBy = actor
	if hasRemote {
		account.ZimbraStatus = remoteStatus
	}

	switch target {
	case model.StatusClosed:
		closedAt := now
		eligible := dateOnly(now.AddDate(0, 0, s.purgeDelayDays))
		account.ClosedAt = &closedAt
		account.PurgeEligibleDate = &eligible
	case model.StatusActive:
		account.ClosedAt = nil
		account.PurgeEligibleDate = nil
	}

	// Queue state is written before the account row flips, so a failure
	// in between leaves either no change at all or an open entry for a
	// non-closed account, which the purge processor cancels on its next
	// pass. The account update is the commit point.
	switch target {
	case model.StatusClosed:
		// One open entry per account: cancel any leftovers before
		// queueing the new deletion intent.
		if err := s.cancelOpenEntries(ctx, account.ID); err != nil {
			return false, "", err
		}
		_, err := s.db.Exec(ctx,
			`INSERT INTO purge_queue (id, account_id, eligible_date, status, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, now(), now())`,
			platform.NewID(), account.ID, account.PurgeEligibleDate, model.PurgeWaiting,
		)
		if err != nil {
			return false, "", fmt.Errorf("queue purge for %s: %w", account.Email, err)
		}
	case model.StatusActive:
		if err := s.cancelOpenEntries(ctx, account.ID); err != nil {
			return false, "", err
		}
	}

	_, err := s.db.Exec(ctx,
		`UPDATE accounts SET status = $1, zimbra_status = $2, status_changed_at = $3,
		 status_changed_by = $4, closed_at = $5, purge_eligible_date = $6, updated_at = now()
		 WHERE id = $7`,
		account.Status, account.ZimbraStatus, account.StatusChangedAt, account.StatusChangedBy,
		account.ClosedAt, account.PurgeEligibleDate, account.ID,
	)
	if err != nil {
		return false, "", fmt.Errorf("update account %s: %w", account.Email, err)
	}

	s.audit.record(ctx, model.AuditStatusChange, actor, "account", account.ID, map[string]any{
		"email":      account.Email,
		"old_status": old,
		"new_status": target,
		"reason":     reason,
	})

	s.logger.Info().Str("email", account.Email).Str("old", old).Str("new", target).
		Msg("account status changed")

	return true, fmt.Sprintf("status changed from %s to %s", old, target), nil
}

func (s *LifecycleService) cancelOpenEntries(ctx context.Context, accountID string) error {
	_, err := s.db.Exec(ctx,
		`UPDATE purge_queue SET status = $1, updated_at = now()
		 WHERE account_id = $2 AND status IN ($3, $4)`,
		model.PurgeCancelled, accountID, model.PurgeWaiting, model.PurgeApproved,
	)
	if err != nil {
		return fmt.Errorf("cancel purge entries for account %s: %w", accountID, err)
	}
	return nil
}

// dateOnly truncates a timestamp to its UTC calendar date.
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
