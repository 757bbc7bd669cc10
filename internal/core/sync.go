package core

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/edvin/mailcycle/internal/model"
	"github.com/edvin/mailcycle/internal/platform"
	"github.com/edvin/mailcycle/internal/zimbra"
)

// ErrSyncAlreadyRunning is returned when a reconciliation run is requested
// while another one is active in this process.
var ErrSyncAlreadyRunning = errors.New("a sync run is already in progress")

// SyncService pulls the full remote account set page by page and merges it
// into local records, using a per-account fingerprint to skip redundant
// writes. At most one run is active at a time process-wide.
type SyncService struct {
	db               DB
	dir              Directory
	audit            *AuditService
	logger           zerolog.Logger
	batchSize        int
	errorDetailLimit int

	runMu sync.Mutex
}

func NewSyncService(db DB, dir Directory, audit *AuditService, logger zerolog.Logger, batchSize, errorDetailLimit int) *SyncService {
	if batchSize <= 0 {
		batchSize = 500
	}
	if errorDetailLimit <= 0 {
		errorDetailLimit = 100
	}
	return &SyncService{
		db:               db,
		dir:              dir,
		audit:            audit,
		logger:           logger,
		batchSize:        batchSize,
		errorDetailLimit: errorDetailLimit,
	}
}

// SyncFingerprint computes the change-detection hash for a remote account.
// The field order and the separator are part of the stored-hash contract:
// changing either invalidates every existing sync_hash and forces a full
// re-sync.
func SyncFingerprint(a zimbra.RemoteAccount) string {
	fields := strings.Join([]string{
		a.Name,
		a.DisplayName,
		a.AccountStatus,
		a.ForwardingAddress,
		a.PrefForwardingAddress,
		a.MailQuota,
		a.LastLogonTimestamp,
	}, "|")
	sum := md5.Sum([]byte(fields))
	return hex.EncodeToString(sum[:])
}

// ParseRemoteTimestamp parses the directory's timestamp format
// ("20240101120000Z", optionally with a fractional part). Malformed input
// yields nil rather than an error; last-login is best-effort data.
func ParseRemoteTimestamp(ts string) *time.Time {
	if ts == "" {
		return nil
	}
	clean, _, _ := strings.Cut(ts, ".")
	clean = strings.TrimSuffix(clean, "Z")
	if len(clean) != 14 {
		return nil
	}
	t, err := time.ParseInLocation("20060102150405", clean, time.UTC)
	if err != nil {
		return nil
	}
	return &t
}

// Run executes one reconciliation pass. An empty domain syncs the whole
// directory. In dry-run mode outcomes are counted but nothing is written,
// not even the SyncRun record.
func (s *SyncService) Run(ctx context.Context, domain string, dryRun bool) (*model.SyncSummary, error) {
	if !s.runMu.TryLock() {
		return nil, ErrSyncAlreadyRunning
	}
	defer s.runMu.Unlock()

	var runID string
	if !dryRun {
		runID = platform.NewID()
		_, err := s.db.Exec(ctx,
			`INSERT INTO sync_runs (id, started_at, status) VALUES ($1, now(), $2)`,
			runID, model.SyncRunning,
		)
		if err != nil {
			return nil, fmt.Errorf("create sync run: %w", err)
		}
	}

	summary := &model.SyncSummary{DryRun: dryRun}
	offset := 0
	for {
		page, err := s.dir.SearchAccounts(ctx, zimbra.SearchParams{
			Domain: domain,
			Limit:  s.batchSize,
			Offset: offset,
		})
		if err != nil {
			// A failure listing the directory itself poisons change
			// detection for the rest of the run; the run fails as a whole.
			s.logger.Error().Err(err).Int("offset", offset).Msg("sync aborted while paginating directory")
			if !dryRun {
				s.finalizeRun(ctx, runID, model.SyncFailed, summary, []model.SyncErrorItem{{Error: err.Error()}})
			}
			return nil, fmt.Errorf("list directory accounts: %w", err)
		}

		for _, remote := range page.Accounts {
			summary.Total++
			outcome, err := s.syncOne(ctx, remote, dryRun)
			if err != nil {
				summary.Errors++
				name := remote.Name
				if name == "" {
					name = "unknown"
				}
				if len(summary.ErrorDetails) < s.errorDetailLimit {
					summary.ErrorDetails = append(summary.ErrorDetails, model.SyncErrorItem{
						Account: name,
						Error:   err.Error(),
					})
				}
				s.logger.Error().Err(err).Str("account", name).Msg("sync error")
				continue
			}
			switch outcome {
			case "created":
				summary.Created++
			case "updated":
				summary.Updated++
			default:
				summary.Unchanged++
			}
		}

		if !page.More {
			break
		}
		offset += s.batchSize
	}

	if !dryRun {
		s.finalizeRun(ctx, runID, model.SyncCompleted, summary, summary.ErrorDetails)
		s.audit.record(ctx, model.AuditSync, nil, "sync", runID, map[string]any{
			"total":     summary.Total,
			"created":   summary.Created,
			"updated":   summary.Updated,
			"unchanged": summary.Unchanged,
			"errors":    summary.Errors,
		})
	}

	s.logger.Info().
		Int("total", summary.Total).
		Int("created", summary.Created).
		Int("updated", summary.Updated).
		Int("unchanged", summary.Unchanged).
		Int("errors", summary.Errors).
		Bool("dry_run", dryRun).
		Msg("sync complete")

	return summary, nil
}

func (s *SyncService) finalizeRun(ctx context.Context, runID, status string, summary *model.SyncSummary, details []model.SyncErrorItem) {
	payload, err := json.Marshal(details)
	if err != nil || details == nil {
		payload = []byte("[]")
	}
	_, err = s.db.Exec(ctx,
		`UPDATE sync_runs SET status = $1, completed_at = now(), total_accounts = $2,
		 created_count = $3, updated_count = $4, unchanged_count = $5, error_count = $6,
		 error_details = $7 WHERE id = $8`,
		status, summary.Total, summary.Created, summary.Updated, summary.Unchanged,
		summary.Errors, payload, runID,
	)
	if err != nil {
		s.logger.Error().Err(err).Str("run_id", runID).Msg("failed to finalize sync run")
	}
}

// syncOne merges a single remote record, returning "created", "updated" or
// "unchanged".
func (s *SyncService) syncOne(ctx context.Context, remote zimbra.RemoteAccount, dryRun bool) (string, error) {
	if remote.ID == "" || remote.Name == "" {
		return "", fmt.Errorf("remote record missing id or name")
	}
	newHash := SyncFingerprint(remote)

	var (
		id              string
		statusChangedBy *string
		syncHash        string
	)
	err := s.db.QueryRow(ctx,
		`SELECT id, status_changed_by, sync_hash FROM accounts WHERE zimbra_id = $1`,
		remote.ID,
	).Scan(&id, &statusChangedBy, &syncHash)

	switch {
	case errors.Is(err, pgx.ErrNoRows):
		if dryRun {
			return "created", nil
		}
		if err := s.createAccount(ctx, remote, newHash); err != nil {
			return "", err
		}
		return "created", nil
	case err != nil:
		return "", fmt.Errorf("lookup account %s: %w", remote.Name, err)
	}

	if syncHash == newHash {
		return "unchanged", nil
	}
	if dryRun {
		return "updated", nil
	}
	// Local operator intent wins once established: status is only
	// overwritten from remote while status_changed_by is unset.
	if err := s.updateAccount(ctx, id, statusChangedBy == nil, remote, newHash); err != nil {
		return "", err
	}
	return "updated", nil
}

// fetchMailboxSize is a best-effort side call; nil means "keep whatever is
// stored". Mailbox size is telemetry, never worth failing a record over.
func (s *SyncService) fetchMailboxSize(ctx context.Context, zimbraID string) *int64 {
	size, err := s.dir.GetMailboxSize(ctx, zimbraID)
	if err != nil {
		s.logger.Debug().Err(err).Str("zimbra_id", zimbraID).Msg("mailbox size fetch failed")
		return nil
	}
	return &size
}

func forwardingAddress(remote zimbra.RemoteAccount) string {
	if remote.PrefForwardingAddress != "" {
		return remote.PrefForwardingAddress
	}
	return remote.ForwardingAddress
}

func (s *SyncService) createAccount(ctx context.Context, remote zimbra.RemoteAccount, newHash string) error {
	var mailboxSize int64
	if size := s.fetchMailboxSize(ctx, remote.ID); size != nil {
		mailboxSize = *size
	}

	_, err := s.db.Exec(ctx,
		`INSERT INTO accounts (id, zimbra_id, email, domain, display_name, status, zimbra_status,
		 forwarding_address, mailbox_size, cos_id, last_login_at, sync_hash, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, now(), now())`,
		platform.NewID(), remote.ID, remote.Name, model.DomainOf(remote.Name),
		remote.DisplayName, zimbra.MapRemoteStatus(remote.AccountStatus),
		zimbra.MapRemoteStatus(remote.AccountStatus), forwardingAddress(remote),
		mailboxSize, remote.CosID, ParseRemoteTimestamp(remote.LastLogonTimestamp), newHash,
	)
	if err != nil {
		return fmt.Errorf("insert account %s: %w", remote.Name, err)
	}
	return nil
}

func (s *SyncService) updateAccount(ctx context.Context, id string, overwriteStatus bool, remote zimbra.RemoteAccount, newHash string) error {
	mapped := zimbra.MapRemoteStatus(remote.AccountStatus)

	query := `UPDATE accounts SET email = $1, domain = $2, display_name = $3, zimbra_status = $4,
		 forwarding_address = $5, mailbox_size = COALESCE($6, mailbox_size), cos_id = $7,
		 last_login_at = COALESCE($8, last_login_at), sync_hash = $9, updated_at = now()`
	args := []any{
		remote.Name, model.DomainOf(remote.Name), remote.DisplayName, mapped,
		forwardingAddress(remote), s.fetchMailboxSize(ctx, remote.ID), remote.CosID,
		ParseRemoteTimestamp(remote.LastLogonTimestamp), newHash,
	}
	if overwriteStatus {
		query += `, status = $10 WHERE id = $11`
		args = append(args, mapped, id)
	} else {
		query += ` WHERE id = $10`
		args = append(args, id)
	}

	if _, err := s.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("update account %s: %w", remote.Name, err)
	}
	return nil
}

// ---------- Sync history ----------

func scanSyncRun(row pgx.Row) (*model.SyncRun, error) {
	var r model.SyncRun
	var details []byte
	err := row.Scan(&r.ID, &r.StartedAt, &r.CompletedAt, &r.Status, &r.TotalAccounts,
		&r.CreatedCount, &r.UpdatedCount, &r.UnchangedCount, &r.ErrorCount, &details)
	if err != nil {
		return nil, err
	}
	if len(details) > 0 {
		// Tolerate malformed stored details; the counters still stand.
		_ = json.Unmarshal(details, &r.ErrorDetails)
	}
	return &r, nil
}

const syncRunColumns = `id, started_at, completed_at, status, total_accounts,
	created_count, updated_count, unchanged_count, error_count, error_details`

// ListRuns returns the most recent sync runs, newest first.
func (s *SyncService) ListRuns(ctx context.Context, limit int) ([]model.SyncRun, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+syncRunColumns+` FROM sync_runs ORDER BY started_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list sync runs: %w", err)
	}
	defer rows.Close()

	var runs []model.SyncRun
	for rows.Next() {
		r, err := scanSyncRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan sync run: %w", err)
		}
		runs = append(runs, *r)
	}
	return runs, rows.Err()
}

// LastRun returns the most recent sync run, or nil when none exist.
func (s *SyncService) LastRun(ctx context.Context) (*model.SyncRun, error) {
	r, err := scanSyncRun(s.db.QueryRow(ctx,
		`SELECT ` + syncRunColumns + ` FROM sync_runs ORDER BY started_at DESC LIMIT 1`))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get last sync run: %w", err)
	}
	return r, nil
}
