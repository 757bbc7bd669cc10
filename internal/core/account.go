package core

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/edvin/mailcycle/internal/model"
)

const accountColumns = `id, zimbra_id, email, domain, display_name, status, zimbra_status,
	forwarding_address, mailbox_size, cos_id, last_login_at, closed_at, purge_eligible_date,
	purged_at, status_changed_at, status_changed_by, sync_hash, created_at, updated_at`

type AccountService struct {
	db DB
}

func NewAccountService(db DB) *AccountService {
	return &AccountService{db: db}
}

func scanAccount(row pgx.Row) (*model.Account, error) {
	var a model.Account
	err := row.Scan(&a.ID, &a.ZimbraID, &a.Email, &a.Domain, &a.DisplayName, &a.Status,
		&a.ZimbraStatus, &a.ForwardingAddress, &a.MailboxSize, &a.CosID, &a.LastLoginAt,
		&a.ClosedAt, &a.PurgeEligibleDate, &a.PurgedAt, &a.StatusChangedAt, &a.StatusChangedBy,
		&a.SyncHash, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *AccountService) GetByID(ctx context.Context, id string) (*model.Account, error) {
	a, err := scanAccount(s.db.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("get account %s: %w", id, err)
	}
	return a, nil
}

func (s *AccountService) GetByEmail(ctx context.Context, email string) (*model.Account, error) {
	a, err := scanAccount(s.db.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE email = $1`, email))
	if err != nil {
		return nil, fmt.Errorf("get account by email %s: %w", email, err)
	}
	return a, nil
}

func (s *AccountService) GetByZimbraID(ctx context.Context, zimbraID string) (*model.Account, error) {
	a, err := scanAccount(s.db.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE zimbra_id = $1`, zimbraID))
	if err != nil {
		return nil, fmt.Errorf("get account by zimbra id %s: %w", zimbraID, err)
	}
	return a, nil
}

// List returns accounts optionally filtered by domain and status, paged by
// an id cursor.
func (s *AccountService) List(ctx context.Context, domain, status string, limit int, cursor string) ([]model.Account, bool, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE 1=1`
	args := []any{}
	argIdx := 1

	if domain != "" {
		query += fmt.Sprintf(` AND domain = $%d`, argIdx)
		args = append(args, domain)
		argIdx++
	}
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

	query += ` ORDER BY id`
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit+1)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, false, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []model.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, false, fmt.Errorf("scan account: %w", err)
		}
		accounts = append(accounts, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("iterate accounts: %w", err)
	}

	hasMore := len(accounts) > limit
	if hasMore {
		accounts = accounts[:limit]
	}
	return accounts, hasMore, nil
}
