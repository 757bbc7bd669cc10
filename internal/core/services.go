package core

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"

	"github.com/edvin/mailcycle/internal/zimbra"
)

// DB is the subset of pgxpool.Pool the services use.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, arguments ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, arguments ...any) pgx.Row
}

// Directory is the gateway to the remote account directory. The concrete
// implementation is *zimbra.Client.
type Directory interface {
	SearchAccounts(ctx context.Context, p zimbra.SearchParams) (*zimbra.SearchResult, error)
	GetAccount(ctx context.Context, key, by string) (*zimbra.RemoteAccount, error)
	SetAccountStatus(ctx context.Context, zimbraID, status string) error
	GetMailboxSize(ctx context.Context, zimbraID string) (int64, error)
	DeleteAccount(ctx context.Context, zimbraID string) error
	TestConnection(ctx context.Context) error
}

// Options carries the tunables the services need from configuration.
type Options struct {
	SyncBatchSize        int
	SyncErrorDetailLimit int
	PurgeDelayDays       int
}

type Services struct {
	Account   *AccountService
	Sync      *SyncService
	Lifecycle *LifecycleService
	Purge     *PurgeService
	BulkOps   *BulkOpsService
	Settings  *SettingsService
	Audit     *AuditService
}

func NewServices(db DB, dir Directory, logger zerolog.Logger, opts Options) *Services {
	audit := NewAuditService(db, logger)
	lifecycle := NewLifecycleService(db, dir, audit, logger, opts.PurgeDelayDays)
	return &Services{
		Account:   NewAccountService(db),
		Sync:      NewSyncService(db, dir, audit, logger, opts.SyncBatchSize, opts.SyncErrorDetailLimit),
		Lifecycle: lifecycle,
		Purge:     NewPurgeService(db, dir, audit, logger),
		BulkOps:   NewBulkOpsService(db, lifecycle, audit, logger),
		Settings:  NewSettingsService(db),
		Audit:     audit,
	}
}
