package activity

import (
	"context"

	"github.com/edvin/mailcycle/internal/core"
	"github.com/edvin/mailcycle/internal/model"
)

// Sync contains activities that reconcile local accounts with the remote
// directory.
type Sync struct {
	services *core.Services
}

// NewSync creates a new Sync activity struct.
func NewSync(services *core.Services) *Sync {
	return &Sync{services: services}
}

// SyncDirectoryParams holds the parameters for SyncDirectory.
type SyncDirectoryParams struct {
	Domain string
	DryRun bool
}

// SyncDirectory runs one full reconciliation pass and returns its summary.
func (a *Sync) SyncDirectory(ctx context.Context, params SyncDirectoryParams) (*model.SyncSummary, error) {
	return a.services.Sync.Run(ctx, params.Domain, params.DryRun)
}
