package activity

import (
	"context"

	"github.com/edvin/mailcycle/internal/core"
	"github.com/edvin/mailcycle/internal/model"
)

// Purge contains activities that execute scheduled account deletions.
type Purge struct {
	services *core.Services
}

// NewPurge creates a new Purge activity struct.
func NewPurge(services *core.Services) *Purge {
	return &Purge{services: services}
}

// ProcessPurgeQueueParams holds the parameters for ProcessPurgeQueue.
type ProcessPurgeQueueParams struct {
	DryRun bool
}

// ProcessPurgeQueue walks all due purge entries and returns the dispositions.
func (a *Purge) ProcessPurgeQueue(ctx context.Context, params ProcessPurgeQueueParams) (*model.PurgeResult, error) {
	return a.services.Purge.Process(ctx, params.DryRun)
}
