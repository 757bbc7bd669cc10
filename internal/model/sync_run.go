package model

import "time"

// SyncRun records one reconciliation pass over the remote directory.
// It is created in the running state when the pass starts and finalized
// exactly once as completed or failed.
type SyncRun struct {
	ID             string          `json:"id" db:"id"`
	StartedAt      time.Time       `json:"started_at" db:"started_at"`
	CompletedAt    *time.Time      `json:"completed_at,omitempty" db:"completed_at"`
	Status         string          `json:"status" db:"status"`
	TotalAccounts  int             `json:"total_accounts" db:"total_accounts"`
	CreatedCount   int             `json:"created_count" db:"created_count"`
	UpdatedCount   int             `json:"updated_count" db:"updated_count"`
	UnchangedCount int             `json:"unchanged_count" db:"unchanged_count"`
	ErrorCount     int             `json:"error_count" db:"error_count"`
	ErrorDetails   []SyncErrorItem `json:"error_details" db:"error_details"`
}

// SyncErrorItem describes one per-account failure during a sync run.
type SyncErrorItem struct {
	Account string `json:"account"`
	Error   string `json:"error"`
}

// SyncSummary is the result of one reconciliation run, returned to callers
// and stored on the finalized SyncRun.
type SyncSummary struct {
	Total        int             `json:"total"`
	Created      int             `json:"created"`
	Updated      int             `json:"updated"`
	Unchanged    int             `json:"unchanged"`
	Errors       int             `json:"errors"`
	ErrorDetails []SyncErrorItem `json:"error_details,omitempty"`
	DryRun       bool            `json:"dry_run"`
}

// PurgeResult is the outcome of one purge queue processing pass.
type PurgeResult struct {
	Processed int               `json:"processed"`
	Purged    int               `json:"purged"`
	Skipped   int               `json:"skipped"`
	Errors    int               `json:"errors"`
	Details   []PurgeResultItem `json:"details,omitempty"`
	DryRun    bool              `json:"dry_run"`
}

// PurgeResultItem describes the disposition of one queue entry.
type PurgeResultItem struct {
	Email  string `json:"email"`
	Action string `json:"action"`
	Reason string `json:"reason,omitempty"`
}
