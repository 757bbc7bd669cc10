package model

// Account status constants. Status is locally governed; the directory's own
// status vocabulary is mirrored separately in Account.ZimbraStatus.
const (
	StatusActive       = "active"
	StatusLocked       = "locked"
	StatusClosed       = "closed"
	StatusPendingPurge = "pending_purge"
	StatusPurged       = "purged"
)

// Purge queue entry status constants.
const (
	PurgeWaiting   = "waiting"
	PurgeApproved  = "approved"
	PurgeExecuted  = "executed"
	PurgeCancelled = "cancelled"
	PurgeSkipped   = "skipped"
)

// Sync run status constants.
const (
	SyncRunning   = "running"
	SyncCompleted = "completed"
	SyncFailed    = "failed"
)

// Audit action constants.
const (
	AuditStatusChange = "status_change"
	AuditBulkOp       = "bulk_op"
	AuditSync         = "sync"
	AuditPurge        = "purge"
)
