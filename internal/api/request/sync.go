package request

// TriggerSync is the body for manually triggered reconciliation runs.
// All fields are optional; an empty body syncs the whole directory.
type TriggerSync struct {
	Domain string `json:"domain" validate:"omitempty,fqdn"`
	DryRun bool   `json:"dry_run"`
}

// RunPurge is the body for manually triggered purge queue processing.
type RunPurge struct {
	DryRun bool `json:"dry_run"`
}

// UpdateSyncInterval is the body for changing the automatic sync cadence.
// Zero disables automatic syncs.
type UpdateSyncInterval struct {
	IntervalHours *int `json:"interval_hours" validate:"required,min=0,max=168"`
}
