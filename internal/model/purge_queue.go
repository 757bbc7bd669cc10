package model

import "time"

// PurgeQueueEntry is one scheduled-deletion intent for an account. An
// account may accumulate several entries over its lifetime but at most one
// may be open (waiting or approved) at a time.
type PurgeQueueEntry struct {
	ID            string     `json:"id" db:"id"`
	AccountID     string     `json:"account_id" db:"account_id"`
	EligibleDate  time.Time  `json:"eligible_date" db:"eligible_date"`
	Status        string     `json:"status" db:"status"`
	ApprovedBy    *string    `json:"approved_by,omitempty" db:"approved_by"`
	ApprovedAt    *time.Time `json:"approved_at,omitempty" db:"approved_at"`
	SkippedReason string     `json:"skipped_reason,omitempty" db:"skipped_reason"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at" db:"updated_at"`
}
