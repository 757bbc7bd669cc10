package model

import (
	"encoding/json"
	"time"
)

// AuditLog is one recorded administrative or system action.
type AuditLog struct {
	ID         string          `json:"id" db:"id"`
	Actor      *string         `json:"actor,omitempty" db:"actor"`
	Action     string          `json:"action" db:"action"`
	TargetType string          `json:"target_type" db:"target_type"`
	TargetID   string          `json:"target_id" db:"target_id"`
	Details    json.RawMessage `json:"details" db:"details"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
}
