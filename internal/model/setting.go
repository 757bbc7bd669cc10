package model

import "time"

// Setting keys.
const (
	SettingSyncIntervalHours = "sync_interval_hours"
)

type Setting struct {
	Key       string    `json:"key" db:"key"`
	Value     string    `json:"value" db:"value"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
