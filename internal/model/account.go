package model

import (
	"strings"
	"time"
)

// Account is the local authoritative record of one directory mailbox.
// Remote-sourced fields (display name, forwarding address, mailbox size,
// last login, COS) are owned by the sync engine; status and lifecycle
// fields are owned by the lifecycle service.
type Account struct {
	ID                string     `json:"id" db:"id"`
	ZimbraID          string     `json:"zimbra_id" db:"zimbra_id"`
	Email             string     `json:"email" db:"email"`
	Domain            string     `json:"domain" db:"domain"`
	DisplayName       string     `json:"display_name" db:"display_name"`
	Status            string     `json:"status" db:"status"`
	ZimbraStatus      string     `json:"zimbra_status" db:"zimbra_status"`
	ForwardingAddress string     `json:"forwarding_address" db:"forwarding_address"`
	MailboxSize       int64      `json:"mailbox_size" db:"mailbox_size"`
	CosID             string     `json:"cos_id" db:"cos_id"`
	LastLoginAt       *time.Time `json:"last_login_at,omitempty" db:"last_login_at"`
	ClosedAt          *time.Time `json:"closed_at,omitempty" db:"closed_at"`
	PurgeEligibleDate *time.Time `json:"purge_eligible_date,omitempty" db:"purge_eligible_date"`
	PurgedAt          *time.Time `json:"purged_at,omitempty" db:"purged_at"`
	StatusChangedAt   *time.Time `json:"status_changed_at,omitempty" db:"status_changed_at"`
	StatusChangedBy   *string    `json:"status_changed_by,omitempty" db:"status_changed_by"`
	SyncHash          string     `json:"sync_hash" db:"sync_hash"`
	CreatedAt         time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at" db:"updated_at"`
}

// Protected reports whether the account is exempt from purging.
// Accounts with an active forwarding address are never deleted.
func (a *Account) Protected() bool {
	return a.ForwardingAddress != ""
}

// DomainOf derives the domain part of an email address, or "" if the
// address has no '@'.
func DomainOf(email string) string {
	if i := strings.IndexByte(email, '@'); i >= 0 {
		return email[i+1:]
	}
	return ""
}
