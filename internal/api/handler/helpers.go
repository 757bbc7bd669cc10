package handler

import (
	"errors"
	"net/http"

	"github.com/edvin/mailcycle/internal/zimbra"
)

// actorFrom extracts the acting operator from the X-Actor header. A nil
// actor marks system-initiated changes.
func actorFrom(r *http.Request) *string {
	if actor := r.Header.Get("X-Actor"); actor != "" {
		return &actor
	}
	return nil
}

// directoryErrorStatus maps directory client failures to an HTTP status.
// Upstream faults are surfaced as 502 so callers can tell a directory
// outage apart from a local fault.
func directoryErrorStatus(err error) int {
	var connErr *zimbra.ConnectionError
	var authErr *zimbra.AuthError
	var apiErr *zimbra.APIError
	if errors.As(err, &connErr) || errors.As(err, &authErr) || errors.As(err, &apiErr) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
