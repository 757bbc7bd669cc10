package zimbra

import "fmt"

// The client reports failures as one of four kinds. Transport problems
// (ConnectionError), rejected credentials (AuthError), a missing remote
// entity (NotFoundError) and everything the directory reports as a SOAP
// fault (APIError) must stay distinguishable for callers.

// ConnectionError is a network-level failure reaching the directory,
// including timeouts.
type ConnectionError struct {
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("cannot reach directory: %v", e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// AuthError means the directory rejected the admin credentials.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("directory authentication failed: %s", e.Message)
}

// NotFoundError means the requested remote entity does not exist.
type NotFoundError struct {
	Key string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("account not found: %s", e.Key)
}

// APIError is any other fault the directory carries in-band in a 200
// response, or an HTTP-level failure. Code is the optional fault detail
// code (e.g. "account.NO_SUCH_ACCOUNT").
type APIError struct {
	Message string
	Code    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("directory API error: %s (%s)", e.Message, e.Code)
	}
	return fmt.Sprintf("directory API error: %s", e.Message)
}
