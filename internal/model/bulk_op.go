package model

// Bulk operation types, each mapping to a lifecycle target status.
const (
	BulkOpLock       = "lock"
	BulkOpClose      = "close"
	BulkOpReactivate = "reactivate"
)

// BulkOpItem is the per-account outcome of a bulk status change.
type BulkOpItem struct {
	Email   string `json:"email"`
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

// BulkOpResult summarizes one bulk operation.
type BulkOpResult struct {
	Requested int          `json:"requested"`
	Succeeded int          `json:"succeeded"`
	Failed    int          `json:"failed"`
	NotFound  []string     `json:"not_found,omitempty"`
	Items     []BulkOpItem `json:"items"`
}
