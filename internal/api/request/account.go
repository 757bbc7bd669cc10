package request

// ChangeStatus is the body for account status transitions.
type ChangeStatus struct {
	Status string `json:"status" validate:"required,account_status"`
	Reason string `json:"reason" validate:"max=500"`
}

// BulkOp is the body for bulk lifecycle operations.
type BulkOp struct {
	Operation string   `json:"operation" validate:"required,bulk_op"`
	Emails    []string `json:"emails" validate:"required,min=1,max=1000,dive,email"`
	Reason    string   `json:"reason" validate:"max=500"`
}
