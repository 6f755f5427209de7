package domain

import "time"

// Request statuses observed on the portal. The set is open: any other value
// is carried through verbatim.
const (
	StatusPending   = "pending"
	StatusApproved  = "approved"
	StatusProcessed = "processed"
	StatusRejected  = "rejected"
	StatusCancelled = "cancelled"
	StatusDelegated = "delegated"
)

// Request types.
const (
	RequestSection = "section"
	RequestTD      = "td"
	RequestTP      = "tp"
)

// ChangeRequest is a user's ask to move to another section or TD/TP group.
type ChangeRequest struct {
	ID        string    `json:"id"`
	Status    string    `json:"status"`
	Type      string    `json:"type"`
	Current   string    `json:"current,omitempty"`
	Requested string    `json:"requested,omitempty"`
	Approved  *bool     `json:"approved,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// IsApproved reports whether the approval flag is present and true.
func (r ChangeRequest) IsApproved() bool {
	return r.Approved != nil && *r.Approved
}

// StatusChange is a transition detected between two snapshots.
type StatusChange struct {
	Request   ChangeRequest
	OldStatus string
	NewStatus string
}
