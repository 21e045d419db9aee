// Package otp implements the one-time-passcode approval workflow that gates
// sensitive actions (login, discount overrides, master-data activation).
package otp

import "time"

// Type classifies what a code authorizes.
type Type string

const (
	TypeLogin            Type = "login"
	TypeDiscount         Type = "discount"
	TypeMasterActivation Type = "master_activation"
)

// Status is the lifecycle state of a log record. approved and expired are
// terminal; resend restarts the pending window on the same record.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusExpired  Status = "expired"
)

// Log is one OTP issuance record. The code itself is never stored, only its
// bcrypt hash.
type Log struct {
	ID          string     `json:"id"`
	Type        Type       `json:"type"`
	EntityID    *string    `json:"entityId,omitempty"`
	EntityType  *string    `json:"entityType,omitempty"`
	Email       string     `json:"email"`
	CodeHash    string     `json:"-"`
	RequestedBy *string    `json:"requestedBy,omitempty"`
	ApprovedBy  *string    `json:"approvedBy,omitempty"`
	Status      Status     `json:"status"`
	Attempts    int        `json:"attempts"`
	MaxAttempts int        `json:"maxAttempts"`
	ExpiresAt   time.Time  `json:"expiresAt"`
	ApprovedAt  *time.Time `json:"approvedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}
