package account

import "time"

// Role distinguishes ordinary members from administrators.
type Role string

const (
	RoleMember Role = "MEMBER"
	RoleAdmin  Role = "ADMIN"
)

// Approval is the registration workflow state. It transitions from Pending
// to Approved or Rejected exactly once and is independent of Active.
type Approval string

const (
	ApprovalPending  Approval = "PENDING"
	ApprovalApproved Approval = "APPROVED"
	ApprovalRejected Approval = "REJECTED"
)

// Account is a member of the organization. PasswordHash never leaves this
// package's repo and service.
type Account struct {
	ID           int64     `json:"id"`
	Handle       string    `json:"handle"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	Department   *string   `json:"department,omitempty"`
	Role         Role      `json:"role"`
	Approval     Approval  `json:"approval"`
	Active       bool      `json:"active"`
	Version      int64     `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Eligible reports whether the account counts toward meal participation:
// approved and currently active.
func (a *Account) Eligible() bool {
	return a != nil && a.Approval == ApprovalApproved && a.Active
}
