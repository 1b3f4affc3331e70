// Package guard evaluates every operation against the caller's account
// snapshot before it reaches a store. It is a pure decision function: no
// store reads, no side effects.
package guard

import "github.com/hanejj/MealCheck/internal/account"

// Operation identifies what the caller is attempting.
type Operation int

const (
	OpReadOwnStatus Operation = iota
	OpReadOwnProfile
	OpChangePassword
	OpViewOwnHistory
	OpViewSchedules
	OpViewParticipants
	OpCheckMeal
	OpUncheckMeal

	OpListPendingAccounts
	OpApproveAccount
	OpRejectAccount
	OpListAccounts
	OpCreateAccount
	OpUpdateAccount
	OpDeleteAccount
	OpViewStatistics
	OpCreateSchedule
	OpDeleteSchedule
	OpViewAllHistory
	OpViewAudit
)

// Reason explains a denial.
type Reason string

const (
	ReasonAllowed         Reason = "ALLOWED"
	ReasonUnauthenticated Reason = "UNAUTHENTICATED"
	ReasonNotApproved     Reason = "NOT_APPROVED"
	ReasonForbidden       Reason = "FORBIDDEN"
	ReasonInactiveAccount Reason = "INACTIVE_ACCOUNT"
)

// Decision is the guard's verdict.
type Decision struct {
	Allowed bool
	Reason  Reason
}

func allow() Decision             { return Decision{Allowed: true, Reason: ReasonAllowed} }
func deny(reason Reason) Decision { return Decision{Allowed: false, Reason: reason} }

type opSpec struct {
	admin          bool // requires ADMIN role
	whilePending   bool // allowed before approval
	requiresActive bool // denied when active=false
}

var ops = map[Operation]opSpec{
	OpReadOwnStatus:  {whilePending: true},
	OpReadOwnProfile: {},
	OpChangePassword: {},
	OpViewOwnHistory: {},
	OpViewSchedules:  {},

	OpViewParticipants: {},
	// Only claiming is gated on the active flag; releasing an existing
	// claim stays open to deactivated accounts.
	OpCheckMeal:        {requiresActive: true},
	OpUncheckMeal:      {},

	OpListPendingAccounts: {admin: true},
	// Approve/reject skip the approval gate so the role check decides;
	// non-admins get FORBIDDEN rather than NOT_APPROVED here.
	OpApproveAccount:      {admin: true, whilePending: true},
	OpRejectAccount:       {admin: true, whilePending: true},
	OpListAccounts:        {admin: true},
	OpCreateAccount:       {admin: true},
	OpUpdateAccount:       {admin: true},
	OpDeleteAccount:       {admin: true},
	OpViewStatistics:      {admin: true},
	OpCreateSchedule:      {admin: true},
	OpDeleteSchedule:      {admin: true},
	OpViewAllHistory:      {admin: true},
	OpViewAudit:           {admin: true},
}

// Evaluate applies the access rules in order: authentication, approval,
// role, active flag. The snapshot is whatever account state the caller's
// session resolved to; nil means unauthenticated.
func Evaluate(caller *account.Account, op Operation) Decision {
	spec := ops[op]
	if caller == nil {
		return deny(ReasonUnauthenticated)
	}
	if caller.Approval != account.ApprovalApproved && !spec.whilePending {
		return deny(ReasonNotApproved)
	}
	if spec.admin && caller.Role != account.RoleAdmin {
		return deny(ReasonForbidden)
	}
	if spec.requiresActive && !caller.Active {
		return deny(ReasonInactiveAccount)
	}
	return allow()
}
