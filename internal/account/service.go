package account

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/hanejj/MealCheck/internal/apperr"
)

const (
	bcryptCost        = 12
	minPasswordLength = 6
	maxHandleLength   = 50
	maxNameLength     = 100
	maxDeptLength     = 50
)

// Repo is the persistence surface the service needs; the Postgres
// implementation lives in this package, tests substitute an in-memory one.
type Repo interface {
	Create(ctx context.Context, a *Account) error
	GetByID(ctx context.Context, id int64) (*Account, error)
	GetByHandle(ctx context.Context, handle string) (*Account, error)
	ListByApproval(ctx context.Context, approval Approval) ([]Account, error)
	ListActive(ctx context.Context) ([]Account, error)
	Update(ctx context.Context, a *Account) error
	Decide(ctx context.Context, id int64, to Approval, activate bool) (bool, error)
	SetActive(ctx context.Context, id int64, active bool) error
	SetPassword(ctx context.Context, id int64, hash string) error
	Delete(ctx context.Context, id int64) error
}

// Invalidator is notified after every account mutation so derived counts
// are never served stale.
type Invalidator interface {
	Invalidate(ctx context.Context)
}

// Service owns account lifecycle rules: handle uniqueness, password
// hashing, and the one-shot approval transition.
type Service struct {
	repo  Repo
	inval Invalidator
}

// NewService creates a service. inval may be nil.
func NewService(repo Repo, inval Invalidator) *Service {
	return &Service{repo: repo, inval: inval}
}

func (s *Service) invalidate(ctx context.Context) {
	if s.inval != nil {
		s.inval.Invalidate(ctx)
	}
}

func validateProfile(handle, name, secret string, department *string) error {
	switch {
	case strings.TrimSpace(handle) == "":
		return apperr.New(apperr.Validation, "handle is required")
	case len(handle) > maxHandleLength:
		return apperr.Newf(apperr.Validation, "handle must be at most %d characters", maxHandleLength)
	case strings.TrimSpace(name) == "":
		return apperr.New(apperr.Validation, "name is required")
	case len(name) > maxNameLength:
		return apperr.Newf(apperr.Validation, "name must be at most %d characters", maxNameLength)
	case len(secret) < minPasswordLength:
		return apperr.Newf(apperr.Validation, "password must be at least %d characters", minPasswordLength)
	case department != nil && len(*department) > maxDeptLength:
		return apperr.Newf(apperr.Validation, "department must be at most %d characters", maxDeptLength)
	}
	return nil
}

// Register creates a self-service account in PENDING state. It may not
// authenticate until an admin approves it.
func (s *Service) Register(ctx context.Context, handle, name, secret string, department *string) (*Account, error) {
	if err := validateProfile(handle, name, secret, department); err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcryptCost)
	if err != nil {
		return nil, apperr.Wrap(apperr.Storage, "hash password", err)
	}
	a := &Account{
		Handle:       handle,
		Name:         name,
		PasswordHash: string(hash),
		Department:   department,
		Role:         RoleMember,
		Approval:     ApprovalPending,
		Active:       false,
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	log.Info().Str("handle", a.Handle).Int64("id", a.ID).Msg("account registered, pending approval")
	return a, nil
}

// Create is the admin path: the account is approved immediately.
func (s *Service) Create(ctx context.Context, handle, name, secret string, department *string, active bool) (*Account, error) {
	if err := validateProfile(handle, name, secret, department); err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcryptCost)
	if err != nil {
		return nil, apperr.Wrap(apperr.Storage, "hash password", err)
	}
	a := &Account{
		Handle:       handle,
		Name:         name,
		PasswordHash: string(hash),
		Department:   department,
		Role:         RoleMember,
		Approval:     ApprovalApproved,
		Active:       active,
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return a, nil
}

// Authenticate verifies handle and secret. Unknown handle and wrong secret
// are indistinguishable; approval gating comes after the credential check
// so a rejected account fails with AUTHORIZATION, not AUTHENTICATION.
func (s *Service) Authenticate(ctx context.Context, handle, secret string) (*Account, error) {
	a, err := s.repo.GetByHandle(ctx, handle)
	if err != nil {
		if apperr.Is(err, apperr.NotFound) {
			return nil, apperr.New(apperr.Authentication, "invalid credentials")
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(secret)) != nil {
		return nil, apperr.New(apperr.Authentication, "invalid credentials")
	}
	if a.Approval != ApprovalApproved {
		return nil, apperr.New(apperr.Authorization, "account not approved")
	}
	return a, nil
}

func (s *Service) decide(ctx context.Context, id int64, to Approval, activate bool) error {
	applied, err := s.repo.Decide(ctx, id, to, activate)
	if err != nil {
		return err
	}
	if !applied {
		// Distinguish a decided account from a missing one.
		if _, err := s.repo.GetByID(ctx, id); err != nil {
			return err
		}
		return apperr.New(apperr.Conflict, "account already decided")
	}
	s.invalidate(ctx)
	return nil
}

// Approve transitions PENDING -> APPROVED and activates the account.
func (s *Service) Approve(ctx context.Context, id int64) error {
	return s.decide(ctx, id, ApprovalApproved, true)
}

// Reject transitions PENDING -> REJECTED. The account stays inactive.
func (s *Service) Reject(ctx context.Context, id int64) error {
	return s.decide(ctx, id, ApprovalRejected, false)
}

// Get returns one account.
func (s *Service) Get(ctx context.Context, id int64) (*Account, error) {
	return s.repo.GetByID(ctx, id)
}

// RegistrationStatus reports the approval state for a handle, for the
// public status probe. Missing handles surface NotFound.
func (s *Service) RegistrationStatus(ctx context.Context, handle string) (Approval, error) {
	a, err := s.repo.GetByHandle(ctx, handle)
	if err != nil {
		return "", err
	}
	return a.Approval, nil
}

// ListApproved returns approved accounts, active or not.
func (s *Service) ListApproved(ctx context.Context) ([]Account, error) {
	return s.repo.ListByApproval(ctx, ApprovalApproved)
}

// ListPending returns accounts awaiting a decision.
func (s *Service) ListPending(ctx context.Context) ([]Account, error) {
	return s.repo.ListByApproval(ctx, ApprovalPending)
}

// ListActive returns the eligible population: approved and active.
func (s *Service) ListActive(ctx context.Context) ([]Account, error) {
	return s.repo.ListActive(ctx)
}

// Update edits name, department, and optionally the active flag.
func (s *Service) Update(ctx context.Context, id int64, name string, department *string, active *bool) (*Account, error) {
	if strings.TrimSpace(name) == "" {
		return nil, apperr.New(apperr.Validation, "name is required")
	}
	if len(name) > maxNameLength {
		return nil, apperr.Newf(apperr.Validation, "name must be at most %d characters", maxNameLength)
	}
	if department != nil && len(*department) > maxDeptLength {
		return nil, apperr.Newf(apperr.Validation, "department must be at most %d characters", maxDeptLength)
	}
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	a.Name = name
	a.Department = department
	if active != nil {
		a.Active = *active
	}
	if err := s.repo.Update(ctx, a); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return a, nil
}

// SetActive toggles claim eligibility without touching approval state. A
// deactivated account can still log in and read its history.
func (s *Service) SetActive(ctx context.Context, id int64, active bool) error {
	if err := s.repo.SetActive(ctx, id, active); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

// Delete hard-removes the account; its claims cascade away with it.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	log.Info().Int64("id", id).Msg("account deleted")
	return nil
}

// ChangePassword re-verifies the current secret regardless of session
// validity before storing the new hash.
func (s *Service) ChangePassword(ctx context.Context, id int64, oldSecret, newSecret string) error {
	if len(newSecret) < minPasswordLength {
		return apperr.Newf(apperr.Validation, "password must be at least %d characters", minPasswordLength)
	}
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(oldSecret)) != nil {
		return apperr.New(apperr.Authentication, "invalid credentials")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newSecret), bcryptCost)
	if err != nil {
		return apperr.Wrap(apperr.Storage, "hash password", err)
	}
	return s.repo.SetPassword(ctx, id, string(hash))
}
