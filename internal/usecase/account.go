package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/contalabs/accounts-api/internal/core/domain"
	"github.com/contalabs/accounts-api/internal/core/port"
	"github.com/contalabs/accounts-api/internal/infra/logger"
	"github.com/contalabs/accounts-api/internal/infra/security"
	"github.com/contalabs/accounts-api/internal/repository"
)

var (
	// ErrAccountExists indicates a registration targeted an email that is already taken.
	ErrAccountExists = errors.New("account already exists")
	// ErrInvalidCredentials indicates the email or password is incorrect.
	// Lookup failures and password mismatches are deliberately
	// indistinguishable to avoid account enumeration.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrAccountNotFound indicates no account exists for the email.
	ErrAccountNotFound = errors.New("account not found")
	// ErrInvalidPassword indicates the supplied password did not match on an
	// operation that requires account existence.
	ErrInvalidPassword = errors.New("invalid password")
)

// AccountService coordinates registration, login, and account deletion.
type AccountService struct {
	accounts port.AccountRepository
	resets   port.ResetRequestRepository
	activity port.ActivityRecorder
	logger   *zap.Logger
	now      func() time.Time
}

// NewAccountService constructs an AccountService.
func NewAccountService(accounts port.AccountRepository, resets port.ResetRequestRepository, activity port.ActivityRecorder, log *zap.Logger) *AccountService {
	if activity == nil {
		activity = noopRecorder{}
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &AccountService{
		accounts: accounts,
		resets:   resets,
		activity: activity,
		logger:   log,
		now:      time.Now,
	}
}

// WithClock allows tests to override the clock used by the service.
func (s *AccountService) WithClock(clock func() time.Time) *AccountService {
	if clock != nil {
		s.now = clock
	}
	return s
}

// Register creates a new account with a freshly hashed credential. The
// existence pre-check and the insert are not atomic; a racing registration is
// caught by the store's unique constraint and reported the same way.
func (s *AccountService) Register(ctx context.Context, email, password string) error {
	if _, err := s.accounts.GetByEmail(ctx, email); err == nil {
		return ErrAccountExists
	} else if !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("check existing account: %w", err)
	}

	hash, err := security.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	createdAt := s.now().UTC()
	account := domain.Account{
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    createdAt,
		LastLogin:    nil,
	}

	if err := s.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return ErrAccountExists
		}
		return fmt.Errorf("create account: %w", err)
	}

	s.activity.RecordRegistration(email, createdAt)

	return nil
}

// Authenticate verifies the credential pair and stamps last_login on success.
func (s *AccountService) Authenticate(ctx context.Context, email, password string) error {
	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			s.logger.Warn("account lookup failed during login", zap.String("email", logger.MaskEmail(email)), zap.Error(err))
		}
		return ErrInvalidCredentials
	}

	if !security.CheckPassword(account.PasswordHash, password) {
		return ErrInvalidCredentials
	}

	loginAt := s.now().UTC()
	if err := s.accounts.UpdateLastLogin(ctx, email, loginAt); err != nil {
		return fmt.Errorf("update last login: %w", err)
	}

	s.activity.RecordLogin(email, loginAt)

	return nil
}

// Delete removes the account and any reset requests for it after verifying
// the password.
func (s *AccountService) Delete(ctx context.Context, email, password string) error {
	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrAccountNotFound
		}
		return fmt.Errorf("lookup account: %w", err)
	}

	if !security.CheckPassword(account.PasswordHash, password) {
		return ErrInvalidPassword
	}

	if err := s.accounts.Delete(ctx, email); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrAccountNotFound
		}
		return fmt.Errorf("delete account: %w", err)
	}

	if err := s.resets.DeleteByEmail(ctx, email); err != nil {
		return fmt.Errorf("delete reset requests: %w", err)
	}

	return nil
}

type noopRecorder struct{}

func (noopRecorder) RecordRegistration(string, time.Time) {}
func (noopRecorder) RecordLogin(string, time.Time)        {}
