package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/contalabs/accounts-api/internal/core/domain"
	"github.com/contalabs/accounts-api/internal/core/port"
	"github.com/contalabs/accounts-api/internal/infra/logger"
	"github.com/contalabs/accounts-api/internal/infra/security"
	"github.com/contalabs/accounts-api/internal/repository"
)

const resetEmailSubject = "Password Reset Code"

var (
	// ErrResetCodeInvalid indicates no live reset request matches the
	// supplied (email, code) pair.
	ErrResetCodeInvalid = errors.New("invalid or expired code")
	// ErrResetCodeExpired indicates the matching reset request is past its
	// expiry.
	ErrResetCodeExpired = errors.New("code has expired")
)

// resetEmailFailures counts reset emails that failed to dispatch. The
// external response stays constant when dispatch fails, so this counter is
// the operator's only signal.
var resetEmailFailures = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "accounts",
	Subsystem: "mail",
	Name:      "reset_email_failures_total",
	Help:      "Total number of password reset emails that failed to send.",
})

// PasswordResetService coordinates the forgot-password and reset-password flows.
type PasswordResetService struct {
	accounts port.AccountRepository
	resets   port.ResetRequestRepository
	mailer   port.Mailer
	logger   *zap.Logger
	now      func() time.Time
	codeTTL  time.Duration
}

// NewPasswordResetService constructs a PasswordResetService.
func NewPasswordResetService(accounts port.AccountRepository, resets port.ResetRequestRepository, mailer port.Mailer, log *zap.Logger) *PasswordResetService {
	if log == nil {
		log = zap.NewNop()
	}

	return &PasswordResetService{
		accounts: accounts,
		resets:   resets,
		mailer:   mailer,
		logger:   log,
		now:      time.Now,
		codeTTL:  security.ResetCodeTTL,
	}
}

// WithClock allows tests to override the clock used by the service.
func (s *PasswordResetService) WithClock(clock func() time.Time) *PasswordResetService {
	if clock != nil {
		s.now = clock
	}
	return s
}

// WithCodeTTL overrides the reset code validity window (primarily for tests).
func (s *PasswordResetService) WithCodeTTL(ttl time.Duration) *PasswordResetService {
	if ttl > 0 {
		s.codeTTL = ttl
	}
	return s
}

// RequestReset invalidates any prior codes for the email, and for an existing
// account persists a fresh code and emails it. ErrAccountNotFound tells the
// handler to keep the generic response; it must never leak to the client.
//
// Email dispatch failure after the code row is persisted does not surface to
// the caller: the external response stays identical either way to preserve
// the non-enumeration property, and the failure is recorded in logs and the
// resetEmailFailures counter instead.
func (s *PasswordResetService) RequestReset(ctx context.Context, email string) error {
	if err := s.resets.DeleteByEmail(ctx, email); err != nil {
		return fmt.Errorf("invalidate prior reset codes: %w", err)
	}

	if _, err := s.accounts.GetByEmail(ctx, email); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrAccountNotFound
		}
		return fmt.Errorf("lookup account: %w", err)
	}

	code, err := security.GenerateResetCode()
	if err != nil {
		return fmt.Errorf("generate reset code: %w", err)
	}

	expiresAt := s.now().UTC().Add(s.codeTTL)
	request := domain.ResetRequest{
		Email:     email,
		Code:      code,
		ExpiresAt: expiresAt,
	}

	if err := s.resets.Create(ctx, request); err != nil {
		return fmt.Errorf("store reset request: %w", err)
	}

	body := fmt.Sprintf("Your password reset code is: %s. It will expire in %d minutes.", code, int(s.codeTTL.Minutes()))
	if err := s.mailer.Send(ctx, email, resetEmailSubject, body); err != nil {
		resetEmailFailures.Inc()
		s.logger.Error("reset email dispatch failed",
			zap.String("email", logger.MaskEmail(email)),
			zap.Error(err),
		)
	}

	return nil
}

// ConfirmReset validates the (email, code) pair, rotates the credential, and
// consumes the code. An expired row is left in place; it is only removed by a
// successful reset or a superseding RequestReset.
func (s *PasswordResetService) ConfirmReset(ctx context.Context, email, code, newPassword string) error {
	request, err := s.resets.GetByEmailAndCode(ctx, email, code)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrResetCodeInvalid
		}
		return fmt.Errorf("lookup reset request: %w", err)
	}

	if s.now().UTC().After(request.ExpiresAt) {
		return ErrResetCodeExpired
	}

	hash, err := security.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash new password: %w", err)
	}

	if err := s.accounts.UpdatePasswordHash(ctx, email, hash); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Account vanished while the code row survived; treat the
			// credential as dead.
			return ErrResetCodeInvalid
		}
		return fmt.Errorf("update password: %w", err)
	}

	if err := s.resets.Consume(ctx, email, code); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrResetCodeInvalid
		}
		return fmt.Errorf("consume reset request: %w", err)
	}

	return nil
}
