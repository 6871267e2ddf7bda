package port

import (
	"context"

	"github.com/contalabs/accounts-api/internal/core/domain"
)

// ResetRequestRepository exposes persistence behavior for password reset codes.
type ResetRequestRepository interface {
	Create(ctx context.Context, request domain.ResetRequest) error
	GetByEmailAndCode(ctx context.Context, email, code string) (*domain.ResetRequest, error)
	// DeleteByEmail removes every reset row for the email, both when a new
	// request supersedes old codes and when an account is deleted.
	DeleteByEmail(ctx context.Context, email string) error
	// Consume removes the exact (email, code) row after a successful reset.
	Consume(ctx context.Context, email, code string) error
}
