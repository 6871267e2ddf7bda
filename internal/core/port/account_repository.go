package port

import (
	"context"
	"time"

	"github.com/contalabs/accounts-api/internal/core/domain"
)

// AccountRepository exposes persistence behavior for accounts.
type AccountRepository interface {
	Create(ctx context.Context, account domain.Account) error
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	UpdateLastLogin(ctx context.Context, email string, at time.Time) error
	UpdatePasswordHash(ctx context.Context, email string, passwordHash string) error
	Delete(ctx context.Context, email string) error
}
