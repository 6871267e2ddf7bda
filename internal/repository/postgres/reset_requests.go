package postgres

import (
	"context"
	"errors"
	"fmt"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/contalabs/accounts-api/internal/core/domain"
	"github.com/contalabs/accounts-api/internal/core/port"
	"github.com/contalabs/accounts-api/internal/repository"
)

// ResetRequestRepository implements port.ResetRequestRepository using PostgreSQL.
type ResetRequestRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewResetRequestRepository wires a PostgreSQL-backed reset request repository.
func NewResetRequestRepository(exec pgExecutor) *ResetRequestRepository {
	return &ResetRequestRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts a reset request row.
func (r *ResetRequestRepository) Create(ctx context.Context, request domain.ResetRequest) error {
	stmt, args, err := r.builder.
		Insert("reset_requests").
		Columns("email", "code", "expires_at").
		Values(request.Email, request.Code, request.ExpiresAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert reset request sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("insert reset request: %w", err)
	}

	return nil
}

// GetByEmailAndCode retrieves the reset request matching the exact pair.
func (r *ResetRequestRepository) GetByEmailAndCode(ctx context.Context, email, code string) (*domain.ResetRequest, error) {
	stmt, args, err := r.builder.
		Select("email", "code", "expires_at").
		From("reset_requests").
		Where(squirrel.Eq{"email": email, "code": code}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select reset request sql: %w", err)
	}

	row := r.exec.QueryRow(ctx, stmt, args...)

	var request domain.ResetRequest
	if err := row.Scan(&request.Email, &request.Code, &request.ExpiresAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan reset request: %w", err)
	}

	return &request, nil
}

// DeleteByEmail removes every reset row for the email. Deleting zero rows is
// not an error; superseding a code that never existed is a no-op.
func (r *ResetRequestRepository) DeleteByEmail(ctx context.Context, email string) error {
	stmt, args, err := r.builder.
		Delete("reset_requests").
		Where(squirrel.Eq{"email": email}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete reset requests sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("delete reset requests: %w", err)
	}

	return nil
}

// Consume removes the exact (email, code) row after a successful reset.
func (r *ResetRequestRepository) Consume(ctx context.Context, email, code string) error {
	stmt, args, err := r.builder.
		Delete("reset_requests").
		Where(squirrel.Eq{"email": email, "code": code}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build consume reset request sql: %w", err)
	}

	tag, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("consume reset request: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

var _ port.ResetRequestRepository = (*ResetRequestRepository)(nil)
