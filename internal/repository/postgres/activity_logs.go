package postgres

import (
	"context"
	"fmt"

	squirrel "github.com/Masterminds/squirrel"

	"github.com/contalabs/accounts-api/internal/core/domain"
	"github.com/contalabs/accounts-api/internal/core/port"
)

// ActivityLogRepository implements port.ActivityLogRepository using PostgreSQL.
// Register and login events land in separate tables; the timestamp column is
// created_at in one and login_at in the other.
type ActivityLogRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewActivityLogRepository wires a PostgreSQL-backed activity log repository.
func NewActivityLogRepository(exec pgExecutor) *ActivityLogRepository {
	return &ActivityLogRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Insert appends an activity log entry to the table matching its kind.
func (r *ActivityLogRepository) Insert(ctx context.Context, entry domain.ActivityLogEntry) error {
	table, column, err := targetFor(entry.Kind)
	if err != nil {
		return err
	}

	stmt, args, err := r.builder.
		Insert(table).
		Columns("id", "email", "ip", column, "proxy").
		Values(entry.ID, entry.Email, entry.IP, entry.At, entry.Proxy).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert activity log sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("insert activity log: %w", err)
	}

	return nil
}

func targetFor(kind domain.ActivityKind) (table string, timestampColumn string, err error) {
	switch kind {
	case domain.ActivityRegister:
		return "logs_register", "created_at", nil
	case domain.ActivityLogin:
		return "logs_login", "login_at", nil
	default:
		return "", "", fmt.Errorf("unknown activity kind %q", kind)
	}
}

var _ port.ActivityLogRepository = (*ActivityLogRepository)(nil)
