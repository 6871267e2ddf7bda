package port

import (
	"context"
	"time"

	"github.com/contalabs/accounts-api/internal/core/domain"
)

// ActivityLogRepository persists append-only activity log entries.
type ActivityLogRepository interface {
	Insert(ctx context.Context, entry domain.ActivityLogEntry) error
}

// ActivityRecorder is the fire-and-forget contract account flows use to
// record events. Implementations must never block the caller or surface
// failures to it.
type ActivityRecorder interface {
	RecordRegistration(email string, at time.Time)
	RecordLogin(email string, at time.Time)
}

// IPIntel resolves the caller's public IP and its proxy/VPN reputation via
// external services.
type IPIntel interface {
	PublicIP(ctx context.Context) (string, error)
	IsProxy(ctx context.Context, ip string) (bool, error)
}
