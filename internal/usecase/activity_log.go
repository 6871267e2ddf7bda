package usecase

import (
	"context"
	"sync"
	"time"

	uuid "github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/contalabs/accounts-api/internal/core/domain"
	"github.com/contalabs/accounts-api/internal/core/port"
	"github.com/contalabs/accounts-api/internal/infra/logger"
)

const defaultRecordTimeout = 10 * time.Second

// ActivityLogService records register/login events enriched with the caller's
// public IP and a proxy verdict. Recording is best-effort and fully detached
// from the request path: each record runs on its own goroutine with a bounded
// context, and every failure is swallowed after a diagnostic log line.
type ActivityLogService struct {
	logs    port.ActivityLogRepository
	intel   port.IPIntel
	logger  *zap.Logger
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewActivityLogService constructs an ActivityLogService.
func NewActivityLogService(logs port.ActivityLogRepository, intel port.IPIntel, log *zap.Logger) *ActivityLogService {
	if log == nil {
		log = zap.NewNop()
	}

	return &ActivityLogService{
		logs:    logs,
		intel:   intel,
		logger:  log,
		timeout: defaultRecordTimeout,
	}
}

// RecordRegistration logs a successful registration without blocking the caller.
func (s *ActivityLogService) RecordRegistration(email string, at time.Time) {
	s.dispatch(domain.ActivityRegister, email, at)
}

// RecordLogin logs a successful login without blocking the caller.
func (s *ActivityLogService) RecordLogin(email string, at time.Time) {
	s.dispatch(domain.ActivityLogin, email, at)
}

// Flush blocks until all in-flight records have completed. Called on
// shutdown and by tests.
func (s *ActivityLogService) Flush() {
	s.wg.Wait()
}

func (s *ActivityLogService) dispatch(kind domain.ActivityKind, email string, at time.Time) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()

		s.record(ctx, kind, email, at)
	}()
}

func (s *ActivityLogService) record(ctx context.Context, kind domain.ActivityKind, email string, at time.Time) {
	ip, err := s.intel.PublicIP(ctx)
	if err != nil {
		s.logger.Warn("activity log skipped: ip lookup failed",
			zap.String("kind", string(kind)),
			zap.String("email", logger.MaskEmail(email)),
			zap.Error(err),
		)
		return
	}

	proxy, err := s.intel.IsProxy(ctx, ip)
	if err != nil {
		s.logger.Warn("activity log skipped: proxy check failed",
			zap.String("kind", string(kind)),
			zap.String("ip", logger.MaskIP(ip)),
			zap.Error(err),
		)
		return
	}

	entry := domain.ActivityLogEntry{
		ID:    uuid.NewString(),
		Kind:  kind,
		Email: email,
		IP:    ip,
		At:    at,
		Proxy: proxy,
	}

	if err := s.logs.Insert(ctx, entry); err != nil {
		s.logger.Warn("activity log insert failed",
			zap.String("kind", string(kind)),
			zap.String("email", logger.MaskEmail(email)),
			zap.Error(err),
		)
	}
}

var _ port.ActivityRecorder = (*ActivityLogService)(nil)
