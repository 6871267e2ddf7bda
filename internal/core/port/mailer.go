package port

import "context"

// Mailer delivers outbound transactional mail.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}
