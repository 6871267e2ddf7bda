package usecase

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/contalabs/accounts-api/internal/core/domain"
	"github.com/contalabs/accounts-api/internal/infra/security"
)

type fakeMailer struct {
	mu       sync.Mutex
	sent     []sentMail
	sendErr  error
	sendFunc func(to, subject, body string) error
}

type sentMail struct {
	to      string
	subject string
	body    string
}

func (m *fakeMailer) Send(_ context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.sendFunc != nil {
		if err := m.sendFunc(to, subject, body); err != nil {
			return err
		}
	}
	if m.sendErr != nil {
		return m.sendErr
	}
	m.sent = append(m.sent, sentMail{to: to, subject: subject, body: body})
	return nil
}

var codeInBody = regexp.MustCompile(`[0-9a-f]{8}`)

func TestRequestResetStoresCodeAndSendsEmail(t *testing.T) {
	accounts := newFakeAccountRepo()
	accounts.accounts["user@example.com"] = domain.Account{Email: "user@example.com"}

	resets := newFakeResetRepo()
	resets.rows[resetKey("user@example.com", "11111111")] = domain.ResetRequest{Email: "user@example.com", Code: "11111111"}

	mailer := &fakeMailer{}
	fixed := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	svc := NewPasswordResetService(accounts, resets, mailer, zaptest.NewLogger(t)).
		WithClock(func() time.Time { return fixed })

	if err := svc.RequestReset(context.Background(), "user@example.com"); err != nil {
		t.Fatalf("RequestReset returned error: %v", err)
	}

	if len(mailer.sent) != 1 {
		t.Fatalf("sent %d emails, want 1", len(mailer.sent))
	}
	mail := mailer.sent[0]
	if mail.to != "user@example.com" {
		t.Fatalf("mail to = %q, want user@example.com", mail.to)
	}
	code := codeInBody.FindString(mail.body)
	if code == "" {
		t.Fatalf("mail body %q does not contain a reset code", mail.body)
	}

	row, err := resets.GetByEmailAndCode(context.Background(), "user@example.com", code)
	if err != nil {
		t.Fatalf("mailed code not found in store: %v", err)
	}
	want := fixed.Add(security.ResetCodeTTL)
	if !row.ExpiresAt.Equal(want) {
		t.Fatalf("expires_at = %v, want %v", row.ExpiresAt, want)
	}

	// The earlier code must have been superseded.
	if _, err := resets.GetByEmailAndCode(context.Background(), "user@example.com", "11111111"); err == nil {
		t.Fatal("prior reset code still usable after a new request")
	}
}

func TestRequestResetUnknownAccount(t *testing.T) {
	resets := newFakeResetRepo()
	resets.rows[resetKey("ghost@example.com", "11111111")] = domain.ResetRequest{Email: "ghost@example.com", Code: "11111111"}
	mailer := &fakeMailer{}

	svc := NewPasswordResetService(newFakeAccountRepo(), resets, mailer, zaptest.NewLogger(t))

	err := svc.RequestReset(context.Background(), "ghost@example.com")
	if !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("err = %v, want ErrAccountNotFound", err)
	}
	if len(mailer.sent) != 0 {
		t.Fatal("email sent for an account that does not exist")
	}
	if resets.count() != 0 {
		t.Fatal("stale reset rows not invalidated for unknown account")
	}
}

func TestRequestResetMailFailureStillSucceeds(t *testing.T) {
	accounts := newFakeAccountRepo()
	accounts.accounts["user@example.com"] = domain.Account{Email: "user@example.com"}

	resets := newFakeResetRepo()
	mailer := &fakeMailer{sendErr: errors.New("smtp: connection reset")}

	svc := NewPasswordResetService(accounts, resets, mailer, zaptest.NewLogger(t))

	if err := svc.RequestReset(context.Background(), "user@example.com"); err != nil {
		t.Fatalf("RequestReset returned error despite mail failure: %v", err)
	}
	if resets.count() != 1 {
		t.Fatalf("stored %d reset rows, want 1", resets.count())
	}
}

func TestConfirmResetRotatesPasswordAndConsumesCode(t *testing.T) {
	accounts := newFakeAccountRepo()
	oldHash, err := security.HashPassword("old-secret")
	if err != nil {
		t.Fatalf("HashPassword returned error: %v", err)
	}
	accounts.accounts["user@example.com"] = domain.Account{Email: "user@example.com", PasswordHash: oldHash}

	resets := newFakeResetRepo()
	fixed := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	resets.rows[resetKey("user@example.com", "abcd1234")] = domain.ResetRequest{
		Email:     "user@example.com",
		Code:      "abcd1234",
		ExpiresAt: fixed.Add(5 * time.Minute),
	}

	svc := NewPasswordResetService(accounts, resets, &fakeMailer{}, zaptest.NewLogger(t)).
		WithClock(func() time.Time { return fixed })

	if err := svc.ConfirmReset(context.Background(), "user@example.com", "abcd1234", "new-secret"); err != nil {
		t.Fatalf("ConfirmReset returned error: %v", err)
	}

	stored := accounts.accounts["user@example.com"]
	if !security.CheckPassword(stored.PasswordHash, "new-secret") {
		t.Fatal("new password does not verify after reset")
	}
	if security.CheckPassword(stored.PasswordHash, "old-secret") {
		t.Fatal("old password still verifies after reset")
	}

	// A consumed code must not work a second time.
	err = svc.ConfirmReset(context.Background(), "user@example.com", "abcd1234", "another-pass")
	if !errors.Is(err, ErrResetCodeInvalid) {
		t.Fatalf("second confirm err = %v, want ErrResetCodeInvalid", err)
	}
}

func TestConfirmResetExpiredCode(t *testing.T) {
	accounts := newFakeAccountRepo()
	oldHash, err := security.HashPassword("old-secret")
	if err != nil {
		t.Fatalf("HashPassword returned error: %v", err)
	}
	accounts.accounts["user@example.com"] = domain.Account{Email: "user@example.com", PasswordHash: oldHash}

	resets := newFakeResetRepo()
	fixed := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	resets.rows[resetKey("user@example.com", "abcd1234")] = domain.ResetRequest{
		Email:     "user@example.com",
		Code:      "abcd1234",
		ExpiresAt: fixed.Add(-1 * time.Second),
	}

	svc := NewPasswordResetService(accounts, resets, &fakeMailer{}, zaptest.NewLogger(t)).
		WithClock(func() time.Time { return fixed })

	err = svc.ConfirmReset(context.Background(), "user@example.com", "abcd1234", "new-secret")
	if !errors.Is(err, ErrResetCodeExpired) {
		t.Fatalf("err = %v, want ErrResetCodeExpired", err)
	}

	stored := accounts.accounts["user@example.com"]
	if !security.CheckPassword(stored.PasswordHash, "old-secret") {
		t.Fatal("password changed despite expired code")
	}
	// The expired row stays until superseded or successfully used.
	if resets.count() != 1 {
		t.Fatal("expired row removed on rejection")
	}
}

func TestConfirmResetUnknownCode(t *testing.T) {
	svc := NewPasswordResetService(newFakeAccountRepo(), newFakeResetRepo(), &fakeMailer{}, nil)

	err := svc.ConfirmReset(context.Background(), "user@example.com", "abcd1234", "new-secret")
	if !errors.Is(err, ErrResetCodeInvalid) {
		t.Fatalf("err = %v, want ErrResetCodeInvalid", err)
	}
}

func TestConfirmResetAccountMissing(t *testing.T) {
	resets := newFakeResetRepo()
	fixed := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	resets.rows[resetKey("user@example.com", "abcd1234")] = domain.ResetRequest{
		Email:     "user@example.com",
		Code:      "abcd1234",
		ExpiresAt: fixed.Add(5 * time.Minute),
	}

	svc := NewPasswordResetService(newFakeAccountRepo(), resets, &fakeMailer{}, zaptest.NewLogger(t)).
		WithClock(func() time.Time { return fixed })

	err := svc.ConfirmReset(context.Background(), "user@example.com", "abcd1234", "new-secret")
	if !errors.Is(err, ErrResetCodeInvalid) {
		t.Fatalf("err = %v, want ErrResetCodeInvalid", err)
	}
}

func TestResetEmailBodyMentionsExpiry(t *testing.T) {
	accounts := newFakeAccountRepo()
	accounts.accounts["user@example.com"] = domain.Account{Email: "user@example.com"}
	mailer := &fakeMailer{}

	svc := NewPasswordResetService(accounts, newFakeResetRepo(), mailer, zaptest.NewLogger(t)).
		WithCodeTTL(30 * time.Minute)

	if err := svc.RequestReset(context.Background(), "user@example.com"); err != nil {
		t.Fatalf("RequestReset returned error: %v", err)
	}
	if len(mailer.sent) != 1 {
		t.Fatalf("sent %d emails, want 1", len(mailer.sent))
	}
	if !strings.Contains(mailer.sent[0].body, "30 minutes") {
		t.Fatalf("mail body %q does not mention the 30 minute expiry", mailer.sent[0].body)
	}
}
