package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/contalabs/accounts-api/internal/core/domain"
	"github.com/contalabs/accounts-api/internal/repository"
	"github.com/contalabs/accounts-api/internal/usecase"
)

type memAccountRepo struct {
	mu       sync.Mutex
	accounts map[string]domain.Account
}

func newMemAccountRepo() *memAccountRepo {
	return &memAccountRepo{accounts: make(map[string]domain.Account)}
}

func (r *memAccountRepo) Create(_ context.Context, account domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.accounts[account.Email]; ok {
		return repository.ErrDuplicate
	}
	r.accounts[account.Email] = account
	return nil
}

func (r *memAccountRepo) GetByEmail(_ context.Context, email string) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	account, ok := r.accounts[email]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &account, nil
}

func (r *memAccountRepo) UpdateLastLogin(_ context.Context, email string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	account, ok := r.accounts[email]
	if !ok {
		return repository.ErrNotFound
	}
	account.LastLogin = &at
	r.accounts[email] = account
	return nil
}

func (r *memAccountRepo) UpdatePasswordHash(_ context.Context, email, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	account, ok := r.accounts[email]
	if !ok {
		return repository.ErrNotFound
	}
	account.PasswordHash = passwordHash
	r.accounts[email] = account
	return nil
}

func (r *memAccountRepo) Delete(_ context.Context, email string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.accounts[email]; !ok {
		return repository.ErrNotFound
	}
	delete(r.accounts, email)
	return nil
}

type memResetRepo struct {
	mu   sync.Mutex
	rows map[string]domain.ResetRequest
}

func newMemResetRepo() *memResetRepo {
	return &memResetRepo{rows: make(map[string]domain.ResetRequest)}
}

func (r *memResetRepo) key(email, code string) string { return email + "|" + code }

func (r *memResetRepo) Create(_ context.Context, request domain.ResetRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[r.key(request.Email, request.Code)] = request
	return nil
}

func (r *memResetRepo) GetByEmailAndCode(_ context.Context, email, code string) (*domain.ResetRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	request, ok := r.rows[r.key(email, code)]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &request, nil
}

func (r *memResetRepo) DeleteByEmail(_ context.Context, email string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for key, row := range r.rows {
		if row.Email == email {
			delete(r.rows, key)
		}
	}
	return nil
}

func (r *memResetRepo) Consume(_ context.Context, email, code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := r.key(email, code)
	if _, ok := r.rows[key]; !ok {
		return repository.ErrNotFound
	}
	delete(r.rows, key)
	return nil
}

type memMailer struct {
	mu     sync.Mutex
	bodies []string
}

func (m *memMailer) Send(_ context.Context, _, _, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bodies = append(m.bodies, body)
	return nil
}

func newAccountRouter(accounts *memAccountRepo, resets *memResetRepo) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	svc := usecase.NewAccountService(accounts, resets, nil, nil)
	NewAccountHandler(svc).RegisterRoutes(r.Group("/"))
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestRegisterValidationOrder(t *testing.T) {
	r := newAccountRouter(newMemAccountRepo(), newMemResetRepo())

	cases := []struct {
		name string
		body string
		want string
	}{
		{
			name: "missing fields",
			body: `{"Email":"user@example.com"}`,
			want: `{"error":"Email, password and confirm password are required"}`,
		},
		{
			name: "short password reported before bad email",
			body: `{"Email":"not-an-email","Password":"123","ConfirmPassword":"123"}`,
			want: `{"error":"Password must be between 6 and 20 characters"}`,
		},
		{
			name: "long password",
			body: `{"Email":"user@example.com","Password":"123456789012345678901","ConfirmPassword":"123456789012345678901"}`,
			want: `{"error":"Password must be between 6 and 20 characters"}`,
		},
		{
			name: "bad email reported before mismatch",
			body: `{"Email":"not-an-email","Password":"secret1","ConfirmPassword":"secret2"}`,
			want: `{"error":"Invalid email format"}`,
		},
		{
			name: "password mismatch",
			body: `{"Email":"user@example.com","Password":"secret1","ConfirmPassword":"secret2"}`,
			want: `{"error":"Password and confirm password must match"}`,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doJSON(t, r, http.MethodPost, "/register", tc.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
			if got := strings.TrimSpace(rec.Body.String()); got != tc.want {
				t.Fatalf("body = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestRegisterSuccessAndDuplicate(t *testing.T) {
	r := newAccountRouter(newMemAccountRepo(), newMemResetRepo())
	body := `{"Email":"user@example.com","Password":"secret1","ConfirmPassword":"secret1"}`

	rec := doJSON(t, r, http.MethodPost, "/register", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", rec.Code, rec.Body.String())
	}
	if got := strings.TrimSpace(rec.Body.String()); got != `{"success":"Account created"}` {
		t.Fatalf("body = %s", got)
	}

	rec = doJSON(t, r, http.MethodPost, "/register", body)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("duplicate status = %d, want 400", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != `{"error":"Account already exists"}` {
		t.Fatalf("duplicate body = %s", got)
	}
}

func TestLoginFailureBodiesAreIdentical(t *testing.T) {
	accounts := newMemAccountRepo()
	r := newAccountRouter(accounts, newMemResetRepo())

	rec := doJSON(t, r, http.MethodPost, "/register", `{"Email":"user@example.com","Password":"secret1","ConfirmPassword":"secret1"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("register status = %d", rec.Code)
	}

	unknown := doJSON(t, r, http.MethodPost, "/login", `{"Email":"ghost@example.com","Password":"secret1"}`)
	wrongPass := doJSON(t, r, http.MethodPost, "/login", `{"Email":"user@example.com","Password":"secret2"}`)

	if unknown.Code != http.StatusUnauthorized || wrongPass.Code != http.StatusUnauthorized {
		t.Fatalf("statuses = %d, %d, want 401, 401", unknown.Code, wrongPass.Code)
	}
	if unknown.Body.String() != wrongPass.Body.String() {
		t.Fatalf("failure bodies differ: %s vs %s", unknown.Body.String(), wrongPass.Body.String())
	}
	if got := strings.TrimSpace(unknown.Body.String()); got != `{"error":"Invalid email or password"}` {
		t.Fatalf("body = %s", got)
	}
}

func TestLoginSuccess(t *testing.T) {
	r := newAccountRouter(newMemAccountRepo(), newMemResetRepo())

	doJSON(t, r, http.MethodPost, "/register", `{"Email":"user@example.com","Password":"secret1","ConfirmPassword":"secret1"}`)

	rec := doJSON(t, r, http.MethodPost, "/login", `{"Email":"user@example.com","Password":"secret1"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", rec.Code, rec.Body.String())
	}
	if got := strings.TrimSpace(rec.Body.String()); got != `{"success":"Login successful"}` {
		t.Fatalf("body = %s", got)
	}
}

func TestLoginMalformedBody(t *testing.T) {
	r := newAccountRouter(newMemAccountRepo(), newMemResetRepo())

	rec := doJSON(t, r, http.MethodPost, "/login", `{"Email":`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != `{"error":"Invalid request payload"}` {
		t.Fatalf("body = %s", got)
	}
}

func TestDeleteAccount(t *testing.T) {
	accounts := newMemAccountRepo()
	r := newAccountRouter(accounts, newMemResetRepo())

	doJSON(t, r, http.MethodPost, "/register", `{"Email":"user@example.com","Password":"secret1","ConfirmPassword":"secret1"}`)

	rec := doJSON(t, r, http.MethodDelete, "/delete-account", `{"Email":"user@example.com","Password":"secret2","ConfirmPassword":"secret2"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("wrong password status = %d, want 401", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != `{"error":"Invalid password"}` {
		t.Fatalf("wrong password body = %s", got)
	}

	rec = doJSON(t, r, http.MethodDelete, "/delete-account", `{"Email":"user@example.com","Password":"secret1","ConfirmPassword":"secret1"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", rec.Code, rec.Body.String())
	}
	if got := strings.TrimSpace(rec.Body.String()); got != `{"success":"Account deleted successfully"}` {
		t.Fatalf("body = %s", got)
	}

	rec = doJSON(t, r, http.MethodPost, "/login", `{"Email":"user@example.com","Password":"secret1"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("login after delete status = %d, want 401", rec.Code)
	}
}

func TestDeleteUnknownAccount(t *testing.T) {
	r := newAccountRouter(newMemAccountRepo(), newMemResetRepo())

	rec := doJSON(t, r, http.MethodDelete, "/delete-account", `{"Email":"ghost@example.com","Password":"secret1","ConfirmPassword":"secret1"}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != `{"error":"Account not found"}` {
		t.Fatalf("body = %s", got)
	}
}
