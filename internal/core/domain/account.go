package domain

import "time"

// Account mirrors the persisted representation in the accounts table.
// Email is the primary identifier and is matched case-sensitively as given.
type Account struct {
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	LastLogin    *time.Time
}

// ResetRequest is a short-lived password reset credential. At most one live
// request per email is intended; a new forgot-password call supersedes any
// prior rows and a successful reset consumes the row.
type ResetRequest struct {
	Email     string
	Code      string
	ExpiresAt time.Time
}

// ActivityKind selects the log table an entry is written to.
type ActivityKind string

const (
	ActivityRegister ActivityKind = "register"
	ActivityLogin    ActivityKind = "login"
)

// ActivityLogEntry is an append-only record of a register or login event
// enriched with the caller's public IP and a proxy-detection flag. Entries
// are write-only; nothing in this service reads them back.
type ActivityLogEntry struct {
	ID    string
	Kind  ActivityKind
	Email string
	IP    string
	At    time.Time
	Proxy bool
}
