package handlers

// Body field names are capitalized on the wire; existing clients send them
// that way.

// ErrorResponse is the uniform error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}

// SuccessResponse is the uniform success envelope.
type SuccessResponse struct {
	Success string `json:"success"`
}

// RegisterRequest defines the account registration payload.
type RegisterRequest struct {
	Email           string `json:"Email"`
	Password        string `json:"Password"`
	ConfirmPassword string `json:"ConfirmPassword"`
}

// LoginRequest defines the login payload.
type LoginRequest struct {
	Email    string `json:"Email"`
	Password string `json:"Password"`
}

// ForgotPasswordRequest defines the reset initiation payload.
type ForgotPasswordRequest struct {
	Email string `json:"Email"`
}

// ResetPasswordRequest defines the reset completion payload.
type ResetPasswordRequest struct {
	Email       string `json:"Email"`
	Code        string `json:"Code"`
	NewPassword string `json:"NewPassword"`
}

// DeleteAccountRequest defines the account deletion payload.
type DeleteAccountRequest struct {
	Email           string `json:"Email"`
	Password        string `json:"Password"`
	ConfirmPassword string `json:"ConfirmPassword"`
}
