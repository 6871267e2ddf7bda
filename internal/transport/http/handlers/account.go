package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/contalabs/accounts-api/internal/infra/security"
	"github.com/contalabs/accounts-api/internal/usecase"
)

const (
	msgPasswordLength  = "Password must be between 6 and 20 characters"
	msgInvalidEmail    = "Invalid email format"
	msgPasswordMatch   = "Password and confirm password must match"
	msgInternalError   = "An error occurred"
	msgInvalidPayload  = "Invalid request payload"
	msgCredentialsBody = "Invalid email or password"
)

// AccountHandler exposes the registration, login, and deletion endpoints.
type AccountHandler struct {
	accounts *usecase.AccountService
}

// NewAccountHandler constructs an AccountHandler.
func NewAccountHandler(accounts *usecase.AccountService) *AccountHandler {
	return &AccountHandler{accounts: accounts}
}

// RegisterRoutes binds account endpoints.
func (h *AccountHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/register", h.Register)
	r.POST("/login", h.Login)
	r.DELETE("/delete-account", h.Delete)
}

// Register creates an account after presence, length, format, and match
// checks, in that order.
func (h *AccountHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: msgInvalidPayload})
		return
	}

	if req.Email == "" || req.Password == "" || req.ConfirmPassword == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Email, password and confirm password are required"})
		return
	}

	if !security.ValidPassword(req.Password) || !security.ValidPassword(req.ConfirmPassword) {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: msgPasswordLength})
		return
	}

	if !security.ValidEmail(req.Email) {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: msgInvalidEmail})
		return
	}

	if req.Password != req.ConfirmPassword {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: msgPasswordMatch})
		return
	}

	if err := h.accounts.Register(c.Request.Context(), req.Email, req.Password); err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrAccountExists, Status: http.StatusBadRequest, Message: "Account already exists"},
		}, http.StatusInternalServerError, msgInternalError)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Success: "Account created"})
}

// Login authenticates the credential pair. Unknown email and wrong password
// produce byte-identical responses.
func (h *AccountHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: msgInvalidPayload})
		return
	}

	if req.Email == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Email and password are required"})
		return
	}

	if !security.ValidPassword(req.Password) {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: msgPasswordLength})
		return
	}

	if !security.ValidEmail(req.Email) {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: msgInvalidEmail})
		return
	}

	if err := h.accounts.Authenticate(c.Request.Context(), req.Email, req.Password); err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrInvalidCredentials, Status: http.StatusUnauthorized, Message: msgCredentialsBody},
		}, http.StatusInternalServerError, msgInternalError)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Success: "Login successful"})
}

// Delete removes an account and its reset requests after password
// verification.
func (h *AccountHandler) Delete(c *gin.Context) {
	var req DeleteAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: msgInvalidPayload})
		return
	}

	if req.Email == "" || req.Password == "" || req.ConfirmPassword == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Email, password and confirm password are required"})
		return
	}

	if !security.ValidPassword(req.Password) || !security.ValidPassword(req.ConfirmPassword) {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: msgPasswordLength})
		return
	}

	if !security.ValidEmail(req.Email) {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: msgInvalidEmail})
		return
	}

	if req.Password != req.ConfirmPassword {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: msgPasswordMatch})
		return
	}

	if err := h.accounts.Delete(c.Request.Context(), req.Email, req.Password); err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrAccountNotFound, Status: http.StatusNotFound, Message: "Account not found"},
			{Err: usecase.ErrInvalidPassword, Status: http.StatusUnauthorized, Message: "Invalid password"},
		}, http.StatusInternalServerError, msgInternalError)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Success: "Account deleted successfully"})
}
