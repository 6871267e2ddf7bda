package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/contalabs/accounts-api/internal/infra/security"
	"github.com/contalabs/accounts-api/internal/usecase"
)

// The same body is returned whether or not the account exists.
const msgResetGeneric = "If the account exists, the code has been sent to your email."

// PasswordHandler exposes the forgot-password and reset-password endpoints.
type PasswordHandler struct {
	reset *usecase.PasswordResetService
}

// NewPasswordHandler constructs a PasswordHandler.
func NewPasswordHandler(reset *usecase.PasswordResetService) *PasswordHandler {
	return &PasswordHandler{reset: reset}
}

// RegisterRoutes binds password endpoints.
func (h *PasswordHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/forgot-password", h.Forgot)
	r.POST("/reset-password", h.Reset)
}

// Forgot initiates a password reset. The response never reveals whether the
// account exists.
func (h *PasswordHandler) Forgot(c *gin.Context) {
	var req ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: msgInvalidPayload})
		return
	}

	if req.Email == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Email is required"})
		return
	}

	if err := h.reset.RequestReset(c.Request.Context(), req.Email); err != nil {
		if errors.Is(err, usecase.ErrAccountNotFound) {
			c.JSON(http.StatusOK, SuccessResponse{Success: msgResetGeneric})
			return
		}
		RespondWithMappedError(c, err, nil, http.StatusInternalServerError, msgInternalError)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Success: msgResetGeneric})
}

// Reset completes a password reset using a previously issued code.
func (h *PasswordHandler) Reset(c *gin.Context) {
	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: msgInvalidPayload})
		return
	}

	if req.Email == "" || req.Code == "" || req.NewPassword == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Email, code and new password are required"})
		return
	}

	if !security.ValidPassword(req.NewPassword) {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: msgPasswordLength})
		return
	}

	if err := h.reset.ConfirmReset(c.Request.Context(), req.Email, req.Code, req.NewPassword); err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrResetCodeInvalid, Status: http.StatusBadRequest, Message: "Invalid or expired code"},
			{Err: usecase.ErrResetCodeExpired, Status: http.StatusBadRequest, Message: "Code has expired"},
		}, http.StatusInternalServerError, msgInternalError)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Success: "Password updated successfully"})
}
