package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spinozarabel/headstart-admission/internal/auth"
	apperrors "github.com/spinozarabel/headstart-admission/pkg/errorutil"
)

// AuthHandler issues operator tokens for the admin endpoints.
type AuthHandler struct {
	tokens       *auth.TokenManager
	passwordHash string
}

// NewAuthHandler returns a new handler instance.
func NewAuthHandler(tokens *auth.TokenManager, operatorPasswordHash string) *AuthHandler {
	return &AuthHandler{tokens: tokens, passwordHash: operatorPasswordHash}
}

type loginRequest struct {
	Password string `json:"password"`
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}
	if req.Password == "" {
		return apperrors.NewValidationError("password is required", nil)
	}
	if h.passwordHash == "" {
		return apperrors.NewUnauthorized("operator login is not configured")
	}
	if err := auth.VerifyPassword(h.passwordHash, req.Password); err != nil {
		return apperrors.NewUnauthorized("invalid credentials")
	}

	token, expiresAt, err := h.tokens.GenerateToken()
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	return c.JSON(fiber.Map{
		"access_token": token,
		"token_type":   "Bearer",
		"expires_at":   expiresAt,
	})
}
