package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/DaveMcBlame1/chatroom/internal/auth"
)

// AuthHandlers serves account registration and login.
type AuthHandlers struct {
	authService *auth.Service
	log         *zerolog.Logger
}

// NewAuthHandlers creates auth handlers backed by authService.
func NewAuthHandlers(authService *auth.Service, logger *zerolog.Logger) *AuthHandlers {
	return &AuthHandlers{authService: authService, log: logger}
}

// CredentialsRequest is the body of both register and login.
type CredentialsRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AuthResponse carries a token for the WebSocket gateway and the REST API.
type AuthResponse struct {
	Token     string `json:"token"`
	Username  string `json:"username"`
	ExpiresAt string `json:"expires_at"`
}

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// authErrors maps service errors to client-facing status and text.
var authErrors = []struct {
	err    error
	status int
	msg    string
}{
	{auth.ErrUserExists, http.StatusConflict, "user already exists"},
	{auth.ErrInvalidUsername, http.StatusBadRequest, "username must be 3-32 characters without spaces"},
	{auth.ErrInvalidPassword, http.StatusBadRequest, "password must be 6-72 characters"},
	{auth.ErrInvalidCredentials, http.StatusUnauthorized, "invalid credentials"},
}

// Register handles POST /api/register.
func (h *AuthHandlers) Register(c *gin.Context) {
	h.authenticate(c, "register", http.StatusCreated, h.authService.Register)
}

// Login handles POST /api/login.
func (h *AuthHandlers) Login(c *gin.Context) {
	h.authenticate(c, "login", http.StatusOK, h.authService.Login)
}

func (h *AuthHandlers) authenticate(
	c *gin.Context,
	op string,
	okStatus int,
	fn func(ctx context.Context, username, password string) (auth.Session, error),
) {
	var req CredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Str("op", op).Msg("invalid credentials body")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	session, err := fn(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		for _, known := range authErrors {
			if errors.Is(err, known.err) {
				h.log.Debug().Err(err).Str("op", op).Str("username", req.Username).Msg("auth rejected")
				c.JSON(known.status, ErrorResponse{Error: known.msg})
				return
			}
		}
		h.log.Error().Err(err).Str("op", op).Str("username", req.Username).Msg("auth failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	h.log.Info().Str("op", op).Str("username", session.Username).Msg("issued token")
	c.JSON(okStatus, AuthResponse{
		Token:     session.Token,
		Username:  session.Username,
		ExpiresAt: session.ExpiresAt.UTC().Format(time.RFC3339),
	})
}
