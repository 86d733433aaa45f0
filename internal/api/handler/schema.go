package handler

import (
	"time"

	"github.com/tekvoro/web-platform/internal/core/domain"
)

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

// --- Auth ---

type registerRequest struct {
	Username string `json:"username" validate:"required,min=3,max=64"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Role     string `json:"role"     validate:"required,oneof=admin client subscriber"`
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type authResponse struct {
	Token string       `json:"token,omitempty"`
	User  *domain.User `json:"user,omitempty"`
}

// --- Analytics ---

type trackEventRequest struct {
	Type      string         `json:"type"      validate:"required,max=64,eventtype"`
	Path      string         `json:"path"      validate:"max=2048"`
	Referrer  string         `json:"referrer"  validate:"max=2048"`
	UserAgent string         `json:"userAgent" validate:"max=512"`
	SessionID string         `json:"sessionId" validate:"required,max=128"`
	Timestamp *time.Time     `json:"timestamp"`
	Metadata  map[string]any `json:"metadata"`
}

type acceptedResponse struct {
	Message string `json:"message"`
}
