package ports

import (
	"context"

	"github.com/tekvoro/web-platform/internal/core/domain"
)

type AuthService interface {
	Register(ctx context.Context, username, password string, role domain.Role) (*domain.User, error)
	Login(ctx context.Context, username, password string) (string, *domain.User, error)
}

// CredentialVerifier checks a credential pair against a known-good set and
// returns the matching user. A mismatch is reported as
// domain.ErrInvalidCredentials.
type CredentialVerifier interface {
	Verify(ctx context.Context, username, password string) (*domain.User, error)
}
