package app

import (
	"context"
	"errors"

	"formrank-service/internal/auth"
	"formrank-service/internal/domain"
)

// AdminStore resolves administrator accounts.
type AdminStore interface {
	FindAdminByEmail(ctx context.Context, email string) (domain.Administrator, error)
}

// AuthService authenticates administrators and issues bearer tokens. The
// public submission path never goes through it.
type AuthService struct {
	admins AdminStore
	tokens *auth.Manager
}

func NewAuthService(admins AdminStore, tokens *auth.Manager) *AuthService {
	return &AuthService{admins: admins, tokens: tokens}
}

// Login verifies the credentials and returns a signed token plus the admin
// identity. All failure modes collapse into ErrInvalidCredentials so the
// response does not leak which part was wrong.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, domain.Administrator, error) {
	admin, err := s.admins.FindAdminByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrAdminNotFound) {
			return "", domain.Administrator{}, domain.ErrInvalidCredentials
		}
		return "", domain.Administrator{}, err
	}
	if !admin.Active || !auth.CheckPassword(admin.PasswordHash, password) {
		return "", domain.Administrator{}, domain.ErrInvalidCredentials
	}
	token, err := s.tokens.Issue(admin)
	if err != nil {
		return "", domain.Administrator{}, err
	}
	return token, admin, nil
}
