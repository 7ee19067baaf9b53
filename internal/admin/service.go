// Package admin authenticates the kiosk administrator. There is a
// single admin account, configured through the environment; successful
// logins are exchanged for a short-lived JWT.
package admin

import (
	"crypto/subtle"
	"log/slog"

	"github.com/veriface/punchclock/internal/domain"
)

// Service validates admin credentials and issues tokens.
type Service struct {
	username string
	password string
	jwt      *JWTService
	logger   *slog.Logger
}

// NewService creates an admin service for the configured account.
func NewService(username, password string, jwt *JWTService, logger *slog.Logger) *Service {
	return &Service{
		username: username,
		password: password,
		jwt:      jwt,
		logger:   logger,
	}
}

// Login checks the credentials and returns a signed token. The
// comparison is constant time so a wrong username and a wrong password
// are indistinguishable.
func (s *Service) Login(username, password string) (string, error) {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(s.password)) == 1
	if !userOK || !passOK {
		s.logger.Warn("admin login rejected", slog.String("username", username))
		return "", domain.ErrUnauthorized
	}

	token, err := s.jwt.GenerateToken(username)
	if err != nil {
		return "", domain.ErrInternal.WithError(err)
	}

	s.logger.Info("admin logged in", slog.String("username", username))
	return token, nil
}

// Validate parses and checks a bearer token.
func (s *Service) Validate(token string) (*Claims, error) {
	return s.jwt.ValidateToken(token)
}
