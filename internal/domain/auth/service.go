package auth

import (
	"errors"
	"net/mail"
	"strings"
	"time"

	"aper/internal/domain/evaluation"
)

var (
	ErrInvalidIdentity = errors.New("name, email and a known role are required")
)

// Service issues tokens for self-asserted identities. No credential is
// checked.
type Service struct {
	secret string
	ttl    time.Duration
}

func NewService(secret string, ttl time.Duration) *Service {
	return &Service{secret: secret, ttl: ttl}
}

func (s *Service) Issue(name, email string, role evaluation.Role) (string, UserContext, error) {
	user := UserContext{
		Name:  strings.TrimSpace(name),
		Email: strings.ToLower(strings.TrimSpace(email)),
		Role:  evaluation.Role(strings.TrimSpace(string(role))),
	}
	if user.Name == "" || !user.Role.Valid() {
		return "", UserContext{}, ErrInvalidIdentity
	}
	if _, err := mail.ParseAddress(user.Email); err != nil {
		return "", UserContext{}, ErrInvalidIdentity
	}
	token, err := GenerateToken(s.secret, Claims{Name: user.Name, Email: user.Email, Role: user.Role}, s.ttl)
	if err != nil {
		return "", UserContext{}, err
	}
	return token, user, nil
}

func (s *Service) Parse(token string) (UserContext, error) {
	claims, err := ParseToken(s.secret, token)
	if err != nil {
		return UserContext{}, err
	}
	return UserContext{Name: claims.Name, Email: claims.Email, Role: claims.Role}, nil
}
