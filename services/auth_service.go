//go:generate go run go.uber.org/mock/mockgen -source=auth_service.go -destination=../mocks/mock_auth_service.go -package=mocks
package services

import (
	"fmt"

	"lobby-chat/auth"
	"lobby-chat/domain/chat"
	"lobby-chat/errors"
	"lobby-chat/repositories"
)

type IAuthService interface {
	Register(username, password string) (Token, error)
	Login(username, password string) (Token, error)
	Authenticate(token string) (chat.Identity, error)
}

type Token string

// AuthService is the identity resolver: it owns accounts and session
// tokens. The lobby core only ever calls Authenticate.
type AuthService struct {
	users    repositories.IUserRepository
	sessions repositories.ISessionRepository
	tokens   auth.TokenManager
}

func NewAuthService(users repositories.IUserRepository,
	sessions repositories.ISessionRepository, tokens auth.TokenManager) *AuthService {
	return &AuthService{users: users, sessions: sessions, tokens: tokens}
}

func (s *AuthService) Register(username, password string) (Token, error) {
	valReq := auth.RegisterRequest{
		Username: username,
		Password: password,
	}

	// Validate before any expensive cryptographic work.
	if err := auth.ValidateRegister(valReq); err != nil {
		return "", fmt.Errorf("%w: %v", errors.ErrInvalidPassword, err)
	}

	// Hashing stays in the service layer so the repository never sees a
	// plain password.
	hashedPassword, err := auth.HashPassword(password)
	if err != nil {
		return "", fmt.Errorf("hashing failed: %w", err)
	}

	userID, err := s.users.CreateUser(username, hashedPassword)
	if err != nil {
		return "", err // Propagates ErrUserAlreadyExists when the name is taken.
	}

	return s.issueSession(userID, username, []string{"user"})
}

func (s *AuthService) Login(username, password string) (Token, error) {
	user, err := s.users.GetUserByUsername(username)
	if err != nil {
		// Generic error to prevent user enumeration.
		return "", errors.ErrInvalidCredentials
	}

	match, err := auth.ComparePassword(password, user.PasswordHash)
	if err != nil || !match {
		return "", errors.ErrInvalidCredentials
	}

	return s.issueSession(user.ID, user.Username, user.Roles)
}

// issueSession signs a fresh token and records it as the user's only
// current session. Any previous session id is superseded, so a stale token
// can no longer establish a connection.
func (s *AuthService) issueSession(userID, name string, roles []string) (Token, error) {
	token, sessionID, err := s.tokens.Generate(userID, name, roles)
	if err != nil {
		return "", errors.ErrTokenGeneration
	}
	if _, err := s.sessions.Put(userID, sessionID); err != nil {
		return "", err
	}
	return Token(token), nil
}

// Authenticate resolves a session token to a permanent identity. Beyond
// the signature and expiry check, the token must still be the identity's
// current session: a token superseded by a newer login is rejected even
// though its signature remains valid.
func (s *AuthService) Authenticate(token string) (chat.Identity, error) {
	claims, err := s.tokens.Validate(token)
	if err != nil {
		return chat.Identity{}, fmt.Errorf("%w: %v", errors.ErrSessionUnknown, err)
	}

	current, err := s.sessions.IsCurrent(claims.UserID, claims.ID)
	if err != nil {
		return chat.Identity{}, err
	}
	if !current {
		return chat.Identity{}, errors.ErrSessionSuperseded
	}

	return chat.Identity{UserID: claims.UserID, Name: claims.Name}, nil
}
