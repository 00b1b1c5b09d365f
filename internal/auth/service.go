package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sidechat/sidechat-server/internal/store"
)

var (
	// ErrInvalidCredentials is returned when username/password don't match.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserExists is returned when trying to register with an existing username.
	ErrUserExists = errors.New("user already exists")
	// ErrInvalidUsername is returned when a username doesn't meet constraints.
	ErrInvalidUsername = errors.New("invalid username")
	// ErrInvalidPassword is returned when a password doesn't meet constraints.
	ErrInvalidPassword = errors.New("invalid password")
)

// Service provides authentication operations. It is the only component that
// sees credentials; everything downstream works with the verified username.
type Service struct {
	store     store.UserStore
	jwtConfig *JWTConfig
}

// NewService creates a new authentication service.
func NewService(userStore store.UserStore, jwtConfig *JWTConfig) *Service {
	return &Service{
		store:     userStore,
		jwtConfig: jwtConfig,
	}
}

// validUsername rejects names that could alias a room: the public room name
// and anything containing the pair-room separator.
func validUsername(name string) bool {
	if len(name) < 3 || len(name) > 32 {
		return false
	}
	if name == store.GlobalRoom || strings.ContainsRune(name, '_') {
		return false
	}
	return true
}

// Register creates a new user with hashed password and returns a JWT token.
func (s *Service) Register(ctx context.Context, username, password string) (string, error) {
	username = strings.TrimSpace(username)
	if !validUsername(username) {
		return "", ErrInvalidUsername
	}
	if len(password) < 4 {
		return "", ErrInvalidPassword
	}

	hashedPassword, err := HashPassword(password)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	user, err := s.store.CreateUser(ctx, username, hashedPassword)
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return "", ErrUserExists
		}
		return "", fmt.Errorf("create user: %w", err)
	}

	token, err := GenerateToken(s.jwtConfig, user.Username)
	if err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}

	return token, nil
}

// Login validates credentials and returns a JWT token.
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	user, err := s.store.GetUser(ctx, strings.TrimSpace(username))
	if err != nil {
		return "", ErrInvalidCredentials
	}

	if errPwd := ComparePassword(user.PasswordHash, password); errPwd != nil {
		return "", ErrInvalidCredentials
	}

	token, err := GenerateToken(s.jwtConfig, user.Username)
	if err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}

	return token, nil
}

// UpdateProfile renames the user and/or changes their password, returning a
// fresh token minted for the (possibly new) username.
func (s *Service) UpdateProfile(ctx context.Context, username, newUsername, newPassword string) (string, error) {
	newUsername = strings.TrimSpace(newUsername)
	if newUsername == username {
		newUsername = ""
	}
	if newUsername != "" && !validUsername(newUsername) {
		return "", ErrInvalidUsername
	}

	var newHash string
	if newPassword != "" {
		if len(newPassword) < 4 {
			return "", ErrInvalidPassword
		}
		hash, err := HashPassword(newPassword)
		if err != nil {
			return "", fmt.Errorf("hash password: %w", err)
		}
		newHash = hash
	}

	user, err := s.store.UpdateUser(ctx, username, newUsername, newHash)
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return "", ErrUserExists
		}
		return "", fmt.Errorf("update user: %w", err)
	}

	token, err := GenerateToken(s.jwtConfig, user.Username)
	if err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}

	return token, nil
}

// ValidateToken validates a JWT token and returns the claims.
func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	return ValidateToken(s.jwtConfig, tokenString)
}
