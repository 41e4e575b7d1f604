package services

import (
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"time"

	"library-catalog/internal/models"
	"library-catalog/internal/store"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

type AuthService struct {
	accounts      *store.AccountStore
	sessions      *SessionStore
	secretKey     []byte
	hashPasswords bool
	logger        zerolog.Logger
	now           func() time.Time
}

// Claims carry no expiry: a token is valid for as long as its session is
// held in memory.
type Claims struct {
	jwt.RegisteredClaims
}

func NewAuthService(accounts *store.AccountStore, sessions *SessionStore, secret string, hashPasswords bool, logger zerolog.Logger) *AuthService {
	secretKey := []byte(secret)
	if secret == "" {
		secretKey = make([]byte, 32)
		if _, err := rand.Read(secretKey); err != nil {
			panic(fmt.Sprintf("failed to generate token secret: %v", err))
		}
		logger.Warn().Msg("TOKEN_SECRET not set, using a random per-process key")
	}

	return &AuthService{
		accounts:      accounts,
		sessions:      sessions,
		secretKey:     secretKey,
		hashPasswords: hashPasswords,
		logger:        logger,
		now:           time.Now,
	}
}

// Login issues a new session. Unknown usernames and wrong passwords both
// return ErrUnauthenticated.
func (s *AuthService) Login(username, password string) (*models.Session, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, models.ErrUnauthenticated
	}

	account, err := s.accounts.Find(username)
	if errors.Is(err, models.ErrNotFound) {
		s.logger.Warn().Str("username", username).Msg("Failed authentication attempt")
		return nil, models.ErrUnauthenticated
	}
	if err != nil {
		return nil, err
	}
	if !s.passwordMatches(account.Password, password) {
		s.logger.Warn().Str("username", username).Msg("Failed authentication attempt")
		return nil, models.ErrUnauthenticated
	}

	token, err := s.GenerateToken(account.Username)
	if err != nil {
		return nil, err
	}
	session := models.Session{
		Token:    token,
		User:     account.Public(),
		IssuedAt: s.now(),
	}
	s.sessions.Put(session)

	s.logger.Info().Str("username", account.Username).Msg("User logged in")
	return &session, nil
}

func (s *AuthService) GenerateToken(username string) (string, error) {
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  username,
			ID:       uuid.NewString(),
			IssuedAt: jwt.NewNumericDate(s.now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.secretKey)
	if err != nil {
		s.logger.Error().Err(err).Msg("Error generating token")
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}

// Verify returns the live session for token, or nil. It has no side effects.
func (s *AuthService) Verify(token string) *models.Session {
	if token == "" {
		return nil
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid {
		return nil
	}

	session, ok := s.sessions.Get(token)
	if !ok || session.User.Username != claims.Subject {
		return nil
	}
	return &session
}

func (s *AuthService) Logout(token string) {
	if token == "" {
		return
	}
	if s.sessions.Delete(token) {
		s.logger.Info().Msg("Session revoked")
	}
}

func (s *AuthService) Register(req models.RegisterRequest) (*models.PublicUser, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" || req.Password == "" {
		return nil, models.NewValidationError("username", "username and password are required")
	}

	password, err := s.storedPassword(req.Password)
	if err != nil {
		return nil, err
	}
	account, err := s.accounts.Add(models.Account{
		Username:    username,
		Password:    password,
		DisplayName: strings.TrimSpace(req.DisplayName),
		Role:        string(models.RoleUser),
	})
	if err != nil {
		return nil, err
	}

	user := account.Public()
	return &user, nil
}

func (s *AuthService) ListUsers() ([]models.PublicUser, error) {
	return s.accounts.List()
}

// UpdateUser applies an admin patch and refreshes every live session of the
// account so the new display name and role are visible without re-login.
func (s *AuthService) UpdateUser(actor models.PublicUser, username string, changes models.AccountChanges) (*models.PublicUser, error) {
	if changes.Password != nil && *changes.Password != "" {
		hashed, err := s.storedPassword(*changes.Password)
		if err != nil {
			return nil, err
		}
		changes.Password = &hashed
	}

	account, err := s.accounts.Update(username, changes)
	if err != nil {
		return nil, err
	}

	user := account.Public()
	refreshed := s.sessions.UpdateUser(user)
	s.logger.Info().
		Str("admin", actor.Username).
		Str("username", username).
		Str("role", user.Role).
		Int("sessions_refreshed", refreshed).
		Msg("User updated by admin")
	return &user, nil
}

func (s *AuthService) DeleteUser(actor models.PublicUser, username string) error {
	if actor.Username == username {
		return models.NewForbiddenError("you cannot delete your own account")
	}
	if err := s.accounts.Delete(username); err != nil {
		return err
	}

	revoked := s.sessions.RevokeUser(username)
	s.logger.Info().
		Str("admin", actor.Username).
		Str("username", username).
		Int("sessions_revoked", revoked).
		Msg("User deleted by admin")
	return nil
}

// Shutdown drops every live session.
func (s *AuthService) Shutdown() {
	n := s.sessions.Clear()
	s.logger.Info().Int("sessions", n).Msg("Sessions cleared")
}

func (s *AuthService) storedPassword(password string) (string, error) {
	if !s.hashPasswords {
		return password, nil
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error().Err(err).Msg("Error hashing password")
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

// passwordMatches compares bcrypt entries by hash and everything else by exact
// equality. With hashing disabled a hash-shaped entry may be a plaintext
// password, so it also matches exactly.
func (s *AuthService) passwordMatches(stored, given string) bool {
	if !isBcryptHash(stored) {
		return stored == given
	}
	if bcrypt.CompareHashAndPassword([]byte(stored), []byte(given)) == nil {
		return true
	}
	return !s.hashPasswords && stored == given
}

func isBcryptHash(s string) bool {
	return len(s) == 60 && (strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$"))
}
