package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"library-catalog/internal/models"

	"github.com/rs/zerolog"
)

// DefaultAccounts seed a missing or unreadable account file.
func DefaultAccounts() []models.Account {
	return []models.Account{
		{Username: "admin", Password: "admin123", DisplayName: "Administrator", Role: string(models.RoleAdmin)},
		{Username: "guest", Password: "guest", DisplayName: "Guest", Role: string(models.RoleUser)},
	}
}

// AccountStore keeps user accounts in a JSON array file.
type AccountStore struct {
	path   string
	logger zerolog.Logger
	mu     sync.RWMutex
}

func NewAccountStore(path string, logger zerolog.Logger) (*AccountStore, error) {
	if err := ensureDir(path); err != nil {
		return nil, err
	}
	s := &AccountStore{path: path, logger: logger}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.read(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *AccountStore) List() ([]models.PublicUser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	accounts, err := s.read()
	if err != nil {
		return nil, err
	}
	users := make([]models.PublicUser, 0, len(accounts))
	for _, a := range accounts {
		users = append(users, a.Public())
	}
	return users, nil
}

func (s *AccountStore) Find(username string) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	accounts, err := s.read()
	if err != nil {
		return nil, err
	}
	if i := indexOf(accounts, username); i >= 0 {
		found := accounts[i]
		return &found, nil
	}
	return nil, models.NewNotFoundError("user not found")
}

func (s *AccountStore) Add(account models.Account) (*models.Account, error) {
	if !account.Normalize() || account.Password == "" {
		return nil, models.NewValidationError("username", "username and password are required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	accounts, err := s.read()
	if err != nil {
		return nil, err
	}
	if indexOf(accounts, account.Username) >= 0 {
		return nil, models.NewConflictError("username already exists")
	}
	accounts = append(accounts, account)
	if err := s.write(accounts); err != nil {
		return nil, err
	}

	s.logger.Info().Str("username", account.Username).Str("role", account.Role).Msg("Account created")
	return &account, nil
}

func (s *AccountStore) Update(username string, changes models.AccountChanges) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	accounts, err := s.read()
	if err != nil {
		return nil, err
	}
	i := indexOf(accounts, username)
	if i < 0 {
		return nil, models.NewNotFoundError("user not found")
	}

	merged := accounts[i]
	if changes.Password != nil {
		if *changes.Password == "" {
			return nil, models.NewValidationError("password", "password cannot be empty")
		}
		merged.Password = *changes.Password
	}
	if changes.DisplayName != nil {
		merged.DisplayName = strings.TrimSpace(*changes.DisplayName)
	}
	if changes.Role != nil {
		merged.Role = *changes.Role
	}
	merged.Normalize()

	accounts[i] = merged
	if err := s.write(accounts); err != nil {
		return nil, err
	}

	s.logger.Info().Str("username", merged.Username).Str("role", merged.Role).Msg("Account updated")
	return &merged, nil
}

func (s *AccountStore) Delete(username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	accounts, err := s.read()
	if err != nil {
		return err
	}
	i := indexOf(accounts, username)
	if i < 0 {
		return models.NewNotFoundError("user not found")
	}
	accounts = append(accounts[:i], accounts[i+1:]...)
	if err := s.write(accounts); err != nil {
		return err
	}

	s.logger.Info().Str("username", username).Msg("Account deleted")
	return nil
}

// read loads the account list, reseeding the defaults when the file is
// missing or not a JSON array. Callers must hold mu; reseeding while only
// the read lock is held rewrites identical content.
func (s *AccountStore) read() ([]models.Account, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		s.logger.Info().Str("path", s.path).Msg("Account file missing, seeding default accounts")
		return s.seed()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read account file: %w", err)
	}

	var raw []models.Account
	if err := json.Unmarshal(data, &raw); err != nil {
		s.logger.Warn().Err(err).Str("path", s.path).Msg("Account file is corrupt, seeding default accounts")
		return s.seed()
	}

	accounts := make([]models.Account, 0, len(raw))
	for _, a := range raw {
		if a.Normalize() {
			accounts = append(accounts, a)
		}
	}
	return accounts, nil
}

func (s *AccountStore) seed() ([]models.Account, error) {
	defaults := DefaultAccounts()
	if err := s.write(defaults); err != nil {
		return nil, err
	}
	return defaults, nil
}

func (s *AccountStore) write(accounts []models.Account) error {
	data, err := json.MarshalIndent(accounts, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode accounts: %w", err)
	}
	if err := writeFileAtomic(s.path, append(data, '\n')); err != nil {
		s.logger.Error().Err(err).Str("path", s.path).Msg("Error writing account file")
		return fmt.Errorf("failed to save accounts: %w", err)
	}
	return nil
}

func indexOf(accounts []models.Account, username string) int {
	for i, a := range accounts {
		if a.Username == username {
			return i
		}
	}
	return -1
}
