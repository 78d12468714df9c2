package app

import (
	"fmt"
	"net/mail"
	"strings"

	"docvault/internal/model"
	"docvault/internal/pkg/passhash"
)

const (
	minUsernameLen = 3
	minPasswordLen = 6
)

// AccountStore is the persistence surface the credential store needs.
// *repository.AccountRepository satisfies it; tests inject fakes.
type AccountStore interface {
	Create(account *model.Account) error
	GetByUsername(username string) (*model.Account, error)
	GetByEmail(email string) (*model.Account, error)
	GetByID(id uint) (*model.Account, error)
}

// AuthService creates accounts and verifies credentials. Plaintext
// passwords are hashed immediately and never stored or logged.
type AuthService struct {
	accounts AccountStore
}

type RegisterInput struct {
	Username string
	Email    string
	Password string
}

func NewAuthService(accounts AccountStore) *AuthService {
	return &AuthService{accounts: accounts}
}

func (s *AuthService) Register(input RegisterInput) (*model.Account, error) {
	username := strings.TrimSpace(input.Username)
	email := strings.TrimSpace(strings.ToLower(input.Email))

	if len(username) < minUsernameLen {
		return nil, ErrInvalidInput
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, ErrInvalidInput
	}
	if len(input.Password) < minPasswordLen {
		return nil, ErrWeakPassword
	}

	existingByName, err := s.accounts.GetByUsername(username)
	if err != nil {
		return nil, err
	}
	if existingByName != nil {
		return nil, ErrUsernameExists
	}

	existingByEmail, err := s.accounts.GetByEmail(email)
	if err != nil {
		return nil, err
	}
	if existingByEmail != nil {
		return nil, ErrEmailExists
	}

	hash, err := passhash.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password failed: %w", err)
	}

	account := &model.Account{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.accounts.Create(account); err != nil {
		return nil, err
	}
	return account, nil
}

func (s *AuthService) Verify(username, password string) (*model.Account, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrInvalidCredential
	}

	account, err := s.accounts.GetByUsername(username)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, ErrInvalidCredential
	}

	ok, err := passhash.Verify(password, account.PasswordHash)
	if err != nil || !ok {
		return nil, ErrInvalidCredential
	}
	return account, nil
}

func (s *AuthService) GetAccountByID(id uint) (*model.Account, error) {
	if id == 0 {
		return nil, ErrInvalidInput
	}
	return s.accounts.GetByID(id)
}
