package session

import (
	"context"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/tekvoro/web-platform/internal/core/domain"
)

// Account is one entry of a static credential set.
type Account struct {
	User     domain.User
	Password string
}

// DefaultAccounts is the built-in admin account of the website.
func DefaultAccounts() []Account {
	return []Account{{
		User:     domain.User{ID: "1", Username: "admin", Role: domain.RoleAdmin},
		Password: "admin123",
	}}
}

type hashedAccount struct {
	user domain.User
	hash []byte
}

// StaticCredentials verifies against a fixed, in-process credential set.
// Passwords are kept only as bcrypt hashes.
type StaticCredentials struct {
	accounts map[string]hashedAccount
	// dummy is compared against for unknown users so both failure paths cost
	// the same.
	dummy []byte
}

func NewStaticCredentials(accounts ...Account) (*StaticCredentials, error) {
	return newStaticCredentials(bcrypt.DefaultCost, accounts...)
}

func newStaticCredentials(cost int, accounts ...Account) (*StaticCredentials, error) {
	s := &StaticCredentials{accounts: make(map[string]hashedAccount, len(accounts))}
	for _, a := range accounts {
		if a.User.ID == "" || a.User.Username == "" || !a.User.Role.Valid() {
			return nil, fmt.Errorf("static credentials: invalid account %q", a.User.Username)
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(a.Password), cost)
		if err != nil {
			return nil, fmt.Errorf("static credentials: hash %q: %w", a.User.Username, err)
		}
		s.accounts[a.User.Username] = hashedAccount{user: a.User, hash: hash}
	}
	dummy, err := bcrypt.GenerateFromPassword([]byte("unused"), cost)
	if err != nil {
		return nil, fmt.Errorf("static credentials: %w", err)
	}
	s.dummy = dummy
	return s, nil
}

func (s *StaticCredentials) Verify(_ context.Context, username, password string) (*domain.User, error) {
	acc, ok := s.accounts[username]
	if !ok {
		_ = bcrypt.CompareHashAndPassword(s.dummy, []byte(password))
		return nil, domain.ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword(acc.hash, []byte(password)) != nil {
		return nil, domain.ErrInvalidCredentials
	}
	user := acc.user
	return &user, nil
}
