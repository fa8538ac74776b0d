package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/wildlens/apiserver/internal/auth"
	"github.com/wildlens/apiserver/internal/store"
	"github.com/wildlens/apiserver/types"
)

// Column widths of the signup table. bcrypt reads at most MaxPasswordBytes.
const (
	MaxNameLength    = 255
	MaxEmailLength   = 254
	MaxPasswordBytes = 72
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (types.User, error)
	Create(ctx context.Context, user types.User) (types.User, error)
}

// PasswordHasher hashes and checks passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

// UserService encapsulates account registration and credential checks.
type UserService struct {
	repo   UserRepository
	hasher PasswordHasher

	// dummyHash is compared against for unknown emails so that both login
	// failure paths cost one hash comparison.
	dummyOnce sync.Once
	dummyHash string
}

func NewUserService(repo UserRepository, hasher PasswordHasher) *UserService {
	return &UserService{repo: repo, hasher: hasher}
}

// Register creates an account and returns it. The email is stored as given
// and compared exactly.
func (s *UserService) Register(ctx context.Context, surname, firstname, email, password string) (types.User, error) {
	surname = strings.TrimSpace(surname)
	firstname = strings.TrimSpace(firstname)
	email = strings.TrimSpace(email)
	if err := validateAccount(surname, firstname, email, password); err != nil {
		return types.User{}, err
	}

	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return types.User{}, ErrDuplicateEmail
	} else if !errors.Is(err, store.ErrNotFound) {
		return types.User{}, err
	}

	hashed, err := s.hasher.Hash(password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooLong) {
			return types.User{}, invalid("password", "Le mot de passe ne doit pas dépasser %d octets", MaxPasswordBytes)
		}
		return types.User{}, err
	}

	user, err := s.repo.Create(ctx, types.User{
		Surname:      surname,
		Firstname:    firstname,
		Email:        email,
		PasswordHash: hashed,
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return types.User{}, ErrDuplicateEmail
		}
		return types.User{}, err
	}
	return user, nil
}

// Verify returns the id of the account matching email and password. Unknown
// emails and wrong passwords both yield ErrInvalidCredentials.
func (s *UserService) Verify(ctx context.Context, email, password string) (int, error) {
	user, err := s.repo.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			_ = s.hasher.Compare(s.unknownUserHash(), password)
			return 0, ErrInvalidCredentials
		}
		return 0, err
	}

	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return 0, ErrInvalidCredentials
		}
		return 0, err
	}
	return user.ID, nil
}

func (s *UserService) unknownUserHash() string {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = s.hasher.Hash("wildlens-unknown-user")
	})
	return s.dummyHash
}

func validateAccount(surname, firstname, email, password string) error {
	for _, field := range []struct{ name, value string }{
		{"surname", surname},
		{"firstname", firstname},
		{"email", email},
		{"password", password},
	} {
		if field.value == "" {
			return invalid(field.name, "Le champ %s est requis", field.name)
		}
	}
	switch {
	case utf8.RuneCountInString(surname) > MaxNameLength:
		return invalid("surname", "Le champ surname est trop long")
	case utf8.RuneCountInString(firstname) > MaxNameLength:
		return invalid("firstname", "Le champ firstname est trop long")
	case utf8.RuneCountInString(email) > MaxEmailLength:
		return invalid("email", "Le champ email est trop long")
	case len(password) > MaxPasswordBytes:
		return invalid("password", "Le mot de passe ne doit pas dépasser %d octets", MaxPasswordBytes)
	}
	return nil
}
