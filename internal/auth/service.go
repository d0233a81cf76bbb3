// Package auth handles accounts, passwords and session tokens.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"healthdash/internal/core"
	"healthdash/internal/store"
)

var (
	ErrEmailTaken         = errors.New("an account with this email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// maxPasswordBytes is the most bcrypt will hash.
const maxPasswordBytes = 72

var validate = newValidator()

// newValidator registers bcryptlen, which bounds a string in bytes rather
// than runes.
func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("bcryptlen", func(fl validator.FieldLevel) bool {
		return len(fl.Field().String()) <= maxPasswordBytes
	})
	return v
}

// Credentials are submitted by the sign-up and sign-in forms.
type Credentials struct {
	Email    string `validate:"required,email,max=254"`
	Password string `validate:"required,min=8,bcryptlen"`
}

// ValidationError lists the fields that failed validation.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range []string{"Email", "Password"} {
		if msg, ok := e.Fields[f]; ok {
			parts = append(parts, msg)
		}
	}
	return strings.Join(parts, "; ")
}

// Service signs users up and in.
type Service struct {
	users  store.UserStore
	tokens *TokenIssuer
	cost   int
	now    func() time.Time
}

func NewService(users store.UserStore, tokens *TokenIssuer) *Service {
	return &Service{users: users, tokens: tokens, cost: bcrypt.DefaultCost, now: time.Now}
}

// Tokens exposes the issuer for the session middleware.
func (s *Service) Tokens() *TokenIssuer { return s.tokens }

// SignUp creates an account and returns a session token for it.
func (s *Service) SignUp(ctx context.Context, c Credentials) (core.User, string, error) {
	c.Email = normalizeEmail(c.Email)
	if err := validateCredentials(c); err != nil {
		return core.User{}, "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(c.Password), s.cost)
	if err != nil {
		return core.User{}, "", fmt.Errorf("hash password: %w", err)
	}

	u := core.User{
		ID:           uuid.NewString(),
		Email:        c.Email,
		PasswordHash: string(hash),
		CreatedAt:    s.now(),
	}
	if err := s.users.CreateUser(ctx, u); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return core.User{}, "", ErrEmailTaken
		}
		return core.User{}, "", fmt.Errorf("create user: %w", err)
	}

	token, _, err := s.tokens.Issue(u.ID, u.Email)
	if err != nil {
		return core.User{}, "", err
	}
	return u, token, nil
}

// SignIn checks the password and returns a fresh session token. Unknown
// emails and wrong passwords return the same error.
func (s *Service) SignIn(ctx context.Context, c Credentials) (core.User, string, error) {
	c.Email = normalizeEmail(c.Email)
	if c.Email == "" || c.Password == "" {
		return core.User{}, "", ErrInvalidCredentials
	}

	u, err := s.users.GetUserByEmail(ctx, c.Email)
	if errors.Is(err, store.ErrNotFound) {
		return core.User{}, "", ErrInvalidCredentials
	}
	if err != nil {
		return core.User{}, "", fmt.Errorf("load user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(c.Password)); err != nil {
		return core.User{}, "", ErrInvalidCredentials
	}

	token, _, err := s.tokens.Issue(u.ID, u.Email)
	if err != nil {
		return core.User{}, "", err
	}
	return u, token, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateCredentials(c Credentials) error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fieldMessage(fe)
	}
	return &ValidationError{Fields: fields}
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Field() + "." + fe.Tag() {
	case "Email.required":
		return "email is required"
	case "Email.email":
		return "email is not valid"
	case "Email.max":
		return "email is too long"
	case "Password.required":
		return "password is required"
	case "Password.min":
		return "password must be at least 8 characters"
	case "Password.bcryptlen":
		return "password must be at most 72 bytes"
	}
	return fmt.Sprintf("%s is invalid", strings.ToLower(fe.Field()))
}
