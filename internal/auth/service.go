package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/carlosryandeveloper/GenericERP/internal/platform/httpx"
	"github.com/carlosryandeveloper/GenericERP/internal/shared"
)

// MailQueue enqueues transactional email for asynchronous delivery.
type MailQueue interface {
	EnqueueSendEmail(ctx context.Context, to, subject, body string) error
}

// ServiceConfig groups token lifetimes.
type ServiceConfig struct {
	TokenTTL     time.Duration
	ResetCodeTTL time.Duration
}

// Service wraps authentication business rules.
type Service struct {
	repo   Repository
	cache  *TokenCache
	mail   MailQueue
	logger *slog.Logger
	cfg    ServiceConfig
}

// NewService constructs a new Service.
func NewService(repo Repository, cache *TokenCache, mail MailQueue, logger *slog.Logger, cfg ServiceConfig) *Service {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 24 * time.Hour
	}
	if cfg.ResetCodeTTL <= 0 {
		cfg.ResetCodeTTL = 30 * time.Minute
	}
	return &Service{repo: repo, cache: cache, mail: mail, logger: logger, cfg: cfg}
}

// NormalizeEmail trims and lowercases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a new account and sends a welcome email.
func (s *Service) Register(ctx context.Context, email, password string) (*User, error) {
	email = NormalizeEmail(email)
	password = strings.TrimSpace(password)

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("auth: hash password: %w", err)
	}

	user, err := s.repo.CreateUser(ctx, email, string(hash))
	if err != nil {
		if errors.Is(err, httpx.ErrDuplicate) {
			return nil, fmt.Errorf("%w: an account with this email already exists; use forgot-password to recover it", httpx.ErrDuplicate)
		}
		return nil, err
	}

	s.sendMail(ctx, email, "Welcome to GenericERP",
		"Your GenericERP account was created successfully.\nYou can now sign in.\n\nIf this wasn't you, ignore this email.")

	return user, nil
}

// Login verifies credentials and issues an opaque bearer token. The raw
// token is returned exactly once; only its hash is persisted.
func (s *Service) Login(ctx context.Context, email, password string) (string, time.Time, error) {
	email = NormalizeEmail(email)

	user, err := s.repo.FindUserByEmail(ctx, email)
	if err != nil {
		return "", time.Time{}, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(strings.TrimSpace(password))); err != nil {
		return "", time.Time{}, shared.ErrInvalidCredentials
	}

	raw := generateToken()
	expiresAt := time.Now().UTC().Add(s.cfg.TokenTTL)
	if err := s.repo.CreateToken(ctx, user.ID, hashToken(raw), expiresAt); err != nil {
		return "", time.Time{}, fmt.Errorf("auth: store token: %w", err)
	}
	return raw, expiresAt, nil
}

// Resolve maps a raw bearer token to the owning identity. Cache hits skip
// Postgres; misses verify against access_tokens and warm the cache.
func (s *Service) Resolve(ctx context.Context, rawToken string) (*shared.Identity, error) {
	rawToken = strings.TrimSpace(rawToken)
	if rawToken == "" {
		return nil, shared.ErrTokenInvalid
	}
	tokenHash := hashToken(rawToken)

	if userID, ok := s.cache.Get(ctx, tokenHash); ok {
		user, err := s.repo.FindUserByID(ctx, userID)
		if err != nil {
			return nil, shared.ErrTokenInvalid
		}
		return &shared.Identity{UserID: user.ID, Email: user.Email}, nil
	}

	token, err := s.repo.FindToken(ctx, tokenHash)
	if err != nil {
		return nil, shared.ErrTokenInvalid
	}
	user, err := s.repo.FindUserByID(ctx, token.UserID)
	if err != nil {
		return nil, shared.ErrTokenInvalid
	}
	s.cache.Set(ctx, tokenHash, user.ID, token.ExpiresAt)
	return &shared.Identity{UserID: user.ID, Email: user.Email}, nil
}

// Logout revokes the token and evicts it from the cache.
func (s *Service) Logout(ctx context.Context, rawToken string) error {
	tokenHash := hashToken(strings.TrimSpace(rawToken))
	if err := s.repo.RevokeToken(ctx, tokenHash); err != nil {
		return err
	}
	s.cache.Delete(ctx, tokenHash)
	return nil
}

// ForgotPassword issues a 6-digit reset code when the account exists. The
// caller cannot distinguish known from unknown emails.
func (s *Service) ForgotPassword(ctx context.Context, email string) (bool, error) {
	email = NormalizeEmail(email)

	user, err := s.repo.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	code, err := generateResetCode()
	if err != nil {
		return false, fmt.Errorf("auth: generate reset code: %w", err)
	}
	expiresAt := time.Now().UTC().Add(s.cfg.ResetCodeTTL)
	if err := s.repo.CreateReset(ctx, user.ID, hashToken(code), expiresAt); err != nil {
		return false, fmt.Errorf("auth: store reset code: %w", err)
	}

	s.sendMail(ctx, email, "Your GenericERP password reset code",
		fmt.Sprintf("You requested a password reset.\n\nYour 6-digit code is: %s\nIt expires in %d minutes.\n\nIf this wasn't you, ignore this email.",
			code, int(s.cfg.ResetCodeTTL.Minutes())))

	return true, nil
}

// ResetPassword consumes a reset code and replaces the account password.
func (s *Service) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	email = NormalizeEmail(email)
	code = strings.TrimSpace(code)

	user, err := s.repo.FindUserByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("%w: invalid or expired code", httpx.ErrValidation)
	}
	if err := s.repo.ConsumeReset(ctx, user.ID, hashToken(code)); err != nil {
		return fmt.Errorf("%w: invalid or expired code", httpx.ErrValidation)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(strings.TrimSpace(newPassword)), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("auth: hash password: %w", err)
	}
	if err := s.repo.UpdatePassword(ctx, user.ID, string(hash)); err != nil {
		return err
	}

	s.sendMail(ctx, email, "Your GenericERP password was changed",
		"Your password was changed successfully.\nIf this wasn't you, reset it again and review your account security.")

	return nil
}

func (s *Service) sendMail(ctx context.Context, to, subject, body string) {
	if s.mail == nil {
		return
	}
	if err := s.mail.EnqueueSendEmail(ctx, to, subject, body); err != nil && s.logger != nil {
		s.logger.Warn("enqueue email", slog.String("to", to), slog.Any("error", err))
	}
}

func generateResetCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
