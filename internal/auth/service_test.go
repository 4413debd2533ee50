package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/carlosryandeveloper/GenericERP/internal/platform/httpx"
	"github.com/carlosryandeveloper/GenericERP/internal/shared"
)

type memoryRepo struct {
	users  map[string]*User
	tokens map[string]*AccessToken
	resets []*PasswordReset
	nextID int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{users: make(map[string]*User), tokens: make(map[string]*AccessToken)}
}

func (r *memoryRepo) CreateUser(ctx context.Context, email, passwordHash string) (*User, error) {
	if _, ok := r.users[email]; ok {
		return nil, httpx.ErrDuplicate
	}
	r.nextID++
	user := &User{ID: r.nextID, Email: email, PasswordHash: passwordHash, CreatedAt: time.Now()}
	r.users[email] = user
	return user, nil
}

func (r *memoryRepo) FindUserByEmail(ctx context.Context, email string) (*User, error) {
	if user, ok := r.users[email]; ok {
		return user, nil
	}
	return nil, shared.ErrNotFound
}

func (r *memoryRepo) FindUserByID(ctx context.Context, id int64) (*User, error) {
	for _, user := range r.users {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memoryRepo) UpdatePassword(ctx context.Context, userID int64, passwordHash string) error {
	for _, user := range r.users {
		if user.ID == userID {
			user.PasswordHash = passwordHash
			return nil
		}
	}
	return shared.ErrNotFound
}

func (r *memoryRepo) CreateToken(ctx context.Context, userID int64, tokenHash string, expiresAt time.Time) error {
	r.nextID++
	r.tokens[tokenHash] = &AccessToken{ID: r.nextID, UserID: userID, TokenHash: tokenHash, ExpiresAt: expiresAt}
	return nil
}

func (r *memoryRepo) FindToken(ctx context.Context, tokenHash string) (*AccessToken, error) {
	token, ok := r.tokens[tokenHash]
	if !ok || token.RevokedAt != nil || token.ExpiresAt.Before(time.Now()) {
		return nil, shared.ErrTokenInvalid
	}
	return token, nil
}

func (r *memoryRepo) RevokeToken(ctx context.Context, tokenHash string) error {
	if token, ok := r.tokens[tokenHash]; ok {
		now := time.Now()
		token.RevokedAt = &now
	}
	return nil
}

func (r *memoryRepo) CreateReset(ctx context.Context, userID int64, codeHash string, expiresAt time.Time) error {
	r.nextID++
	r.resets = append(r.resets, &PasswordReset{ID: r.nextID, UserID: userID, CodeHash: codeHash, ExpiresAt: expiresAt})
	return nil
}

func (r *memoryRepo) ConsumeReset(ctx context.Context, userID int64, codeHash string) error {
	for _, reset := range r.resets {
		if reset.UserID == userID && reset.CodeHash == codeHash && reset.UsedAt == nil && reset.ExpiresAt.After(time.Now()) {
			now := time.Now()
			reset.UsedAt = &now
			return nil
		}
	}
	return shared.ErrTokenInvalid
}

type capturingMail struct {
	sent []string
}

func (m *capturingMail) EnqueueSendEmail(ctx context.Context, to, subject, body string) error {
	m.sent = append(m.sent, subject+"|"+body)
	return nil
}

func newTestService(t *testing.T) (*Service, *memoryRepo, *capturingMail) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := NewTokenCache(client, 5*time.Minute)
	repo := newMemoryRepo()
	mail := &capturingMail{}
	svc := NewService(repo, cache, mail, nil, ServiceConfig{TokenTTL: time.Hour, ResetCodeTTL: 30 * time.Minute})
	return svc, repo, mail
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _, mail := newTestService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "  Owner@Example.COM ", "secret1")
	require.NoError(t, err)
	require.Equal(t, "owner@example.com", user.Email)
	require.Len(t, mail.sent, 1)

	_, err = svc.Register(ctx, "owner@example.com", "secret1")
	require.ErrorIs(t, err, httpx.ErrDuplicate)

	token, expiresAt, err := svc.Login(ctx, "owner@example.com", "secret1")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.True(t, expiresAt.After(time.Now()))

	_, _, err = svc.Login(ctx, "owner@example.com", "wrong")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)

	_, _, err = svc.Login(ctx, "nobody@example.com", "secret1")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestResolveAndLogout(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "owner@example.com", "secret1")
	require.NoError(t, err)

	token, _, err := svc.Login(ctx, "owner@example.com", "secret1")
	require.NoError(t, err)

	identity, err := svc.Resolve(ctx, token)
	require.NoError(t, err)
	require.Equal(t, user.ID, identity.UserID)

	// Second resolve is served from the cache.
	identity, err = svc.Resolve(ctx, token)
	require.NoError(t, err)
	require.Equal(t, user.ID, identity.UserID)

	require.NoError(t, svc.Logout(ctx, token))
	_, err = svc.Resolve(ctx, token)
	require.ErrorIs(t, err, shared.ErrTokenInvalid)

	// Revocation sticks in the repository, not only in the cache.
	_, err = repo.FindToken(ctx, hashToken(token))
	require.ErrorIs(t, err, shared.ErrTokenInvalid)
}

func TestResolveRejectsGarbage(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.Resolve(context.Background(), "")
	require.ErrorIs(t, err, shared.ErrTokenInvalid)
	_, err = svc.Resolve(context.Background(), "not-a-token")
	require.ErrorIs(t, err, shared.ErrTokenInvalid)
}

func TestPasswordResetFlow(t *testing.T) {
	svc, repo, mail := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "owner@example.com", "secret1")
	require.NoError(t, err)
	mail.sent = nil

	sent, err := svc.ForgotPassword(ctx, "owner@example.com")
	require.NoError(t, err)
	require.True(t, sent)
	require.Len(t, mail.sent, 1)

	// Unknown emails do not leak account existence.
	sent, err = svc.ForgotPassword(ctx, "stranger@example.com")
	require.NoError(t, err)
	require.False(t, sent)

	// Extract the 6-digit code from the captured email body.
	body := mail.sent[0]
	idx := strings.Index(body, "code is: ")
	require.GreaterOrEqual(t, idx, 0)
	code := body[idx+len("code is: ") : idx+len("code is: ")+6]

	require.Error(t, svc.ResetPassword(ctx, "owner@example.com", "000000", "newsecret"))
	require.NoError(t, svc.ResetPassword(ctx, "owner@example.com", code, "newsecret"))

	// Code is single use.
	require.Error(t, svc.ResetPassword(ctx, "owner@example.com", code, "again"))

	user, err := repo.FindUserByEmail(ctx, "owner@example.com")
	require.NoError(t, err)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("newsecret")))

	_, _, err = svc.Login(ctx, "owner@example.com", "newsecret")
	require.NoError(t, err)
}
