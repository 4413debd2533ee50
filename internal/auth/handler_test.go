package auth_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/carlosryandeveloper/GenericERP/internal/auth"
	"github.com/carlosryandeveloper/GenericERP/internal/shared"
	_ "github.com/carlosryandeveloper/GenericERP/testing"
)

type fakeRepo struct {
	users  map[string]*auth.User
	tokens map[string]*auth.AccessToken
	nextID int64
}

func (r *fakeRepo) CreateUser(ctx context.Context, email, passwordHash string) (*auth.User, error) {
	r.nextID++
	user := &auth.User{ID: r.nextID, Email: email, PasswordHash: passwordHash, CreatedAt: time.Now()}
	r.users[email] = user
	return user, nil
}

func (r *fakeRepo) FindUserByEmail(ctx context.Context, email string) (*auth.User, error) {
	if user, ok := r.users[email]; ok {
		return user, nil
	}
	return nil, shared.ErrNotFound
}

func (r *fakeRepo) FindUserByID(ctx context.Context, id int64) (*auth.User, error) {
	for _, user := range r.users {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *fakeRepo) UpdatePassword(ctx context.Context, userID int64, hash string) error { return nil }

func (r *fakeRepo) CreateToken(ctx context.Context, userID int64, tokenHash string, expiresAt time.Time) error {
	r.tokens[tokenHash] = &auth.AccessToken{UserID: userID, TokenHash: tokenHash, ExpiresAt: expiresAt}
	return nil
}

func (r *fakeRepo) FindToken(ctx context.Context, tokenHash string) (*auth.AccessToken, error) {
	token, ok := r.tokens[tokenHash]
	if !ok || token.RevokedAt != nil {
		return nil, shared.ErrTokenInvalid
	}
	return token, nil
}

func (r *fakeRepo) RevokeToken(ctx context.Context, tokenHash string) error {
	if token, ok := r.tokens[tokenHash]; ok {
		now := time.Now()
		token.RevokedAt = &now
	}
	return nil
}

func (r *fakeRepo) CreateReset(ctx context.Context, userID int64, codeHash string, expiresAt time.Time) error {
	return nil
}

func (r *fakeRepo) ConsumeReset(ctx context.Context, userID int64, codeHash string) error {
	return shared.ErrTokenInvalid
}

func newAuthRouter(t *testing.T) chi.Router {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := auth.NewTokenCache(client, time.Minute)
	repo := &fakeRepo{users: make(map[string]*auth.User), tokens: make(map[string]*auth.AccessToken)}
	service := auth.NewService(repo, cache, nil, nil, auth.ServiceConfig{TokenTTL: time.Hour})
	handler := auth.NewHandler(slogDiscard(), service)

	r := chi.NewRouter()
	r.Route("/auth", func(r chi.Router) {
		handler.MountRoutes(r)
	})
	return r
}

func TestRegisterLoginMe(t *testing.T) {
	router := newAuthRouter(t)

	res := doJSON(t, router, http.MethodPost, "/auth/register", `{"email":"owner@example.com","password":"secret1"}`, "")
	require.Equal(t, http.StatusCreated, res.Code)

	res = doJSON(t, router, http.MethodPost, "/auth/login", `{"email":"owner@example.com","password":"secret1"}`, "")
	require.Equal(t, http.StatusOK, res.Code)

	var tokenBody struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &tokenBody))
	require.Equal(t, "bearer", tokenBody.TokenType)
	require.NotEmpty(t, tokenBody.AccessToken)

	res = doJSON(t, router, http.MethodGet, "/auth/me", "", tokenBody.AccessToken)
	require.Equal(t, http.StatusOK, res.Code)
	require.Contains(t, res.Body.String(), "owner@example.com")

	res = doJSON(t, router, http.MethodPost, "/auth/logout", "", tokenBody.AccessToken)
	require.Equal(t, http.StatusOK, res.Code)

	res = doJSON(t, router, http.MethodGet, "/auth/me", "", tokenBody.AccessToken)
	require.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestRegisterRejectsBadInput(t *testing.T) {
	router := newAuthRouter(t)

	res := doJSON(t, router, http.MethodPost, "/auth/register", `{"email":"nope","password":"secret1"}`, "")
	require.Equal(t, http.StatusBadRequest, res.Code)

	res = doJSON(t, router, http.MethodPost, "/auth/register", `{"email":"owner@example.com","password":"short"}`, "")
	require.Equal(t, http.StatusBadRequest, res.Code)
}

func TestMeRequiresToken(t *testing.T) {
	router := newAuthRouter(t)

	res := doJSON(t, router, http.MethodGet, "/auth/me", "", "")
	require.Equal(t, http.StatusUnauthorized, res.Code)

	res = doJSON(t, router, http.MethodGet, "/auth/me", "", "bogus-token")
	require.Equal(t, http.StatusUnauthorized, res.Code)
}

func slogDiscard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func doJSON(t *testing.T, router chi.Router, method, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)
	return res
}
