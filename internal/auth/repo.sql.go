package auth

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carlosryandeveloper/GenericERP/internal/platform/httpx"
	"github.com/carlosryandeveloper/GenericERP/internal/shared"
)

// Repository defines persistence operations for the auth module.
type Repository interface {
	CreateUser(ctx context.Context, email, passwordHash string) (*User, error)
	FindUserByEmail(ctx context.Context, email string) (*User, error)
	FindUserByID(ctx context.Context, id int64) (*User, error)
	UpdatePassword(ctx context.Context, userID int64, passwordHash string) error

	CreateToken(ctx context.Context, userID int64, tokenHash string, expiresAt time.Time) error
	FindToken(ctx context.Context, tokenHash string) (*AccessToken, error)
	RevokeToken(ctx context.Context, tokenHash string) error

	CreateReset(ctx context.Context, userID int64, codeHash string, expiresAt time.Time) error
	ConsumeReset(ctx context.Context, userID int64, codeHash string) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

func (r *PGRepository) CreateUser(ctx context.Context, email, passwordHash string) (*User, error) {
	user := &User{Email: email, PasswordHash: passwordHash}
	err := r.pool.QueryRow(ctx, `INSERT INTO users (email, password_hash, created_at)
VALUES ($1, $2, NOW()) RETURNING id, created_at`, email, passwordHash).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, httpx.ErrDuplicate
		}
		return nil, err
	}
	return user, nil
}

func (r *PGRepository) FindUserByEmail(ctx context.Context, email string) (*User, error) {
	var user User
	err := r.pool.QueryRow(ctx, `SELECT id, email, password_hash, created_at FROM users WHERE email=$1`, email).
		Scan(&user.ID, &user.Email, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *PGRepository) FindUserByID(ctx context.Context, id int64) (*User, error) {
	var user User
	err := r.pool.QueryRow(ctx, `SELECT id, email, password_hash, created_at FROM users WHERE id=$1`, id).
		Scan(&user.ID, &user.Email, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *PGRepository) UpdatePassword(ctx context.Context, userID int64, passwordHash string) error {
	_, err := r.pool.Exec(ctx, `UPDATE users SET password_hash=$1 WHERE id=$2`, passwordHash, userID)
	return err
}

func (r *PGRepository) CreateToken(ctx context.Context, userID int64, tokenHash string, expiresAt time.Time) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO access_tokens (user_id, token_hash, expires_at, created_at)
VALUES ($1, $2, $3, NOW())`, userID, tokenHash, expiresAt.UTC())
	return err
}

// FindToken returns a live token: unrevoked and unexpired.
func (r *PGRepository) FindToken(ctx context.Context, tokenHash string) (*AccessToken, error) {
	var token AccessToken
	err := r.pool.QueryRow(ctx, `SELECT id, user_id, token_hash, expires_at, revoked_at, created_at
FROM access_tokens
WHERE token_hash=$1 AND revoked_at IS NULL AND expires_at > NOW()`, tokenHash).
		Scan(&token.ID, &token.UserID, &token.TokenHash, &token.ExpiresAt, &token.RevokedAt, &token.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrTokenInvalid
		}
		return nil, err
	}
	return &token, nil
}

func (r *PGRepository) RevokeToken(ctx context.Context, tokenHash string) error {
	_, err := r.pool.Exec(ctx, `UPDATE access_tokens SET revoked_at=NOW() WHERE token_hash=$1 AND revoked_at IS NULL`, tokenHash)
	return err
}

func (r *PGRepository) CreateReset(ctx context.Context, userID int64, codeHash string, expiresAt time.Time) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO password_resets (user_id, token_hash, expires_at, created_at)
VALUES ($1, $2, $3, NOW())`, userID, codeHash, expiresAt.UTC())
	return err
}

// ConsumeReset marks a live reset code as used. Consuming is atomic: a code
// can succeed for exactly one caller.
func (r *PGRepository) ConsumeReset(ctx context.Context, userID int64, codeHash string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE password_resets SET used_at=NOW()
WHERE user_id=$1 AND token_hash=$2 AND used_at IS NULL AND expires_at > NOW()`, userID, codeHash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrTokenInvalid
	}
	return nil
}

var _ Repository = (*PGRepository)(nil)
