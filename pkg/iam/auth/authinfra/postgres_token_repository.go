package authinfra

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Abraxas-365/hireline/pkg/errx"
	"github.com/Abraxas-365/hireline/pkg/iam/auth"
	"github.com/Abraxas-365/hireline/pkg/kernel"
	"github.com/jmoiron/sqlx"
)

// PostgresTokenRepository implementación de PostgreSQL para TokenRepository
type PostgresTokenRepository struct {
	db *sqlx.DB
}

func NewPostgresTokenRepository(db *sqlx.DB) auth.TokenRepository {
	return &PostgresTokenRepository{db: db}
}

// SaveRefreshToken guarda un refresh token (solo el hash)
func (r *PostgresTokenRepository) SaveRefreshToken(ctx context.Context, token auth.RefreshToken) error {
	query := `
		INSERT INTO refresh_tokens (
			id, token_hash, user_id, expires_at, created_at, revoked_at
		) VALUES (
			:id, :token_hash, :user_id, :expires_at, :created_at, :revoked_at
		)`

	if _, err := r.db.NamedExecContext(ctx, query, token); err != nil {
		return errx.Wrap(err, "failed to save refresh token", errx.TypeInternal).
			WithDetail("user_id", token.UserID.String())
	}
	return nil
}

func (r *PostgresTokenRepository) FindRefreshToken(ctx context.Context, tokenHash string) (*auth.RefreshToken, error) {
	query := `
		SELECT id, token_hash, user_id, expires_at, created_at, revoked_at
		FROM refresh_tokens
		WHERE token_hash = $1`

	var token auth.RefreshToken
	if err := r.db.GetContext(ctx, &token, query, tokenHash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, auth.ErrInvalidRefreshToken()
		}
		return nil, errx.Wrap(err, "failed to find refresh token", errx.TypeInternal)
	}
	return &token, nil
}

// RevokeRefreshToken marca un token como revocado
func (r *PostgresTokenRepository) RevokeRefreshToken(ctx context.Context, tokenHash string) error {
	query := `
		UPDATE refresh_tokens
		SET revoked_at = NOW()
		WHERE token_hash = $1 AND revoked_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, tokenHash)
	if err != nil {
		return errx.Wrap(err, "failed to revoke refresh token", errx.TypeInternal)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errx.Wrap(err, "failed to get rows affected", errx.TypeInternal)
	}
	if rowsAffected == 0 {
		return auth.ErrInvalidRefreshToken()
	}
	return nil
}

func (r *PostgresTokenRepository) RevokeAllUserTokens(ctx context.Context, userID kernel.UserID) error {
	query := `
		UPDATE refresh_tokens
		SET revoked_at = NOW()
		WHERE user_id = $1 AND revoked_at IS NULL`

	if _, err := r.db.ExecContext(ctx, query, userID); err != nil {
		return errx.Wrap(err, "failed to revoke user tokens", errx.TypeInternal).
			WithDetail("user_id", userID.String())
	}
	return nil
}

// CleanExpiredTokens limpia tokens expirados o revocados (para mantenimiento)
func (r *PostgresTokenRepository) CleanExpiredTokens(ctx context.Context) error {
	query := `
		DELETE FROM refresh_tokens
		WHERE expires_at < NOW() OR revoked_at IS NOT NULL`

	if _, err := r.db.ExecContext(ctx, query); err != nil {
		return errx.Wrap(err, "failed to clean expired tokens", errx.TypeInternal)
	}
	return nil
}
