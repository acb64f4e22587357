package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/upb/teach-portal/backend/models"
	"github.com/upb/teach-portal/backend/repositories"
	"go.uber.org/zap"
)

// RefreshTokenRepository implements the repositories.RefreshTokenRepository interface
type RefreshTokenRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewRefreshTokenRepository creates a new refresh token repository
func NewRefreshTokenRepository(db *DB, logger *zap.Logger) repositories.RefreshTokenRepository {
	return &RefreshTokenRepository{
		db:     db,
		logger: logger,
	}
}

// Create stores a hashed refresh token
func (r *RefreshTokenRepository) Create(ctx context.Context, token *models.RefreshToken) error {
	query := `
		INSERT INTO refresh_tokens (id, teacher_id, family_id, token_hash, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	executor := GetExecutor(ctx, r.db)
	_, err := executor.ExecContext(ctx, query,
		token.ID,
		token.TeacherID,
		token.FamilyID,
		token.TokenHash,
		token.ExpiresAt,
		token.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create refresh token: %w", err)
	}
	return nil
}

// GetByHash looks a token up by its SHA-256 hash
func (r *RefreshTokenRepository) GetByHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error) {
	query := `
		SELECT id, teacher_id, family_id, token_hash, expires_at, created_at, used_at, revoked_at
		FROM refresh_tokens
		WHERE token_hash = $1
	`

	executor := GetExecutor(ctx, r.db)
	t := &models.RefreshToken{}
	err := executor.QueryRowContext(ctx, query, tokenHash).Scan(
		&t.ID,
		&t.TeacherID,
		&t.FamilyID,
		&t.TokenHash,
		&t.ExpiresAt,
		&t.CreatedAt,
		&t.UsedAt,
		&t.RevokedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get refresh token: %w", mapError(err))
	}
	return t, nil
}

// MarkUsed spends a token. Only one caller can spend a given token.
func (r *RefreshTokenRepository) MarkUsed(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE refresh_tokens
		SET used_at = NOW()
		WHERE id = $1 AND used_at IS NULL AND revoked_at IS NULL
	`

	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to mark refresh token used: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("refresh token %s: %w", id, repositories.ErrNotFound)
	}
	return nil
}

// RevokeFamily revokes every live token descended from the same login
func (r *RefreshTokenRepository) RevokeFamily(ctx context.Context, familyID uuid.UUID) error {
	query := `UPDATE refresh_tokens SET revoked_at = NOW() WHERE family_id = $1 AND revoked_at IS NULL`

	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, query, familyID)
	if err != nil {
		return fmt.Errorf("failed to revoke token family: %w", err)
	}

	n, _ := result.RowsAffected()
	r.logger.Info("refresh token family revoked",
		zap.String("family_id", familyID.String()),
		zap.Int64("revoked", n))
	return nil
}

// RevokeAllForTeacher revokes all of a teacher's live refresh tokens
func (r *RefreshTokenRepository) RevokeAllForTeacher(ctx context.Context, teacherID uuid.UUID) error {
	query := `UPDATE refresh_tokens SET revoked_at = NOW() WHERE teacher_id = $1 AND revoked_at IS NULL`

	executor := GetExecutor(ctx, r.db)
	if _, err := executor.ExecContext(ctx, query, teacherID); err != nil {
		return fmt.Errorf("failed to revoke teacher tokens: %w", err)
	}

	r.logger.Info("refresh tokens revoked for teacher", zap.String("teacher_id", teacherID.String()))
	return nil
}
