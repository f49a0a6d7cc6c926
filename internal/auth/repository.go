// AngelaMos | 2026
// repository.go

package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/angelamos/teamstation/internal/core"
)

type Repository interface {
	Create(ctx context.Context, cred *RefreshCredential) error
	FindByHash(ctx context.Context, tokenHash string) (*RefreshCredential, error)
	FindByID(ctx context.Context, id string) (*RefreshCredential, error)
	// Rotate revokes the active credential matching tokenHash and inserts
	// successor in one transaction. Exactly one of two concurrent calls with
	// the same hash succeeds; the other fails with ErrTokenRevoked.
	Rotate(
		ctx context.Context,
		tokenHash string,
		successor *RefreshCredential,
	) (*RefreshCredential, error)
	RevokeByID(ctx context.Context, id string) error
	RevokeAllForUser(ctx context.Context, userID string) (int64, error)
	ListActiveForUser(
		ctx context.Context,
		userID string,
	) ([]RefreshCredential, error)
	DeleteExpired(ctx context.Context) (int64, error)
}

type repository struct {
	db   core.DBTX
	pool *sqlx.DB
}

func NewRepository(pool *sqlx.DB) Repository {
	return &repository{db: pool, pool: pool}
}

func (r *repository) Create(
	ctx context.Context,
	cred *RefreshCredential,
) error {
	query := `
		INSERT INTO refresh_credentials (
			id, user_id, token_hash, expires_at, user_agent, ip_address
		) VALUES (
			$1, $2, $3, $4, $5, $6
		)
		RETURNING created_at`

	err := r.db.GetContext(ctx, &cred.CreatedAt, query,
		cred.ID,
		cred.UserID,
		cred.TokenHash,
		cred.ExpiresAt,
		cred.UserAgent,
		cred.IPAddress,
	)
	if err != nil {
		if core.IsUniqueViolation(err) {
			return fmt.Errorf(
				"create refresh credential: %w",
				core.ErrDuplicateKey,
			)
		}
		return fmt.Errorf("create refresh credential: %w", err)
	}

	return nil
}

func (r *repository) FindByHash(
	ctx context.Context,
	tokenHash string,
) (*RefreshCredential, error) {
	query := `
		SELECT id, user_id, token_hash, expires_at, created_at,
		       revoked_at, user_agent, ip_address
		FROM refresh_credentials
		WHERE token_hash = $1`

	var cred RefreshCredential
	err := r.db.GetContext(ctx, &cred, query, tokenHash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("find refresh credential: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find refresh credential: %w", err)
	}

	return &cred, nil
}

func (r *repository) FindByID(
	ctx context.Context,
	id string,
) (*RefreshCredential, error) {
	query := `
		SELECT id, user_id, token_hash, expires_at, created_at,
		       revoked_at, user_agent, ip_address
		FROM refresh_credentials
		WHERE id = $1`

	var cred RefreshCredential
	err := r.db.GetContext(ctx, &cred, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("find refresh credential: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find refresh credential: %w", err)
	}

	return &cred, nil
}

func (r *repository) Rotate(
	ctx context.Context,
	tokenHash string,
	successor *RefreshCredential,
) (*RefreshCredential, error) {
	var old *RefreshCredential

	err := core.InTx(ctx, r.pool, func(tx *sqlx.Tx) error {
		txRepo := &repository{db: tx}

		consumed, err := txRepo.consumeByHash(ctx, tokenHash)
		if err != nil {
			return err
		}

		if consumed.UserID != successor.UserID {
			return fmt.Errorf("rotate credential: %w", core.ErrTokenInvalid)
		}

		if err := txRepo.Create(ctx, successor); err != nil {
			return err
		}

		old = consumed
		return nil
	})
	if err != nil {
		return nil, err
	}

	return old, nil
}

// consumeByHash marks the credential revoked if and only if it is still
// active. The row lock serializes concurrent rotation attempts: the loser
// observes a revoked row and gets ErrTokenRevoked, which is how replay of
// an already-rotated token is detected.
func (r *repository) consumeByHash(
	ctx context.Context,
	tokenHash string,
) (*RefreshCredential, error) {
	query := `
		SELECT id, user_id, token_hash, expires_at, created_at,
		       revoked_at, user_agent, ip_address
		FROM refresh_credentials
		WHERE token_hash = $1
		FOR UPDATE`

	var cred RefreshCredential
	err := r.db.GetContext(ctx, &cred, query, tokenHash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("consume refresh credential: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("consume refresh credential: %w", err)
	}

	if cred.IsRevoked() {
		return nil, fmt.Errorf(
			"consume refresh credential: %w",
			core.ErrTokenRevoked,
		)
	}

	if cred.IsExpired() {
		return nil, fmt.Errorf(
			"consume refresh credential: %w",
			core.ErrTokenExpired,
		)
	}

	revoke := `
		UPDATE refresh_credentials
		SET revoked_at = NOW()
		WHERE id = $1 AND revoked_at IS NULL`

	result, err := r.db.ExecContext(ctx, revoke, cred.ID)
	if err != nil {
		return nil, fmt.Errorf("consume refresh credential: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("consume refresh credential: %w", err)
	}

	if rows == 0 {
		return nil, fmt.Errorf(
			"consume refresh credential: %w",
			core.ErrTokenRevoked,
		)
	}

	return &cred, nil
}

func (r *repository) RevokeByID(ctx context.Context, id string) error {
	query := `
		UPDATE refresh_credentials
		SET revoked_at = NOW()
		WHERE id = $1 AND revoked_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("revoke refresh credential: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("revoke refresh credential: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("revoke refresh credential: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) RevokeAllForUser(
	ctx context.Context,
	userID string,
) (int64, error) {
	query := `
		UPDATE refresh_credentials
		SET revoked_at = NOW()
		WHERE user_id = $1 AND revoked_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, userID)
	if err != nil {
		return 0, fmt.Errorf("revoke all user credentials: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("revoke all user credentials: %w", err)
	}

	return rows, nil
}

func (r *repository) ListActiveForUser(
	ctx context.Context,
	userID string,
) ([]RefreshCredential, error) {
	query := `
		SELECT id, user_id, token_hash, expires_at, created_at,
		       revoked_at, user_agent, ip_address
		FROM refresh_credentials
		WHERE user_id = $1
			AND revoked_at IS NULL
			AND expires_at > NOW()
		ORDER BY created_at DESC, id DESC`

	var creds []RefreshCredential
	err := r.db.SelectContext(ctx, &creds, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list active credentials: %w", err)
	}

	return creds, nil
}

// DeleteExpired purges credentials past their expiry. Nothing in the request
// path calls it; it backs a periodic cleanup job run outside the API process.
func (r *repository) DeleteExpired(ctx context.Context) (int64, error) {
	query := `
		DELETE FROM refresh_credentials
		WHERE expires_at < $1`

	cutoff := time.Now().Add(-24 * time.Hour)

	result, err := r.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete expired credentials: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete expired credentials: %w", err)
	}

	return rows, nil
}
