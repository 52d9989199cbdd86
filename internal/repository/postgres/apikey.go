package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/inboundemail/inbound-core/internal/model"
)

type apiKeyRepository struct {
	pool *pgxpool.Pool
}

// NewAPIKeyRepository creates a new APIKeyRepository backed by PostgreSQL.
func NewAPIKeyRepository(pool *pgxpool.Pool) APIKeyRepository {
	return &apiKeyRepository{pool: pool}
}

const apiKeyColumns = `id, owner_user, name, key_hash, prefix, last_used_at, created_at`

func (r *apiKeyRepository) Create(ctx context.Context, key *model.APIKey) error {
	query := fmt.Sprintf(`
		INSERT INTO api_keys (%s)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING %s`, apiKeyColumns, apiKeyColumns)

	return r.pool.QueryRow(ctx, query,
		key.ID, key.OwnerUser, key.Name, key.KeyHash, key.Prefix, key.LastUsedAt, key.CreatedAt,
	).Scan(
		&key.ID, &key.OwnerUser, &key.Name, &key.KeyHash, &key.Prefix, &key.LastUsedAt, &key.CreatedAt,
	)
}

func (r *apiKeyRepository) GetByHash(ctx context.Context, keyHash string) (*model.APIKey, error) {
	query := fmt.Sprintf(`SELECT %s FROM api_keys WHERE key_hash = $1`, apiKeyColumns)

	key := &model.APIKey{}
	err := r.pool.QueryRow(ctx, query, keyHash).Scan(
		&key.ID, &key.OwnerUser, &key.Name, &key.KeyHash, &key.Prefix, &key.LastUsedAt, &key.CreatedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, notFound("api key")
		}
		return nil, fmt.Errorf("get api key by hash: %w", err)
	}
	return key, nil
}

func (r *apiKeyRepository) ListByOwner(ctx context.Context, ownerUser uuid.UUID) ([]model.APIKey, error) {
	query := fmt.Sprintf(`SELECT %s FROM api_keys WHERE owner_user = $1 ORDER BY created_at DESC`, apiKeyColumns)

	rows, err := r.pool.Query(ctx, query, ownerUser)
	if err != nil {
		return nil, fmt.Errorf("list api keys: %w", err)
	}
	defer rows.Close()

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.APIKey, error) {
		var k model.APIKey
		err := row.Scan(&k.ID, &k.OwnerUser, &k.Name, &k.KeyHash, &k.Prefix, &k.LastUsedAt, &k.CreatedAt)
		return k, err
	})
}

func (r *apiKeyRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM api_keys WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete api key: %w", err)
	}
	if result.RowsAffected() == 0 {
		return notFound("api key")
	}
	return nil
}

func (r *apiKeyRepository) UpdateLastUsed(ctx context.Context, keyHash string, usedAt time.Time) error {
	result, err := r.pool.Exec(ctx, `UPDATE api_keys SET last_used_at = $2 WHERE key_hash = $1`, keyHash, usedAt)
	if err != nil {
		return fmt.Errorf("update api key last used: %w", err)
	}
	if result.RowsAffected() == 0 {
		return notFound("api key")
	}
	return nil
}
