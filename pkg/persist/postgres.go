package persist

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS player_saves (
	key TEXT PRIMARY KEY,
	data TEXT NOT NULL,
	updated_at BIGINT NOT NULL
);
`

type PostgresRepository struct {
	conn *pgx.Conn
}

func NewPostgresRepository(ctx context.Context, connStr string) (*PostgresRepository, error) {
	conn, err := pgx.Connect(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %v", err)
	}

	if _, err := conn.Exec(ctx, postgresSchema); err != nil {
		return nil, fmt.Errorf("failed to create schema: %v", err)
	}

	return &PostgresRepository{conn: conn}, nil
}

func (r *PostgresRepository) Close(ctx context.Context) error {
	return r.conn.Close(ctx)
}

func (r *PostgresRepository) SaveHostPlayer(ctx context.Context, playerLine, inventoryLine string) error {
	if err := r.upsert(ctx, hostPlayerKey, playerLine); err != nil {
		return err
	}
	return r.upsert(ctx, hostInventoryKey, inventoryLine)
}

func (r *PostgresRepository) LoadHostPlayer(ctx context.Context) (string, error) {
	player, err := r.load(ctx, hostPlayerKey)
	if err != nil {
		return "", err
	}
	inventory, err := r.load(ctx, hostInventoryKey)
	if err != nil {
		return "", err
	}
	return player + "\n" + inventory, nil
}

func (r *PostgresRepository) SavePlayer(ctx context.Context, key, data string) error {
	return r.upsert(ctx, "player:"+key, data)
}

func (r *PostgresRepository) LoadPlayer(ctx context.Context, key string) (string, error) {
	return r.load(ctx, "player:"+key)
}

func (r *PostgresRepository) ListPlayerKeys(ctx context.Context) ([]string, error) {
	q := `
	SELECT substr(key, 8) FROM player_saves WHERE key LIKE 'player:%';
	`
	rows, err := r.conn.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to list player saves: %v", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("failed to scan player save key: %v", err)
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

func (r *PostgresRepository) upsert(ctx context.Context, key, data string) error {
	q := `
	INSERT INTO player_saves (key, data, updated_at)
	VALUES ($1, $2, $3)
	ON CONFLICT (key) DO UPDATE SET data = $2, updated_at = $3;
	`
	if _, err := r.conn.Exec(ctx, q, key, data, time.Now().UnixMilli()); err != nil {
		return fmt.Errorf("failed to insert player save: %v", err)
	}
	return nil
}

func (r *PostgresRepository) load(ctx context.Context, key string) (string, error) {
	q := `
	SELECT data FROM player_saves WHERE key = $1;
	`
	var data string
	if err := r.conn.QueryRow(ctx, q, key).Scan(&data); err != nil {
		if err == pgx.ErrNoRows {
			return "", &ErrNotFound{}
		}
		return "", fmt.Errorf("failed to scan player save: %v", err)
	}
	return data, nil
}
