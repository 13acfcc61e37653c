package persist

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const (
	hostPlayerKey    = "host:player"
	hostInventoryKey = "host:inventory"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS player_saves (
	key TEXT PRIMARY KEY,
	data TEXT NOT NULL,
	updated_at INTEGER NOT NULL
);
`

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(ctx context.Context, path string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %v", err)
	}

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		return nil, fmt.Errorf("failed to create schema: %v", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close(ctx context.Context) error {
	return r.db.Close()
}

func (r *SQLiteRepository) SaveHostPlayer(ctx context.Context, playerLine, inventoryLine string) error {
	if err := r.upsert(ctx, hostPlayerKey, playerLine); err != nil {
		return err
	}
	return r.upsert(ctx, hostInventoryKey, inventoryLine)
}

func (r *SQLiteRepository) LoadHostPlayer(ctx context.Context) (string, error) {
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

func (r *SQLiteRepository) SavePlayer(ctx context.Context, key, data string) error {
	return r.upsert(ctx, "player:"+key, data)
}

func (r *SQLiteRepository) LoadPlayer(ctx context.Context, key string) (string, error) {
	return r.load(ctx, "player:"+key)
}

func (r *SQLiteRepository) ListPlayerKeys(ctx context.Context) ([]string, error) {
	q := `
	SELECT substr(key, 8) FROM player_saves WHERE key LIKE 'player:%';
	`
	rows, err := r.db.QueryContext(ctx, q)
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

func (r *SQLiteRepository) upsert(ctx context.Context, key, data string) error {
	q := `
	INSERT OR REPLACE INTO player_saves (key, data, updated_at)
	VALUES (?, ?, ?);
	`
	if _, err := r.db.ExecContext(ctx, q, key, data, time.Now().UnixMilli()); err != nil {
		return fmt.Errorf("failed to insert player save: %v", err)
	}
	return nil
}

func (r *SQLiteRepository) load(ctx context.Context, key string) (string, error) {
	q := `
	SELECT data FROM player_saves WHERE key = ?;
	`
	var data string
	if err := r.db.QueryRowContext(ctx, q, key).Scan(&data); err != nil {
		if err == sql.ErrNoRows {
			return "", &ErrNotFound{}
		}
		return "", fmt.Errorf("failed to scan player save: %v", err)
	}
	return data, nil
}
