package persist

import (
	"context"
	"fmt"
	"net/url"
	"path/filepath"
)

// Repository stores per-player persistent records. The host player has
// a canonical pair of records; every other player is keyed by a stable
// string (its username). The record format is opaque text produced by
// the client and the codec in this package: a player line, a newline,
// and an inventory line.
type Repository interface {
	Close(ctx context.Context) error

	SaveHostPlayer(ctx context.Context, playerLine, inventoryLine string) error
	// LoadHostPlayer returns the host's combined record. ErrNotFound
	// when the host has never saved.
	LoadHostPlayer(ctx context.Context) (string, error)

	SavePlayer(ctx context.Context, key, data string) error
	// LoadPlayer returns the combined record for a remote player key.
	// ErrNotFound when this client has never played in the world.
	LoadPlayer(ctx context.Context, key string) (string, error)

	ListPlayerKeys(ctx context.Context) ([]string, error)
}

type ErrNotFound struct{}

func (e *ErrNotFound) Error() string {
	return "not found"
}

func IsNotFound(err error) bool {
	_, ok := err.(*ErrNotFound)
	return ok
}

// NewRepository builds a repository from a connection string:
// file://<dir>, sqlite://<path>, or postgresql://...
func NewRepository(ctx context.Context, connStr string) (Repository, error) {
	u, err := url.Parse(connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %v", err)
	}

	switch u.Scheme {
	case "file", "":
		return NewFileRepository(filepath.Join(u.Host, u.Path))
	case "sqlite":
		return NewSQLiteRepository(ctx, filepath.Join(u.Host, u.Path))
	case "postgresql", "postgres":
		return NewPostgresRepository(ctx, u.String())
	default:
		return nil, fmt.Errorf("unknown repository type %s", u.Scheme)
	}
}
