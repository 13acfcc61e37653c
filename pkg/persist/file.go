package persist

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Extension is the save file suffix, shared with the single-player
// save format.
const Extension = ".save"

const remotePlayerPrefix = "RemotePlayer_"

// FileRepository is the canonical repository: plain text files in the
// world directory, matching the single-player save layout. The host
// player uses the Player/Inventory files; remote players get one
// prefixed file each.
type FileRepository struct {
	dir string
}

func NewFileRepository(dir string) (*FileRepository, error) {
	if dir == "" {
		return nil, fmt.Errorf("file repository needs a directory")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create world directory: %v", err)
	}
	return &FileRepository{dir: dir}, nil
}

func (r *FileRepository) Close(ctx context.Context) error {
	return nil
}

func (r *FileRepository) SaveHostPlayer(ctx context.Context, playerLine, inventoryLine string) error {
	if err := os.WriteFile(filepath.Join(r.dir, "Player"+Extension), []byte(playerLine+"\n"), 0644); err != nil {
		return fmt.Errorf("failed to write host player file: %v", err)
	}
	if err := os.WriteFile(filepath.Join(r.dir, "Inventory"+Extension), []byte(inventoryLine+"\n"), 0644); err != nil {
		return fmt.Errorf("failed to write host inventory file: %v", err)
	}
	return nil
}

func (r *FileRepository) LoadHostPlayer(ctx context.Context) (string, error) {
	player, err := loadFromFile(filepath.Join(r.dir, "Player"+Extension))
	if err != nil {
		return "", err
	}
	inventory, err := loadFromFile(filepath.Join(r.dir, "Inventory"+Extension))
	if err != nil {
		return "", err
	}
	return player + "\n" + inventory, nil
}

func (r *FileRepository) SavePlayer(ctx context.Context, key, data string) error {
	path := filepath.Join(r.dir, remotePlayerPrefix+sanitizeKey(key)+Extension)
	if err := os.WriteFile(path, []byte(data+"\n"), 0644); err != nil {
		return fmt.Errorf("failed to write player save %s: %v", path, err)
	}
	return nil
}

func (r *FileRepository) LoadPlayer(ctx context.Context, key string) (string, error) {
	return loadFromFile(filepath.Join(r.dir, remotePlayerPrefix+sanitizeKey(key)+Extension))
}

func (r *FileRepository) ListPlayerKeys(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read world directory: %v", err)
	}
	var keys []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, remotePlayerPrefix) && strings.HasSuffix(name, Extension) {
			keys = append(keys, strings.TrimSuffix(strings.TrimPrefix(name, remotePlayerPrefix), Extension))
		}
	}
	return keys, nil
}

func loadFromFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", &ErrNotFound{}
		}
		return "", fmt.Errorf("failed to read %s: %v", path, err)
	}
	return strings.TrimRight(string(data), "\n"), nil
}

// sanitizeKey keeps save keys from escaping the world directory.
func sanitizeKey(key string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, key)
}
