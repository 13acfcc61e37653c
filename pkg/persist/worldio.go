package persist

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/burrowgame/burrow/pkg/world"
)

// World save layout: a small text header file plus one tiles and one
// data file per level. The internal layout of those byte arrays is the
// level's own business; this package only moves them to and from disk.

const worldMetaFile = "world.meta"

// SaveWorld writes every level's tile and metadata arrays to the world
// directory.
func SaveWorld(dir string, w *world.World) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create world directory: %v", err)
	}

	count := w.LevelCount()
	first := w.Level(0)
	meta := fmt.Sprintf("%d,%d,%d\n", count, first.W, first.H)
	if err := os.WriteFile(filepath.Join(dir, worldMetaFile), []byte(meta), 0644); err != nil {
		return fmt.Errorf("failed to write world meta: %v", err)
	}

	for i := 0; i < count; i++ {
		l := w.Level(i)
		if err := os.WriteFile(levelPath(dir, i, "tiles"), l.Tiles, 0644); err != nil {
			return fmt.Errorf("failed to write level %d tiles: %v", i, err)
		}
		if err := os.WriteFile(levelPath(dir, i, "data"), l.Data, 0644); err != nil {
			return fmt.Errorf("failed to write level %d data: %v", i, err)
		}
	}
	return nil
}

// LoadWorld reads a previously saved world. ErrNotFound when the
// directory holds no world.
func LoadWorld(dir string, seed int64) (*world.World, error) {
	metaBytes, err := os.ReadFile(filepath.Join(dir, worldMetaFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &ErrNotFound{}
		}
		return nil, fmt.Errorf("failed to read world meta: %v", err)
	}

	var count, w, h int
	if _, err := fmt.Sscanf(string(metaBytes), "%d,%d,%d", &count, &w, &h); err != nil {
		return nil, fmt.Errorf("failed to parse world meta: %v", err)
	}
	if count < 1 || w < 1 || h < 1 {
		return nil, fmt.Errorf("world meta has bad dimensions: %q", string(metaBytes))
	}

	levels := make([]*world.Level, count)
	for i := 0; i < count; i++ {
		l := world.NewLevel(w, h, i)
		tiles, err := os.ReadFile(levelPath(dir, i, "tiles"))
		if err != nil {
			return nil, fmt.Errorf("failed to read level %d tiles: %v", i, err)
		}
		data, err := os.ReadFile(levelPath(dir, i, "data"))
		if err != nil {
			return nil, fmt.Errorf("failed to read level %d data: %v", i, err)
		}
		if len(tiles) != w*h || len(data) != w*h {
			return nil, fmt.Errorf("level %d arrays have wrong size", i)
		}
		copy(l.Tiles, tiles)
		copy(l.Data, data)
		levels[i] = l
	}

	return world.New(levels, seed), nil
}

// WriteBackup writes a zstd-compressed snapshot of the world's tile
// state next to the live save and returns its path.
func WriteBackup(dir string, w *world.World) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create world directory: %v", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("backup-%s.zst", time.Now().Format("20060102-150405")))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create backup file: %v", err)
	}
	defer f.Close()

	zw, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		return "", fmt.Errorf("failed to create zstd writer: %v", err)
	}

	buf := bufio.NewWriter(zw)
	count := w.LevelCount()
	first := w.Level(0)
	fmt.Fprintf(buf, "%d,%d,%d\n", count, first.W, first.H)
	for i := 0; i < count; i++ {
		l := w.Level(i)
		if _, err := buf.Write(l.Tiles); err != nil {
			return "", fmt.Errorf("failed to write backup tiles: %v", err)
		}
		if _, err := buf.Write(l.Data); err != nil {
			return "", fmt.Errorf("failed to write backup data: %v", err)
		}
	}
	if err := buf.Flush(); err != nil {
		return "", fmt.Errorf("failed to flush backup: %v", err)
	}
	if err := zw.Close(); err != nil {
		return "", fmt.Errorf("failed to close zstd writer: %v", err)
	}

	return path, nil
}

// ReadBackup restores a world snapshot from a backup archive.
func ReadBackup(path string, seed int64) (*world.World, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open backup file: %v", err)
	}
	defer f.Close()

	zr, err := zstd.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd reader: %v", err)
	}
	defer zr.Close()

	br := bufio.NewReader(zr)
	header, err := br.ReadString('\n')
	if err != nil {
		return nil, fmt.Errorf("failed to read backup header: %v", err)
	}
	var count, w, h int
	if _, err := fmt.Sscanf(header, "%d,%d,%d", &count, &w, &h); err != nil {
		return nil, fmt.Errorf("failed to parse backup header: %v", err)
	}

	levels := make([]*world.Level, count)
	for i := 0; i < count; i++ {
		l := world.NewLevel(w, h, i)
		if _, err := io.ReadFull(br, l.Tiles); err != nil {
			return nil, fmt.Errorf("failed to read backup level %d tiles: %v", i, err)
		}
		if _, err := io.ReadFull(br, l.Data); err != nil {
			return nil, fmt.Errorf("failed to read backup level %d data: %v", i, err)
		}
		levels[i] = l
	}

	return world.New(levels, seed), nil
}

func levelPath(dir string, i int, kind string) string {
	return filepath.Join(dir, fmt.Sprintf("level%d.%s", i, kind))
}
