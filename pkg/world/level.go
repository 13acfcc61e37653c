package world

import (
	"strings"

	"github.com/solarlune/resolv"
)

// Tile type ids. The bulk tile payload maps byte values directly to
// characters, and newline terminates a packet line, so value 10 is
// never assigned.
const (
	TileGrass    byte = 0
	TileRock     byte = 1
	TileWater    byte = 2
	TileFlower   byte = 3
	TileTree     byte = 4
	TileDirt     byte = 5
	TileSand     byte = 6
	TileCactus   byte = 7
	TileHole     byte = 8
	TileFarmland byte = 9
	TileStairsDown byte = 11
	TileStairsUp   byte = 12
	TileHardRock   byte = 13
)

func passable(tile byte) bool {
	switch tile {
	case TileRock, TileTree, TileCactus, TileHardRock:
		return false
	default:
		return true
	}
}

const tagSolid = "solid"

// Level is one grid of the world: two parallel byte arrays (tile type
// and tile metadata, indexed y*W+x) plus the entities currently on it.
// Levels are not internally locked; all mutation happens under the
// game server's critical section.
type Level struct {
	W, H  int
	Depth int
	Tiles []byte
	Data  []byte

	entities map[int]Entity
	space    *resolv.Space
}

func NewLevel(w, h, depth int) *Level {
	return &Level{
		W:        w,
		H:        h,
		Depth:    depth,
		Tiles:    make([]byte, w*h),
		Data:     make([]byte, w*h),
		entities: make(map[int]Entity),
		space:    resolv.NewSpace(w<<4, h<<4, 16, 16),
	}
}

func (l *Level) InBounds(xt, yt int) bool {
	return xt >= 0 && yt >= 0 && xt < l.W && yt < l.H
}

// Tile returns the tile type at the given tile coordinates. Out of
// bounds reads as unbreakable rock, which keeps movement checks simple.
func (l *Level) Tile(xt, yt int) byte {
	if !l.InBounds(xt, yt) {
		return TileHardRock
	}
	return l.Tiles[yt*l.W+xt]
}

// DataAt returns the tile metadata byte at the given tile coordinates.
func (l *Level) DataAt(xt, yt int) byte {
	if !l.InBounds(xt, yt) {
		return 0
	}
	return l.Data[yt*l.W+xt]
}

func (l *Level) SetTile(xt, yt int, tile, data byte) {
	if !l.InBounds(xt, yt) {
		return
	}
	l.Tiles[yt*l.W+xt] = tile
	l.Data[yt*l.W+xt] = data
}

// toolTile maps a tool used on a tile onto the tile it leaves behind.
// Tiles not listed do not respond to the tool, and hard rock never
// breaks. Tools come in material tiers that share one behavior.
func toolTile(tool string, tile byte) (byte, bool) {
	kind, _, _ := strings.Cut(tool, "_")
	switch kind {
	case "axe":
		switch tile {
		case TileTree:
			return TileGrass, true
		case TileCactus:
			return TileSand, true
		}
	case "pick":
		if tile == TileRock {
			return TileDirt, true
		}
	case "shovel":
		switch tile {
		case TileGrass, TileFlower:
			return TileDirt, true
		case TileDirt:
			return TileHole, true
		}
	case "hoe":
		if tile == TileDirt {
			return TileFarmland, true
		}
	}
	return 0, false
}

// InteractTile applies the tool to the tile at the given coordinates
// and reports whether the tile changed.
func (l *Level) InteractTile(xt, yt int, tool string) bool {
	next, ok := toolTile(tool, l.Tile(xt, yt))
	if !ok {
		return false
	}
	l.SetTile(xt, yt, next, 0)
	return true
}

// Entities returns a snapshot of the level's entity list.
func (l *Level) Entities() []Entity {
	out := make([]Entity, 0, len(l.entities))
	for _, e := range l.entities {
		out = append(out, e)
	}
	return out
}

// Players returns the remote players currently on the level.
func (l *Level) Players() []*RemotePlayer {
	var out []*RemotePlayer
	for _, e := range l.entities {
		if p, ok := e.(*RemotePlayer); ok {
			out = append(out, p)
		}
	}
	return out
}

// attach wires an entity (with an already-assigned id) into the level:
// entity list membership plus a collision object in the level's space.
func (l *Level) attach(e Entity) {
	b := e.base()
	var tags []string
	if b.solid {
		tags = append(tags, tagSolid)
	}
	b.obj = resolv.NewObject(
		float64(b.x-b.xr), float64(b.y-b.yr),
		float64(2*b.xr), float64(2*b.yr),
		tags...,
	)
	l.space.Add(b.obj)
	b.level = l
	l.entities[e.ID()] = e
}

func (l *Level) detach(e Entity) {
	b := e.base()
	if b.obj != nil {
		l.space.Remove(b.obj)
		b.obj = nil
	}
	b.level = nil
	delete(l.entities, e.ID())
}

// Move attempts to move the entity by the given sub-tile delta,
// resolving each axis independently. It returns true if the entity
// moved at all; a fully blocked move leaves the position unchanged.
func (l *Level) Move(e Entity, dx, dy int) bool {
	moved := false
	if dx != 0 && l.moveAxis(e, dx, 0) {
		moved = true
	}
	if dy != 0 && l.moveAxis(e, 0, dy) {
		moved = true
	}
	return moved
}

func (l *Level) moveAxis(e Entity, dx, dy int) bool {
	b := e.base()
	nx, ny := b.x+dx, b.y+dy

	if nx-b.xr < 0 || ny-b.yr < 0 || nx+b.xr >= l.W<<4 || ny+b.yr >= l.H<<4 {
		return false
	}
	for xt := (nx - b.xr) >> 4; xt <= (nx+b.xr)>>4; xt++ {
		for yt := (ny - b.yr) >> 4; yt <= (ny+b.yr)>>4; yt++ {
			if !passable(l.Tile(xt, yt)) {
				return false
			}
		}
	}
	if b.obj != nil {
		if collision := b.obj.Check(float64(dx), float64(dy), tagSolid); collision != nil {
			return false
		}
	}

	b.SetPos(nx, ny)
	return true
}
