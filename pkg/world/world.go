package world

import (
	"fmt"
	"math/rand"
)

// World is the authoritative store: the level stack plus a flat
// entity-by-id index. Ids are assigned on first insertion and stay
// with the entity across level transfers. The World performs no
// locking of its own; every mutating caller runs inside the game
// server's critical section.
type World struct {
	levels  []*Level
	byID    map[int]Entity
	nextID  int
	rng     *rand.Rand
	surface int
}

func New(levels []*Level, seed int64) *World {
	return &World{
		levels: levels,
		byID:   make(map[int]Entity),
		nextID: 1,
		rng:    rand.New(rand.NewSource(seed)),
	}
}

func (w *World) Rand() *rand.Rand { return w.rng }

// LevelCount returns the number of levels in the stack.
func (w *World) LevelCount() int { return len(w.levels) }

// Level returns the level at the given index, or nil if out of range.
func (w *World) Level(i int) *Level {
	if i < 0 || i >= len(w.levels) {
		return nil
	}
	return w.levels[i]
}

// SurfaceLevel returns the level players spawn on.
func (w *World) SurfaceLevel() *Level {
	return w.levels[w.surface]
}

// LevelIndex returns the index of the given level, or -1.
func (w *World) LevelIndex(l *Level) int {
	for i, candidate := range w.levels {
		if candidate == l {
			return i
		}
	}
	return -1
}

// GetEntity looks an entity up by id. Removed entities stay findable
// until dropped so that late packets referencing them can be answered
// with a corrective removal rather than silence.
func (w *World) GetEntity(id int) Entity {
	return w.byID[id]
}

// AddEntity inserts the entity into the level, assigning an id on
// first insertion, and returns the id.
func (w *World) AddEntity(e Entity, l *Level) int {
	b := e.base()
	if b.level != nil {
		if b.level == l {
			return b.id
		}
		b.level.detach(e)
	}
	if b.id == 0 {
		b.id = w.nextID
		w.nextID++
	}
	b.removed = false
	w.byID[b.id] = e
	l.attach(e)
	return b.id
}

// RemoveEntity marks the entity removed and detaches it from its
// level. The id index keeps the removed record so that racing packets
// can still resolve it.
func (w *World) RemoveEntity(e Entity) {
	b := e.base()
	b.removed = true
	if b.level != nil {
		b.level.detach(e)
	}
}

// DropEntity forgets a removed entity entirely.
func (w *World) DropEntity(e Entity) {
	w.RemoveEntity(e)
	delete(w.byID, e.ID())
}

// TransferEntity atomically moves an entity between levels: removed
// from the old list, added to the new, same id throughout.
func (w *World) TransferEntity(e Entity, to *Level) error {
	if to == nil {
		return fmt.Errorf("cannot transfer entity %d to nil level", e.ID())
	}
	b := e.base()
	if b.level == to {
		return nil
	}
	if b.level != nil {
		b.level.detach(e)
	}
	b.removed = false
	to.attach(e)
	return nil
}
