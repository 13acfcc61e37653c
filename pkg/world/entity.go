package world

import (
	"strconv"
	"strings"

	"github.com/solarlune/resolv"
)

// Facing directions, as encoded on the wire.
const (
	DirDown = iota
	DirUp
	DirLeft
	DirRight
)

// Entity is the closed set of things that live on a level. Positions
// are in sub-tile units; tile coordinates are position >> 4. The
// unexported base method keeps the set closed to this package, so
// packet handlers can rely on type switches over the known variants.
type Entity interface {
	ID() int
	X() int
	Y() int
	TileX() int
	TileY() int
	Level() *Level
	Removed() bool
	Kind() string
	SetPos(x, y int)
	SetUpdate(field, value string)
	ConsumeUpdates() string
	base() *entityBase
}

type update struct {
	field string
	value string
}

type entityBase struct {
	id      int
	x, y    int
	xr, yr  int
	level   *Level
	removed bool
	updates []update
	obj     *resolv.Object
	solid   bool
}

func (e *entityBase) ID() int       { return e.id }
func (e *entityBase) X() int        { return e.x }
func (e *entityBase) Y() int        { return e.y }
func (e *entityBase) TileX() int    { return e.x >> 4 }
func (e *entityBase) TileY() int    { return e.y >> 4 }
func (e *entityBase) Level() *Level { return e.level }
func (e *entityBase) Removed() bool { return e.removed }

func (e *entityBase) base() *entityBase { return e }

// SetPos moves the entity, keeps its collision object in step, and
// records the change in the pending update set.
func (e *entityBase) SetPos(x, y int) {
	e.x, e.y = x, y
	if e.obj != nil {
		e.obj.Position.X = float64(x - e.xr)
		e.obj.Position.Y = float64(y - e.yr)
		e.obj.Update()
	}
	e.SetUpdate("x", strconv.Itoa(x))
	e.SetUpdate("y", strconv.Itoa(y))
}

// SetUpdate records a pending field update, replacing any earlier value
// for the same field.
func (e *entityBase) SetUpdate(field, value string) {
	for i := range e.updates {
		if e.updates[i].field == field {
			e.updates[i].value = value
			return
		}
	}
	e.updates = append(e.updates, update{field: field, value: value})
}

// ConsumeUpdates returns the pending update set as "field,value" pairs
// joined by the field delimiter, and clears it. The broadcast router is
// the single caller; consuming twice per change would drop state.
func (e *entityBase) ConsumeUpdates() string {
	if len(e.updates) == 0 {
		return ""
	}
	pairs := make([]string, len(e.updates))
	for i, u := range e.updates {
		pairs[i] = u.field + "," + u.value
	}
	e.updates = nil
	return strings.Join(pairs, ";")
}
