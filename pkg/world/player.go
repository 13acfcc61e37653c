package world

import (
	"math/rand"
	"strconv"
)

// Interest radii in tiles. The screen is 18x14 tiles, so the sync
// radii cover one screen around the player and the track radii extend
// past it. Track must be at least sync or a client could receive
// updates for an entity it was never told to add.
const (
	XSyncRadius  = 12
	YSyncRadius  = 10
	XTrackRadius = 16
	YTrackRadius = 14
)

const MaxHealth = 10

// RemotePlayer is the avatar of one connected client. It is created
// unbound (empty username) when the connection is accepted and bound
// during the LOGIN exchange.
type RemotePlayer struct {
	entityBase
	username   string
	dir        int
	health     int
	inventory  Inventory
	activeItem *Item
	effects    map[PotionType]int
}

func NewRemotePlayer() *RemotePlayer {
	p := &RemotePlayer{
		health:  MaxHealth,
		effects: make(map[PotionType]int),
	}
	p.xr, p.yr = 4, 3
	return p
}

func (p *RemotePlayer) Kind() string { return "Player" }

func (p *RemotePlayer) Username() string { return p.username }

func (p *RemotePlayer) SetUsername(name string) { p.username = name }

func (p *RemotePlayer) Dir() int { return p.dir }

func (p *RemotePlayer) SetDir(dir int) {
	if dir < DirDown || dir > DirRight {
		return
	}
	p.dir = dir
	p.SetUpdate("dir", strconv.Itoa(dir))
}

// TargetTile returns the tile coordinates directly in front of the
// player, the one its tools act on.
func (p *RemotePlayer) TargetTile() (int, int) {
	xt, yt := p.TileX(), p.TileY()
	switch p.dir {
	case DirDown:
		yt++
	case DirUp:
		yt--
	case DirLeft:
		xt--
	case DirRight:
		xt++
	}
	return xt, yt
}

func (p *RemotePlayer) Health() int { return p.health }

func (p *RemotePlayer) SetHealth(health int) {
	if health < 0 {
		health = 0
	}
	if health > MaxHealth {
		health = MaxHealth
	}
	p.health = health
}

func (p *RemotePlayer) Inventory() *Inventory { return &p.inventory }

func (p *RemotePlayer) ActiveItem() *Item { return p.activeItem }

func (p *RemotePlayer) SetActiveItem(item *Item) { p.activeItem = item }

// ShouldSync reports whether the given tile lies within the player's
// narrow sync radius: the client already knows the entities there and
// only needs incremental updates.
func (p *RemotePlayer) ShouldSync(xt, yt int) bool {
	return inRange(p.TileX(), p.TileY(), xt, yt, XSyncRadius, YSyncRadius)
}

// ShouldTrack reports whether the given tile lies within the player's
// wide track radius: entities newly appearing there must be added to
// the client's view.
func (p *RemotePlayer) ShouldTrack(xt, yt int) bool {
	return inRange(p.TileX(), p.TileY(), xt, yt, XTrackRadius, YTrackRadius)
}

func inRange(cx, cy, xt, yt, xr, yr int) bool {
	dx := xt - cx
	if dx < 0 {
		dx = -dx
	}
	dy := yt - cy
	if dy < 0 {
		dy = -dy
	}
	return dx <= xr && dy <= yr
}

// FindStartPos places the player on a random passable tile of the
// level. It does not insert the player into the level's entity list.
func (p *RemotePlayer) FindStartPos(l *Level, rng *rand.Rand) {
	for tries := 0; tries < 1000; tries++ {
		xt := rng.Intn(l.W)
		yt := rng.Intn(l.H)
		if passable(l.Tile(xt, yt)) {
			p.x = xt<<4 + 8
			p.y = yt<<4 + 8
			return
		}
	}
	p.x = (l.W / 2) << 4
	p.y = (l.H / 2) << 4
}

// Attack performs the authoritative use/attack resolution for the
// player's active item. The combat rules proper are a boundary
// collaborator; the server's share is the inventory side effects that
// other clients can observe.
func (p *RemotePlayer) Attack() {
	if p.activeItem == nil {
		return
	}
	switch p.activeItem.Name {
	case "bow":
		// Firing consumes an arrow; the client reconciles its own count.
		if p.inventory.Count("arrow") > 0 {
			p.inventory.RemoveCount("arrow", 1)
		}
	case "potion_heal", "potion_speed", "potion_light", "bread", "apple":
		// Consumables are used up on attack.
		p.activeItem = nil
	}
}
