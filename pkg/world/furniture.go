package world

import "strings"

// Furniture is a solid, pushable entity (workbench, furnace, lantern...).
// Chests and beds extend it with their own interactions.
type Furniture struct {
	entityBase
	name string
}

func NewFurniture(name string) *Furniture {
	f := &Furniture{name: name}
	f.xr, f.yr = 7, 7
	f.solid = true
	return f
}

func (f *Furniture) Kind() string { return "Furniture" }

func (f *Furniture) Name() string { return f.name }

// TryPush shoves the furniture one tile away from the pushing player.
// A blocked push is not an error; the piece simply stays put.
func (f *Furniture) TryPush(p *RemotePlayer) bool {
	if f.level == nil {
		return false
	}
	dx, dy := 0, 0
	switch p.Dir() {
	case DirDown:
		dy = 16
	case DirUp:
		dy = -16
	case DirLeft:
		dx = -16
	case DirRight:
		dx = 16
	}
	return f.level.Move(f, dx, dy)
}

// Chest is furniture with an inventory, mutated only through
// dispatcher-validated CHESTIN/CHESTOUT packets naming its entity id.
type Chest struct {
	Furniture
	Inventory Inventory
}

func NewChest() *Chest {
	c := &Chest{}
	c.Furniture.name = "chest"
	c.xr, c.yr = 7, 7
	c.solid = true
	return c
}

func (c *Chest) Kind() string { return "Chest" }

// ItemsData renders the chest contents as a '+'-joined item list, the
// form used inside entity payloads where commas already separate
// entries.
func (c *Chest) ItemsData() string {
	items := make([]string, 0, c.Inventory.Size())
	for _, slot := range c.Inventory.Slots() {
		items = append(items, slot.Data())
	}
	return strings.Join(items, "+")
}

// Bed is furniture with a use interaction.
type Bed struct {
	Furniture
	occupant *RemotePlayer
}

func NewBed() *Bed {
	b := &Bed{}
	b.Furniture.name = "bed"
	b.xr, b.yr = 7, 7
	b.solid = true
	return b
}

func (b *Bed) Kind() string { return "Bed" }

// Use puts the player into (or out of) the bed.
func (b *Bed) Use(p *RemotePlayer) {
	if b.occupant == p {
		b.occupant = nil
		b.SetUpdate("occupied", "false")
		return
	}
	if b.occupant != nil {
		return
	}
	b.occupant = p
	b.SetUpdate("occupied", "true")
}

// Occupant returns the player currently in the bed, if any.
func (b *Bed) Occupant() *RemotePlayer { return b.occupant }

// ItemEntity is an item lying on the ground, waiting to be picked up.
type ItemEntity struct {
	entityBase
	Item Item
}

func NewItemEntity(item Item) *ItemEntity {
	ie := &ItemEntity{Item: item}
	ie.xr, ie.yr = 3, 3
	return ie
}

func (ie *ItemEntity) Kind() string { return "ItemEntity" }
