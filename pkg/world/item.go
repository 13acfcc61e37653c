package world

import (
	"fmt"
	"strconv"
	"strings"
)

// Item is one inventory slot: a canonical item name plus a stack count.
// The wire/save form is "name" for a single item and "name~count" for a
// stack; comma, semicolon and colon stay free for the outer framing.
type Item struct {
	Name  string
	Count int
}

func (i Item) Data() string {
	if i.Count > 1 {
		return i.Name + "~" + strconv.Itoa(i.Count)
	}
	return i.Name
}

// ParseItem decodes the serialized form produced by Data.
func ParseItem(data string) (Item, error) {
	name, countStr, found := strings.Cut(data, "~")
	if name == "" {
		return Item{}, fmt.Errorf("empty item data")
	}
	if !itemNames[name] {
		return Item{}, fmt.Errorf("unknown item %q", name)
	}
	item := Item{Name: name, Count: 1}
	if found {
		count, err := strconv.Atoi(countStr)
		if err != nil || count < 1 {
			return Item{}, fmt.Errorf("bad item count in %q", data)
		}
		item.Count = count
	}
	return item, nil
}

// itemNames is the closed registry of canonical item names. The game
// rules behind each item live outside this layer; the server only needs
// to validate names arriving from clients.
var itemNames = map[string]bool{
	"wood":         true,
	"stone":        true,
	"dirt":         true,
	"sand":         true,
	"flower":       true,
	"acorn":        true,
	"seeds":        true,
	"wheat":        true,
	"bread":        true,
	"apple":        true,
	"coal":         true,
	"iron_ore":     true,
	"gold_ore":     true,
	"gem":          true,
	"arrow":        true,
	"bow":          true,
	"sword_wood":   true,
	"sword_stone":  true,
	"sword_iron":   true,
	"pick_wood":    true,
	"pick_stone":   true,
	"pick_iron":    true,
	"axe_wood":     true,
	"axe_stone":    true,
	"axe_iron":     true,
	"shovel_wood":  true,
	"shovel_stone": true,
	"shovel_iron":  true,
	"hoe_wood":     true,
	"hoe_stone":    true,
	"bucket":       true,
	"bucket_water": true,
	"bucket_lava":  true,
	"lantern":      true,
	"power_glove":  true,
	"potion_heal":  true,
	"potion_speed": true,
	"potion_light": true,
	"torch":        true,
	"workbench":    true,
	"furnace":      true,
	"anvil":        true,
	"chest":        true,
	"bed":          true,
}

// GetItem looks an item up by canonical name.
func GetItem(name string) (Item, bool) {
	if !itemNames[name] {
		return Item{}, false
	}
	return Item{Name: name, Count: 1}, true
}

// Inventory is an ordered list of item slots. Slots holding the same
// item name are merged on insertion.
type Inventory struct {
	slots []Item
}

// Size returns the number of slots.
func (inv *Inventory) Size() int {
	return len(inv.slots)
}

// Slots returns a copy of the slot list.
func (inv *Inventory) Slots() []Item {
	out := make([]Item, len(inv.slots))
	copy(out, inv.slots)
	return out
}

// Add inserts an item, merging into an existing slot of the same name.
func (inv *Inventory) Add(item Item) {
	if item.Count < 1 {
		item.Count = 1
	}
	for i := range inv.slots {
		if inv.slots[i].Name == item.Name {
			inv.slots[i].Count += item.Count
			return
		}
	}
	inv.slots = append(inv.slots, item)
}

// AddCount inserts n items of the given name.
func (inv *Inventory) AddCount(name string, n int) {
	if n < 1 {
		return
	}
	inv.Add(Item{Name: name, Count: n})
}

// Count returns the total count of items with the given name.
func (inv *Inventory) Count(name string) int {
	total := 0
	for _, slot := range inv.slots {
		if slot.Name == name {
			total += slot.Count
		}
	}
	return total
}

// Remove removes and returns the slot at index. Index bounds are the
// caller's contract; out-of-range is an error, not a panic.
func (inv *Inventory) Remove(index int) (Item, error) {
	if index < 0 || index >= len(inv.slots) {
		return Item{}, fmt.Errorf("inventory index %d out of bounds (size %d)", index, len(inv.slots))
	}
	removed := inv.slots[index]
	inv.slots = append(inv.slots[:index], inv.slots[index+1:]...)
	return removed, nil
}

// RemoveCount removes up to n items of the given name, dropping
// emptied slots.
func (inv *Inventory) RemoveCount(name string, n int) {
	for i := 0; i < len(inv.slots) && n > 0; {
		if inv.slots[i].Name != name {
			i++
			continue
		}
		take := inv.slots[i].Count
		if take > n {
			take = n
		}
		inv.slots[i].Count -= take
		n -= take
		if inv.slots[i].Count == 0 {
			inv.slots = append(inv.slots[:i], inv.slots[i+1:]...)
		} else {
			i++
		}
	}
}

// Data serializes the inventory as a comma list of slot data.
func (inv *Inventory) Data() string {
	entries := make([]string, len(inv.slots))
	for i, slot := range inv.slots {
		entries[i] = slot.Data()
	}
	return strings.Join(entries, ",")
}

// LoadData replaces the inventory contents from serialized form.
func (inv *Inventory) LoadData(data string) error {
	inv.slots = nil
	if data == "" {
		return nil
	}
	for _, entry := range strings.Split(data, ",") {
		item, err := ParseItem(entry)
		if err != nil {
			return err
		}
		inv.Add(item)
	}
	return nil
}
