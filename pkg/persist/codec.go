package persist

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/burrowgame/burrow/pkg/world"
)

// Entity wire/save encoding: Kind[field:field:...]. Fields are colon
// delimited so encoded entities can ride inside comma lists (ENTITIES
// payloads) and semicolon frames untouched. Chest contents join item
// data with '+'.

// EncodeEntity serializes an entity for ADD/ENTITIES payloads and for
// the world save.
func EncodeEntity(e world.Entity) string {
	switch v := e.(type) {
	case *world.RemotePlayer:
		return fmt.Sprintf("Player[%d:%d:%d:%d:%d:%s]",
			v.ID(), v.X(), v.Y(), v.Dir(), v.Health(), v.Username())
	case *world.Chest:
		return fmt.Sprintf("Chest[%d:%d:%d:%s]",
			v.ID(), v.X(), v.Y(), v.ItemsData())
	case *world.Bed:
		occupied := "false"
		if v.Occupant() != nil {
			occupied = "true"
		}
		return fmt.Sprintf("Bed[%d:%d:%d:%s]", v.ID(), v.X(), v.Y(), occupied)
	case *world.Furniture:
		return fmt.Sprintf("Furniture[%d:%d:%d:%s]", v.ID(), v.X(), v.Y(), v.Name())
	case *world.ItemEntity:
		return fmt.Sprintf("ItemEntity[%d:%d:%d:%s]", v.ID(), v.X(), v.Y(), v.Item.Data())
	default:
		return ""
	}
}

// DecodeEntity parses an encoded entity. The id travels separately
// because the world assigns ids on insertion; callers that only need
// to inspect the record (DIE packets) ignore it.
func DecodeEntity(data string) (world.Entity, int, error) {
	kind, rest, found := strings.Cut(data, "[")
	if !found || !strings.HasSuffix(rest, "]") {
		return nil, 0, fmt.Errorf("malformed entity data: %q", data)
	}
	fields := strings.Split(strings.TrimSuffix(rest, "]"), ":")
	if len(fields) < 3 {
		return nil, 0, fmt.Errorf("entity data %q has too few fields", data)
	}
	id, err := strconv.Atoi(fields[0])
	if err != nil {
		return nil, 0, fmt.Errorf("entity data %q has bad id: %v", data, err)
	}
	x, err := strconv.Atoi(fields[1])
	if err != nil {
		return nil, 0, fmt.Errorf("entity data %q has bad x: %v", data, err)
	}
	y, err := strconv.Atoi(fields[2])
	if err != nil {
		return nil, 0, fmt.Errorf("entity data %q has bad y: %v", data, err)
	}

	var e world.Entity
	switch kind {
	case "Player":
		p := world.NewRemotePlayer()
		if len(fields) > 3 {
			if dir, err := strconv.Atoi(fields[3]); err == nil {
				p.SetDir(dir)
			}
		}
		if len(fields) > 4 {
			if health, err := strconv.Atoi(fields[4]); err == nil {
				p.SetHealth(health)
			}
		}
		if len(fields) > 5 {
			p.SetUsername(fields[5])
		}
		e = p
	case "Chest":
		c := world.NewChest()
		if len(fields) > 3 && fields[3] != "" {
			for _, itemData := range strings.Split(fields[3], "+") {
				item, err := world.ParseItem(itemData)
				if err != nil {
					return nil, 0, fmt.Errorf("chest data %q has bad item: %v", data, err)
				}
				c.Inventory.Add(item)
			}
		}
		e = c
	case "Bed":
		e = world.NewBed()
	case "Furniture":
		name := "workbench"
		if len(fields) > 3 && fields[3] != "" {
			name = fields[3]
		}
		e = world.NewFurniture(name)
	case "ItemEntity":
		if len(fields) < 4 {
			return nil, 0, fmt.Errorf("item entity data %q is missing its item", data)
		}
		item, err := world.ParseItem(fields[3])
		if err != nil {
			return nil, 0, fmt.Errorf("item entity data %q has bad item: %v", data, err)
		}
		e = world.NewItemEntity(item)
	default:
		return nil, 0, fmt.Errorf("unknown entity kind %q", kind)
	}

	e.SetPos(x, y)
	e.ConsumeUpdates() // a freshly decoded entity has nothing pending
	return e, id, nil
}

// EncodePlayerLine serializes a player's persistent record as the
// comma-separated first line of its save data.
func EncodePlayerLine(p *world.RemotePlayer, levelIndex int) string {
	active := "null"
	if p.ActiveItem() != nil {
		active = p.ActiveItem().Data()
	}
	return strings.Join([]string{
		strconv.Itoa(p.X()),
		strconv.Itoa(p.Y()),
		strconv.Itoa(levelIndex),
		strconv.Itoa(p.Dir()),
		strconv.Itoa(p.Health()),
		active,
	}, ",")
}

// LoadPlayer re-hydrates a server-side player from the first line of
// its save data and returns the recorded level index. Inventory is
// deliberately not loaded here; the client re-reports it.
func LoadPlayer(p *world.RemotePlayer, fields []string) (int, error) {
	if len(fields) < 5 {
		return 0, fmt.Errorf("player record needs at least 5 fields, got %d", len(fields))
	}
	x, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0, fmt.Errorf("player record has bad x: %v", err)
	}
	y, err := strconv.Atoi(fields[1])
	if err != nil {
		return 0, fmt.Errorf("player record has bad y: %v", err)
	}
	levelIndex, err := strconv.Atoi(fields[2])
	if err != nil {
		return 0, fmt.Errorf("player record has bad level index: %v", err)
	}
	dir, err := strconv.Atoi(fields[3])
	if err != nil {
		return 0, fmt.Errorf("player record has bad dir: %v", err)
	}
	health, err := strconv.Atoi(fields[4])
	if err != nil {
		return 0, fmt.Errorf("player record has bad health: %v", err)
	}

	p.SetPos(x, y)
	p.SetDir(dir)
	p.SetHealth(health)
	if len(fields) > 5 && fields[5] != "null" && fields[5] != "" {
		if item, err := world.ParseItem(fields[5]); err == nil {
			p.SetActiveItem(&item)
		}
	}
	p.ConsumeUpdates()
	return levelIndex, nil
}
