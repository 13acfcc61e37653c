package protocol

import (
	"fmt"
	"strings"
)

// PacketType enumerates every packet on the wire. The wire tag is the
// upper-case name returned by String.
type PacketType int

const (
	PacketInvalid PacketType = iota
	PacketPing
	PacketLogin
	PacketInit
	PacketLoad
	PacketTiles
	PacketTile
	PacketEntities
	PacketEntity
	PacketAdd
	PacketRemove
	PacketPlayer
	PacketMove
	PacketInteract
	PacketPickup
	PacketChestIn
	PacketChestOut
	PacketPush
	PacketBed
	PacketPotion
	PacketDie
	PacketRespawn
	PacketSave
	PacketDisconnect
	PacketGame
	PacketNotify
	PacketUsernames
)

var packetNames = map[PacketType]string{
	PacketInvalid:    "INVALID",
	PacketPing:       "PING",
	PacketLogin:      "LOGIN",
	PacketInit:       "INIT",
	PacketLoad:       "LOAD",
	PacketTiles:      "TILES",
	PacketTile:       "TILE",
	PacketEntities:   "ENTITIES",
	PacketEntity:     "ENTITY",
	PacketAdd:        "ADD",
	PacketRemove:     "REMOVE",
	PacketPlayer:     "PLAYER",
	PacketMove:       "MOVE",
	PacketInteract:   "INTERACT",
	PacketPickup:     "PICKUP",
	PacketChestIn:    "CHESTIN",
	PacketChestOut:   "CHESTOUT",
	PacketPush:       "PUSH",
	PacketBed:        "BED",
	PacketPotion:     "POTION",
	PacketDie:        "DIE",
	PacketRespawn:    "RESPAWN",
	PacketSave:       "SAVE",
	PacketDisconnect: "DISCONNECT",
	PacketGame:       "GAME",
	PacketNotify:     "NOTIFY",
	PacketUsernames:  "USERNAMES",
}

var packetTypesByName = func() map[string]PacketType {
	m := make(map[string]PacketType, len(packetNames))
	for t, name := range packetNames {
		m[name] = t
	}
	return m
}()

func (t PacketType) String() string {
	if name, ok := packetNames[t]; ok {
		return name
	}
	return fmt.Sprintf("PacketType(%d)", int(t))
}

// serverOnly packets carry world-level state that only the server may
// originate. A client sending one is a protocol violation.
var serverOnly = map[PacketType]bool{
	PacketInit:     true,
	PacketTiles:    true,
	PacketTile:     true,
	PacketEntities: true,
	PacketEntity:   true,
	PacketAdd:      true,
	PacketRemove:   true,
	PacketPlayer:   true,
	PacketGame:     true,
	PacketNotify:   true,
}

// ServerOnly reports whether the packet type is illegal for a client to send.
func (t PacketType) ServerOnly() bool {
	return serverOnly[t]
}

// TileUpdates is the cacheable packet group used for bulk tile transfers.
var TileUpdates = []PacketType{PacketTiles, PacketTile}

// EntityUpdates is the cacheable packet group used for bulk entity transfers.
var EntityUpdates = []PacketType{PacketEntities, PacketEntity, PacketAdd, PacketRemove}

// Packet is one framed wire message: a type tag plus its raw
// semicolon-delimited payload.
type Packet struct {
	Type PacketType
	Data string
}

// Fields splits the payload on the field delimiter. An empty payload
// yields no fields.
func (p Packet) Fields() []string {
	if p.Data == "" {
		return nil
	}
	return strings.Split(p.Data, ";")
}

// Encode renders the packet as a single wire line (without terminator).
func (p Packet) Encode() string {
	return p.Type.String() + ";" + p.Data
}

// ParseLine parses one wire line into a Packet. An unknown type tag or
// missing delimiter is an error; callers are expected to surface it as
// an INVALID packet rather than tear the connection down.
func ParseLine(line string) (Packet, error) {
	tag, data, found := strings.Cut(line, ";")
	if !found {
		return Packet{}, fmt.Errorf("malformed packet line: %q", line)
	}
	t, ok := packetTypesByName[tag]
	if !ok {
		return Packet{}, fmt.Errorf("unknown packet type: %q", tag)
	}
	return Packet{Type: t, Data: data}, nil
}

// JoinList joins list-valued payload entries with the inner comma
// delimiter, trimming the trailing separator.
func JoinList(entries []string) string {
	return strings.Join(entries, ",")
}
