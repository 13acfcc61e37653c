package game

import (
	"fmt"
	"strconv"

	"github.com/burrowgame/burrow/pkg/metrics"
	"github.com/burrowgame/burrow/pkg/network"
	"github.com/burrowgame/burrow/pkg/persist"
	"github.com/burrowgame/burrow/pkg/protocol"
	"github.com/burrowgame/burrow/pkg/world"
)

// All broadcast helpers run with g.mu held.

// broadcastData sends one packet to every session except the excluded
// one. Pass a nil exclude to reach everyone.
func (g *GameServer) broadcastData(t protocol.PacketType, data string, exclude *network.Session) {
	for s := range g.sessions {
		if s == exclude {
			continue
		}
		s.SendPacket(t, data)
	}
	metrics.Broadcasts.WithLabelValues(t.String()).Inc()
}

// BroadcastEntityUpdate drains the entity's pending field updates and
// sends them to every player in sync range. The update flags are
// consumed exactly once per cycle, so this is the only reader; sending
// the same drained payload to each interested player keeps them
// consistent. With includeSelf false, a player entity does not receive
// its own update.
func (g *GameServer) BroadcastEntityUpdate(e world.Entity, includeSelf bool) {
	updates := e.ConsumeUpdates()
	if updates == "" {
		return
	}
	data := fmt.Sprintf("%d;%s", e.ID(), updates)
	for _, p := range PlayersInRangeOf(e, false) {
		if !includeSelf && p == e {
			continue
		}
		if s := g.sessionFor(p); s != nil {
			s.SendPacket(protocol.PacketEntity, data)
		}
	}
	metrics.Broadcasts.WithLabelValues(protocol.PacketEntity.String()).Inc()
}

// BroadcastEntityAddition announces a new entity to every player in
// track range.
func (g *GameServer) BroadcastEntityAddition(e world.Entity, includeSelf bool) {
	data := persist.EncodeEntity(e)
	for _, p := range PlayersInRangeOf(e, true) {
		if !includeSelf && p == e {
			continue
		}
		if s := g.sessionFor(p); s != nil {
			s.SendPacket(protocol.PacketAdd, data)
		}
	}
	metrics.Broadcasts.WithLabelValues(protocol.PacketAdd.String()).Inc()
}

// BroadcastEntityRemoval announces an entity's removal to every player
// in track range. The entity must still be attached to its level when
// this is called, or no one is in range of it.
func (g *GameServer) BroadcastEntityRemoval(e world.Entity, exclude *network.Session) {
	data := strconv.Itoa(e.ID())
	for _, p := range PlayersInRangeOf(e, true) {
		s := g.sessionFor(p)
		if s == nil || s == exclude {
			continue
		}
		s.SendPacket(protocol.PacketRemove, data)
	}
	metrics.Broadcasts.WithLabelValues(protocol.PacketRemove.String()).Inc()
}

// BroadcastTileUpdate tells every player in sync range of the tile
// about its new contents.
func (g *GameServer) BroadcastTileUpdate(l *world.Level, xt, yt int) {
	data := fmt.Sprintf("%d,%d,%d,%d,%d", g.world.LevelIndex(l), xt, yt, l.Tile(xt, yt), l.DataAt(xt, yt))
	for _, p := range PlayersInRange(l, xt, yt, false) {
		if s := g.sessionFor(p); s != nil {
			s.SendPacket(protocol.PacketTile, data)
		}
	}
	metrics.Broadcasts.WithLabelValues(protocol.PacketTile.String()).Inc()
}
