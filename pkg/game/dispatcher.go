package game

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/burrowgame/burrow/pkg/log"
	"github.com/burrowgame/burrow/pkg/metrics"
	"github.com/burrowgame/burrow/pkg/network"
	"github.com/burrowgame/burrow/pkg/persist"
	"github.com/burrowgame/burrow/pkg/protocol"
	"github.com/burrowgame/burrow/pkg/version"
	"github.com/burrowgame/burrow/pkg/world"
)

// HandlePacket dispatches one inbound packet. It returns whether the
// packet was accepted; rejected packets have already been answered
// with an error where the client can act on one.
func (g *GameServer) HandlePacket(s *network.Session, p protocol.Packet) bool {
	metrics.PacketsReceived.WithLabelValues(p.Type.String()).Inc()

	// DISCONNECT tears the session down, and teardown ends with
	// Disconnected taking the mutex. Handle it before locking.
	if p.Type == protocol.PacketDisconnect {
		s.EndConnection()
		return true
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if p.Type == protocol.PacketInvalid {
		s.Log().Warn("sent invalid packet: %s", p.Data)
		return false
	}
	if p.Type.ServerOnly() {
		s.Log().Warn("sent server-only packet type %s", p.Type)
		s.SendError("illegal packet type: " + p.Type.String())
		return false
	}

	switch p.Type {
	case protocol.PacketPing:
		s.SendPacket(protocol.PacketPing, p.Data)
		return true
	case protocol.PacketUsernames:
		s.SendPacket(protocol.PacketUsernames, usernameList(g.usernamesLocked()))
		return true
	case protocol.PacketLogin:
		return g.handleLogin(s, p.Data)
	}

	// Everything below acts on the session's player; LOGIN must have
	// bound it first.
	if s.Player().Username() == "" {
		s.SendError("not logged in")
		return false
	}

	switch p.Type {
	case protocol.PacketLoad:
		return g.handleLoad(s, p.Data)
	case protocol.PacketMove:
		return g.handleMove(s, p.Data)
	case protocol.PacketInteract:
		return g.handleInteract(s, p.Data)
	case protocol.PacketPickup:
		return g.handlePickup(s, p.Data)
	case protocol.PacketChestIn:
		return g.handleChestIn(s, p.Data)
	case protocol.PacketChestOut:
		return g.handleChestOut(s, p.Data)
	case protocol.PacketPush:
		return g.handlePush(s, p.Data)
	case protocol.PacketBed:
		return g.handleBed(s, p.Data)
	case protocol.PacketPotion:
		return g.handlePotion(s, p.Data)
	case protocol.PacketDie:
		return g.handleDie(s, p.Data)
	case protocol.PacketRespawn:
		return g.handleRespawn(s)
	case protocol.PacketSave:
		return g.handleSave(s, p.Data)
	default:
		// Anything without server-side semantics is relayed to the
		// other clients untouched.
		g.broadcastData(p.Type, p.Data, s)
		return true
	}
}

func (g *GameServer) handleLogin(s *network.Session, data string) bool {
	req, err := protocol.DecodeLoginRequest(data)
	if err != nil {
		s.Log().Warn("bad login: %v", err)
		s.SendError("malformed login")
		return false
	}
	if req.Version != version.Protocol {
		s.Log().Info("rejected: version %q, need %q", req.Version, version.Protocol)
		s.SendError("wrong game version; need " + version.Protocol)
		return false
	}
	p := s.Player()
	if p.Username() != "" {
		s.SendError("already logged in")
		return false
	}
	for other := range g.sessions {
		if other.Player().Username() == req.Username {
			s.SendError("username already in use")
			return false
		}
	}

	ctx := context.Background()
	levelIndex := -1

	if s.IsLoopback() && g.host == nil {
		// The first loopback connection is the host player, whose
		// save lives in the world's own files rather than under a
		// username key.
		g.host = s
		saved, err := g.repo.LoadHostPlayer(ctx)
		if err != nil && !persist.IsNotFound(err) {
			log.Error("failed to load host player: %v", err)
		}
		if err == nil {
			// The host record comes back as two save-file lines; the
			// wire form is one line with a field delimiter.
			levelIndex = g.recoverPlayer(s, strings.ReplaceAll(saved, "\n", ";"))
		}
		s.Log().Info("logged in as host %q", req.Username)
	} else {
		saved, err := g.repo.LoadPlayer(ctx, req.Username)
		if err != nil && !persist.IsNotFound(err) {
			log.Error("failed to load player %q: %v", req.Username, err)
		}
		if err == nil {
			levelIndex = g.recoverPlayer(s, saved)
		}
	}

	var l *world.Level
	if levelIndex >= 0 {
		l = g.world.Level(levelIndex)
	}
	if l == nil {
		l = g.world.SurfaceLevel()
		levelIndex = g.world.LevelIndex(l)
		p.FindStartPos(l, g.world.Rand())
	}

	p.SetUsername(req.Username)
	id := g.world.AddEntity(p, l)
	// The join handshake drains any field updates staged while
	// hydrating; the INIT payload already carries the final state.
	p.ConsumeUpdates()

	s.SendPacket(protocol.PacketGame, g.gameVarsData())
	s.SendPacket(protocol.PacketInit, fmt.Sprintf("%d,%d,%d,%d,%d,%d",
		id, l.W, l.H, levelIndex, p.X(), p.Y()))
	g.BroadcastEntityAddition(p, false)
	s.Log().Info("logged in as %q on level %d", req.Username, levelIndex)
	return true
}

// recoverPlayer hydrates the session's player from a stored record and
// replays the record to the client as a PLAYER packet. It returns the
// recorded level index, or -1 when the record is unusable.
func (g *GameServer) recoverPlayer(s *network.Session, saved string) int {
	playerLine, _, _ := strings.Cut(saved, ";")
	levelIndex, err := persist.LoadPlayer(s.Player(), strings.Split(playerLine, ","))
	if err != nil {
		log.Error("failed to restore player record: %v", err)
		return -1
	}
	if g.world.Level(levelIndex) == nil {
		return -1
	}
	s.SendPacket(protocol.PacketPlayer, saved)
	return levelIndex
}

func (g *GameServer) handleLoad(s *network.Session, data string) bool {
	idx, err := protocol.DecodeLevelIndex(data)
	if err != nil {
		s.SendError("malformed level index")
		return false
	}
	l := g.world.Level(idx)
	if l == nil {
		s.SendError("no such level: " + data)
		return false
	}
	p := s.Player()

	// Tiles go out as one batched write: the blob plus any TILE
	// updates racing in behind it.
	s.CachePacketTypes(protocol.TileUpdates...)
	s.SendPacket(protocol.PacketTiles, tileBlob(l))
	s.FlushCache()

	// Then every entity the player should start tracking, again as
	// one batch so racing ADD/REMOVE broadcasts cannot interleave.
	s.CachePacketTypes(protocol.EntityUpdates...)
	var entries []string
	for _, e := range l.Entities() {
		if e == p {
			continue
		}
		if p.ShouldTrack(e.TileX(), e.TileY()) {
			entries = append(entries, persist.EncodeEntity(e))
		}
	}
	s.SendPacket(protocol.PacketEntities, protocol.JoinList(entries))
	s.FlushCache()
	return true
}

// tileBlob interleaves tile type and tile data bytes for the whole
// level. Tile ids never collide with the line terminator; data values
// that would are nudged off it.
func tileBlob(l *world.Level) string {
	var sb strings.Builder
	sb.Grow(len(l.Tiles) * 2)
	for i := range l.Tiles {
		sb.WriteByte(l.Tiles[i])
		d := l.Data[i]
		if d == '\n' {
			d++
		}
		sb.WriteByte(d)
	}
	return sb.String()
}

func (g *GameServer) handleMove(s *network.Session, data string) bool {
	req, err := protocol.DecodeMoveRequest(data)
	if err != nil {
		s.SendError("malformed move")
		return false
	}
	p := s.Player()
	p.SetDir(req.Dir)

	if g.world.LevelIndex(p.Level()) != req.Level {
		return g.handleLevelChange(s, req)
	}

	oldXt, oldYt := p.TileX(), p.TileY()
	dx, dy := req.X-p.X(), req.Y-p.Y()
	moved := false
	if dx != 0 || dy != 0 {
		moved = p.Level().Move(p, dx, dy)
	}
	if moved {
		g.updateSyncArea(s, oldXt, oldYt)
	} else {
		// Snap the client back to the authoritative position.
		p.SetUpdate("x", strconv.Itoa(p.X()))
		p.SetUpdate("y", strconv.Itoa(p.Y()))
	}
	g.BroadcastEntityUpdate(p, !moved)
	return moved
}

// handleLevelChange moves the player between levels (stairs). The
// requested position is trusted here; the client is standing on the
// matching stairs tile and will request a LOAD for the new level next.
func (g *GameServer) handleLevelChange(s *network.Session, req *protocol.MoveRequest) bool {
	to := g.world.Level(req.Level)
	if to == nil {
		s.SendError("no such level: " + strconv.Itoa(req.Level))
		return false
	}
	p := s.Player()
	g.BroadcastEntityRemoval(p, s)
	if err := g.world.TransferEntity(p, to); err != nil {
		log.Error("failed to transfer player %d: %v", p.ID(), err)
		return false
	}
	p.SetPos(req.X, req.Y)
	p.ConsumeUpdates()
	g.BroadcastEntityAddition(p, false)
	return true
}

// updateSyncArea reconciles the mover's tracked-entity set after a
// successful move: entities entering track range are added to its
// view, entities leaving it are removed. Both checks anchor on tile
// positions, the old one passed in and the new one read off the player.
func (g *GameServer) updateSyncArea(s *network.Session, oldXt, oldYt int) {
	p := s.Player()
	for _, e := range p.Level().Entities() {
		if e == p {
			continue
		}
		was := inTrackRange(oldXt, oldYt, e.TileX(), e.TileY())
		is := p.ShouldTrack(e.TileX(), e.TileY())
		if is && !was {
			s.SendPacket(protocol.PacketAdd, persist.EncodeEntity(e))
		} else if was && !is {
			s.SendPacket(protocol.PacketRemove, strconv.Itoa(e.ID()))
		}
	}
}

func (g *GameServer) handleInteract(s *network.Session, data string) bool {
	req, err := protocol.DecodeInteractRequest(data)
	if err != nil {
		s.SendError("malformed interact")
		return false
	}
	p := s.Player()

	if req.Item == "null" || req.Item == "" {
		p.SetActiveItem(nil)
	} else {
		item, err := world.ParseItem(req.Item)
		if err != nil {
			s.SendError("unknown item: " + req.Item)
			return false
		}
		p.SetActiveItem(&item)
	}

	// The client reports its arrow count; reconcile the server-side
	// inventory toward it before resolving the attack.
	if have := p.Inventory().Count("arrow"); have < req.ArrowCount {
		p.Inventory().AddCount("arrow", req.ArrowCount-have)
	} else if have > req.ArrowCount {
		p.Inventory().RemoveCount("arrow", have-req.ArrowCount)
	}

	p.Attack()

	// Tools resolve against the tile in front of the player; a changed
	// tile is pushed to everyone who can see it.
	if item := p.ActiveItem(); item != nil && p.Level() != nil {
		xt, yt := p.TargetTile()
		if p.Level().InteractTile(xt, yt, item.Name) {
			g.BroadcastTileUpdate(p.Level(), xt, yt)
		}
	}

	if !g.creative {
		active := "null"
		if p.ActiveItem() != nil {
			active = p.ActiveItem().Data()
		}
		s.SendPacket(protocol.PacketInteract, active)
	}
	return true
}

func (g *GameServer) handlePickup(s *network.Session, data string) bool {
	id, err := protocol.DecodeEntityID(data)
	if err != nil {
		s.SendError("malformed pickup")
		return false
	}
	e := g.world.GetEntity(id)
	ie, ok := e.(*world.ItemEntity)
	if e == nil || e.Removed() || !ok {
		// Someone else won the race (or the id is bogus); correct the
		// requester's view so the ghost item disappears.
		s.SendPacket(protocol.PacketRemove, strconv.Itoa(id))
		return false
	}
	g.BroadcastEntityRemoval(ie, s)
	g.world.RemoveEntity(ie)
	s.Player().Inventory().Add(ie.Item)
	s.SendPacket(protocol.PacketPickup, strconv.Itoa(id))
	return true
}

func (g *GameServer) handleChestIn(s *network.Session, data string) bool {
	req, err := protocol.DecodeChestInRequest(data)
	if err != nil {
		s.SendError("malformed chest-in")
		return false
	}
	chest, ok := g.world.GetEntity(req.EntityID).(*world.Chest)
	if !ok || chest.Removed() {
		s.SendError("no such chest: " + strconv.Itoa(req.EntityID))
		return false
	}
	item, err := world.ParseItem(req.Item)
	if err != nil {
		s.SendError("unknown item: " + req.Item)
		return false
	}
	chest.Inventory.Add(item)
	chest.SetUpdate("items", chest.ItemsData())
	g.BroadcastEntityUpdate(chest, true)
	return true
}

func (g *GameServer) handleChestOut(s *network.Session, data string) bool {
	req, err := protocol.DecodeChestOutRequest(data)
	if err != nil {
		s.SendError("malformed chest-out")
		return false
	}
	chest, ok := g.world.GetEntity(req.EntityID).(*world.Chest)
	if !ok || chest.Removed() {
		s.SendError("no such chest: " + strconv.Itoa(req.EntityID))
		return false
	}
	item, err := chest.Inventory.Remove(req.Index)
	if err != nil {
		s.SendError("bad chest slot: " + strconv.Itoa(req.Index))
		return false
	}
	// Only the requester receives the item; everyone else just sees
	// the chest contents shrink.
	s.SendPacket(protocol.PacketChestOut, item.Data())
	chest.SetUpdate("items", chest.ItemsData())
	g.BroadcastEntityUpdate(chest, true)
	return true
}

func (g *GameServer) handlePush(s *network.Session, data string) bool {
	id, err := protocol.DecodeEntityID(data)
	if err != nil {
		s.SendError("malformed push")
		return false
	}
	e := g.world.GetEntity(id)
	f, ok := e.(interface{ TryPush(*world.RemotePlayer) bool })
	if e == nil || e.Removed() || !ok {
		s.SendError("cannot push entity: " + data)
		return false
	}
	if !f.TryPush(s.Player()) {
		return false
	}
	g.BroadcastEntityUpdate(e, true)
	return true
}

func (g *GameServer) handleBed(s *network.Session, data string) bool {
	id, err := protocol.DecodeEntityID(data)
	if err != nil {
		s.SendError("malformed bed")
		return false
	}
	bed, ok := g.world.GetEntity(id).(*world.Bed)
	if !ok || bed.Removed() {
		s.SendError("no such bed: " + data)
		return false
	}
	bed.Use(s.Player())
	g.BroadcastEntityUpdate(bed, true)
	return true
}

func (g *GameServer) handlePotion(s *network.Session, data string) bool {
	req, err := protocol.DecodePotionRequest(data)
	if err != nil {
		s.SendError("malformed potion")
		return false
	}
	p := s.Player()
	if err := world.ApplyPotion(p, world.PotionType(req.Type), req.Apply); err != nil {
		s.SendError(err.Error())
		return false
	}
	g.BroadcastEntityUpdate(p, false)
	return true
}

// handleDie removes the dead player from its level and scatters its
// reported drops as item entities. The session stays; RESPAWN brings
// the player back.
func (g *GameServer) handleDie(s *network.Session, data string) bool {
	p := s.Player()
	l := p.Level()
	if l == nil {
		return false
	}

	if data != "" {
		for _, itemData := range strings.Split(data, ",") {
			item, err := world.ParseItem(itemData)
			if err != nil {
				s.Log().Warn("reported unknown drop %q", itemData)
				continue
			}
			ie := world.NewItemEntity(item)
			ie.SetPos(p.X(), p.Y())
			g.world.AddEntity(ie, l)
			ie.ConsumeUpdates()
			g.BroadcastEntityAddition(ie, true)
		}
	}

	g.BroadcastEntityRemoval(p, s)
	g.world.RemoveEntity(p)
	p.Inventory().LoadData("")
	p.SetActiveItem(nil)
	return true
}

func (g *GameServer) handleRespawn(s *network.Session) bool {
	p := s.Player()
	if p.Level() != nil {
		return false
	}
	l := g.world.SurfaceLevel()
	p.SetHealth(world.MaxHealth)
	p.FindStartPos(l, g.world.Rand())
	g.world.AddEntity(p, l)
	p.ConsumeUpdates()

	s.SendPacket(protocol.PacketPlayer, persist.EncodePlayerLine(p, g.world.LevelIndex(l))+";")
	g.BroadcastEntityAddition(p, false)
	return true
}

// handleSave stores the client-reported player record. The host's
// record goes into the world's own save slot; everyone else is keyed
// by username.
func (g *GameServer) handleSave(s *network.Session, data string) bool {
	ctx := context.Background()
	var err error
	if s == g.host {
		playerLine, inventoryLine, _ := strings.Cut(data, ";")
		err = g.repo.SaveHostPlayer(ctx, playerLine, inventoryLine)
	} else {
		err = g.repo.SavePlayer(ctx, s.Player().Username(), data)
	}
	if err != nil {
		log.Error("failed to save player %q: %v", s.Player().Username(), err)
		s.SendError("save failed")
		return false
	}
	return true
}
