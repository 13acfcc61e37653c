package game

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/burrowgame/burrow/pkg/log"
	"github.com/burrowgame/burrow/pkg/network"
	"github.com/burrowgame/burrow/pkg/persist"
	"github.com/burrowgame/burrow/pkg/protocol"
	"github.com/burrowgame/burrow/pkg/world"
)

// GameServer is the authoritative game state plus every connected
// session. All packet handling and broadcasting happens under one
// mutex: sessions read concurrently, but the world mutates from one
// goroutine at a time.
type GameServer struct {
	mu sync.Mutex

	world    *world.World
	repo     persist.Repository
	worldDir string

	sessions map[*network.Session]bool
	host     *network.Session

	creative  bool
	gameSpeed int
	tickCount int
	pastDay1  bool
	scoreTime int
	startTime time.Time
}

type NewGameServerOptions struct {
	World     *world.World
	Repo      persist.Repository
	WorldDir  string
	Creative  bool
	GameSpeed int
}

func NewGameServer(opts NewGameServerOptions) *GameServer {
	gameSpeed := opts.GameSpeed
	if gameSpeed <= 0 {
		gameSpeed = 1
	}
	return &GameServer{
		world:     opts.World,
		repo:      opts.Repo,
		worldDir:  opts.WorldDir,
		sessions:  make(map[*network.Session]bool),
		creative:  opts.Creative,
		gameSpeed: gameSpeed,
		startTime: time.Now(),
	}
}

func (g *GameServer) World() *world.World { return g.world }

func (g *GameServer) Uptime() time.Duration { return time.Since(g.startTime) }

// Connected registers the session. The player stays unbound until
// LOGIN succeeds.
func (g *GameServer) Connected(s *network.Session) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sessions[s] = true
	s.Log().Info("connected from %s", s.RemoteAddr())
}

// Disconnected removes the session's player from the world and tells
// everyone who could see it. Called exactly once per session, from the
// session's own goroutine.
func (g *GameServer) Disconnected(s *network.Session) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.sessions[s] {
		return
	}
	delete(g.sessions, s)

	p := s.Player()
	if p.Level() != nil {
		// Announce before detaching; afterwards nobody is in range.
		g.BroadcastEntityRemoval(p, s)
		g.world.RemoveEntity(p)
	}
	if g.host == s {
		g.host = nil
		s.Log().Info("host disconnected, host slot vacated")
	}
	s.Log().Info("%q disconnected", p.Username())
}

// SessionCount returns the number of live sessions, authenticated or
// not.
func (g *GameServer) SessionCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.sessions)
}

// Usernames lists the usernames of every authenticated player.
func (g *GameServer) Usernames() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.usernamesLocked()
}

func (g *GameServer) usernamesLocked() []string {
	var names []string
	for s := range g.sessions {
		if name := s.Player().Username(); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// sessionFor finds the session owning the given player.
func (g *GameServer) sessionFor(p *world.RemotePlayer) *network.Session {
	for s := range g.sessions {
		if s.Player() == p {
			return s
		}
	}
	return nil
}

func (g *GameServer) gameVarsData() string {
	mode := "survival"
	if g.creative {
		mode = "creative"
	}
	return fmt.Sprintf("%s;%d;%d;%t;%d", mode, g.tickCount, g.gameSpeed, g.pastDay1, g.scoreTime)
}

// BroadcastGameVars pushes the shared game variables to every client,
// typically after an admin changed them.
func (g *GameServer) BroadcastGameVars() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.broadcastData(protocol.PacketGame, g.gameVarsData(), nil)
}

// SetGameVars changes the game mode and speed and pushes the new
// values to every client. A non-positive speed leaves the speed alone.
func (g *GameServer) SetGameVars(creative bool, gameSpeed int) {
	g.mu.Lock()
	g.creative = creative
	if gameSpeed > 0 {
		g.gameSpeed = gameSpeed
	}
	g.mu.Unlock()
	g.BroadcastGameVars()
}

// BroadcastNotification shows a transient message on every client for
// the given number of ticks.
func (g *GameServer) BroadcastNotification(text string, ticks int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.broadcastData(protocol.PacketNotify, fmt.Sprintf("%d;%s", ticks, text), nil)
}

// SaveWorld persists the world to disk and writes a compressed backup.
// Clients are asked to report their player state first, so their SAVE
// responses land in the repository alongside the world files.
func (g *GameServer) SaveWorld(ctx context.Context) error {
	g.mu.Lock()
	for s := range g.sessions {
		if s.Player().Username() != "" || s == g.host {
			s.SendPacket(protocol.PacketSave, "")
		}
	}
	g.mu.Unlock()

	if err := persist.SaveWorld(g.worldDir, g.world); err != nil {
		return fmt.Errorf("failed to save world: %v", err)
	}
	backup, err := persist.WriteBackup(g.worldDir, g.world)
	if err != nil {
		return fmt.Errorf("failed to write world backup: %v", err)
	}
	log.Info("world saved to %s (backup %s)", g.worldDir, backup)
	return nil
}

// Shutdown saves the world and closes every session.
func (g *GameServer) Shutdown(ctx context.Context) error {
	if err := g.SaveWorld(ctx); err != nil {
		log.Error("failed to save world during shutdown: %v", err)
	}

	g.mu.Lock()
	sessions := make([]*network.Session, 0, len(g.sessions))
	for s := range g.sessions {
		sessions = append(sessions, s)
	}
	g.mu.Unlock()

	for _, s := range sessions {
		s.EndConnection()
	}

	if err := g.repo.Close(ctx); err != nil {
		return fmt.Errorf("failed to close repository: %v", err)
	}
	return nil
}

func usernameList(names []string) string {
	return strings.Join(names, ",")
}
