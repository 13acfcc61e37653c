package game

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/burrowgame/burrow/pkg/network"
	"github.com/burrowgame/burrow/pkg/persist"
	"github.com/burrowgame/burrow/pkg/protocol"
	"github.com/burrowgame/burrow/pkg/version"
	"github.com/burrowgame/burrow/pkg/world"
)

// newTestGame builds a server over two all-grass 32x32 levels, so
// tests place their own obstacles.
func newTestGame(t *testing.T) (*GameServer, persist.Repository) {
	t.Helper()
	levels := make([]*world.Level, 2)
	for i := range levels {
		levels[i] = world.NewLevel(32, 32, i)
	}
	repo, err := persist.NewFileRepository(t.TempDir())
	require.NoError(t, err)
	g := NewGameServer(NewGameServerOptions{
		World:    world.New(levels, 1),
		Repo:     repo,
		WorldDir: t.TempDir(),
	})
	return g, repo
}

// testClient drives one session end to end through a pipe, the same
// framing a TCP client would use.
type testClient struct {
	t       *testing.T
	conn    net.Conn
	r       *bufio.Reader
	barrier int
}

func connect(t *testing.T, g *GameServer) *testClient {
	t.Helper()
	server, client := net.Pipe()
	s := network.NewSession(server, g)
	go s.Run()
	t.Cleanup(func() { client.Close() })
	return &testClient{t: t, conn: client, r: bufio.NewReader(client)}
}

// loopbackConn fakes a loopback remote address so a piped session
// takes the host path.
type loopbackConn struct {
	net.Conn
}

func (loopbackConn) RemoteAddr() net.Addr {
	return &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 4225}
}

func connectLoopback(t *testing.T, g *GameServer) *testClient {
	t.Helper()
	server, client := net.Pipe()
	s := network.NewSession(loopbackConn{server}, g)
	go s.Run()
	t.Cleanup(func() { client.Close() })
	return &testClient{t: t, conn: client, r: bufio.NewReader(client)}
}

func (c *testClient) send(line string) {
	c.t.Helper()
	require.NoError(c.t, c.conn.SetWriteDeadline(time.Now().Add(2*time.Second)))
	_, err := c.conn.Write([]byte(line + "\n"))
	require.NoError(c.t, err)
}

func (c *testClient) read() protocol.Packet {
	c.t.Helper()
	require.NoError(c.t, c.conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	line, err := c.r.ReadString('\n')
	require.NoError(c.t, err)
	p, err := protocol.ParseLine(strings.TrimRight(line, "\n"))
	require.NoError(c.t, err)
	return p
}

// readUntil skips packets until one of the wanted type arrives.
func (c *testClient) readUntil(want protocol.PacketType) protocol.Packet {
	c.t.Helper()
	for i := 0; i < 100; i++ {
		p := c.read()
		if p.Type == want {
			return p
		}
	}
	c.t.Fatalf("no %s packet within 100 packets", want)
	return protocol.Packet{}
}

// sync drains everything currently in flight for this client by
// echoing a uniquely tagged PING through the ordered outbound queue.
func (c *testClient) sync() {
	c.t.Helper()
	c.barrier++
	tag := fmt.Sprintf("barrier-%d", c.barrier)
	c.send("PING;" + tag)
	for i := 0; i < 100; i++ {
		p := c.read()
		if p.Type == protocol.PacketPing && p.Data == tag {
			return
		}
	}
	c.t.Fatalf("ping barrier %s never came back", tag)
}

// login authenticates and returns the INIT payload fields
// (id, w, h, level, x, y).
func (c *testClient) login(username string) []int {
	c.t.Helper()
	c.send("LOGIN;" + username + ";" + version.Protocol)
	init := c.readUntil(protocol.PacketInit)
	parts := strings.Split(init.Data, ",")
	require.Len(c.t, parts, 6)
	nums := make([]int, 6)
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		require.NoError(c.t, err)
		nums[i] = n
	}
	return nums
}

// moveTo walks the client to an absolute position on level 0 and waits
// for the move to finish.
func (c *testClient) moveTo(x, y, dir int) {
	c.t.Helper()
	c.send(fmt.Sprintf("MOVE;%d;%d;%d;0", x, y, dir))
	c.sync()
}

// findPlayer resolves the server-side player by username.
func findPlayer(t *testing.T, g *GameServer, username string) *world.RemotePlayer {
	t.Helper()
	for i := 0; i < g.World().LevelCount(); i++ {
		for _, p := range g.World().Level(i).Players() {
			if p.Username() == username {
				return p
			}
		}
	}
	t.Fatalf("player %s not found in world", username)
	return nil
}

func tileCenter(xt, yt int) (int, int) {
	return xt<<4 + 8, yt<<4 + 8
}

func TestLoginVersionMismatch(t *testing.T) {
	g, _ := newTestGame(t)
	c := connect(t, g)

	c.send("LOGIN;alice;0.0.1")
	p := c.readUntil(protocol.PacketInvalid)
	assert.Contains(t, p.Data, "wrong game version")
	assert.Contains(t, p.Data, version.Protocol)

	// The player was never registered; gameplay packets are refused.
	c.send("MOVE;1;2;0;0")
	p = c.readUntil(protocol.PacketInvalid)
	assert.Contains(t, p.Data, "not logged in")
	assert.Empty(t, g.World().SurfaceLevel().Players())
}

func TestLoginHandshake(t *testing.T) {
	g, _ := newTestGame(t)
	c := connect(t, g)

	c.send("LOGIN;alice;" + version.Protocol)
	first := c.read()
	assert.Equal(t, protocol.PacketGame, first.Type)

	init := c.readUntil(protocol.PacketInit)
	parts := strings.Split(init.Data, ",")
	require.Len(t, parts, 6)
	assert.Equal(t, "32", parts[1])
	assert.Equal(t, "32", parts[2])
	assert.Equal(t, "0", parts[3])

	p := findPlayer(t, g, "alice")
	assert.Equal(t, strconv.Itoa(p.ID()), parts[0])
}

func TestLoginDuplicateUsername(t *testing.T) {
	g, _ := newTestGame(t)
	c1 := connect(t, g)
	c1.login("alice")

	c2 := connect(t, g)
	c2.send("LOGIN;alice;" + version.Protocol)
	p := c2.readUntil(protocol.PacketInvalid)
	assert.Contains(t, p.Data, "already in use")
	assert.Len(t, g.World().SurfaceLevel().Players(), 1)
}

func TestServerOnlyPacketRejected(t *testing.T) {
	g, _ := newTestGame(t)
	c := connect(t, g)
	c.login("alice")

	c.send("INIT;1,2,3,4,5,6")
	p := c.readUntil(protocol.PacketInvalid)
	assert.Contains(t, p.Data, "illegal packet type")
}

func TestLoadLevel(t *testing.T) {
	g, _ := newTestGame(t)
	c := connect(t, g)
	c.login("alice")

	c.send("LOAD;0")
	tiles := c.readUntil(protocol.PacketTiles)
	assert.Len(t, tiles.Data, 2*32*32)

	entities := c.readUntil(protocol.PacketEntities)
	// The requesting player is excluded from its own entity dump.
	assert.NotContains(t, entities.Data, "alice")

	c.send("LOAD;7")
	p := c.readUntil(protocol.PacketInvalid)
	assert.Contains(t, p.Data, "no such level")
}

func TestMoveRejectedKeepsAuthoritativePosition(t *testing.T) {
	g, _ := newTestGame(t)
	g.World().SurfaceLevel().SetTile(10, 8, world.TileRock, 0)

	c := connect(t, g)
	id := c.login("alice")[0]
	x, y := tileCenter(8, 8)
	c.moveTo(x, y, 0)

	// Straight into the rock: the server refuses and snaps the client
	// back to where it really is.
	rx, _ := tileCenter(10, 8)
	c.send(fmt.Sprintf("MOVE;%d;%d;3;0", rx, y))
	p := c.readUntil(protocol.PacketEntity)
	assert.True(t, strings.HasPrefix(p.Data, strconv.Itoa(id)+";"))
	assert.Contains(t, p.Data, fmt.Sprintf("x,%d", x))
	assert.Contains(t, p.Data, fmt.Sprintf("y,%d", y))

	sp := findPlayer(t, g, "alice")
	assert.Equal(t, x, sp.X())
	assert.Equal(t, y, sp.Y())
}

func TestMoveRevealsEntitiesEnteringTrackRange(t *testing.T) {
	g, _ := newTestGame(t)

	alice := connect(t, g)
	alice.login("alice")
	ax, ay := tileCenter(2, 2)
	alice.moveTo(ax, ay, 0)

	bob := connect(t, g)
	bob.login("bob")
	bx, by := tileCenter(28, 28)
	bob.moveTo(bx, by, 0)

	// Drop anything alice saw while bob was getting into position.
	alice.sync()

	// Moving to (14,14) puts bob just inside the track rectangle.
	nx, ny := tileCenter(14, 14)
	alice.send(fmt.Sprintf("MOVE;%d;%d;0;0", nx, ny))
	add := alice.readUntil(protocol.PacketAdd)
	assert.Contains(t, add.Data, "bob")
}

func TestPickupFirstWins(t *testing.T) {
	g, _ := newTestGame(t)
	drop := world.NewItemEntity(world.Item{Name: "apple", Count: 1})
	dx, dy := tileCenter(9, 8)
	drop.SetPos(dx, dy)
	id := g.World().AddEntity(drop, g.World().SurfaceLevel())

	alice := connect(t, g)
	alice.login("alice")
	ax, ay := tileCenter(8, 8)
	alice.moveTo(ax, ay, 0)

	bob := connect(t, g)
	bob.login("bob")
	bx, by := tileCenter(10, 8)
	bob.moveTo(bx, by, 0)

	alice.send("PICKUP;" + strconv.Itoa(id))
	won := alice.readUntil(protocol.PacketPickup)
	assert.Equal(t, strconv.Itoa(id), won.Data)

	// Bob asks for the same entity and only ever gets the removal.
	bob.send("PICKUP;" + strconv.Itoa(id))
	removed := bob.readUntil(protocol.PacketRemove)
	assert.Equal(t, strconv.Itoa(id), removed.Data)
	bob.sync()

	assert.True(t, g.World().GetEntity(id).Removed())
	assert.Equal(t, 1, findPlayer(t, g, "alice").Inventory().Count("apple"))
	assert.Equal(t, 0, findPlayer(t, g, "bob").Inventory().Count("apple"))
}

func TestChestInOut(t *testing.T) {
	g, _ := newTestGame(t)
	chest := world.NewChest()
	cx, cy := tileCenter(10, 8)
	chest.SetPos(cx, cy)
	chest.Inventory.Add(world.Item{Name: "wood", Count: 5})
	chest.Inventory.Add(world.Item{Name: "gem", Count: 1})
	id := g.World().AddEntity(chest, g.World().SurfaceLevel())

	c := connect(t, g)
	c.login("alice")
	x, y := tileCenter(8, 8)
	c.moveTo(x, y, 0)

	// Out of range index: refused, chest untouched.
	c.send(fmt.Sprintf("CHESTOUT;%d;5", id))
	p := c.readUntil(protocol.PacketInvalid)
	assert.Contains(t, p.Data, "bad chest slot")
	c.sync()
	assert.Equal(t, 2, chest.Inventory.Size())

	// Last slot: the item comes back to the requester and the chest
	// update goes out.
	c.send(fmt.Sprintf("CHESTOUT;%d;1", id))
	out := c.readUntil(protocol.PacketChestOut)
	assert.Equal(t, "gem", out.Data)
	update := c.readUntil(protocol.PacketEntity)
	assert.Contains(t, update.Data, "items,wood~5")
	assert.Equal(t, 1, chest.Inventory.Size())

	c.send(fmt.Sprintf("CHESTIN;%d;arrow~3", id))
	update = c.readUntil(protocol.PacketEntity)
	assert.Contains(t, update.Data, "arrow~3")
	assert.Equal(t, 3, chest.Inventory.Count("arrow"))
}

func TestInteractBreaksTile(t *testing.T) {
	g, _ := newTestGame(t)
	g.World().SurfaceLevel().SetTile(9, 8, world.TileTree, 0)

	alice := connect(t, g)
	alice.login("alice")
	ax, ay := tileCenter(8, 8)
	alice.moveTo(ax, ay, world.DirRight)

	bob := connect(t, g)
	bob.login("bob")
	bx, by := tileCenter(28, 28)
	bob.moveTo(bx, by, 0)
	alice.sync()

	alice.send("INTERACT;axe_iron;0")
	tile := alice.readUntil(protocol.PacketTile)
	assert.Equal(t, fmt.Sprintf("0,9,8,%d,0", world.TileGrass), tile.Data)
	assert.Equal(t, world.TileGrass, g.World().SurfaceLevel().Tile(9, 8))

	// Bob is far outside sync range of the felled tree and never hears
	// about it.
	bob.send("PING;tile-check")
	for {
		p := bob.read()
		if p.Type == protocol.PacketPing && p.Data == "tile-check" {
			break
		}
		assert.NotEqual(t, protocol.PacketTile, p.Type)
	}
}

func TestSetGameVarsBroadcast(t *testing.T) {
	g, _ := newTestGame(t)
	c := connect(t, g)
	c.login("alice")

	g.SetGameVars(true, 3)
	p := c.readUntil(protocol.PacketGame)
	assert.Equal(t, "creative;0;3;false;0", p.Data)
}

func TestPushFurniture(t *testing.T) {
	g, _ := newTestGame(t)
	bench := world.NewFurniture("workbench")
	fx, fy := tileCenter(10, 8)
	bench.SetPos(fx, fy)
	id := g.World().AddEntity(bench, g.World().SurfaceLevel())

	c := connect(t, g)
	c.login("alice")
	x, y := tileCenter(8, 8)
	c.moveTo(x, y, world.DirRight)

	c.send("PUSH;" + strconv.Itoa(id))
	update := c.readUntil(protocol.PacketEntity)
	assert.Contains(t, update.Data, fmt.Sprintf("x,%d", fx+16))
	assert.Equal(t, fx+16, bench.X())
}

func TestDieAndRespawn(t *testing.T) {
	g, _ := newTestGame(t)
	c := connect(t, g)
	c.login("alice")
	x, y := tileCenter(8, 8)
	c.moveTo(x, y, 0)

	c.send("DIE;apple~2,wood")
	add := c.readUntil(protocol.PacketAdd)
	assert.Contains(t, add.Data, "ItemEntity[")
	c.sync()
	assert.Empty(t, g.World().SurfaceLevel().Players())

	c.send("RESPAWN;")
	p := c.readUntil(protocol.PacketPlayer)
	assert.NotEmpty(t, p.Data)
	c.sync()
	require.Len(t, g.World().SurfaceLevel().Players(), 1)
	assert.Equal(t, world.MaxHealth, findPlayer(t, g, "alice").Health())
}

func TestSaveAndRecoverPlayer(t *testing.T) {
	g, repo := newTestGame(t)
	c := connect(t, g)
	c.login("alice")

	saved := "120,136,0,1,9,bow;arrow~7"
	c.send("SAVE;" + saved)
	c.sync()

	data, err := repo.LoadPlayer(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, saved, data)

	c.conn.Close()
	require.Eventually(t, func() bool { return g.SessionCount() == 0 },
		2*time.Second, 10*time.Millisecond)

	// A fresh connection under the same name resumes from the record.
	c2 := connect(t, g)
	c2.send("LOGIN;alice;" + version.Protocol)
	record := c2.readUntil(protocol.PacketPlayer)
	assert.Equal(t, saved, record.Data)

	init := c2.readUntil(protocol.PacketInit)
	parts := strings.Split(init.Data, ",")
	require.Len(t, parts, 6)
	assert.Equal(t, "120", parts[4])
	assert.Equal(t, "136", parts[5])
}

func TestHostPlayerUsesWorldSaveSlot(t *testing.T) {
	g, repo := newTestGame(t)
	c := connectLoopback(t, g)
	c.login("hosty")

	c.send("SAVE;100,100,0,0,10,null;wood~9")
	c.sync()

	combined, err := repo.LoadHostPlayer(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "100,100,0,0,10,null\nwood~9", combined)

	// Nothing landed under a username key.
	keys, err := repo.ListPlayerKeys(context.Background())
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestDisconnectBroadcastsRemoval(t *testing.T) {
	g, _ := newTestGame(t)

	alice := connect(t, g)
	alice.login("alice")
	ax, ay := tileCenter(8, 8)
	alice.moveTo(ax, ay, 0)

	bob := connect(t, g)
	bobID := bob.login("bob")[0]
	bx, by := tileCenter(10, 8)
	bob.moveTo(bx, by, 0)
	alice.sync()

	bob.conn.Close()
	removed := alice.readUntil(protocol.PacketRemove)
	assert.Equal(t, strconv.Itoa(bobID), removed.Data)
}

func TestUsernames(t *testing.T) {
	g, _ := newTestGame(t)
	alice := connect(t, g)
	alice.login("alice")
	bob := connect(t, g)
	bob.login("bob")

	alice.send("USERNAMES;")
	p := alice.readUntil(protocol.PacketUsernames)
	names := strings.Split(p.Data, ",")
	assert.ElementsMatch(t, []string{"alice", "bob"}, names)
}
