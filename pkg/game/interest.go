package game

import (
	"github.com/burrowgame/burrow/pkg/world"
)

// PlayersInRange returns the players on the level whose interest
// rectangle contains the given tile. With track set the wide track
// radius is used; otherwise the sync radius.
func PlayersInRange(l *world.Level, xt, yt int, track bool) []*world.RemotePlayer {
	if l == nil {
		return nil
	}
	var players []*world.RemotePlayer
	for _, p := range l.Players() {
		if track {
			if p.ShouldTrack(xt, yt) {
				players = append(players, p)
			}
		} else if p.ShouldSync(xt, yt) {
			players = append(players, p)
		}
	}
	return players
}

// PlayersInRangeOf returns the players interested in the given entity.
// An entity not attached to a level is visible to no one.
func PlayersInRangeOf(e world.Entity, track bool) []*world.RemotePlayer {
	return PlayersInRange(e.Level(), e.TileX(), e.TileY(), track)
}

// inTrackRange reports whether a tile falls inside the track rectangle
// centered on an arbitrary anchor tile. Used when comparing interest
// before and after a move, where the anchor is not the player's
// current position.
func inTrackRange(cxt, cyt, xt, yt int) bool {
	dx := xt - cxt
	if dx < 0 {
		dx = -dx
	}
	dy := yt - cyt
	if dy < 0 {
		dy = -dy
	}
	return dx <= world.XTrackRadius && dy <= world.YTrackRadius
}
