package world

import (
	"github.com/aquilax/go-perlin"
)

// Level generation proper is an external concern; this generator is
// the minimal stand-in that produces playable terrain when no saved
// world exists. Depth 0 is the surface, deeper indexes are caves.

const (
	perlinAlpha = 2.0
	perlinBeta  = 2.0
	perlinIter  = 3
)

// GenerateLevel fills a new level with perlin-noise terrain.
func GenerateLevel(w, h, depth int, seed int64) *Level {
	l := NewLevel(w, h, depth)
	noise := perlin.NewPerlin(perlinAlpha, perlinBeta, perlinIter, seed+int64(depth))

	for yt := 0; yt < h; yt++ {
		for xt := 0; xt < w; xt++ {
			v := noise.Noise2D(float64(xt)/32, float64(yt)/32)
			l.SetTile(xt, yt, tileFor(depth, v), 0)
		}
	}

	// Border wall keeps entities inside even where noise says otherwise.
	for xt := 0; xt < w; xt++ {
		l.SetTile(xt, 0, TileHardRock, 0)
		l.SetTile(xt, h-1, TileHardRock, 0)
	}
	for yt := 0; yt < h; yt++ {
		l.SetTile(0, yt, TileHardRock, 0)
		l.SetTile(w-1, yt, TileHardRock, 0)
	}

	return l
}

func tileFor(depth int, v float64) byte {
	if depth > 0 {
		// Underground: mostly rock with dirt pockets.
		switch {
		case v > 0.25:
			return TileRock
		case v > -0.1:
			return TileDirt
		default:
			return TileHole
		}
	}
	switch {
	case v > 0.35:
		return TileRock
	case v > 0.2:
		return TileTree
	case v > -0.2:
		return TileGrass
	case v > -0.3:
		return TileSand
	default:
		return TileWater
	}
}

// GenerateWorld builds a fresh level stack: one surface level plus
// count-1 underground levels, linked by stairs at noise maxima.
func GenerateWorld(w, h, count int, seed int64) []*Level {
	if count < 1 {
		count = 1
	}
	levels := make([]*Level, count)
	for depth := 0; depth < count; depth++ {
		levels[depth] = GenerateLevel(w, h, depth, seed)
	}
	for depth := 0; depth < count-1; depth++ {
		placeStairs(levels[depth], levels[depth+1])
	}
	return levels
}

func placeStairs(upper, lower *Level) {
	// One stair pair per level boundary, at the first mutually
	// passable spot scanning from the center.
	cx, cy := upper.W/2, upper.H/2
	for r := 0; r < upper.W/2; r++ {
		for yt := cy - r; yt <= cy+r; yt++ {
			for xt := cx - r; xt <= cx+r; xt++ {
				if passable(upper.Tile(xt, yt)) && passable(lower.Tile(xt, yt)) {
					upper.SetTile(xt, yt, TileStairsDown, 0)
					lower.SetTile(xt, yt, TileStairsUp, 0)
					return
				}
			}
		}
	}
}
