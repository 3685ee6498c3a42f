// Package nav is the walkable-surface model monsters navigate on: a cell grid
// with a floor height per cell, A* pathfinding and reachable point sampling.
package nav

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/DSnider-CodeSample/TCTB-CodeSample/game/ai"
)

// Cell is a grid coordinate.
type Cell struct {
	Col, Row int
}

// Grid is a walkable cell grid. It implements ai.SpatialQuery.
// Queries are safe for concurrent use; the grid is immutable after construction
// apart from the sampling RNG.
type Grid struct {
	cols, rows int
	cellSize   float64
	maxStep    float64
	walkable   []bool
	floor      []float64

	mu  sync.Mutex
	rng *rand.Rand
}

// GridConfig describes a grid to build.
type GridConfig struct {
	Cols, Rows int
	CellSize   float64
	MaxStep    float64 // largest floor height difference between neighboring cells
	RNG        *rand.Rand
}

// NewGrid returns a grid with every cell blocked.
func NewGrid(cfg GridConfig) *Grid {
	if cfg.CellSize <= 0 {
		cfg.CellSize = 100
	}
	if cfg.RNG == nil {
		cfg.RNG = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	n := cfg.Cols * cfg.Rows
	return &Grid{
		cols:     cfg.Cols,
		rows:     cfg.Rows,
		cellSize: cfg.CellSize,
		maxStep:  cfg.MaxStep,
		walkable: make([]bool, n),
		floor:    make([]float64, n),
		rng:      cfg.RNG,
	}
}

// Size returns the grid dimensions.
func (g *Grid) Size() (cols, rows int) { return g.cols, g.rows }

// CellSize returns the edge length of one cell in world units.
func (g *Grid) CellSize() float64 { return g.cellSize }

// SetWalkable marks c walkable with the given floor height. Out-of-range cells are ignored.
func (g *Grid) SetWalkable(c Cell, floorZ float64) {
	if !g.inBounds(c) {
		return
	}
	i := g.index(c)
	g.walkable[i] = true
	g.floor[i] = floorZ
}

// Block marks c not walkable.
func (g *Grid) Block(c Cell) {
	if g.inBounds(c) {
		g.walkable[g.index(c)] = false
	}
}

// Walkable reports whether c is on the grid and walkable.
func (g *Grid) Walkable(c Cell) bool {
	return g.inBounds(c) && g.walkable[g.index(c)]
}

// CellAt returns the cell containing the XY of p.
func (g *Grid) CellAt(p ai.Vec) (Cell, bool) {
	c := Cell{
		Col: int(math.Floor(p.X / g.cellSize)),
		Row: int(math.Floor(p.Y / g.cellSize)),
	}
	return c, g.inBounds(c)
}

// Center returns the world position of the middle of c, standing on its floor.
func (g *Grid) Center(c Cell) ai.Vec {
	z := 0.0
	if g.inBounds(c) {
		z = g.floor[g.index(c)]
	}
	return ai.Vec{
		X: (float64(c.Col) + 0.5) * g.cellSize,
		Y: (float64(c.Row) + 0.5) * g.cellSize,
		Z: z,
	}
}

// SampleReachablePoint picks a random walkable cell connected to center and no
// farther than radius from it, and returns its center.
func (g *Grid) SampleReachablePoint(center ai.Vec, radius float64) (ai.Vec, bool) {
	start, ok := g.projectOnto(center, radius)
	if !ok {
		return ai.Vec{}, false
	}

	within := func(c Cell) bool {
		p := g.Center(c)
		return math.Hypot(p.X-center.X, p.Y-center.Y) <= radius
	}

	seen := map[Cell]bool{start: true}
	queue := []Cell{start}
	candidates := make([]Cell, 0, 16)
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		candidates = append(candidates, cur)
		for _, n := range g.neighbors(cur) {
			if seen[n] || !within(n) {
				continue
			}
			seen[n] = true
			queue = append(queue, n)
		}
	}

	g.mu.Lock()
	pick := candidates[g.rng.Intn(len(candidates))]
	g.mu.Unlock()
	return g.Center(pick), true
}

// ComputePath reports whether a walkable path from one point to another exists.
// A path that stops at the closest reachable cell is reported as partial.
func (g *Grid) ComputePath(from, to ai.Vec) ai.PathResult {
	start, ok := g.CellAt(from)
	if !ok || !g.Walkable(start) {
		return ai.PathResult{}
	}
	goal, ok := g.CellAt(to)
	if !ok {
		return ai.PathResult{Exists: true, Valid: true, Partial: true}
	}
	_, reached := g.FindPath(start, goal)
	return ai.PathResult{Exists: true, Valid: true, Partial: !reached}
}

// Waypoints returns the cell centers along the path from one point to another,
// ending at the closest reachable cell when the goal cannot be reached.
func (g *Grid) Waypoints(from, to ai.Vec) ([]ai.Vec, bool) {
	start, ok := g.CellAt(from)
	if !ok || !g.Walkable(start) {
		return nil, false
	}
	goal, ok := g.CellAt(to)
	if !ok {
		return nil, false
	}
	cells, reached := g.FindPath(start, goal)
	out := make([]ai.Vec, 0, len(cells))
	for _, c := range cells {
		out = append(out, g.Center(c))
	}
	return out, reached
}

// projectOnto returns the walkable cell under p, or the nearest walkable cell
// within radius when p is off the walkable surface.
func (g *Grid) projectOnto(p ai.Vec, radius float64) (Cell, bool) {
	if c, ok := g.CellAt(p); ok && g.Walkable(c) {
		return c, true
	}
	span := int(math.Ceil(radius/g.cellSize)) + 1
	origin := Cell{
		Col: int(math.Floor(p.X / g.cellSize)),
		Row: int(math.Floor(p.Y / g.cellSize)),
	}
	best, found := Cell{}, false
	bestDist := math.MaxFloat64
	for row := origin.Row - span; row <= origin.Row+span; row++ {
		for col := origin.Col - span; col <= origin.Col+span; col++ {
			c := Cell{Col: col, Row: row}
			if !g.Walkable(c) {
				continue
			}
			cp := g.Center(c)
			d := math.Hypot(cp.X-p.X, cp.Y-p.Y)
			if d <= radius && d < bestDist {
				best, bestDist, found = c, d, true
			}
		}
	}
	return best, found
}

var dirs = [4]Cell{{0, 1}, {0, -1}, {1, 0}, {-1, 0}}

// neighbors returns the walkable cells a step away from c whose floor is within maxStep.
func (g *Grid) neighbors(c Cell) []Cell {
	out := make([]Cell, 0, 4)
	from := g.floor[g.index(c)]
	for _, d := range dirs {
		n := Cell{Col: c.Col + d.Col, Row: c.Row + d.Row}
		if !g.Walkable(n) {
			continue
		}
		if math.Abs(g.floor[g.index(n)]-from) > g.maxStep {
			continue
		}
		out = append(out, n)
	}
	return out
}

func (g *Grid) inBounds(c Cell) bool {
	return c.Col >= 0 && c.Col < g.cols && c.Row >= 0 && c.Row < g.rows
}

func (g *Grid) index(c Cell) int { return c.Row*g.cols + c.Col }
