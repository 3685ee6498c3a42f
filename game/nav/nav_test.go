package nav

import (
	"math"
	"math/rand"
	"testing"

	"github.com/DSnider-CodeSample/TCTB-CodeSample/game/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadBasement(t *testing.T) (*Layout, *Grid) {
	t.Helper()
	l, err := LoadLayout("testdata/basement.yaml")
	require.NoError(t, err)
	return l, l.Grid()
}

// ========================================================================
// Layout
// ========================================================================

func TestLoadLayout(t *testing.T) {
	l, g := loadBasement(t)
	assert.Equal(t, "basement", l.Name)
	assert.Equal(t, 100.0, l.CellSize)
	assert.Equal(t, 50.0, l.MaxStep)
	assert.Len(t, l.RunawayVecs(), 2)
	assert.Equal(t, ai.Vec{X: 150, Y: 250}, l.PlayerStart.Vec())
	require.Len(t, l.Monsters, 2)
	assert.True(t, l.Monsters[0].Active)
	assert.Equal(t, "slow", l.Monsters[1].Tunables)

	cols, rows := g.Size()
	assert.Equal(t, 10, cols)
	assert.Equal(t, 5, rows)
}

func TestLoadLayout_MissingFile(t *testing.T) {
	_, err := LoadLayout("testdata/nope.yaml")
	assert.Error(t, err)
}

func TestParseLayout_Defaults(t *testing.T) {
	l, err := ParseLayout([]byte("rows: ['..', '..']"))
	require.NoError(t, err)
	assert.Equal(t, 100.0, l.CellSize)
	assert.Equal(t, 300.0, l.LevelHeight)
	assert.Equal(t, 50.0, l.MaxStep)
}

func TestParseLayout_Invalid(t *testing.T) {
	cases := map[string]string{
		"no rows":      "name: empty",
		"ragged":       "rows: ['...', '..']",
		"unknown tile": "rows: ['.x.']",
		"duplicate id": "rows: ['..']\nmonsters: [{id: 1}, {id: 1}]",
		"bad yaml":     "rows: [",
		"short point":  "rows: ['..']\nplayer_start: [1, 2]",
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseLayout([]byte(src))
			assert.ErrorIs(t, err, ErrBadLayout)
		})
	}
}

func TestVolume_Contains(t *testing.T) {
	l, _ := loadBasement(t)
	assert.True(t, l.InSafetyVolume(ai.Vec{X: 150, Y: 250}))
	assert.True(t, l.InSafetyVolume(ai.Vec{X: 300, Y: 300, Z: 200}))
	assert.False(t, l.InSafetyVolume(ai.Vec{X: 150, Y: 250, Z: 250}))
	assert.False(t, l.InSafetyVolume(ai.Vec{X: 750, Y: 250}))
}

func TestLayout_DigitHeights(t *testing.T) {
	l, err := ParseLayout([]byte("level_height: 200\nrows: ['.2']"))
	require.NoError(t, err)
	g := l.Grid()
	assert.Equal(t, 400.0, g.Center(Cell{Col: 1, Row: 0}).Z)
	assert.Equal(t, 0.0, g.Center(Cell{Col: 0, Row: 0}).Z)
}

// ========================================================================
// Grid
// ========================================================================

func TestGrid_CellAt(t *testing.T) {
	_, g := loadBasement(t)
	c, ok := g.CellAt(ai.Vec{X: 150, Y: 250})
	require.True(t, ok)
	assert.Equal(t, Cell{Col: 1, Row: 2}, c)
	assert.True(t, g.Walkable(c))
	assert.Equal(t, ai.Vec{X: 150, Y: 250}, g.Center(c))

	_, ok = g.CellAt(ai.Vec{X: -1, Y: 10})
	assert.False(t, ok)
	_, ok = g.CellAt(ai.Vec{X: 10, Y: 5000})
	assert.False(t, ok)

	assert.False(t, g.Walkable(Cell{Col: 5, Row: 3}), "divider wall")
	assert.True(t, g.Walkable(Cell{Col: 5, Row: 1}), "doorway")
}

func TestFindPath_AroundWall(t *testing.T) {
	_, g := loadBasement(t)
	path, reached := g.FindPath(Cell{Col: 1, Row: 3}, Cell{Col: 8, Row: 3})
	require.True(t, reached)
	assert.Len(t, path, 11)
	assert.Equal(t, Cell{Col: 8, Row: 3}, path[len(path)-1])
	for _, c := range path {
		assert.True(t, g.Walkable(c), "path crosses %v", c)
	}
}

func TestFindPath_SameCell(t *testing.T) {
	_, g := loadBasement(t)
	path, reached := g.FindPath(Cell{Col: 2, Row: 2}, Cell{Col: 2, Row: 2})
	assert.True(t, reached)
	assert.Empty(t, path)
}

func TestFindPath_BlockedStart(t *testing.T) {
	_, g := loadBasement(t)
	path, reached := g.FindPath(Cell{Col: 0, Row: 0}, Cell{Col: 2, Row: 2})
	assert.False(t, reached)
	assert.Nil(t, path)
}

func TestFindPath_PartialToClosestCell(t *testing.T) {
	g := NewGrid(GridConfig{Cols: 5, Rows: 1, CellSize: 100, MaxStep: 50})
	g.SetWalkable(Cell{Col: 0}, 0)
	g.SetWalkable(Cell{Col: 1}, 0)
	g.SetWalkable(Cell{Col: 2}, 0)
	g.SetWalkable(Cell{Col: 4}, 0)

	path, reached := g.FindPath(Cell{Col: 0}, Cell{Col: 4})
	assert.False(t, reached)
	assert.Equal(t, []Cell{{Col: 1}, {Col: 2}}, path)
}

func TestFindPath_StepTooHigh(t *testing.T) {
	g := NewGrid(GridConfig{Cols: 3, Rows: 1, CellSize: 100, MaxStep: 50})
	g.SetWalkable(Cell{Col: 0}, 0)
	g.SetWalkable(Cell{Col: 1}, 40)
	g.SetWalkable(Cell{Col: 2}, 300)

	_, reached := g.FindPath(Cell{Col: 0}, Cell{Col: 1})
	assert.True(t, reached)
	_, reached = g.FindPath(Cell{Col: 0}, Cell{Col: 2})
	assert.False(t, reached)
}

func TestComputePath(t *testing.T) {
	_, g := loadBasement(t)

	res := g.ComputePath(ai.Vec{X: 150, Y: 350}, ai.Vec{X: 850, Y: 350})
	assert.True(t, res.Usable())

	res = g.ComputePath(ai.Vec{X: 150, Y: 350}, ai.Vec{X: 550, Y: 350})
	assert.True(t, res.Exists)
	assert.True(t, res.Partial, "goal is a wall")
	assert.False(t, res.Usable())

	res = g.ComputePath(ai.Vec{X: 150, Y: 350}, ai.Vec{X: 99999})
	assert.True(t, res.Partial)

	res = g.ComputePath(ai.Vec{X: 50, Y: 50}, ai.Vec{X: 150, Y: 150})
	assert.False(t, res.Exists)
}

func TestWaypoints(t *testing.T) {
	_, g := loadBasement(t)
	pts, reached := g.Waypoints(ai.Vec{X: 150, Y: 150}, ai.Vec{X: 450, Y: 150})
	require.True(t, reached)
	assert.Equal(t, []ai.Vec{{X: 250, Y: 150}, {X: 350, Y: 150}, {X: 450, Y: 150}}, pts)

	_, reached = g.Waypoints(ai.Vec{X: -50}, ai.Vec{X: 450, Y: 150})
	assert.False(t, reached)
}

func TestSampleReachablePoint_WithinRadius(t *testing.T) {
	_, g := loadBasement(t)
	center := ai.Vec{X: 150, Y: 150}
	allowed := map[ai.Vec]bool{
		{X: 150, Y: 150}: true,
		{X: 250, Y: 150}: true,
		{X: 150, Y: 250}: true,
	}
	for i := 0; i < 30; i++ {
		p, ok := g.SampleReachablePoint(center, 100)
		require.True(t, ok)
		assert.True(t, allowed[p], "unexpected sample %v", p)
	}
}

func TestSampleReachablePoint_DoesNotCrossWalls(t *testing.T) {
	_, g := loadBasement(t)
	for i := 0; i < 50; i++ {
		p, ok := g.SampleReachablePoint(ai.Vec{X: 450, Y: 350}, 200)
		require.True(t, ok)
		assert.Less(t, p.X, 500.0)
		assert.LessOrEqual(t, math.Hypot(p.X-450, p.Y-350), 200.0)
	}
}

func TestSampleReachablePoint_ProjectsOffMeshCenter(t *testing.T) {
	_, g := loadBasement(t)
	p, ok := g.SampleReachablePoint(ai.Vec{X: 50, Y: 50}, 150)
	require.True(t, ok)
	c, _ := g.CellAt(p)
	assert.True(t, g.Walkable(c))

	_, ok = g.SampleReachablePoint(ai.Vec{X: 50, Y: 50}, 10)
	assert.False(t, ok)
}

func TestSampleReachablePoint_Deterministic(t *testing.T) {
	build := func() *Grid {
		g := NewGrid(GridConfig{Cols: 4, Rows: 4, CellSize: 100, RNG: rand.New(rand.NewSource(7))})
		for r := 0; r < 4; r++ {
			for c := 0; c < 4; c++ {
				g.SetWalkable(Cell{Col: c, Row: r}, 0)
			}
		}
		return g
	}
	a, b := build(), build()
	for i := 0; i < 10; i++ {
		pa, _ := a.SampleReachablePoint(ai.Vec{X: 200, Y: 200}, 300)
		pb, _ := b.SampleReachablePoint(ai.Vec{X: 200, Y: 200}, 300)
		assert.Equal(t, pa, pb)
	}
}

func TestGrid_ImplementsSpatialQuery(t *testing.T) {
	var _ ai.SpatialQuery = (*Grid)(nil)
}
