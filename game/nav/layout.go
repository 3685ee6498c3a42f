package nav

import (
	"errors"
	"fmt"
	"math/rand"
	"os"

	"github.com/DSnider-CodeSample/TCTB-CodeSample/game/ai"
	"gopkg.in/yaml.v3"
)

// ErrBadLayout is returned for layout files that cannot describe a level.
var ErrBadLayout = errors.New("nav: bad layout")

// Point is a [x, y, z] triple in layout files.
type Point [3]float64

// Vec converts p to a world vector.
func (p Point) Vec() ai.Vec { return ai.Vec{X: p[0], Y: p[1], Z: p[2]} }

// Volume is an axis-aligned box.
type Volume struct {
	Name string `yaml:"name"`
	Min  Point  `yaml:"min"`
	Max  Point  `yaml:"max"`
}

// Contains reports whether v lies inside the box, borders included.
func (b Volume) Contains(v ai.Vec) bool {
	return v.X >= b.Min[0] && v.X <= b.Max[0] &&
		v.Y >= b.Min[1] && v.Y <= b.Max[1] &&
		v.Z >= b.Min[2] && v.Z <= b.Max[2]
}

// MonsterSpawn places one monster in a level.
type MonsterSpawn struct {
	ID       int64  `yaml:"id"`
	Position Point  `yaml:"position"`
	Active   bool   `yaml:"active"` // activate as soon as the room starts
	Tunables string `yaml:"tunables"` // named tunables profile, empty for the default
	// ActivateAfter wakes the monster this many seconds after the room starts.
	ActivateAfter float64 `yaml:"activate_after"`
}

// Layout is a level description loaded from YAML.
//
// Rows draw the grid top to bottom: '#' is a wall, '.' is floor at height 0 and
// a digit n is floor at n*level_height.
type Layout struct {
	Name          string         `yaml:"name"`
	CellSize      float64        `yaml:"cell_size"`
	LevelHeight   float64        `yaml:"level_height"`
	MaxStep       float64        `yaml:"max_step"`
	Seed          int64          `yaml:"seed"`
	Rows          []string       `yaml:"rows"`
	Runaways      []Point        `yaml:"runaway_locations"`
	SafetyVolumes []Volume       `yaml:"safety_volumes"`
	PlayerStart   Point          `yaml:"player_start"`
	Monsters      []MonsterSpawn `yaml:"monsters"`
}

// LoadLayout reads and validates a layout file.
func LoadLayout(path string) (*Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read layout %s: %w", path, err)
	}
	l, err := ParseLayout(data)
	if err != nil {
		return nil, fmt.Errorf("layout %s: %w", path, err)
	}
	return l, nil
}

// ParseLayout decodes and validates layout YAML, filling defaults.
func ParseLayout(data []byte) (*Layout, error) {
	l := &Layout{}
	if err := yaml.Unmarshal(data, l); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadLayout, err)
	}
	if l.CellSize == 0 {
		l.CellSize = 100
	}
	if l.LevelHeight == 0 {
		l.LevelHeight = 300
	}
	if l.MaxStep == 0 {
		l.MaxStep = l.CellSize / 2
	}
	if err := l.validate(); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *Layout) validate() error {
	if l.CellSize < 0 || l.MaxStep < 0 {
		return fmt.Errorf("%w: negative cell_size or max_step", ErrBadLayout)
	}
	if len(l.Rows) == 0 {
		return fmt.Errorf("%w: no rows", ErrBadLayout)
	}
	width := len(l.Rows[0])
	for i, row := range l.Rows {
		if len(row) != width {
			return fmt.Errorf("%w: row %d has width %d, want %d", ErrBadLayout, i, len(row), width)
		}
		for j := 0; j < len(row); j++ {
			if _, _, ok := l.decode(row[j]); !ok {
				return fmt.Errorf("%w: row %d col %d: unknown tile %q", ErrBadLayout, i, j, row[j])
			}
		}
	}
	seen := make(map[int64]bool, len(l.Monsters))
	for _, m := range l.Monsters {
		if seen[m.ID] {
			return fmt.Errorf("%w: duplicate monster id %d", ErrBadLayout, m.ID)
		}
		seen[m.ID] = true
	}
	return nil
}

// decode maps a tile character to walkability and floor height.
func (l *Layout) decode(ch byte) (walkable bool, z float64, ok bool) {
	switch {
	case ch == '#':
		return false, 0, true
	case ch == '.':
		return true, 0, true
	case ch >= '0' && ch <= '9':
		return true, float64(ch-'0') * l.LevelHeight, true
	}
	return false, 0, false
}

// Grid builds the navigation grid. Row 0 of the file is the row with the largest Y.
func (l *Layout) Grid() *Grid {
	rows := len(l.Rows)
	cols := 0
	if rows > 0 {
		cols = len(l.Rows[0])
	}
	cfg := GridConfig{Cols: cols, Rows: rows, CellSize: l.CellSize, MaxStep: l.MaxStep}
	if l.Seed != 0 {
		cfg.RNG = rand.New(rand.NewSource(l.Seed))
	}
	g := NewGrid(cfg)
	for i, line := range l.Rows {
		row := rows - 1 - i
		for col := 0; col < len(line); col++ {
			if walkable, z, _ := l.decode(line[col]); walkable {
				g.SetWalkable(Cell{Col: col, Row: row}, z)
			}
		}
	}
	return g
}

// RunawayVecs returns the runaway locations as world vectors.
func (l *Layout) RunawayVecs() []ai.Vec {
	out := make([]ai.Vec, 0, len(l.Runaways))
	for _, p := range l.Runaways {
		out = append(out, p.Vec())
	}
	return out
}

// InSafetyVolume reports whether v is inside any safety volume.
func (l *Layout) InSafetyVolume(v ai.Vec) bool {
	for _, b := range l.SafetyVolumes {
		if b.Contains(v) {
			return true
		}
	}
	return false
}
