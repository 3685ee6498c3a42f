package nav

import "container/heap"

type pathNode struct {
	cell   Cell
	g, f   int
	parent *pathNode
}

type openSet []*pathNode

func (o openSet) Len() int            { return len(o) }
func (o openSet) Less(i, j int) bool  { return o[i].f < o[j].f }
func (o openSet) Swap(i, j int)       { o[i], o[j] = o[j], o[i] }
func (o *openSet) Push(x interface{}) { *o = append(*o, x.(*pathNode)) }
func (o *openSet) Pop() interface{} {
	old := *o
	n := old[len(old)-1]
	*o = old[:len(old)-1]
	return n
}

func manhattan(a, b Cell) int {
	dx := a.Col - b.Col
	if dx < 0 {
		dx = -dx
	}
	dy := a.Row - b.Row
	if dy < 0 {
		dy = -dy
	}
	return dx + dy
}

// FindPath runs A* from start to goal over walkable cells.
// It returns the cells to walk (excluding start, including the last cell) and
// whether goal was reached. When goal is unreachable the path leads to the
// explored cell closest to it. A blocked start yields nil, false.
func (g *Grid) FindPath(start, goal Cell) ([]Cell, bool) {
	if !g.Walkable(start) {
		return nil, false
	}
	if start == goal {
		return []Cell{}, true
	}

	closed := make(map[Cell]bool)
	gScore := map[Cell]int{start: 0}
	root := &pathNode{cell: start, f: manhattan(start, goal)}
	closest := root

	open := &openSet{root}
	for open.Len() > 0 {
		cur := heap.Pop(open).(*pathNode)
		if closed[cur.cell] {
			continue
		}
		closed[cur.cell] = true

		if cur.cell == goal {
			return unwind(cur), true
		}
		if h := manhattan(cur.cell, goal); h < manhattan(closest.cell, goal) {
			closest = cur
		}

		for _, n := range g.neighbors(cur.cell) {
			if closed[n] {
				continue
			}
			ng := cur.g + 1
			if prev, ok := gScore[n]; ok && ng >= prev {
				continue
			}
			gScore[n] = ng
			heap.Push(open, &pathNode{cell: n, g: ng, f: ng + manhattan(n, goal), parent: cur})
		}
	}
	return unwind(closest), false
}

func unwind(n *pathNode) []Cell {
	var path []Cell
	for ; n.parent != nil; n = n.parent {
		path = append(path, n.cell)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	if path == nil {
		path = []Cell{}
	}
	return path
}
