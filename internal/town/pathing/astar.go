package pathing

import (
	"container/heap"

	"Paddlers/internal/town/entity/domain"
)

// Grid 寻路只关心格子能不能走。
type Grid interface {
	IsWalkable(idx domain.TileIndex) bool
}

var neighbours = [4]domain.TileIndex{{X: 1}, {X: -1}, {Y: 1}, {Y: -1}}

type node struct {
	idx   domain.TileIndex
	g, f  int
	seq   int
	index int
}

// openSet 按 f 升序，f 相同优先 g 大的（离目标更近），再按入队顺序。
type openSet []*node

func (o openSet) Len() int { return len(o) }
func (o openSet) Less(i, j int) bool {
	if o[i].f != o[j].f {
		return o[i].f < o[j].f
	}
	if o[i].g != o[j].g {
		return o[i].g > o[j].g
	}
	return o[i].seq < o[j].seq
}
func (o openSet) Swap(i, j int) {
	o[i], o[j] = o[j], o[i]
	o[i].index = i
	o[j].index = j
}
func (o *openSet) Push(x any) {
	n := x.(*node)
	n.index = len(*o)
	*o = append(*o, n)
}
func (o *openSet) Pop() any {
	old := *o
	n := old[len(old)-1]
	old[len(old)-1] = nil
	*o = old[:len(old)-1]
	return n
}

func manhattan(a, b domain.TileIndex) int {
	return abs(a.X-b.X) + abs(a.Y-b.Y)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// search 通用 A*：从 start 出发直到 done 成立，h 必须可采纳。
func search(grid Grid, start domain.TileIndex, done func(domain.TileIndex) bool, h func(domain.TileIndex) int) ([]domain.TileIndex, int, bool) {
	if !grid.IsWalkable(start) {
		return nil, 0, false
	}
	cameFrom := map[domain.TileIndex]domain.TileIndex{}
	gScore := map[domain.TileIndex]int{start: 0}
	closed := map[domain.TileIndex]bool{}

	open := &openSet{}
	seq := 0
	heap.Push(open, &node{idx: start, g: 0, f: h(start), seq: seq})

	for open.Len() > 0 {
		cur := heap.Pop(open).(*node)
		if closed[cur.idx] {
			continue
		}
		if done(cur.idx) {
			return reconstruct(cameFrom, start, cur.idx), cur.g, true
		}
		closed[cur.idx] = true

		for _, d := range neighbours {
			next := domain.TileIndex{X: cur.idx.X + d.X, Y: cur.idx.Y + d.Y}
			if closed[next] || !grid.IsWalkable(next) {
				continue
			}
			g := cur.g + 1
			if old, ok := gScore[next]; ok && old <= g {
				continue
			}
			gScore[next] = g
			cameFrom[next] = cur.idx
			seq++
			heap.Push(open, &node{idx: next, g: g, f: g + h(next), seq: seq})
		}
	}
	return nil, 0, false
}

func reconstruct(cameFrom map[domain.TileIndex]domain.TileIndex, start, end domain.TileIndex) []domain.TileIndex {
	path := []domain.TileIndex{end}
	for cur := end; cur != start; {
		cur = cameFrom[cur]
		path = append(path, cur)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// ShortestPath 4 邻接、单位代价的最短路。不可达时 ok 为 false；cost == len(path)-1。
func ShortestPath(grid Grid, start, goal domain.TileIndex) (path []domain.TileIndex, cost int, ok bool) {
	if !grid.IsWalkable(goal) {
		return nil, 0, false
	}
	return search(grid, start,
		func(t domain.TileIndex) bool { return t == goal },
		func(t domain.TileIndex) int { return manhattan(t, goal) },
	)
}

// ClosestWalkableTileInRange 到达离 destination 欧氏距离不超过 radius 的任一可走格的最短路，返回到达的格子。
func ClosestWalkableTileInRange(grid Grid, start, destination domain.TileIndex, radius float64) (domain.TileIndex, []domain.TileIndex, int, bool) {
	r2 := radius * radius
	inRange := func(t domain.TileIndex) bool { return float64(t.Dist2(destination)) <= r2 }
	path, cost, ok := search(grid, start, inRange, func(t domain.TileIndex) int {
		// 到圆的曼哈顿下界
		d := manhattan(t, destination) - int(radius*2)
		if d < 0 {
			return 0
		}
		return d
	})
	if !ok {
		return domain.TileIndex{}, nil, 0, false
	}
	return path[len(path)-1], path, cost, true
}
