package maze

import "github.com/kasuganosora/pacdefender/game/ai"

// distancesTo returns the BFS step count from every cell to target (-1 for
// walls and unreachable cells). The graph is undirected, so one row answers
// both "from target" and "to target".
func (m *Maze) distancesTo(target int) []int32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if row, ok := m.dists[target]; ok {
		return row
	}

	row := make([]int32, len(m.nodes))
	for i := range row {
		row[i] = -1
	}
	row[target] = 0
	queue := []int{target}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, j := range m.adj[cur] {
			if j < 0 || row[j] >= 0 {
				continue
			}
			row[j] = row[cur] + 1
			queue = append(queue, j)
		}
	}
	m.dists[target] = row
	return row
}

// NextDir picks the move from `from` that minimises (approach) or maximises
// (evade) the path distance to target. Ties go to the earlier direction in
// engine order. If target is not on this maze the first open move is returned.
// The bool is false only when from has no open neighbour.
func (m *Maze) NextDir(from *Node, target ai.Node, approach bool) (ai.Direction, bool) {
	t, ok := target.(*Node)
	if !ok || t == nil || t.m != m {
		for _, d := range ai.Directions {
			if m.adj[from.idx][d] >= 0 {
				return d, true
			}
		}
		return 0, false
	}

	row := m.distancesTo(t.idx)
	best := ai.Direction(-1)
	var bestDist int32
	for _, d := range ai.Directions {
		j := m.adj[from.idx][d]
		if j < 0 {
			continue
		}
		dist := row[j]
		if dist < 0 {
			continue
		}
		if best < 0 || (approach && dist < bestDist) || (!approach && dist > bestDist) {
			best, bestDist = d, dist
		}
	}
	if best < 0 {
		return 0, false
	}
	return best, true
}

// ClosestOf returns the target with the shortest path from `from`. Ties go to
// the earliest entry; unreachable targets are skipped.
func (m *Maze) ClosestOf(from *Node, targets []ai.Node) (ai.Node, bool) {
	var best ai.Node
	bestDist := -1
	for _, t := range targets {
		d := from.PathDistance(t)
		if d < 0 {
			continue
		}
		if bestDist < 0 || d < bestDist {
			best, bestDist = t, d
		}
	}
	return best, best != nil
}
