// Package topology builds a static grid graph with a stable BFS
// layout. No graph library appears anywhere in the example corpus, so
// this stays on the standard library (sort + a plain adjacency map) —
// the traversal itself is a dozen lines and pulling in a dependency
// for it would not exercise anything the rest of the system needs.
package topology

import (
	"sort"

	"gridshift-gate/internal/model"
)

// StaticProvider serves a fixed node/edge set with a BFS layout
// computed once at construction.
type StaticProvider struct {
	topology model.Topology
}

// NewStaticProvider builds a layout over the given node IDs/labels and
// undirected edges (each a [from, to] pair), rooted at rootID. Ties in
// BFS discovery (multiple unvisited neighbors available at once) are
// always broken by ascending node ID, both for the order neighbors are
// visited and for the order coordinates are assigned, so two providers
// built from the same node/edge set always agree on layout.
func NewStaticProvider(rootID int, nodeLabels map[int]string, edges [][2]int) StaticProvider {
	adj := make(map[int][]int)
	for _, e := range edges {
		adj[e[0]] = append(adj[e[0]], e[1])
		adj[e[1]] = append(adj[e[1]], e[0])
	}
	for id := range adj {
		sort.Ints(adj[id])
	}

	layout := bfsLayout(rootID, adj)

	ids := make([]int, 0, len(nodeLabels))
	for id := range nodeLabels {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	nodes := make([]model.Node, 0, len(ids))
	for _, id := range ids {
		pos := layout[id]
		nodes = append(nodes, model.Node{
			ID:    id,
			Label: nodeLabels[id],
			X:     pos.x,
			Y:     pos.y,
		})
	}

	modelEdges := make([]model.Edge, 0, len(edges))
	for _, e := range edges {
		modelEdges = append(modelEdges, model.Edge{FromID: e[0], ToID: e[1]})
	}

	return StaticProvider{topology: model.Topology{RootID: rootID, Nodes: nodes, Edges: modelEdges}}
}

func (p StaticProvider) Topology() model.Topology { return p.topology }

type coord struct{ x, y int }

// bfsLayout assigns (depth, rank-within-depth) coordinates: x = BFS
// depth from root, y = discovery order within that depth. Both axes
// are therefore fully determined by root choice and the ascending-ID
// tie-break.
func bfsLayout(rootID int, adj map[int][]int) map[int]coord {
	visited := map[int]bool{rootID: true}
	layout := map[int]coord{rootID: {x: 0, y: 0}}
	depthCounts := map[int]int{0: 1}

	queue := []struct{ id, depth int }{{rootID, 0}}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		neighbors := append([]int(nil), adj[cur.id]...)
		sort.Ints(neighbors)
		for _, n := range neighbors {
			if visited[n] {
				continue
			}
			visited[n] = true
			d := cur.depth + 1
			y := depthCounts[d]
			depthCounts[d]++
			layout[n] = coord{x: d, y: y}
			queue = append(queue, struct{ id, depth int }{n, d})
		}
	}
	return layout
}
