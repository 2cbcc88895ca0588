package topology_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"gridshift-gate/internal/topology"
)

func TestNewStaticProvider_DeterministicAcrossCalls(t *testing.T) {
	labels := map[int]string{1: "root", 2: "a", 3: "b", 4: "c"}
	edges := [][2]int{{1, 2}, {1, 3}, {2, 4}}

	p1 := topology.NewStaticProvider(1, labels, edges)
	p2 := topology.NewStaticProvider(1, labels, edges)

	assert.Equal(t, p1.Topology(), p2.Topology())
}

func TestNewStaticProvider_RootAtOrigin(t *testing.T) {
	labels := map[int]string{1: "root", 2: "a"}
	edges := [][2]int{{1, 2}}

	p := topology.NewStaticProvider(1, labels, edges)
	topo := p.Topology()

	for _, n := range topo.Nodes {
		if n.ID == 1 {
			assert.Equal(t, 0, n.X)
			assert.Equal(t, 0, n.Y)
		}
	}
}

func TestNewStaticProvider_TieBreakIsAscendingID(t *testing.T) {
	// Root has three equidistant neighbors; discovery order (and thus
	// the y-coordinate assignment) must be ascending by ID regardless
	// of the order edges were supplied in.
	labels := map[int]string{1: "root", 4: "d", 2: "b", 3: "c"}
	edges := [][2]int{{1, 4}, {1, 2}, {1, 3}}

	p := topology.NewStaticProvider(1, labels, edges)
	topo := p.Topology()

	byID := map[int]int{}
	for _, n := range topo.Nodes {
		byID[n.ID] = n.Y
	}
	assert.Equal(t, 0, byID[2])
	assert.Equal(t, 1, byID[3])
	assert.Equal(t, 2, byID[4])
}
