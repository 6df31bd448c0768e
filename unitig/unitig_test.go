package unitig

import (
	"testing"

	"github.com/mudesheng/unitiggraph/bidirected"
	"github.com/mudesheng/unitiggraph/bnt"
	"github.com/mudesheng/unitiggraph/hashlist"
)

func encode(t *testing.T, s string) []bnt.Base {
	t.Helper()
	codes, err := bnt.EncodeSeq([]byte(s), "t", 0)
	if err != nil {
		t.Fatalf("EncodeSeq(%q): %v", s, err)
	}
	return codes
}

func TestEdgeSetAddGetDegree(t *testing.T) {
	e := newEdgeSet(3)
	from := bidirected.Dir{ID: 0, Forward: true}
	to := bidirected.Dir{ID: 1, Forward: true}
	e.add(from, to)
	if got := e.degree(from); got != 1 {
		t.Fatalf("degree = %d, want 1", got)
	}
	neighbors := e.get(from)
	if len(neighbors) != 1 || neighbors[0] != to {
		t.Fatalf("get = %v, want [%+v]", neighbors, to)
	}
	if got := e.degree(bidirected.Dir{ID: 2, Forward: true}); got != 0 {
		t.Fatalf("degree of untouched node = %d, want 0", got)
	}
}

func TestGraphAddEdgeAndEdgeCoverageCanonical(t *testing.T) {
	g := newGraph()
	g.growTo(2)
	from := bidirected.Dir{ID: 0, Forward: true}
	to := bidirected.Dir{ID: 1, Forward: true}
	g.AddEdge(from, to)
	g.SetEdgeCoverage(from, to, 7)

	if got := g.EdgeCoverage(from, to); got != 7 {
		t.Fatalf("EdgeCoverage(from, to) = %d, want 7", got)
	}
	// the reverse-complement traversal of the same physical edge must read
	// back the same coverage.
	if got := g.EdgeCoverage(bidirected.Reverse(to), bidirected.Reverse(from)); got != 7 {
		t.Fatalf("EdgeCoverage(rev(to), rev(from)) = %d, want 7", got)
	}
}

func TestGraphNumEdgesCountsEachCanonicalEdgeOnce(t *testing.T) {
	g := newGraph()
	g.growTo(2)
	from := bidirected.Dir{ID: 0, Forward: true}
	to := bidirected.Dir{ID: 1, Forward: true}
	g.AddEdge(from, to)
	if got := g.NumEdges(); got != 1 {
		t.Fatalf("NumEdges = %d, want 1", got)
	}
}

func TestGraphEntryEgressForwardAndReverse(t *testing.T) {
	g := newGraph()
	g.growTo(1)
	n0 := bidirected.Dir{ID: 10, Forward: true}
	n1 := bidirected.Dir{ID: 11, Forward: true}
	n2 := bidirected.Dir{ID: 12, Forward: false}
	g.Unitigs[0] = []bidirected.Dir{n0, n1, n2}

	fw := bidirected.Dir{ID: 0, Forward: true}
	if got := g.Entry(fw); got != n0 {
		t.Fatalf("Entry(fw) = %+v, want %+v", got, n0)
	}
	if got := g.Egress(fw); got != n2 {
		t.Fatalf("Egress(fw) = %+v, want %+v", got, n2)
	}

	bw := bidirected.Dir{ID: 0, Forward: false}
	if got := g.Entry(bw); got != bidirected.Reverse(n2) {
		t.Fatalf("Entry(bw) = %+v, want %+v", got, bidirected.Reverse(n2))
	}
	if got := g.Egress(bw); got != bidirected.Reverse(n0) {
		t.Fatalf("Egress(bw) = %+v, want %+v", got, bidirected.Reverse(n0))
	}
}

func TestGraphFilterNodesReindexesAndDropsEdges(t *testing.T) {
	g := newGraph()
	g.growTo(3)
	for i := 0; i < 3; i++ {
		g.Unitigs[i] = []bidirected.Dir{{ID: uint32(i), Forward: true}}
		g.UnitigCoverage[i] = []uint64{uint64(i + 1)}
	}
	a := bidirected.Dir{ID: 0, Forward: true}
	b := bidirected.Dir{ID: 1, Forward: true}
	c := bidirected.Dir{ID: 2, Forward: true}
	g.AddEdge(a, b)
	g.SetEdgeCoverage(a, b, 5)
	g.AddEdge(b, c)
	g.SetEdgeCoverage(b, c, 9)

	filtered := g.FilterNodes([]bool{true, false, true})
	if filtered.NumNodes() != 2 {
		t.Fatalf("NumNodes after filtering out node 1 = %d, want 2", filtered.NumNodes())
	}
	// node 0 keeps its coverage and loses its edge to the dropped node 1.
	newA := bidirected.Dir{ID: 0, Forward: true}
	if len(filtered.Edges(newA)) != 0 {
		t.Fatalf("expected the edge to the dropped node to be gone, got %v", filtered.Edges(newA))
	}
	if filtered.AverageCoverage(0) != 1 {
		t.Fatalf("AverageCoverage(0) = %f, want 1", filtered.AverageCoverage(0))
	}
}

func buildLinearHashList(t *testing.T) *hashlist.HashList {
	t.Helper()
	list := hashlist.New(5)
	codes := encode(t, "ACGTTGCATGCATGCACGTAGCATCGATTAGCATGACGT")
	lens := make([]uint16, len(codes))
	for i := range lens {
		lens[i] = 1
	}
	list.Ingest(codes, lens, 4)
	list.BuildReverseCompHashSequences()
	return list
}

func TestGetUnitigGraphPreservesTotalNodeCoverage(t *testing.T) {
	list := buildLinearHashList(t)
	var wantTotal uint64
	for i := uint32(0); i < uint32(list.Size()); i++ {
		wantTotal += list.Coverage(i)
	}

	g := GetUnitigGraph(list, 1)
	var gotTotal uint64
	for i := range g.UnitigCoverage {
		for _, c := range g.UnitigCoverage[i] {
			gotTotal += c
		}
	}
	if gotTotal != wantTotal {
		t.Fatalf("unitig graph coverage total = %d, want %d", gotTotal, wantTotal)
	}
}

func TestGetNodeGraphHasOneUnitigPerNode(t *testing.T) {
	list := buildLinearHashList(t)
	g := GetNodeGraph(list, 1)
	if g.NumNodes() != list.Size() {
		t.Fatalf("GetNodeGraph NumNodes = %d, want %d", g.NumNodes(), list.Size())
	}
	for i := range g.Unitigs {
		if len(g.Unitigs[i]) != 1 {
			t.Fatalf("unitig %d has %d k-mers, want exactly 1", i, len(g.Unitigs[i]))
		}
	}
}

func TestContractChainsOnNodeGraphAgreesWithDirectUnitigGraph(t *testing.T) {
	list := buildLinearHashList(t)
	nodeGraph := GetNodeGraph(list, 1)
	contracted := ContractChains(nodeGraph)
	direct := GetUnitigGraph(list, 1)
	if contracted.NumNodes() != direct.NumNodes() {
		t.Fatalf("ContractChains(GetNodeGraph) has %d unitigs, GetUnitigGraph has %d", contracted.NumNodes(), direct.NumNodes())
	}
}

func TestFilterByCoverageDropsLowCoverageUnitigs(t *testing.T) {
	list := buildLinearHashList(t)
	g := GetUnitigGraph(list, 1)
	// a threshold above every unitig's average coverage must drop them all.
	maxCov := 0.0
	for i := range g.Unitigs {
		if c := g.AverageCoverage(i); c > maxCov {
			maxCov = c
		}
	}
	filtered := FilterByCoverage(g, maxCov+1)
	if filtered.NumNodes() != 0 {
		t.Fatalf("expected every unitig to be dropped, got %d remaining", filtered.NumNodes())
	}
}
