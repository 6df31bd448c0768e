// Package unitig implements the unitig contraction of spec.md §4.6:
// walking maximal non-branching bidirected chains through the cleaned
// k-mer index into a compact node-and-edge graph, then optionally
// contracting that graph's own chains a second time after a coverage
// filter removes some of its nodes.
package unitig

import (
	"github.com/mudesheng/unitiggraph/bidirected"
	"github.com/mudesheng/unitiggraph/hashlist"
)

func slotOf(d bidirected.Dir) int {
	if d.Forward {
		return 0
	}
	return 1
}

// edgeSet is a bidirected adjacency-by-direction set, keyed the same way
// HashList's own canonical storage is, but populated symmetrically (both
// directed appearances of every edge) so it is directly walkable from
// either endpoint.
type edgeSet [2][]map[bidirected.Dir]struct{}

func newEdgeSet(n int) edgeSet {
	return edgeSet{make([]map[bidirected.Dir]struct{}, n), make([]map[bidirected.Dir]struct{}, n)}
}

func (e edgeSet) add(from, to bidirected.Dir) {
	slot := e[slotOf(from)]
	if slot[from.ID] == nil {
		slot[from.ID] = make(map[bidirected.Dir]struct{})
	}
	slot[from.ID][to] = struct{}{}
}

func (e edgeSet) get(from bidirected.Dir) []bidirected.Dir {
	slot := e[slotOf(from)]
	if int(from.ID) >= len(slot) || slot[from.ID] == nil {
		return nil
	}
	out := make([]bidirected.Dir, 0, len(slot[from.ID]))
	for to := range slot[from.ID] {
		out = append(out, to)
	}
	return out
}

func (e edgeSet) degree(from bidirected.Dir) int {
	slot := e[slotOf(from)]
	if int(from.ID) >= len(slot) {
		return 0
	}
	return len(slot[from.ID])
}

// Graph is a unitig (or plain node) graph: an ordered chain of k-mer-level
// directed nodes per unitig, per-position coverage, and bidirected edges
// between unitig endpoints.
type Graph struct {
	Unitigs        [][]bidirected.Dir
	UnitigCoverage [][]uint64

	edges   edgeSet
	edgeCov [2][]map[bidirected.Dir]uint64
}

func newGraph() *Graph {
	return &Graph{}
}

func (g *Graph) appendEmptyUnitig() int {
	idx := len(g.Unitigs)
	g.Unitigs = append(g.Unitigs, nil)
	g.UnitigCoverage = append(g.UnitigCoverage, nil)
	for i := range g.edges {
		g.edges[i] = append(g.edges[i], nil)
		g.edgeCov[i] = append(g.edgeCov[i], nil)
	}
	return idx
}

func (g *Graph) growTo(n int) {
	g.Unitigs = make([][]bidirected.Dir, n)
	g.UnitigCoverage = make([][]uint64, n)
	for i := range g.edges {
		g.edges[i] = make([]map[bidirected.Dir]struct{}, n)
		g.edgeCov[i] = make([]map[bidirected.Dir]uint64, n)
	}
}

// NumNodes returns the number of unitigs (or nodes) in the graph.
func (g *Graph) NumNodes() int {
	return len(g.Unitigs)
}

// NumEdges returns the number of distinct bidirected edges (each counted
// once, at its canonical appearance).
func (g *Graph) NumEdges() int {
	count := 0
	for i := 0; i < g.NumNodes(); i++ {
		for _, d := range [2]bool{true, false} {
			from := bidirected.Dir{ID: uint32(i), Forward: d}
			for _, to := range g.Edges(from) {
				cf, ct := bidirected.Canon(from, to)
				if cf == from && ct == to {
					count++
				}
			}
		}
	}
	return count
}

// Edges returns the directed neighbors of from.
func (g *Graph) Edges(from bidirected.Dir) []bidirected.Dir {
	return g.edges.get(from)
}

// AddEdge records a directed edge from -> to.
func (g *Graph) AddEdge(from, to bidirected.Dir) {
	g.edges.add(from, to)
}

func (g *Graph) edgeCovSlot(from bidirected.Dir) map[bidirected.Dir]uint64 {
	slot := g.edgeCov[slotOf(from)]
	if int(from.ID) >= len(slot) {
		return nil
	}
	return slot[from.ID]
}

// EdgeCoverage returns the canonical edge coverage between from and to.
func (g *Graph) EdgeCoverage(from, to bidirected.Dir) uint64 {
	cf, ct := bidirected.Canon(from, to)
	return g.edgeCovSlot(cf)[ct]
}

// SetEdgeCoverage sets the canonical edge coverage between from and to.
func (g *Graph) SetEdgeCoverage(from, to bidirected.Dir, coverage uint64) {
	cf, ct := bidirected.Canon(from, to)
	slot := g.edgeCov[slotOf(cf)]
	if slot[cf.ID] == nil {
		slot[cf.ID] = make(map[bidirected.Dir]uint64)
	}
	slot[cf.ID][ct] = coverage
}

// Entry returns the k-mer-level node a walk into unitig d first reaches.
func (g *Graph) Entry(d bidirected.Dir) bidirected.Dir {
	chain := g.Unitigs[d.ID]
	if d.Forward {
		return chain[0]
	}
	return bidirected.Reverse(chain[len(chain)-1])
}

// Egress returns the k-mer-level node a walk through unitig d last leaves
// from, the node whose outgoing edges are unitig d's outgoing edges.
func (g *Graph) Egress(d bidirected.Dir) bidirected.Dir {
	chain := g.Unitigs[d.ID]
	if d.Forward {
		return chain[len(chain)-1]
	}
	return bidirected.Reverse(chain[0])
}

// AverageCoverage returns the unweighted mean of the per-position coverage
// recorded for unitig i.
func (g *Graph) AverageCoverage(i int) float64 {
	var total uint64
	for _, c := range g.UnitigCoverage[i] {
		total += c
	}
	return float64(total) / float64(len(g.UnitigCoverage[i]))
}

// FilterNodes returns a new Graph containing only the unitigs where
// kept[i] is true, with edges and edge coverage reindexed and edges to
// dropped unitigs dropped.
func (g *Graph) FilterNodes(kept []bool) *Graph {
	newIndex := make([]int, len(kept))
	next := 0
	for i, k := range kept {
		if !k {
			newIndex[i] = -1
			continue
		}
		newIndex[i] = next
		next++
	}
	result := newGraph()
	result.growTo(next)
	for i, k := range kept {
		if !k {
			continue
		}
		ni := uint32(newIndex[i])
		result.Unitigs[ni] = g.Unitigs[i]
		result.UnitigCoverage[ni] = g.UnitigCoverage[i]
		for _, d := range [2]bool{true, false} {
			from := bidirected.Dir{ID: uint32(i), Forward: d}
			newFrom := bidirected.Dir{ID: ni, Forward: d}
			for _, to := range g.Edges(from) {
				if newIndex[to.ID] == -1 {
					continue
				}
				newTo := bidirected.Dir{ID: uint32(newIndex[to.ID]), Forward: to.Forward}
				result.AddEdge(newFrom, newTo)
			}
			for to, cov := range g.edgeCovSlot(from) {
				if newIndex[to.ID] == -1 {
					continue
				}
				newTo := bidirected.Dir{ID: uint32(newIndex[to.ID]), Forward: to.Forward}
				slot := result.edgeCov[slotOf(newFrom)]
				if slot[newFrom.ID] == nil {
					slot[newFrom.ID] = make(map[bidirected.Dir]uint64)
				}
				slot[newFrom.ID][newTo] = cov
			}
		}
	}
	return result
}

func appendOldUnitig(result *Graph, idx int, old *Graph, pos bidirected.Dir) {
	if pos.Forward {
		result.Unitigs[idx] = append(result.Unitigs[idx], old.Unitigs[pos.ID]...)
		result.UnitigCoverage[idx] = append(result.UnitigCoverage[idx], old.UnitigCoverage[pos.ID]...)
		return
	}
	seq := old.Unitigs[pos.ID]
	cov := old.UnitigCoverage[pos.ID]
	for i := len(seq) - 1; i >= 0; i-- {
		result.Unitigs[idx] = append(result.Unitigs[idx], bidirected.Reverse(seq[i]))
		result.UnitigCoverage[idx] = append(result.UnitigCoverage[idx], cov[i])
	}
}

// startUnitigFromGraph walks a maximal non-branching chain in an already
// built Graph (the second-pass contraction after a coverage filter),
// mirroring the original's two startUnitig overloads: this is the one
// that composes whole old unitigs rather than single k-mer nodes.
func startUnitigFromGraph(result *Graph, old *Graph, start bidirected.Dir, edges edgeSet, belongsToUnitig []bidirected.Dir, hasBelongs []bool) {
	currentUnitig := result.appendEmptyUnitig()
	pos := start
	belongsToUnitig[pos.ID] = bidirected.Dir{ID: uint32(currentUnitig), Forward: pos.Forward}
	hasBelongs[pos.ID] = true
	appendOldUnitig(result, currentUnitig, old, pos)

	for {
		posEdges := edges.get(pos)
		if len(posEdges) != 1 {
			break
		}
		newPos := posEdges[0]
		revPos := bidirected.Reverse(newPos)
		if edges.degree(revPos) != 1 {
			break
		}
		if newPos == start {
			self := bidirected.Dir{ID: uint32(currentUnitig), Forward: true}
			result.AddEdge(self, self)
			result.SetEdgeCoverage(self, self, old.EdgeCoverage(pos, newPos))
			break
		}
		if hasBelongs[newPos.ID] {
			fromDir := bidirected.Dir{ID: uint32(currentUnitig), Forward: belongsToUnitig[pos.ID].Forward}
			toDir := bidirected.Dir{ID: uint32(currentUnitig), Forward: !belongsToUnitig[pos.ID].Forward}
			result.AddEdge(fromDir, toDir)
			result.SetEdgeCoverage(fromDir, toDir, old.EdgeCoverage(pos, newPos))
			break
		}
		pos = newPos
		belongsToUnitig[pos.ID] = bidirected.Dir{ID: uint32(currentUnitig), Forward: pos.Forward}
		hasBelongs[pos.ID] = true
		appendOldUnitig(result, currentUnitig, old, pos)
	}
}

// startUnitigFromHash is the hash-list-level counterpart: it walks single
// k-mer nodes directly off a SparseEdgeContainer, used by GetUnitigGraph.
func startUnitigFromHash(result *Graph, start bidirected.Dir, edges *hashlist.SparseEdgeContainer, belongsToUnitig []bool, list *hashlist.HashList) int {
	currentUnitig := result.appendEmptyUnitig()
	pos := start
	belongsToUnitig[pos.ID] = true
	result.Unitigs[currentUnitig] = append(result.Unitigs[currentUnitig], pos)
	result.UnitigCoverage[currentUnitig] = append(result.UnitigCoverage[currentUnitig], list.Coverage(pos.ID))

	for {
		posEdges := edges.GetEdges(pos)
		if len(posEdges) != 1 {
			break
		}
		newPos := posEdges[0]
		revPos := bidirected.Reverse(newPos)
		if edges.Degree(revPos) != 1 {
			break
		}
		if newPos == start {
			break
		}
		if belongsToUnitig[newPos.ID] {
			break
		}
		pos = newPos
		belongsToUnitig[pos.ID] = true
		result.Unitigs[currentUnitig] = append(result.Unitigs[currentUnitig], pos)
		result.UnitigCoverage[currentUnitig] = append(result.UnitigCoverage[currentUnitig], list.Coverage(pos.ID))
	}
	return currentUnitig
}

func registerTip(result *Graph, tip map[bidirected.Dir]bidirected.Dir, idx int) {
	chain := result.Unitigs[idx]
	last := chain[len(chain)-1]
	first := chain[0]
	tip[last] = bidirected.Dir{ID: uint32(idx), Forward: true}
	tip[bidirected.Reverse(first)] = bidirected.Dir{ID: uint32(idx), Forward: false}
}

// GetUnitigGraph contracts HashList's k-mer graph into maximal
// non-branching chains, dropping any node below minCoverage.
func GetUnitigGraph(list *hashlist.HashList, minCoverage uint64) *Graph {
	result := newGraph()
	n := list.Size()
	belongsToUnitig := make([]bool, n)
	tip := make(map[bidirected.Dir]bidirected.Dir)
	edges := list.CoveredEdges(minCoverage)

	for i := 0; i < n; i++ {
		if list.Coverage(uint32(i)) < minCoverage {
			continue
		}
		fw := bidirected.Dir{ID: uint32(i), Forward: true}
		bw := bidirected.Dir{ID: uint32(i), Forward: false}
		fwEdges := edges.GetEdges(fw)
		bwEdges := edges.GetEdges(bw)
		if len(bwEdges) != 1 {
			if !belongsToUnitig[i] {
				registerTip(result, tip, startUnitigFromHash(result, fw, edges, belongsToUnitig, list))
			}
			for _, e := range bwEdges {
				if belongsToUnitig[e.ID] {
					continue
				}
				registerTip(result, tip, startUnitigFromHash(result, e, edges, belongsToUnitig, list))
			}
		}
		if len(fwEdges) != 1 {
			if !belongsToUnitig[i] {
				registerTip(result, tip, startUnitigFromHash(result, bw, edges, belongsToUnitig, list))
			}
			for _, e := range fwEdges {
				if belongsToUnitig[e.ID] {
					continue
				}
				registerTip(result, tip, startUnitigFromHash(result, e, edges, belongsToUnitig, list))
			}
		}
	}
	for i := 0; i < n; i++ {
		if belongsToUnitig[i] || list.Coverage(uint32(i)) < minCoverage {
			continue
		}
		fw := bidirected.Dir{ID: uint32(i), Forward: true}
		registerTip(result, tip, startUnitigFromHash(result, fw, edges, belongsToUnitig, list))
	}

	for from, fromUnitig := range tip {
		for _, to := range edges.GetEdges(from) {
			toUnitig := bidirected.Reverse(tip[bidirected.Reverse(to)])
			result.AddEdge(fromUnitig, toUnitig)
			result.AddEdge(bidirected.Reverse(toUnitig), bidirected.Reverse(fromUnitig))
			result.SetEdgeCoverage(fromUnitig, toUnitig, list.GetEdgeCoverage(from, to))
		}
	}
	return result
}

// GetNodeGraph builds a one-unitig-per-k-mer graph with no chain
// contraction, useful for debugging and as input to ContractChains.
func GetNodeGraph(list *hashlist.HashList, minCoverage uint64) *Graph {
	result := newGraph()
	n := list.Size()
	newIndex := make([]int, n)
	for i := range newIndex {
		newIndex[i] = -1
	}
	for i := 0; i < n; i++ {
		if list.Coverage(uint32(i)) < minCoverage {
			continue
		}
		newIndex[i] = len(result.Unitigs)
		result.Unitigs = append(result.Unitigs, []bidirected.Dir{{ID: uint32(i), Forward: true}})
		result.UnitigCoverage = append(result.UnitigCoverage, []uint64{list.Coverage(uint32(i))})
	}
	result.growEdgeArrays(len(result.Unitigs))
	list.AllEdges(func(from, to bidirected.Dir, cov uint64) {
		if cov < minCoverage || newIndex[from.ID] == -1 || newIndex[to.ID] == -1 {
			return
		}
		newFrom := bidirected.Dir{ID: uint32(newIndex[from.ID]), Forward: from.Forward}
		newTo := bidirected.Dir{ID: uint32(newIndex[to.ID]), Forward: to.Forward}
		result.AddEdge(newFrom, newTo)
		result.AddEdge(bidirected.Reverse(newTo), bidirected.Reverse(newFrom))
		result.SetEdgeCoverage(newFrom, newTo, cov)
	})
	return result
}

func (g *Graph) growEdgeArrays(n int) {
	for i := range g.edges {
		g.edges[i] = make([]map[bidirected.Dir]struct{}, n)
		g.edgeCov[i] = make([]map[bidirected.Dir]uint64, n)
	}
}

// ContractChains runs a second unitig-contraction pass over an already
// built Graph, used after FilterByCoverage removes some of its nodes and
// leaves new non-branching chains to merge.
func ContractChains(old *Graph) *Graph {
	n := old.NumNodes()
	edges := newEdgeSet(n)
	for i := 0; i < n; i++ {
		for _, d := range [2]bool{true, false} {
			from := bidirected.Dir{ID: uint32(i), Forward: d}
			for _, to := range old.Edges(from) {
				edges.add(from, to)
				edges.add(bidirected.Reverse(to), bidirected.Reverse(from))
			}
		}
	}

	result := newGraph()
	belongsToUnitig := make([]bidirected.Dir, n)
	hasBelongs := make([]bool, n)
	for node := 0; node < n; node++ {
		fw := bidirected.Dir{ID: uint32(node), Forward: true}
		bw := bidirected.Dir{ID: uint32(node), Forward: false}
		if edges.degree(fw) != 1 {
			for _, start := range edges.get(fw) {
				if hasBelongs[start.ID] {
					continue
				}
				startUnitigFromGraph(result, old, start, edges, belongsToUnitig, hasBelongs)
			}
			if !hasBelongs[node] {
				startUnitigFromGraph(result, old, bw, edges, belongsToUnitig, hasBelongs)
			}
		}
		if edges.degree(bw) != 1 {
			for _, start := range edges.get(bw) {
				if hasBelongs[start.ID] {
					continue
				}
				startUnitigFromGraph(result, old, start, edges, belongsToUnitig, hasBelongs)
			}
			if !hasBelongs[node] {
				startUnitigFromGraph(result, old, fw, edges, belongsToUnitig, hasBelongs)
			}
		}
	}
	for node := 0; node < n; node++ {
		if !hasBelongs[node] {
			startUnitigFromGraph(result, old, bidirected.Dir{ID: uint32(node), Forward: true}, edges, belongsToUnitig, hasBelongs)
		}
	}

	for i := 0; i < n; i++ {
		for _, d := range [2]bool{true, false} {
			prev := bidirected.Dir{ID: uint32(i), Forward: d}
			for _, curr := range old.Edges(prev) {
				from := belongsToUnitig[prev.ID]
				to := belongsToUnitig[curr.ID]
				if from.ID == to.ID {
					continue
				}
				fromDir := bidirected.Dir{ID: from.ID, Forward: !xor(from.Forward, prev.Forward)}
				toDir := bidirected.Dir{ID: to.ID, Forward: !xor(to.Forward, curr.Forward)}
				result.AddEdge(fromDir, toDir)
				result.SetEdgeCoverage(fromDir, toDir, old.EdgeCoverage(prev, curr))
			}
		}
	}
	return result
}

func xor(a, b bool) bool { return a != b }

// FilterByCoverage drops unitigs whose average coverage is below
// threshold, then recontracts whatever non-branching chains the removal
// exposed.
func FilterByCoverage(g *Graph, threshold float64) *Graph {
	kept := make([]bool, g.NumNodes())
	for i := range kept {
		kept[i] = g.AverageCoverage(i) >= threshold
	}
	return ContractChains(g.FilterNodes(kept))
}
