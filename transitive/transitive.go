// Package transitive implements the transitive-edge cleaner of spec.md
// §4.5: it rescans the bridging sequence between two adjacent k-mers,
// reseeding a rolling hasher from their captured minimizer state, and
// threads any intermediate minimizer-prefix nodes it finds back into the
// edge as an explicit path, breaking what looked like a direct edge into
// the chain it actually is.
package transitive

import (
	"github.com/mudesheng/unitiggraph/bidirected"
	"github.com/mudesheng/unitiggraph/bnt"
	"github.com/mudesheng/unitiggraph/hashlist"
	"github.com/mudesheng/unitiggraph/rollhash"
)

// lazyString presents two overlapping views as one contiguous sequence
// without copying until a window is actually requested.
type lazyString struct {
	first, second []bnt.Base
	overlap       int
	cache         []bnt.Base
}

func newLazyString(first, second []bnt.Base, overlap int) *lazyString {
	return &lazyString{first: first, second: second, overlap: overlap}
}

func (l *lazyString) size() int {
	return len(l.first) + len(l.second) - l.overlap
}

func (l *lazyString) at(i int) bnt.Base {
	if i < len(l.first) {
		return l.first[i]
	}
	return l.second[i-len(l.first)+l.overlap]
}

// view materializes the full sequence on first use and returns a window
// of kmerSize bases starting at start.
func (l *lazyString) view(start, kmerSize int) []bnt.Base {
	if l.cache == nil {
		l.cache = make([]bnt.Base, 0, l.size())
		l.cache = append(l.cache, l.first...)
		l.cache = append(l.cache, l.second[l.overlap:]...)
	}
	return l.cache[start : start+kmerSize]
}

type overlapUpdate struct {
	from, to bidirected.Dir
	overlap  int
}

// Cleaner discovers, per canonical edge, the chain of intermediate nodes
// a direct edge was really bridging over.
type Cleaner struct {
	kmerSize int
	middle   [2][]map[bidirected.Dir][]bidirected.Dir
	overlaps []overlapUpdate
}

// New builds a Cleaner and immediately runs the (read-only) discovery
// pass over list; call Clean to apply the results.
func New(list *hashlist.HashList, kmerSize int) *Cleaner {
	c := &Cleaner{kmerSize: kmerSize}
	c.middle[0] = make([]map[bidirected.Dir][]bidirected.Dir, list.Size())
	c.middle[1] = make([]map[bidirected.Dir][]bidirected.Dir, list.Size())
	c.getMiddles(list)
	return c
}

func dirSlot(d bidirected.Dir) int {
	if d.Forward {
		return 0
	}
	return 1
}

func (c *Cleaner) getMiddle(from, to bidirected.Dir) ([]bidirected.Dir, bool) {
	m := c.middle[dirSlot(from)][from.ID]
	if m == nil {
		return nil, false
	}
	path, ok := m[to]
	return path, ok
}

func (c *Cleaner) setMiddle(from, to bidirected.Dir, path []bidirected.Dir) {
	slot := c.middle[dirSlot(from)]
	if slot[from.ID] == nil {
		slot[from.ID] = make(map[bidirected.Dir][]bidirected.Dir)
	}
	slot[from.ID][to] = path
}

// InsertMiddles expands a raw two-or-more-node path, replacing every
// adjacent pair that has a known discovered middle with that middle,
// until no pair does. raw is consumed.
func (c *Cleaner) InsertMiddles(raw []bidirected.Dir) []bidirected.Dir {
	result := make([]bidirected.Dir, 0, len(raw))
	for len(raw) >= 2 {
		from := raw[len(raw)-2]
		to := raw[len(raw)-1]
		mid, ok := c.getMiddle(from, to)
		if !ok {
			result = append(result, raw[len(raw)-1])
			raw = raw[:len(raw)-1]
			continue
		}
		raw = raw[:len(raw)-1]
		raw = append(raw, mid...)
		raw = append(raw, to)
	}
	result = append(result, raw[len(raw)-1])
	for i, j := 0, len(result)-1; i < j; i, j = i+1, j-1 {
		result[i], result[j] = result[j], result[i]
	}
	return result
}

func (c *Cleaner) addMiddles(start, end bidirected.Dir, seq *lazyString, list *hashlist.HashList, minimizerPrefixes map[uint64]struct{}) {
	var path []bidirected.Dir
	old := start
	oldpos := 0

	var fwHash, bwHash uint64
	if start.Forward {
		fwHash, bwHash = list.FakeFwHash(start.ID), list.FakeBwHash(start.ID)
	} else {
		fwHash, bwHash = list.FakeBwHash(start.ID), list.FakeFwHash(start.ID)
	}
	hasher := rollhash.Seed(c.kmerSize, fwHash, bwHash)

	for i := 1; i < seq.size()-c.kmerSize; i++ {
		hasher.AddChar(seq.at(i + c.kmerSize - 1))
		hasher.RemoveChar(seq.at(i - 1))
		hv := hasher.Hash()
		if _, ok := minimizerPrefixes[hv]; !ok {
			continue
		}
		here, ok := list.GetNodeOrNull(seq.view(i, c.kmerSize))
		if !ok {
			continue
		}
		path = append(path, here)
		cf, ct := bidirected.Canon(old, here)
		c.overlaps = append(c.overlaps, overlapUpdate{cf, ct, c.kmerSize - (i - oldpos)})
		old = here
		oldpos = i
	}

	if len(path) == 0 {
		return
	}
	cf, ct := bidirected.Canon(old, end)
	c.overlaps = append(c.overlaps, overlapUpdate{cf, ct, c.kmerSize - (seq.size() - c.kmerSize - oldpos)})
	c.setMiddle(start, end, path)
}

func (c *Cleaner) getMiddles(list *hashlist.HashList) {
	minimizerPrefixes := make(map[uint64]struct{})
	list.EachFakeHash(func(fwHash, bwHash uint64) {
		minimizerPrefixes[fwHash] = struct{}{}
		minimizerPrefixes[bwHash] = struct{}{}
	})

	for i := 0; i < list.Size(); i++ {
		id := uint32(i)
		fw := bidirected.Dir{ID: id, Forward: true}
		if overlaps := list.OverlapsFrom(fw); len(overlaps) > 0 {
			seq := list.GetHashSequenceRLE(id)
			for to, overlap := range overlaps {
				c.addMiddles(fw, to, newLazyString(seq, c.otherSide(list, to), overlap), list, minimizerPrefixes)
			}
		}
		bw := bidirected.Dir{ID: id, Forward: false}
		if overlaps := list.OverlapsFrom(bw); len(overlaps) > 0 {
			seq := list.GetRevCompHashSequenceRLE(id)
			for to, overlap := range overlaps {
				c.addMiddles(bw, to, newLazyString(seq, c.otherSide(list, to), overlap), list, minimizerPrefixes)
			}
		}
	}
}

func (c *Cleaner) otherSide(list *hashlist.HashList, to bidirected.Dir) []bnt.Base {
	if to.Forward {
		return list.GetHashSequenceRLE(to.ID)
	}
	return list.GetRevCompHashSequenceRLE(to.ID)
}

type edgeDelta struct {
	from, to bidirected.Dir
	delta    uint64
}

// Clean discovers and applies transitive-edge breaks across the whole
// index, returning the number of direct edges it broke into a longer
// chain.
func Clean(list *hashlist.HashList, kmerSize int) int {
	c := New(list, kmerSize)

	var addEdge, removeEdge []edgeDelta
	type coverageCredit struct {
		id    uint32
		delta uint64
	}
	var credits []coverageCredit

	broken := 0
	for node := 0; node < list.Size(); node++ {
		for _, fwd := range [2]bool{true, false} {
			from := bidirected.Dir{ID: uint32(node), Forward: fwd}
			for target, cov := range list.EdgesFrom(from) {
				vec := c.InsertMiddles([]bidirected.Dir{from, target})
				if len(vec) == 2 {
					continue
				}
				broken++
				cf, ct := bidirected.Canon(vec[0], vec[len(vec)-1])
				removeEdge = append(removeEdge, edgeDelta{cf, ct, cov})
				for i := 1; i < len(vec); i++ {
					cf, ct = bidirected.Canon(vec[i-1], vec[i])
					addEdge = append(addEdge, edgeDelta{cf, ct, cov})
				}
				for i := 1; i < len(vec)-1; i++ {
					credits = append(credits, coverageCredit{vec[i].ID, cov})
				}
			}
		}
	}

	for _, o := range c.overlaps {
		list.SetSequenceOverlap(o.from, o.to, o.overlap)
	}
	for _, e := range addEdge {
		list.AddEdgeCoverage(e.from, e.to, e.delta)
	}
	for _, e := range removeEdge {
		list.SubEdgeCoverage(e.from, e.to, e.delta)
	}
	for _, cr := range credits {
		list.AddCoverage(cr.id, cr.delta)
	}
	return broken
}
