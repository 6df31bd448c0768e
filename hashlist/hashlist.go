// Package hashlist implements the k-mer index of spec.md §4.4: a
// hash-to-node map, per-node coverage, and bidirected overlap/edge
// coverage maps, built by a single ingestion pass over reads.
package hashlist

import (
	"sync"

	"github.com/mudesheng/unitiggraph/bidirected"
	"github.com/mudesheng/unitiggraph/bnt"
	"github.com/mudesheng/unitiggraph/minimizer"
	"github.com/mudesheng/unitiggraph/seqstore"
)

// HashList is the k-mer index: nodes, coverage, and bidirected edges.
type HashList struct {
	KmerSize int

	mu sync.Mutex

	hashToNode map[Hash128]bidirected.Dir
	sk         *sketch

	coverage     []uint64
	fakeFwHashes []uint64
	fakeBwHashes []uint64

	// sequenceOverlap and edgeCoverage are indexed by direction: index 0
	// is the forward orientation of a node, index 1 is backward.
	sequenceOverlap [2][]map[bidirected.Dir]int
	edgeCoverage    [2][]map[bidirected.Dir]uint64

	seq     seqstore.SeqStore
	seqRC   *seqstore.SeqStore
	seqPtr  []seqstore.Handle
	lens    seqstore.LenStore
	lensPtr []seqstore.Handle
}

// New creates an empty index for the given k-mer size.
func New(kmerSize int) *HashList {
	return &HashList{
		KmerSize:   kmerSize,
		hashToNode: make(map[Hash128]bidirected.Dir),
	}
}

// EnableSketch turns on the cuckoo-filter membership pre-check, sized for
// an expected number of distinct k-mers.
func (h *HashList) EnableSketch(expectedItems uint64) {
	h.sk = newSketch(expectedItems)
}

func dirSlot(d bidirected.Dir) int {
	if d.Forward {
		return 0
	}
	return 1
}

// Size returns the number of distinct nodes.
func (h *HashList) Size() int {
	return len(h.coverage)
}

// Coverage returns the observation count of a node.
func (h *HashList) Coverage(id uint32) uint64 {
	return h.coverage[id]
}

// AddCoverage adds delta to a node's observation count, used by the
// transitive cleaner to credit intermediate nodes discovered along a
// broken bridge.
func (h *HashList) AddCoverage(id uint32, delta uint64) {
	h.coverage[id] += delta
}

// FakeFwHash and FakeBwHash return the minimizer-scan seed hashes captured
// when node id was first created; the transitive cleaner reseeds a
// rolling hasher from these to rescan a bridging sequence.
func (h *HashList) FakeFwHash(id uint32) uint64 { return h.fakeFwHashes[id] }
func (h *HashList) FakeBwHash(id uint32) uint64 { return h.fakeBwHashes[id] }

// EachFakeHash calls fn once per node with both of its seed hashes, used
// to build the set of minimizer-prefix hashes the transitive cleaner
// watches for while rescanning.
func (h *HashList) EachFakeHash(fn func(fwHash, bwHash uint64)) {
	for i := range h.fakeFwHashes {
		fn(h.fakeFwHashes[i], h.fakeBwHashes[i])
	}
}

// EdgesFrom returns the raw canonical-slot edge-coverage map stored for
// directed node from (nil if from is never a canonical
// left-hand side of any edge). Used by the transitive cleaner, which must
// walk exactly the same canonical storage HashList itself uses.
func (h *HashList) EdgesFrom(from bidirected.Dir) map[bidirected.Dir]uint64 {
	slot := h.edgeCoverage[dirSlot(from)]
	if int(from.ID) >= len(slot) {
		return nil
	}
	return slot[from.ID]
}

// OverlapsFrom mirrors EdgesFrom for sequence overlaps.
func (h *HashList) OverlapsFrom(from bidirected.Dir) map[bidirected.Dir]int {
	slot := h.sequenceOverlap[dirSlot(from)]
	if int(from.ID) >= len(slot) {
		return nil
	}
	return slot[from.ID]
}

// SetSequenceOverlap unconditionally overwrites the canonical overlap for
// an edge, unlike AddSequenceOverlap which only fills in a missing entry.
func (h *HashList) SetSequenceOverlap(from, to bidirected.Dir, overlap int) {
	cf, ct := bidirected.Canon(from, to)
	slot := h.sequenceOverlap[dirSlot(cf)]
	if slot[cf.ID] == nil {
		slot[cf.ID] = make(map[bidirected.Dir]int)
	}
	slot[cf.ID][ct] = overlap
}

// GetNodeOrNull looks up the node for an RLE k-mer view, without creating
// one. The second return is false if the view was never observed.
func (h *HashList) GetNodeOrNull(view []bnt.Base) (bidirected.Dir, bool) {
	hv := ContentHash128(view)
	d, ok := h.hashToNode[hv]
	return d, ok
}

// GetOverlap returns the canonical stored sequence overlap between two
// directed nodes.
func (h *HashList) GetOverlap(from, to bidirected.Dir) (int, bool) {
	cf, ct := bidirected.Canon(from, to)
	m := h.sequenceOverlap[dirSlot(cf)]
	if int(cf.ID) >= len(m) {
		return 0, false
	}
	ov, ok := m[cf.ID][ct]
	return ov, ok
}

// AddSequenceOverlap records the overlap for a canonical edge if it is not
// already known.
func (h *HashList) AddSequenceOverlap(from, to bidirected.Dir, overlap int) {
	cf, ct := bidirected.Canon(from, to)
	slot := h.sequenceOverlap[dirSlot(cf)]
	if slot[cf.ID] == nil {
		slot[cf.ID] = make(map[bidirected.Dir]int)
	}
	if _, ok := slot[cf.ID][ct]; ok {
		return
	}
	slot[cf.ID][ct] = overlap
}

// GetEdgeCoverage returns the canonical edge coverage count.
func (h *HashList) GetEdgeCoverage(from, to bidirected.Dir) uint64 {
	cf, ct := bidirected.Canon(from, to)
	return h.edgeCoverage[dirSlot(cf)][cf.ID][ct]
}

// AddEdgeCoverage adds delta to the canonical edge coverage.
func (h *HashList) AddEdgeCoverage(from, to bidirected.Dir, delta uint64) {
	cf, ct := bidirected.Canon(from, to)
	slot := h.edgeCoverage[dirSlot(cf)]
	if slot[cf.ID] == nil {
		slot[cf.ID] = make(map[bidirected.Dir]uint64)
	}
	slot[cf.ID][ct] += delta
}

// SubEdgeCoverage subtracts delta from the canonical edge coverage,
// removing the entry if it reaches zero.
func (h *HashList) SubEdgeCoverage(from, to bidirected.Dir, delta uint64) {
	cf, ct := bidirected.Canon(from, to)
	slot := h.edgeCoverage[dirSlot(cf)]
	slot[cf.ID][ct] -= delta
	if slot[cf.ID][ct] == 0 {
		delete(slot[cf.ID], ct)
	}
}

// AllEdges calls fn once per stored canonical edge (cf, ct, coverage). Each
// bidirected edge has exactly one canonical appearance here even though it
// is traversable from two directed nodes (cf->ct and Reverse(ct)->
// Reverse(cf)); callers building a full adjacency structure such as
// SparseEdgeContainer must register both.
func (h *HashList) AllEdges(fn func(from, to bidirected.Dir, coverage uint64)) {
	for slot := 0; slot < 2; slot++ {
		for id, m := range h.edgeCoverage[slot] {
			from := bidirected.Dir{ID: uint32(id), Forward: slot == 0}
			for to, cov := range m {
				fn(from, to, cov)
			}
		}
	}
}

// CoveredEdges builds the full symmetric adjacency used by the unitig
// builder, registering both directed appearances of every stored
// canonical edge whose coverage is at least minCoverage (mirrors
// MBG.cpp's getCoveredEdges). Node coverage is not checked here.
func (h *HashList) CoveredEdges(minCoverage uint64) *SparseEdgeContainer {
	edges := NewSparseEdgeContainer(h.Size())
	h.AllEdges(func(from, to bidirected.Dir, coverage uint64) {
		if coverage < minCoverage {
			return
		}
		edges.AddEdge(from, to)
		edges.AddEdge(bidirected.Reverse(to), bidirected.Reverse(from))
	})
	return edges
}

// GetHashSequenceRLE returns the forward RLE base sequence of node id.
func (h *HashList) GetHashSequenceRLE(id uint32) []bnt.Base {
	return h.seq.View(h.seqPtr[id], h.KmerSize)
}

// GetRevCompHashSequenceRLE returns the reverse-complement RLE base
// sequence of node id.
func (h *HashList) GetRevCompHashSequenceRLE(id uint32) []bnt.Base {
	rcHandle := h.seq.RevCompHandle(h.seqPtr[id], h.KmerSize)
	return h.seqRC.View(rcHandle, h.KmerSize)
}

// GetHashCharacterLength returns the per-position run lengths of node id,
// in forward orientation.
func (h *HashList) GetHashCharacterLength(id uint32) []uint16 {
	return h.lens.GetData(h.lensPtr[id], h.KmerSize)
}

// BuildReverseCompHashSequences finalizes the reverse-complement mirror
// store; call once after all reads have been ingested.
func (h *HashList) BuildReverseCompHashSequences() {
	h.seqRC = h.seq.GetReverseComplementStorage()
}

func (h *HashList) getNode(view, rcView []bnt.Base, lens []uint16, lensStart, lensEnd int, previousHash Hash128, overlap int, fakeFwHash, fakeBwHash uint64) (bidirected.Dir, Hash128) {
	fwHash := ContentHash128(view)
	// The cuckoo filter can only rule a hash out, never rule it in: a
	// miss here means fwHash is certainly new and the map lookup below
	// can be skipped outright; a hit still falls through to the
	// authoritative lookup.
	if h.sk == nil || h.sk.MightContain(fwHash) {
		if d, ok := h.hashToNode[fwHash]; ok {
			return d, fwHash
		}
	}
	bwHash := ContentHash128(rcView)
	id := uint32(len(h.coverage))
	h.hashToNode[fwHash] = bidirected.Dir{ID: id, Forward: true}
	h.hashToNode[bwHash] = bidirected.Dir{ID: id, Forward: false}
	if h.sk != nil {
		h.sk.Add(fwHash)
		h.sk.Add(bwHash)
	}

	prevRaw := hash128ToUint64(previousHash)
	h.seqPtr = append(h.seqPtr, h.seq.AddString(view, hash128ToUint64(fwHash), prevRaw, overlap))
	h.lensPtr = append(h.lensPtr, h.lens.AddData(lens, lensStart, lensEnd, hash128ToUint64(fwHash), prevRaw, overlap))

	h.coverage = append(h.coverage, 0)
	h.fakeFwHashes = append(h.fakeFwHashes, fakeFwHash)
	h.fakeBwHashes = append(h.fakeBwHashes, fakeBwHash)
	for i := range h.sequenceOverlap {
		h.sequenceOverlap[i] = append(h.sequenceOverlap[i], nil)
		h.edgeCoverage[i] = append(h.edgeCoverage[i], nil)
	}
	return bidirected.Dir{ID: id, Forward: true}, fwHash
}

// hash128ToUint64 folds a 128-bit content hash down to 64 bits, used only
// as the "previous hash" continuity token for seqstore's adjacency check
// (any collision here only costs a missed prefix-sharing opportunity, it
// never corrupts correctness since seqstore always re-copies the full
// view on a mismatch).
func hash128ToUint64(h Hash128) uint64 {
	return h.Hi ^ h.Lo
}

// Ingest processes one read: uppercasing/RLE-encoding is the caller's
// responsibility (see bnt.RunLengthEncode / bnt.NoRunLengthEncode); codes
// must already be the encoded (and, if hpc, homopolymer-collapsed)
// sequence, with lens the parallel run-length array. Reads whose encoded
// length is at most KmerSize+windowSize are silently skipped, as spec.md
// §4.4 step 2 and §8's boundary behavior require.
func (h *HashList) Ingest(codes []bnt.Base, lens []uint16, windowSize int) {
	if len(codes) <= h.KmerSize+windowSize {
		return
	}
	rc := bnt.ReverseComplement(codes)

	h.mu.Lock()
	defer h.mu.Unlock()

	lastPos := -1
	var last bidirected.Dir
	haveLast := false
	var lastHash Hash128

	minimizer.Scan(codes, h.KmerSize, windowSize, func(pos int, fwHash, bwHash uint64) {
		view := codes[pos : pos+h.KmerSize]
		revPos := len(codes) - (pos + h.KmerSize)
		revView := rc[revPos : revPos+h.KmerSize]

		overlap := 0
		if lastPos >= 0 {
			overlap = lastPos + h.KmerSize - pos
		}
		current, hv := h.getNode(view, revView, lens, pos, pos+h.KmerSize, lastHash, overlap, fwHash, bwHash)
		lastHash = hv

		if haveLast && pos-lastPos < h.KmerSize {
			h.AddSequenceOverlap(last, current, overlap)
			h.AddEdgeCoverage(last, current, 1)
		}
		lastPos = pos
		h.coverage[current.ID]++
		last = current
		haveLast = true
	})
}
