// Package consensus implements the concurrent consensus builder of
// spec.md §4.7: every unitig gets a fixed per-RLE-position base code
// (guaranteed consistent across reads by k-mer identity) plus a
// majority-voted expanded (run-length-decoded) substring at that
// position, built by rescanning every read's minimizers a second time
// and accumulating runs of consecutive agreeing positions under a
// position-range mutex acquired in ascending order, exactly as
// HPCConsensus.cpp's addCounts locking protocol does.
package consensus

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/mudesheng/unitiggraph/bnt"
	"github.com/mudesheng/unitiggraph/hashlist"
	"github.com/mudesheng/unitiggraph/internal/xmath"
	"github.com/mudesheng/unitiggraph/minimizer"
	"github.com/mudesheng/unitiggraph/unitig"
	"github.com/mudesheng/unitiggraph/unitigerr"
)

// mutexLength is the window size, in RLE base pairs, covered by one
// position-range mutex: about 3000 mutexes across a human-genome-scale
// set of unitigs, and under a 0.1% chance that two concurrent reads land
// in the same window.
const mutexLength = 1000000

// StringIndex interns expanded base-run substrings so vote counters can
// compare small integer indices instead of repeatedly hashing strings.
type StringIndex struct {
	mu       sync.Mutex
	toIndex  map[string]uint32
	toString []string
}

// NewStringIndex returns an empty interner.
func NewStringIndex() *StringIndex {
	return &StringIndex{toIndex: make(map[string]uint32)}
}

// Intern returns str's index, assigning a fresh one on first use.
func (s *StringIndex) Intern(str string) uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if idx, ok := s.toIndex[str]; ok {
		return idx
	}
	idx := uint32(len(s.toString))
	s.toString = append(s.toString, str)
	s.toIndex[str] = idx
	return idx
}

// String returns the interned string for idx.
func (s *StringIndex) String(idx uint32) string {
	return s.toString[idx]
}

type simpleCount struct {
	index uint32
	count uint8
}

type kmerPos struct {
	unitig int
	offset int
	fw     bool
}

// Maker accumulates per-unitig, per-RLE-position vote counts across
// however many reads are fed to it through IngestRead, safe for
// concurrent use by multiple worker goroutines.
type Maker struct {
	kmerSize int

	kmerPosition []kmerPos

	codes   [][]bnt.Base
	simple  [][]simpleCount
	complex []map[[2]uint32]uint32
	mutexes [][]*sync.Mutex

	strings *StringIndex
}

// New builds a Maker for the given unitig graph: every RLE position of
// every unitig gets a fixed-but-unvoted base-code slot and a vote
// counter, and every k-mer node is mapped to its (unitig, offset,
// orientation) location.
func New(list *hashlist.HashList, g *unitig.Graph, kmerSize int) *Maker {
	m := &Maker{
		kmerSize: kmerSize,
		strings:  NewStringIndex(),
	}
	m.kmerPosition = make([]kmerPos, list.Size())
	for i := range m.kmerPosition {
		m.kmerPosition[i].unitig = -1
	}

	n := g.NumNodes()
	m.codes = make([][]bnt.Base, n)
	m.simple = make([][]simpleCount, n)
	m.complex = make([]map[[2]uint32]uint32, n)
	m.mutexes = make([][]*sync.Mutex, n)

	for i, chain := range g.Unitigs {
		offset := 0
		for j, d := range chain {
			if j > 0 {
				ov, _ := list.GetOverlap(chain[j-1], d)
				offset += kmerSize - ov
			}
			m.kmerPosition[d.ID] = kmerPos{unitig: i, offset: offset, fw: d.Forward}
		}
		size := offset + kmerSize
		m.codes[i] = make([]bnt.Base, size)
		m.simple[i] = make([]simpleCount, size)
		m.complex[i] = make(map[[2]uint32]uint32)
		windows := (size + mutexLength - 1) / mutexLength
		if windows == 0 {
			windows = 1
		}
		m.mutexes[i] = make([]*sync.Mutex, windows)
		for w := range m.mutexes[i] {
			m.mutexes[i][w] = &sync.Mutex{}
		}
	}
	return m
}

// AddRun records a contiguous run of RLE positions [unitigStart,
// unitigEnd) in unitig u as covered by codes[seqStart:seqEnd] (and the
// matching run-length array lens, aligned the same way) from one read,
// in the orientation given by fw. It reports a ContractViolation if a
// read's packed base code at a position disagrees with one a previous
// read already fixed there, mirroring HPCConsensus.cpp's addCounts
// assertion that every read observing a given k-mer must agree on its
// packed identity.
func (m *Maker) AddRun(u, unitigStart, unitigEnd int, codes []bnt.Base, lens []uint16, seqStart, seqEnd int, fw bool) error {
	mutexes := m.mutexes[u]
	n := len(mutexes)
	low := xmath.MaxInt(0, unitigStart-64) / mutexLength
	high := xmath.MinInt(n, (unitigEnd+64+mutexLength-1)/mutexLength)
	for w := low; w < high; w++ {
		mutexes[w].Lock()
	}
	defer func() {
		for w := low; w < high; w++ {
			mutexes[w].Unlock()
		}
	}()

	for i := 0; i < seqEnd-seqStart; i++ {
		off := unitigStart + i
		if !fw {
			off = unitigEnd - 1 - i
		}
		readPos := seqStart + i
		code := codes[readPos]
		expanded := bnt.Expand(codes[readPos:readPos+1], lens[readPos:readPos+1])
		if !fw {
			code = bnt.Comp(code)
			expanded = revCompString(expanded)
		}
		if m.codes[u][off] == 0 {
			m.codes[u][off] = code
		} else if m.codes[u][off] != code {
			return &unitigerr.ContractViolation{
				Phase:  "consensus.AddRun",
				Reason: fmt.Sprintf("unitig %d position %d: observed base %v disagrees with already-set base %v", u, off, code, m.codes[u][off]),
			}
		}
		idx := m.strings.Intern(expanded)
		m.vote(u, off, idx)
	}
	return nil
}

func (m *Maker) vote(u, pos int, idx uint32) {
	s := &m.simple[u][pos]
	if s.count == 0 {
		s.index = idx
		s.count = 1
		return
	}
	if s.index == idx {
		if s.count < 255 {
			s.count++
		}
		return
	}
	m.complex[u][[2]uint32{uint32(pos), idx}]++
}

func revCompString(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := len(s) - 1; i >= 0; i-- {
		switch s[i] {
		case 'A':
			b.WriteByte('T')
		case 'C':
			b.WriteByte('G')
		case 'G':
			b.WriteByte('C')
		case 'T':
			b.WriteByte('A')
		default:
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

// IngestRead rescans one already RLE-encoded read's minimizers against
// the k-mer index and threads every resulting hit into contiguous
// diagonal runs, flushing each run into AddRun as soon as the read moves
// off it (a gap, a strand flip, or a jump to another unitig). It returns
// the first ContractViolation any flushed run's AddRun reports, if any;
// the scan stops accumulating new runs once that happens.
func (m *Maker) IngestRead(list *hashlist.HashList, windowSize int, codes []bnt.Base, lens []uint16) error {
	type active struct {
		have                   bool
		unitig                 int
		seqStart, seqEnd       int
		unitigStart, unitigEnd int
		diagonal               int
		forward                bool
	}
	var cur active
	var ingestErr error

	flush := func() {
		if !cur.have || ingestErr != nil {
			cur.have = false
			return
		}
		if err := m.AddRun(cur.unitig, cur.unitigStart, cur.unitigEnd, codes, lens, cur.seqStart, cur.seqEnd, cur.forward); err != nil {
			ingestErr = err
		}
		cur.have = false
	}

	minimizer.Scan(codes, m.kmerSize, windowSize, func(pos int, fwHash, bwHash uint64) {
		if ingestErr != nil {
			return
		}
		view := codes[pos : pos+m.kmerSize]
		node, ok := list.GetNodeOrNull(view)
		if !ok {
			flush()
			return
		}
		kp := m.kmerPosition[node.ID]
		if kp.unitig < 0 {
			flush()
			return
		}
		fw := kp.fw
		if !node.Forward {
			fw = !fw
		}
		var diagonal int
		if fw {
			diagonal = pos - kp.offset
		} else {
			diagonal = pos + kp.offset
		}

		if cur.have && kp.unitig == cur.unitig && fw == cur.forward && diagonal == cur.diagonal && pos <= cur.seqEnd {
			cur.seqEnd = pos + m.kmerSize
			if fw {
				cur.unitigEnd = kp.offset + m.kmerSize
			} else {
				cur.unitigStart = kp.offset
			}
			return
		}

		flush()
		cur = active{
			have:        true,
			unitig:      kp.unitig,
			seqStart:    pos,
			seqEnd:      pos + m.kmerSize,
			unitigStart: kp.offset,
			unitigEnd:   kp.offset + m.kmerSize,
			diagonal:    diagonal,
			forward:     fw,
		}
	})
	flush()
	return ingestErr
}

// Finalize resolves the majority-vote winner at every position of every
// unitig and returns each unitig's fixed base codes alongside the
// winning expanded-string index per position; it releases each unitig's
// working vote maps as it finishes with them.
func (m *Maker) Finalize() ([][]bnt.Base, [][]uint32, *StringIndex) {
	codes := m.codes
	winners := make([][]uint32, len(m.codes))

	for i := range m.codes {
		n := len(m.codes[i])
		winnersHere := make([]uint32, n)

		type entry struct {
			pos   int
			index uint32
			count uint32
		}
		entries := make([]entry, 0, len(m.complex[i]))
		for k, v := range m.complex[i] {
			entries = append(entries, entry{pos: int(k[0]), index: k[1], count: v})
		}
		sort.Slice(entries, func(a, b int) bool { return entries[a].pos > entries[b].pos })

		ci := len(entries) - 1
		for pos := 0; pos < n; pos++ {
			s := m.simple[i][pos]
			maxIdx := s.index
			maxCount := uint32(s.count)
			for ci >= 0 && entries[ci].pos == pos {
				idx, count := entries[ci].index, entries[ci].count
				ci--
				if idx == s.index {
					count += uint32(s.count)
				}
				if count > maxCount {
					maxIdx, maxCount = idx, count
				}
			}
			winnersHere[pos] = maxIdx
		}
		winners[i] = winnersHere
		m.complex[i] = nil
		m.simple[i] = nil
	}
	return codes, winners, m.strings
}

// Sequence re-expands one unitig's finalized consensus into its final
// nucleotide string.
func Sequence(winners []uint32, si *StringIndex) string {
	var b strings.Builder
	for _, idx := range winners {
		b.WriteString(si.String(idx))
	}
	return b.String()
}
