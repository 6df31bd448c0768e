// Package seqstore implements the adjacent packed storage of spec.md
// §4.2: append-only buffers that share prefixes between consecutive,
// overlapping k-mers along a read, plus a matching run-length store and a
// reverse-complement mirror built once at finalization.
//
// Buffers are never relocated once a (bufferID, offset) handle has been
// issued: growth only ever appends to the current buffer or opens a new
// one.
package seqstore

import "github.com/mudesheng/unitiggraph/bnt"

// SeqStore holds RLE base-code sequences.
type SeqStore struct {
	data     [][]bnt.Base
	lastHash uint64
}

// Handle locates a stored view: buffer bufferID, starting at offset.
type Handle struct {
	BufferID int
	Offset   int
}

// AddString stores view, appending it onto the current buffer when
// previousHash matches the hash of the most recently stored view and is
// non-zero, else opening a fresh buffer.
func (s *SeqStore) AddString(view []bnt.Base, currentHash, previousHash uint64, overlap int) Handle {
	if len(s.data) == 0 || s.lastHash == 0 || previousHash == 0 || previousHash != s.lastHash {
		buf := make([]bnt.Base, len(view))
		copy(buf, view)
		s.data = append(s.data, buf)
		s.lastHash = currentHash
		return Handle{BufferID: len(s.data) - 1, Offset: 0}
	}
	cur := len(s.data) - 1
	s.data[cur] = append(s.data[cur], view[overlap:]...)
	s.lastHash = currentHash
	return Handle{BufferID: cur, Offset: len(s.data[cur]) - len(view)}
}

// View returns the size bases starting at h.
func (s *SeqStore) View(h Handle, size int) []bnt.Base {
	return s.data[h.BufferID][h.Offset : h.Offset+size]
}

// GetReverseComplementStorage builds a parallel store where every buffer
// is the reverse complement of the forward buffer; it is built once, at
// finalization, to support O(1) reverse views.
func (s *SeqStore) GetReverseComplementStorage() *SeqStore {
	rc := &SeqStore{data: make([][]bnt.Base, len(s.data))}
	for i, buf := range s.data {
		rc.data[i] = bnt.ReverseComplement(buf)
	}
	return rc
}

// RevCompHandle translates a forward handle into its location in the
// reverse-complement store built by GetReverseComplementStorage.
func (s *SeqStore) RevCompHandle(h Handle, size int) Handle {
	bufLen := len(s.data[h.BufferID])
	return Handle{BufferID: h.BufferID, Offset: bufLen - size - h.Offset}
}

// LenStore holds per-position run-length (u16) arrays, laid out identically
// to a SeqStore's buffers.
type LenStore struct {
	data     [][]uint16
	lastHash uint64
}

// AddData stores lens[start:end], appending onto the current buffer under
// the same adjacency rule as SeqStore.AddString.
func (s *LenStore) AddData(lens []uint16, start, end int, currentHash, previousHash uint64, overlap int) Handle {
	if len(s.data) == 0 || s.lastHash == 0 || previousHash == 0 || previousHash != s.lastHash {
		buf := make([]uint16, end-start)
		copy(buf, lens[start:end])
		s.data = append(s.data, buf)
		s.lastHash = currentHash
		return Handle{BufferID: len(s.data) - 1, Offset: 0}
	}
	cur := len(s.data) - 1
	s.data[cur] = append(s.data[cur], lens[start+overlap:end]...)
	s.lastHash = currentHash
	return Handle{BufferID: cur, Offset: len(s.data[cur]) - (end - start)}
}

// GetData returns a copy of the size run lengths starting at h.
func (s *LenStore) GetData(h Handle, size int) []uint16 {
	out := make([]uint16, size)
	copy(out, s.data[h.BufferID][h.Offset:h.Offset+size])
	return out
}
