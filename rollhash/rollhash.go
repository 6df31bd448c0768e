// Package rollhash implements the canonical rolling k-mer hash: an O(1)
// addChar/removeChar hash pair whose combined value is strand-symmetric
// (min of the forward and reverse hash), with the same fixed per-base
// constants and rotation scheme MBG.cpp's FastHasher uses.
package rollhash

import "github.com/mudesheng/unitiggraph/bnt"

// https://bioinformatics.stackexchange.com/questions/19/are-there-any-rolling-hash-functions-that-can-hash-a-dna-sequence-and-its-revers
const (
	hashA uint64 = 0x3c8bfbb395c60474
	hashC uint64 = 0x3193c18562a02b4c
	hashG uint64 = 0x20323ed082572324
	hashT uint64 = 0x295549f54be24456
)

var charHashes = [5]uint64{0, hashA, hashC, hashG, hashT}

// Hasher is a canonical rolling hash over a fixed k-mer size.
type Hasher struct {
	fwHash  uint64
	bwHash  uint64
	kmerLen uint

	fwAdd, fwRemove, bwAdd, bwRemove [5]uint64
}

// New builds a fresh hasher (zero state) for the given k-mer size.
func New(kmerSize int) *Hasher {
	return seed(kmerSize, 0, 0)
}

// Seed rehydrates a hasher from a previously captured (fwHash, bwHash)
// pair, the mechanism by which the transitive cleaner rescans a bridging
// sequence without recomputing from scratch.
func Seed(kmerSize int, fwHash, bwHash uint64) *Hasher {
	return seed(kmerSize, fwHash, bwHash)
}

func seed(kmerSize int, fwHash, bwHash uint64) *Hasher {
	h := &Hasher{fwHash: fwHash, bwHash: bwHash, kmerLen: uint(kmerSize) % 64}
	h.precalcRots()
	return h
}

func (h *Hasher) precalcRots() {
	for i := 0; i < 5; i++ {
		h.fwAdd[i] = charHashes[i]
		h.fwRemove[i] = h.rotlk(charHashes[i])
		h.bwAdd[i] = h.rotlkmin1(charHashes[int(bnt.Comp(byte(i)))])
		h.bwRemove[i] = rotrone(charHashes[int(bnt.Comp(byte(i)))])
	}
}

func rotlone(v uint64) uint64 { return (v << 1) | (v >> 63) }
func rotrone(v uint64) uint64 { return (v >> 1) | (v << 63) }

func (h *Hasher) rotlk(v uint64) uint64 {
	return (v << h.kmerLen) | (v >> (64 - h.kmerLen))
}

func (h *Hasher) rotlkmin1(v uint64) uint64 {
	k := h.kmerLen - 1
	return (v << k) | (v >> (64 - k))
}

// AddChar folds a new base code into the hash, as if it were appended to
// the end of the k-mer window.
func (h *Hasher) AddChar(c bnt.Base) {
	h.fwHash = rotlone(h.fwHash) ^ h.fwAdd[c]
	h.bwHash = rotrone(h.bwHash) ^ h.bwAdd[c]
}

// RemoveChar removes a base code that has fallen off the front of the
// k-mer window.
func (h *Hasher) RemoveChar(c bnt.Base) {
	h.fwHash ^= h.fwRemove[c]
	h.bwHash ^= h.bwRemove[c]
}

// Hash returns the strand-symmetric combined hash: min(fw, bw).
func (h *Hasher) Hash() uint64 {
	if h.fwHash < h.bwHash {
		return h.fwHash
	}
	return h.bwHash
}

// FwHash returns the raw forward-strand hash.
func (h *Hasher) FwHash() uint64 { return h.fwHash }

// BwHash returns the raw reverse-strand hash.
func (h *Hasher) BwHash() uint64 { return h.bwHash }

// HashOf computes the initial hash of the first kmerSize characters of
// codes, returning a ready-to-roll Hasher positioned just past them.
func HashOf(codes []bnt.Base, kmerSize int) *Hasher {
	h := New(kmerSize)
	for i := 0; i < kmerSize; i++ {
		h.AddChar(codes[i])
	}
	return h
}
