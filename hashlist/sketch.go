package hashlist

import (
	"math/bits"
	"sync/atomic"

	"github.com/cespare/xxhash"
)

// sketch is a lock-free cuckoo filter used as a fast probabilistic
// membership pre-check before the authoritative hashToNode lookup on the
// ingestion hot path, adapted from the teacher's cuckoofilter.go. Each
// bucket cell is one uint32 holding a 16-bit fingerprint in its low bits
// (the high bits are unused), filled with sync/atomic.CompareAndSwapUint32
// instead of the teacher's cgo __sync_val_compare_and_swap shim. There is
// no cuckoo displacement: a fingerprint goes into its primary or its
// alternate bucket, or is not stored at all.
type sketch struct {
	buckets   []uint32
	bucketPow uint
	saturated uint32
}

const sketchBucketSize = 4

func newSketch(expectedItems uint64) *sketch {
	n := upperPow2(expectedItems) / sketchBucketSize
	if n == 0 {
		n = 1
	}
	return &sketch{
		buckets:   make([]uint32, n*sketchBucketSize),
		bucketPow: uint(bits.TrailingZeros64(n)),
	}
}

func upperPow2(x uint64) uint64 {
	if x == 0 {
		return 1
	}
	x--
	x |= x >> 1
	x |= x >> 2
	x |= x >> 4
	x |= x >> 8
	x |= x >> 16
	x |= x >> 32
	x++
	return x
}

func (s *sketch) indexAndFingerprint(h Hash128) (uint64, uint16) {
	hv := h.Hi ^ h.Lo
	fp := uint16(hv&0xffff) | 1
	idx := (hv >> 16) & ((1 << s.bucketPow) - 1)
	return idx, fp
}

func (s *sketch) altIndex(idx uint64, fp uint16) uint64 {
	return (idx ^ uint64(xxhash.Sum64([]byte{byte(fp), byte(fp >> 8)}))) & ((1 << s.bucketPow) - 1)
}

// MightContain reports whether h may already be present. False positives
// are possible; false negatives are not.
func (s *sketch) MightContain(h Hash128) bool {
	if atomic.LoadUint32(&s.saturated) != 0 {
		return true
	}
	idx, fp := s.indexAndFingerprint(h)
	if s.bucketHasFP(idx, fp) {
		return true
	}
	return s.bucketHasFP(s.altIndex(idx, fp), fp)
}

func (s *sketch) bucketHasFP(idx uint64, fp uint16) bool {
	base := idx * sketchBucketSize
	for i := uint64(0); i < sketchBucketSize; i++ {
		cell := atomic.LoadUint32(&s.buckets[base+i])
		if uint16(cell&0xffff) == fp {
			return true
		}
	}
	return false
}

// Add inserts h's fingerprint into its primary or alternate bucket. When
// both are full the fingerprint is not stored and the sketch marks itself
// saturated, after which MightContain reports true for every hash, so a
// miss stays a definite "not present".
func (s *sketch) Add(h Hash128) {
	idx, fp := s.indexAndFingerprint(h)
	if s.tryInsert(idx, fp) {
		return
	}
	if !s.tryInsert(s.altIndex(idx, fp), fp) {
		atomic.StoreUint32(&s.saturated, 1)
	}
}

func (s *sketch) tryInsert(idx uint64, fp uint16) bool {
	base := idx * sketchBucketSize
	for i := uint64(0); i < sketchBucketSize; i++ {
		for {
			cell := atomic.LoadUint32(&s.buckets[base+i])
			if uint16(cell&0xffff) == fp {
				return true
			}
			if cell != 0 {
				break
			}
			if atomic.CompareAndSwapUint32(&s.buckets[base+i], 0, uint32(fp)) {
				return true
			}
		}
	}
	return false
}
