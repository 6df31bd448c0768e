package hashlist

import (
	"github.com/cespare/xxhash"
	"github.com/mudesheng/unitiggraph/bnt"
)

// Hash128 is a 128-bit content hash, split into two independent 64-bit
// halves so that collisions are effectively impossible at the scales
// spec.md §9 calls for.
type Hash128 struct {
	Hi, Lo uint64
}

// ContentHash128 hashes an RLE k-mer view the same way the original tool
// does: split the byte sequence in half and hash each half independently,
// then combine. Using two independent xxhash digests in place of the
// generic std::hash used upstream.
func ContentHash128(view []bnt.Base) Hash128 {
	half := len(view) / 2
	lo := xxhash.Sum64(view[:half])
	hi := xxhash.Sum64(view[half:])
	return Hash128{Hi: hi, Lo: lo}
}
