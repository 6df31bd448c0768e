// Package minimizer implements the sliding-window minimizer scan of
// spec.md §4.3: a monotonic deque over rolling hashes that emits every
// k-mer tied for the minimum hash in its window.
package minimizer

import (
	"github.com/mudesheng/unitiggraph/bnt"
	"github.com/mudesheng/unitiggraph/rollhash"
)

// Callback receives one emission per minimizer (or tie), in position
// order.
type Callback func(pos int, fwHash, bwHash uint64)

type entry struct {
	pos            int
	hash           uint64
	fwHash, bwHash uint64
}

// Scan drives the minimizer scanner over codes for the given k-mer and
// window size, invoking cb once per emission. Reads of length less than
// kmerSize+windowSize yield zero emissions.
func Scan(codes []bnt.Base, kmerSize, windowSize int, cb Callback) {
	if len(codes) < kmerSize+windowSize {
		return
	}
	h := rollhash.HashOf(codes, kmerSize)

	order := make([]entry, 0, windowSize+1)
	order = append(order, entry{pos: 0, hash: h.Hash(), fwHash: h.FwHash(), bwHash: h.BwHash()})

	for i := 0; i < windowSize-1; i++ {
		seqPos := kmerSize + i
		h.AddChar(codes[seqPos])
		h.RemoveChar(codes[seqPos-kmerSize])
		hv := h.Hash()
		for len(order) > 0 && order[len(order)-1].hash > hv {
			order = order[:len(order)-1]
		}
		order = append(order, entry{pos: i + 1, hash: hv, fwHash: h.FwHash(), bwHash: h.BwHash()})
	}

	emitTies(order, cb)

	for i := windowSize - 1; kmerSize+i < len(codes); i++ {
		seqPos := kmerSize + i
		h.AddChar(codes[seqPos])
		h.RemoveChar(codes[seqPos-kmerSize])
		oldMinimizer := order[0].hash
		hv := h.Hash()
		for len(order) > 0 && order[0].pos <= i+1-windowSize {
			order = order[1:]
		}
		for len(order) > 0 && order[len(order)-1].hash > hv {
			order = order[:len(order)-1]
		}
		if len(order) > 0 && oldMinimizer != order[0].hash {
			emitTies(order, cb)
		}
		if len(order) == 0 || hv == order[0].hash {
			cb(i+1, h.FwHash(), h.BwHash())
		}
		order = append(order, entry{pos: i + 1, hash: hv, fwHash: h.FwHash(), bwHash: h.BwHash()})
	}
}

func emitTies(order []entry, cb Callback) {
	if len(order) == 0 {
		return
	}
	minHash := order[0].hash
	for _, e := range order {
		if e.hash != minHash {
			break
		}
		cb(e.pos, e.fwHash, e.bwHash)
	}
}
