// Package bnt handles the small-integer base alphabet used throughout the
// graph: 0 = unset, 1=A, 2=C, 3=G, 4=T.
package bnt

import "github.com/mudesheng/unitiggraph/unitigerr"

// Base is one packed base code in {0,1,2,3,4}.
type Base = byte

const (
	BaseN Base = 0
	BaseA Base = 1
	BaseC Base = 2
	BaseG Base = 3
	BaseT Base = 4
)

var encodeTab [256]int8

func init() {
	for i := range encodeTab {
		encodeTab[i] = -1
	}
	encodeTab['A'], encodeTab['a'] = 1, 1
	encodeTab['C'], encodeTab['c'] = 2, 2
	encodeTab['G'], encodeTab['g'] = 3, 3
	encodeTab['T'], encodeTab['t'] = 4, 4
}

// decodeTab maps a base code back to its upper-case letter, '-' for 0.
var decodeTab = [5]byte{'-', 'A', 'C', 'G', 'T'}

// Comp returns the complement of a base code; 0 complements to 0.
func Comp(c Base) Base {
	if c == 0 {
		return 0
	}
	return 5 - c
}

// Decode returns the upper-case letter for a base code.
func Decode(c Base) byte {
	return decodeTab[c]
}

// Encode converts one uppercased-or-not ACGT byte to its base code.
// Any other byte is an input format violation.
func Encode(c byte, file string, record int) (Base, error) {
	v := encodeTab[c]
	if v < 0 {
		return 0, &unitigerr.FormatError{File: file, Record: record, Reason: "non-ACGT character in read"}
	}
	return Base(v), nil
}

// EncodeSeq converts a raw ACGT(acgt) sequence to base codes in place of a
// freshly allocated slice, failing on the first non-ACGT byte.
func EncodeSeq(seq []byte, file string, record int) ([]Base, error) {
	out := make([]Base, len(seq))
	for i, c := range seq {
		b, err := Encode(c, file, record)
		if err != nil {
			return nil, err
		}
		out[i] = b
	}
	return out, nil
}

// DecodeSeq expands base codes back to an upper-case ACGT string.
func DecodeSeq(codes []Base) string {
	out := make([]byte, len(codes))
	for i, c := range codes {
		out[i] = Decode(c)
	}
	return string(out)
}

// ReverseComplement reverse-complements a slice of base codes (RLE or not,
// it does not matter at this level: it is just base-code reversal).
func ReverseComplement(codes []Base) []Base {
	n := len(codes)
	out := make([]Base, n)
	for i, c := range codes {
		out[n-1-i] = Comp(c)
	}
	return out
}

// ReverseUint16 reverses a slice of run lengths (or any uint16 slice),
// used to keep run-length arrays aligned with a reverse-complemented RLE
// base sequence.
func ReverseUint16(lens []uint16) []uint16 {
	n := len(lens)
	out := make([]uint16, n)
	for i, v := range lens {
		out[n-1-i] = v
	}
	return out
}

// RunLengthEncode collapses adjacent identical bases, returning the
// collapsed base codes and the run length (count of collapsed bases) for
// each. The input must be a non-empty ACGT(acgt) sequence.
func RunLengthEncode(seq []byte, file string, record int) (codes []Base, lens []uint16, err error) {
	if len(seq) == 0 {
		return nil, nil, &unitigerr.FormatError{File: file, Record: record, Reason: "empty read sequence"}
	}
	codes = make([]Base, 0, len(seq))
	lens = make([]uint16, 0, len(seq))
	prev, err := Encode(seq[0], file, record)
	if err != nil {
		return nil, nil, err
	}
	codes = append(codes, prev)
	lens = append(lens, 1)
	for i := 1; i < len(seq); i++ {
		b, err := Encode(seq[i], file, record)
		if err != nil {
			return nil, nil, err
		}
		if b == prev {
			lens[len(lens)-1]++
			continue
		}
		codes = append(codes, b)
		lens = append(lens, 1)
		prev = b
	}
	return codes, lens, nil
}

// NoRunLengthEncode encodes a sequence with all run lengths fixed at 1,
// used when HPC mode is disabled.
func NoRunLengthEncode(seq []byte, file string, record int) (codes []Base, lens []uint16, err error) {
	codes, err = EncodeSeq(seq, file, record)
	if err != nil {
		return nil, nil, err
	}
	lens = make([]uint16, len(codes))
	for i := range lens {
		lens[i] = 1
	}
	return codes, lens, nil
}

// Expand re-expands an RLE base-code sequence to its full-length ACGT
// string using the parallel run-length array.
func Expand(codes []Base, lens []uint16) string {
	total := 0
	for _, l := range lens {
		total += int(l)
	}
	out := make([]byte, 0, total)
	for i, c := range codes {
		ch := Decode(c)
		for j := uint16(0); j < lens[i]; j++ {
			out = append(out, ch)
		}
	}
	return string(out)
}
