package reads

import "github.com/mudesheng/unitiggraph/bnt"

// Encode converts one raw read into its run-length-encoded base codes and
// run lengths. With hpc false, every run length is fixed at 1 (no
// homopolymer compression), matching the non-HPC code path the rest of
// the pipeline treats as RLE with unit runs.
func Encode(rec Record, hpc bool) (codes []bnt.Base, lens []uint16, err error) {
	if hpc {
		return bnt.RunLengthEncode(rec.Seq, rec.Path, rec.Index)
	}
	return bnt.NoRunLengthEncode(rec.Seq, rec.Path, rec.Index)
}
