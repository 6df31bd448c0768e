// Package graphio writes a finished unitig graph out to disk: the
// GFA-like S/L text format MBG.cpp's writeGraph produces, optionally
// zstd-compressed the way the teacher's own output routines are, plus an
// optional Graphviz dot dump for debugging.
package graphio

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"

	"github.com/mudesheng/unitiggraph/bidirected"
	"github.com/mudesheng/unitiggraph/bnt"
	"github.com/mudesheng/unitiggraph/consensus"
	"github.com/mudesheng/unitiggraph/hashlist"
	"github.com/mudesheng/unitiggraph/unitig"
	"github.com/mudesheng/unitiggraph/unitigerr"
)

// Sink receives one finished unitig graph's segments and links; a
// default text writer is provided by Create, but callers can implement
// their own (e.g. to stream straight into another tool).
type Sink interface {
	WriteSegment(id int, seq string, avgCoverage float64) error
	WriteLink(fromID int, fromForward bool, toID int, toForward bool, overlap int, edgeCoverage uint64) error
	Close() error
}

// Create opens path for writing a Sink, wrapping the output in a zstd
// encoder when path ends in .zst, matching the compression the teacher's
// constructcf.go/tools.go output routines use.
func Create(path string) (Sink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, &unitigerr.ResourceError{Phase: "graphio.Create", Reason: err.Error()}
	}
	var w io.Writer = f
	var zw *zstd.Encoder
	if strings.HasSuffix(path, ".zst") {
		zw, err = zstd.NewWriter(f, zstd.WithEncoderCRC(false), zstd.WithEncoderConcurrency(1), zstd.WithEncoderLevel(zstd.SpeedFastest))
		if err != nil {
			f.Close()
			return nil, &unitigerr.ResourceError{Phase: "graphio.Create", Reason: err.Error()}
		}
		w = zw
	}
	return &gfaSink{file: f, zw: zw, bw: bufio.NewWriter(w)}, nil
}

type gfaSink struct {
	file *os.File
	zw   *zstd.Encoder
	bw   *bufio.Writer
}

func strand(forward bool) byte {
	if forward {
		return '+'
	}
	return '-'
}

// WriteSegment writes one S line: uid, sequence, average per-position
// coverage (ll), and total coverage-weighted length (FC), matching
// MBG.cpp's writeGraph segment fields.
func (g *gfaSink) WriteSegment(id int, seq string, avgCoverage float64) error {
	_, err := fmt.Fprintf(g.bw, "S\t%d\t%s\tll:f:%f\tFC:f:%f\n", id, seq, avgCoverage, avgCoverage*float64(len(seq)))
	return err
}

// WriteLink writes one L line connecting two unitig endpoints.
func (g *gfaSink) WriteLink(fromID int, fromForward bool, toID int, toForward bool, overlap int, edgeCoverage uint64) error {
	_, err := fmt.Fprintf(g.bw, "L\t%d\t%c\t%d\t%c\t%dM\tec:i:%d\n", fromID, strand(fromForward), toID, strand(toForward), overlap, edgeCoverage)
	return err
}

func (g *gfaSink) Close() error {
	if err := g.bw.Flush(); err != nil {
		return err
	}
	if g.zw != nil {
		if err := g.zw.Close(); err != nil {
			return err
		}
	}
	return g.file.Close()
}

// overlapFromRLE expands an RLE-position overlap count into the number of
// expanded bases it actually covers, by summing entry's per-position run
// lengths over the overlapping prefix, in entry's own orientation.
// Mirrors MBG.cpp's getOverlapFromRLE.
func overlapFromRLE(list *hashlist.HashList, entry bidirected.Dir, overlap int) int {
	if overlap <= 0 {
		return 0
	}
	lens := list.GetHashCharacterLength(entry.ID)
	if !entry.Forward {
		lens = bnt.ReverseUint16(lens)
	}
	if overlap > len(lens) {
		overlap = len(lens)
	}
	total := 0
	for _, l := range lens[:overlap] {
		total += int(l)
	}
	return total
}

// Write walks g's unitigs and edges and feeds them to sink: one segment
// per unitig (its consensus sequence and average coverage) and one link
// per canonical edge (the overlap between the two joined k-mer-level
// endpoints, looked up in list, and the edge's coverage).
func Write(sink Sink, g *unitig.Graph, list *hashlist.HashList, winners [][]uint32, si *consensus.StringIndex) error {
	for i := range g.Unitigs {
		seq := consensus.Sequence(winners[i], si)
		if err := sink.WriteSegment(i, seq, g.AverageCoverage(i)); err != nil {
			return err
		}
	}
	for i := range g.Unitigs {
		for _, fw := range [2]bool{true, false} {
			from := bidirected.Dir{ID: uint32(i), Forward: fw}
			for _, to := range g.Edges(from) {
				cf, ct := bidirected.Canon(from, to)
				if cf != from || ct != to {
					continue
				}
				entry := g.Entry(to)
				overlap, _ := list.GetOverlap(g.Egress(from), entry)
				expanded := overlapFromRLE(list, entry, overlap)
				if err := sink.WriteLink(int(from.ID), from.Forward, int(to.ID), to.Forward, expanded, g.EdgeCoverage(from, to)); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
