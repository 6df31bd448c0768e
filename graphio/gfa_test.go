package graphio

import (
	"os"
	"strings"
	"testing"

	"github.com/klauspost/compress/zstd"

	"github.com/mudesheng/unitiggraph/bidirected"
	"github.com/mudesheng/unitiggraph/bnt"
	"github.com/mudesheng/unitiggraph/hashlist"
)

func TestOverlapFromRLEExpandsRunLengths(t *testing.T) {
	list := hashlist.New(3)
	codes, err := bnt.EncodeSeq([]byte("ACGTACG"), "t", 0)
	if err != nil {
		t.Fatalf("EncodeSeq: %v", err)
	}
	lens := []uint16{2, 1, 3, 1, 2, 1, 4}
	list.Ingest(codes, lens, 1)
	list.BuildReverseCompHashSequences()

	entry, ok := list.GetNodeOrNull(codes[0:3])
	if !ok {
		t.Fatal("expected a node for the first k-mer view")
	}

	if got, want := overlapFromRLE(list, entry, 2), int(lens[0])+int(lens[1]); got != want {
		t.Fatalf("overlapFromRLE(forward, 2) = %d, want %d", got, want)
	}

	revEntry := bidirected.Reverse(entry)
	if got, want := overlapFromRLE(list, revEntry, 2), int(lens[2])+int(lens[1]); got != want {
		t.Fatalf("overlapFromRLE(reverse, 2) = %d, want %d", got, want)
	}

	if got := overlapFromRLE(list, entry, 0); got != 0 {
		t.Fatalf("overlapFromRLE(_, 0) = %d, want 0", got)
	}
}

func TestGfaSinkWritesSegmentAndLink(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/out.gfa"
	sink, err := Create(path)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := sink.WriteSegment(0, "ACGTACGT", 12.5); err != nil {
		t.Fatalf("WriteSegment: %v", err)
	}
	if err := sink.WriteLink(0, true, 1, false, 21, 7); err != nil {
		t.Fatalf("WriteLink: %v", err)
	}
	if err := sink.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	out := string(data)
	if !strings.Contains(out, "S\t0\tACGTACGT\tll:f:12.500000\tFC:f:100.000000\n") {
		t.Errorf("unexpected segment line in %q", out)
	}
	if !strings.Contains(out, "L\t0\t+\t1\t-\t21M\tec:i:7\n") {
		t.Errorf("unexpected link line in %q", out)
	}
}

func TestGfaSinkZstdSuffixCompresses(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/out.gfa.zst"
	sink, err := Create(path)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := sink.WriteSegment(0, "ACGT", 1); err != nil {
		t.Fatalf("WriteSegment: %v", err)
	}
	if err := sink.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(data) < 4 || data[0] != 0x28 || data[1] != 0xb5 || data[2] != 0x2f || data[3] != 0xfd {
		t.Fatalf("expected output to start with the zstd frame magic number, got % x", data)
	}
	zr, err := zstd.NewReader(nil)
	if err != nil {
		t.Fatalf("zstd.NewReader: %v", err)
	}
	defer zr.Close()
	plain, err := zr.DecodeAll(data, nil)
	if err != nil {
		t.Fatalf("DecodeAll: %v", err)
	}
	if string(plain) != "S\t0\tACGT\tll:f:1.000000\tFC:f:4.000000\n" {
		t.Errorf("decompressed output = %q", plain)
	}
}
