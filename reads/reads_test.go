package reads

import "testing"

func TestIsFastqSuffix(t *testing.T) {
	cases := []struct {
		path string
		fq   bool
		ok   bool
	}{
		{"reads.fa", false, true},
		{"reads.fasta", false, true},
		{"reads.fq", true, true},
		{"reads.fastq", true, true},
		{"reads.txt", false, false},
	}
	for _, c := range cases {
		fq, err := isFastqSuffix(c.path, c.path)
		if c.ok && err != nil {
			t.Errorf("isFastqSuffix(%q): unexpected error %v", c.path, err)
		}
		if !c.ok && err == nil {
			t.Errorf("isFastqSuffix(%q): expected error, got none", c.path)
		}
		if c.ok && fq != c.fq {
			t.Errorf("isFastqSuffix(%q) = %v, want %v", c.path, fq, c.fq)
		}
	}
}

func TestEncodeHPCCollapsesRuns(t *testing.T) {
	rec := Record{Path: "t.fa", Index: 0, Seq: []byte("AAACCGGGT")}
	codes, lens, err := Encode(rec, true)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if len(codes) != 4 {
		t.Fatalf("expected 4 collapsed runs, got %d", len(codes))
	}
	wantLens := []uint16{3, 2, 3, 1}
	for i, l := range wantLens {
		if lens[i] != l {
			t.Errorf("run %d length = %d, want %d", i, lens[i], l)
		}
	}
}

func TestEncodeNoHPCUnitRuns(t *testing.T) {
	rec := Record{Path: "t.fa", Index: 0, Seq: []byte("AACG")}
	codes, lens, err := Encode(rec, false)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if len(codes) != 4 {
		t.Fatalf("expected no collapsing, got %d codes", len(codes))
	}
	for _, l := range lens {
		if l != 1 {
			t.Errorf("run length = %d, want 1", l)
		}
	}
}

func TestEncodeRejectsNonACGT(t *testing.T) {
	rec := Record{Path: "t.fa", Index: 3, Seq: []byte("ACGN")}
	if _, _, err := Encode(rec, true); err == nil {
		t.Fatal("expected a format error for non-ACGT input")
	}
}

func TestOpenAllRejectsEmpty(t *testing.T) {
	if _, err := OpenAll(nil); err == nil {
		t.Fatal("expected an error for an empty path list")
	}
}

func TestOpenUnrecognizedSuffix(t *testing.T) {
	if _, err := Open("/nonexistent/reads.xyz"); err == nil {
		t.Fatal("expected an error opening a nonexistent/unsupported path")
	}
}
