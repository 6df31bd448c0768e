package config

import (
	"os"
	"path/filepath"
	"testing"
)

func validOptions() Options {
	return Options{
		KmerSize:    21,
		WindowSize:  5,
		MinCoverage: 2,
		NumThreads:  4,
		Output:      "out.gfa",
		Reads:       []string{"a.fa"},
	}
}

func TestCheckAcceptsValidOptions(t *testing.T) {
	if err := validOptions().Check(); err != nil {
		t.Fatalf("Check: unexpected error %v", err)
	}
}

func TestCheckRejectsEvenKmer(t *testing.T) {
	o := validOptions()
	o.KmerSize = 20
	if err := o.Check(); err == nil {
		t.Fatal("expected an error for an even kmer size")
	}
}

func TestCheckRejectsUnitigCoverageBelowMinCoverage(t *testing.T) {
	o := validOptions()
	o.MinCoverage = 5
	o.MinUnitigCoverage = 2
	if err := o.Check(); err == nil {
		t.Fatal("expected an error when -minUnitigCoverage < -minCoverage")
	}
}

func TestCheckRejectsNoReads(t *testing.T) {
	o := validOptions()
	o.Reads = nil
	if err := o.Check(); err == nil {
		t.Fatal("expected an error for an empty read list")
	}
}

func TestLoadLibraryList(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lib.cfg")
	content := "[LIB]\nname = lib1\nf = reads1.fa\nf = reads2.fq.gz\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	paths, err := LoadLibraryList(path)
	if err != nil {
		t.Fatalf("LoadLibraryList: %v", err)
	}
	want := []string{"reads1.fa", "reads2.fq.gz"}
	if len(paths) != len(want) {
		t.Fatalf("got %v, want %v", paths, want)
	}
	for i := range want {
		if paths[i] != want[i] {
			t.Errorf("paths[%d] = %q, want %q", i, paths[i], want[i])
		}
	}
}

func TestLoadLibraryListRejectsUnknownLine(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lib.cfg")
	if err := os.WriteFile(path, []byte("bogus line here\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := LoadLibraryList(path); err == nil {
		t.Fatal("expected an error for an unrecognized config line")
	}
}
