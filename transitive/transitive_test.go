package transitive

import (
	"testing"

	"github.com/mudesheng/unitiggraph/bidirected"
	"github.com/mudesheng/unitiggraph/bnt"
	"github.com/mudesheng/unitiggraph/hashlist"
)

func encode(t *testing.T, s string) []bnt.Base {
	t.Helper()
	codes, err := bnt.EncodeSeq([]byte(s), "t", 0)
	if err != nil {
		t.Fatalf("EncodeSeq(%q): %v", s, err)
	}
	return codes
}

func TestLazyStringAtStitchesAcrossTheOverlap(t *testing.T) {
	first := encode(t, "ACGT")
	second := encode(t, "GTACG")
	l := newLazyString(first, second, 2)

	if got := l.size(); got != 7 {
		t.Fatalf("size = %d, want 7", got)
	}
	want := encode(t, "ACGTACG")
	for i := 0; i < l.size(); i++ {
		if l.at(i) != want[i] {
			t.Fatalf("at(%d) = %v, want %v", i, l.at(i), want[i])
		}
	}
}

func TestLazyStringViewMatchesAt(t *testing.T) {
	first := encode(t, "ACGTTGCA")
	second := encode(t, "GCATTAGCA")
	l := newLazyString(first, second, 4)

	v := l.view(2, 5)
	for i, b := range v {
		if b != l.at(2+i) {
			t.Fatalf("view(2,5)[%d] = %v, want at(%d) = %v", i, b, 2+i, l.at(2+i))
		}
	}
}

func TestInsertMiddlesExpandsAKnownBridge(t *testing.T) {
	c := &Cleaner{kmerSize: 5}
	c.middle[0] = make([]map[bidirected.Dir][]bidirected.Dir, 3)
	c.middle[1] = make([]map[bidirected.Dir][]bidirected.Dir, 3)

	a := bidirected.Dir{ID: 0, Forward: true}
	b := bidirected.Dir{ID: 1, Forward: true}
	cc := bidirected.Dir{ID: 2, Forward: true}
	c.setMiddle(a, cc, []bidirected.Dir{b})

	got := c.InsertMiddles([]bidirected.Dir{a, cc})
	want := []bidirected.Dir{a, b, cc}
	if len(got) != len(want) {
		t.Fatalf("InsertMiddles = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("InsertMiddles = %v, want %v", got, want)
		}
	}
}

func TestInsertMiddlesLeavesUnknownPairUntouched(t *testing.T) {
	c := &Cleaner{kmerSize: 5}
	c.middle[0] = make([]map[bidirected.Dir][]bidirected.Dir, 2)
	c.middle[1] = make([]map[bidirected.Dir][]bidirected.Dir, 2)

	x := bidirected.Dir{ID: 0, Forward: true}
	y := bidirected.Dir{ID: 1, Forward: false}
	got := c.InsertMiddles([]bidirected.Dir{x, y})
	if len(got) != 2 || got[0] != x || got[1] != y {
		t.Fatalf("InsertMiddles with no known bridge = %v, want [%v %v]", got, x, y)
	}
}

func TestCleanOnSimpleGraphKeepsEdgeCoverage(t *testing.T) {
	list := hashlist.New(5)
	codes := encode(t, "ACGTTGCATGCATGCACGTAGCATCGATTAGCATGACGT")
	lens := make([]uint16, len(codes))
	for i := range lens {
		lens[i] = 1
	}
	list.Ingest(codes, lens, 4)
	list.BuildReverseCompHashSequences()

	broken := Clean(list, 5)
	if broken < 0 {
		t.Fatalf("Clean returned a negative break count: %d", broken)
	}

	var total uint64
	list.AllEdges(func(from, to bidirected.Dir, coverage uint64) {
		total += coverage
	})
	if total == 0 {
		t.Fatal("expected some surviving edge coverage after Clean")
	}
}
