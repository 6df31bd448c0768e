package hashlist

import (
	"testing"

	"github.com/mudesheng/unitiggraph/bnt"
)

func encode(t *testing.T, s string) []bnt.Base {
	t.Helper()
	codes, err := bnt.EncodeSeq([]byte(s), "t", 0)
	if err != nil {
		t.Fatalf("EncodeSeq(%q): %v", s, err)
	}
	return codes
}

func TestContentHash128Deterministic(t *testing.T) {
	a := ContentHash128(encode(t, "ACGTACGTA"))
	b := ContentHash128(encode(t, "ACGTACGTA"))
	if a != b {
		t.Fatalf("ContentHash128 not deterministic: %+v vs %+v", a, b)
	}
}

func TestContentHash128DiffersOnDifferentInput(t *testing.T) {
	a := ContentHash128(encode(t, "ACGTACGTA"))
	b := ContentHash128(encode(t, "TTTTTTTTT"))
	if a == b {
		t.Fatal("expected different views to hash differently")
	}
}
