package hashlist

import (
	"testing"

	"github.com/mudesheng/unitiggraph/bidirected"
)

func TestSparseEdgeContainerFirstEdgeNoAllocation(t *testing.T) {
	s := NewSparseEdgeContainer(3)
	from := bidirected.Dir{ID: 0, Forward: true}
	to := bidirected.Dir{ID: 1, Forward: true}
	s.AddEdge(from, to)
	if got := s.Degree(from); got != 1 {
		t.Fatalf("Degree = %d, want 1", got)
	}
	edges := s.GetEdges(from)
	if len(edges) != 1 || edges[0] != to {
		t.Fatalf("GetEdges = %v, want [%+v]", edges, to)
	}
}

func TestSparseEdgeContainerDuplicateIsNoop(t *testing.T) {
	s := NewSparseEdgeContainer(3)
	from := bidirected.Dir{ID: 0, Forward: true}
	to := bidirected.Dir{ID: 1, Forward: true}
	s.AddEdge(from, to)
	s.AddEdge(from, to)
	if got := s.Degree(from); got != 1 {
		t.Fatalf("Degree after duplicate insert = %d, want 1", got)
	}
}

func TestSparseEdgeContainerOverflowToExtra(t *testing.T) {
	s := NewSparseEdgeContainer(4)
	from := bidirected.Dir{ID: 0, Forward: true}
	to1 := bidirected.Dir{ID: 1, Forward: true}
	to2 := bidirected.Dir{ID: 2, Forward: true}
	to3 := bidirected.Dir{ID: 3, Forward: false}
	s.AddEdge(from, to1)
	s.AddEdge(from, to2)
	s.AddEdge(from, to3)
	if got := s.Degree(from); got != 3 {
		t.Fatalf("Degree = %d, want 3", got)
	}
	edges := s.GetEdges(from)
	seen := map[bidirected.Dir]bool{}
	for _, e := range edges {
		seen[e] = true
	}
	for _, want := range []bidirected.Dir{to1, to2, to3} {
		if !seen[want] {
			t.Fatalf("GetEdges %v missing %+v", edges, want)
		}
	}
}

func TestSparseEdgeContainerDistinguishesForwardAndBackward(t *testing.T) {
	s := NewSparseEdgeContainer(2)
	fw := bidirected.Dir{ID: 0, Forward: true}
	bw := bidirected.Dir{ID: 0, Forward: false}
	s.AddEdge(fw, bidirected.Dir{ID: 1, Forward: true})
	if s.Degree(bw) != 0 {
		t.Fatal("edge added from forward node leaked into backward slot")
	}
}

func TestSparseEdgeContainerNoEdgesReturnsNil(t *testing.T) {
	s := NewSparseEdgeContainer(2)
	from := bidirected.Dir{ID: 1, Forward: true}
	if got := s.GetEdges(from); got != nil {
		t.Fatalf("GetEdges on untouched node = %v, want nil", got)
	}
	if got := s.Degree(from); got != 0 {
		t.Fatalf("Degree on untouched node = %d, want 0", got)
	}
}
