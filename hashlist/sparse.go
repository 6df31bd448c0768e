package hashlist

import "github.com/mudesheng/unitiggraph/bidirected"

// SparseEdgeContainer is the compact bidirected adjacency of spec.md
// §4.8: the first outgoing edge is held inline per directed node, with
// overflow (degree > 1) kept in a side map, so the common degree-≤1 case
// costs no heap allocation.
type SparseEdgeContainer struct {
	firstFw, firstBw []bidirected.Dir
	haveFw, haveBw   []bool
	extra            map[bidirected.Dir][]bidirected.Dir
}

// NewSparseEdgeContainer allocates a container sized for n nodes.
func NewSparseEdgeContainer(n int) *SparseEdgeContainer {
	return &SparseEdgeContainer{
		firstFw: make([]bidirected.Dir, n),
		firstBw: make([]bidirected.Dir, n),
		haveFw:  make([]bool, n),
		haveBw:  make([]bool, n),
		extra:   make(map[bidirected.Dir][]bidirected.Dir),
	}
}

func (s *SparseEdgeContainer) slot(from bidirected.Dir) (*bidirected.Dir, *bool) {
	if from.Forward {
		return &s.firstFw[from.ID], &s.haveFw[from.ID]
	}
	return &s.firstBw[from.ID], &s.haveBw[from.ID]
}

// AddEdge records a directed edge from -> to. Duplicate inserts of the
// same pair are no-ops.
func (s *SparseEdgeContainer) AddEdge(from, to bidirected.Dir) {
	first, have := s.slot(from)
	if !*have {
		*first = to
		*have = true
		return
	}
	if *first == to {
		return
	}
	for _, e := range s.extra[from] {
		if e == to {
			return
		}
	}
	s.extra[from] = append(s.extra[from], to)
}

// GetEdges returns every outgoing edge from the given directed node.
func (s *SparseEdgeContainer) GetEdges(from bidirected.Dir) []bidirected.Dir {
	first, have := s.slot(from)
	if !*have {
		return nil
	}
	out := make([]bidirected.Dir, 0, 1+len(s.extra[from]))
	out = append(out, *first)
	out = append(out, s.extra[from]...)
	return out
}

// Degree returns the out-degree of a directed node.
func (s *SparseEdgeContainer) Degree(from bidirected.Dir) int {
	_, have := s.slot(from)
	if !*have {
		return 0
	}
	return 1 + len(s.extra[from])
}

// Size returns the number of underlying (undirected) nodes.
func (s *SparseEdgeContainer) Size() int {
	return len(s.firstFw)
}
