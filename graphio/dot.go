package graphio

import (
	"os"
	"strconv"

	"github.com/awalterschulze/gographviz"

	"github.com/mudesheng/unitiggraph/bidirected"
	"github.com/mudesheng/unitiggraph/unitig"
	"github.com/mudesheng/unitiggraph/unitigerr"
)

// WriteDot dumps g as a Graphviz dot file for visual debugging, one node
// per unitig labeled with its coverage and one directed edge per stored
// adjacency, grounded on GraphvizDBGArr's node/edge attribute shape.
func WriteDot(path string, g *unitig.Graph) error {
	viz := gographviz.NewGraph()
	viz.SetName("G")
	viz.SetDir(true)
	viz.SetStrict(false)

	for i := range g.Unitigs {
		attr := map[string]string{
			"shape": "record",
			"label": "\"" + strconv.Itoa(i) + " cov:" + strconv.FormatFloat(g.AverageCoverage(i), 'f', 1, 64) + "\"",
		}
		if err := viz.AddNode("G", strconv.Itoa(i), attr); err != nil {
			return &unitigerr.ContractViolation{Phase: "graphio.WriteDot", Reason: err.Error()}
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
				attr := map[string]string{
					"label": "\"ec:" + strconv.FormatUint(g.EdgeCoverage(from, to), 10) + "\"",
				}
				if err := viz.AddEdge(strconv.Itoa(int(from.ID)), strconv.Itoa(int(to.ID)), true, attr); err != nil {
					return &unitigerr.ContractViolation{Phase: "graphio.WriteDot", Reason: err.Error()}
				}
			}
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return &unitigerr.ResourceError{Phase: "graphio.WriteDot", Reason: err.Error()}
	}
	defer f.Close()
	_, err = f.WriteString(viz.String())
	return err
}
