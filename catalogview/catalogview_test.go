package catalogview_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/viant/biome/catalogview"
	"github.com/viant/biome/diagnostics"
	"github.com/viant/biome/mathir"
)

func TestBuildIRGraphWalksEveryNode(t *testing.T) {
	loc := diagnostics.SourceLoc{}
	root := &mathir.BinaryOp{
		Op:  "+",
		LHS: mathir.RealLit(1, loc),
		RHS: &mathir.UnaryOp{Op: "-", Operand: mathir.RealLit(2, loc)},
	}
	g := catalogview.BuildIRGraph(root)

	assert.Len(t, g.Nodes, 4) // binary_op, literal, unary_op, literal
	assert.Len(t, g.Edges, 3)
	assert.Equal(t, "binary_op", g.Nodes[0].Type)
}

type captureExporter struct{ got *catalogview.Graph }

func (c *captureExporter) Export(g *catalogview.Graph) error {
	c.got = g
	return nil
}

func TestGraphExporterReceivesGraph(t *testing.T) {
	g := catalogview.BuildIRGraph(mathir.RealLit(1, diagnostics.SourceLoc{}))
	exp := &captureExporter{}
	require := assert.New(t)
	require.NoError(exp.Export(g))
	require.Equal(g, exp.got)
}
