// Package catalogview implements the IR-dataflow export mentioned in the
// design notes: a debugging/inspection view of a Math IR tree's dataflow
// (BuildIRGraph), rendered through a pluggable GraphExporter. The catalog's
// connection index sets (directed_graph blocks) are not exported. Grounded
// directly on the teacher's analyzer.IRGraph/analyzer.GraphExporter
// (analyzer/graph_exporter.go): same Node/Edge/Graph shape, same exporter
// seam, translated from "one node per identifier, one edge per data flow"
// to "one node per entity/local, one edge per reference."
package catalogview

import (
	"strconv"

	"github.com/viant/biome/mathir"
)

// Node is one vertex in an exported graph: an entity, index set, or IR
// local, identified uniquely within the graph.
type Node struct {
	ID         string                 `yaml:"id"`
	Type       string                 `yaml:"type"`
	Properties map[string]interface{} `yaml:"properties,omitempty"`
}

// Edge is one directed relationship between two Nodes: a connection arrow,
// a sub-index parent link, or an IR identifier reference.
type Edge struct {
	Source     string                 `yaml:"source"`
	Target     string                 `yaml:"target"`
	Type       string                 `yaml:"type"`
	Properties map[string]interface{} `yaml:"properties,omitempty"`
}

// Graph holds the nodes and edges of one export, the direct structural
// analogue of the teacher's analyzer.IRGraph.
type Graph struct {
	Nodes []Node `yaml:"nodes"`
	Edges []Edge `yaml:"edges"`
}

// GraphExporter sends a Graph to a storage or rendering backend (YAML file,
// Neo4j, Graphviz, ...); the contract is backend-agnostic, same as the
// teacher's analyzer.GraphExporter.
type GraphExporter interface {
	Export(g *Graph) error
}

// BuildIRGraph walks an IR tree and produces a Graph: one node per Block
// scope and per Identifier/Literal/operator node encountered, one edge per
// parent-to-child relationship, the Math-IR analogue of the teacher's
// buildIRGraph over a linage.PackageModel.
func BuildIRGraph(root mathir.Node) *Graph {
	g := &Graph{}
	seq := 0
	var walk func(n mathir.Node, parentID string) string
	walk = func(n mathir.Node, parentID string) string {
		id := nodeID(n, &seq)
		g.Nodes = append(g.Nodes, Node{
			ID:         id,
			Type:       nodeType(n),
			Properties: nodeProperties(n),
		})
		if parentID != "" {
			g.Edges = append(g.Edges, Edge{Source: parentID, Target: id, Type: "child"})
		}
		for _, child := range n.Children() {
			if child != nil {
				walk(child, id)
			}
		}
		return id
	}
	walk(root, "")
	return g
}

func nodeID(n mathir.Node, seq *int) string {
	*seq++
	return nodeType(n) + "#" + strconv.Itoa(*seq)
}

func nodeType(n mathir.Node) string {
	switch n.(type) {
	case *mathir.Block:
		return "block"
	case *mathir.LocalVar:
		return "local_var"
	case *mathir.LocalVarAssignment:
		return "local_var_assignment"
	case *mathir.Identifier:
		return "identifier"
	case *mathir.Literal:
		return "literal"
	case *mathir.UnaryOp:
		return "unary_op"
	case *mathir.BinaryOp:
		return "binary_op"
	case *mathir.FunctionCall:
		return "function_call"
	case *mathir.IfChain:
		return "if_chain"
	case *mathir.StateVarAssignment:
		return "state_var_assignment"
	case *mathir.DerivativeAssignment:
		return "derivative_assignment"
	case *mathir.Cast:
		return "cast"
	case *mathir.ExternalComputation:
		return "external_computation"
	case *mathir.Iterate:
		return "iterate"
	case *mathir.NoOp:
		return "noop"
	default:
		return "node"
	}
}

func nodeProperties(n mathir.Node) map[string]interface{} {
	props := map[string]interface{}{"value_type": mathir.ValueTypeOf(n).String()}
	switch v := n.(type) {
	case *mathir.Identifier:
		props["scope_id"] = v.ScopeID
		props["local_id"] = v.LocalID
	case *mathir.Literal:
		props["real"] = v.RealVal
		props["int"] = v.IntVal
		props["bool"] = v.BoolVal
	case *mathir.BinaryOp:
		props["op"] = v.Op
	case *mathir.UnaryOp:
		props["op"] = v.Op
	case *mathir.FunctionCall:
		props["name"] = v.Name
		props["intrinsic"] = v.Intrinsic
	case *mathir.StateVarAssignment:
		props["state_var_id"] = v.StateVarID
	case *mathir.DerivativeAssignment:
		props["state_var_id"] = v.StateVarID
	}
	return props
}

