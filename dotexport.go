package reactor

import (
	"fmt"
	"os"
	"sort"
	"strings"
)

// defaultDependencyGraphPath is where a cycle's DOT trace is written
// when the environment was not configured with an explicit export path.
const defaultDependencyGraphPath = "/tmp/reactor_dependency_graph.dot"

func dotNodeID(fqn string) string {
	return strings.ReplaceAll(fqn, ".", "_")
}

// writeDOT renders g as a Graphviz DOT digraph: one rank=same subgraph
// per execution index level, with invisible edges chaining the first
// node of each level to the first node of the next so the layout reads
// left to right, and a visible edge for every real dependency pair.
// Node identifiers are FQNs with "." replaced by "_"; labels carry the
// raw FQN.
func writeDOT(g *depGraph) string {
	var b strings.Builder
	b.WriteString("digraph {\n")
	b.WriteString("rankdir=LR;\n")

	byIndex := make(map[int][]*Reaction)
	for _, n := range g.nodes {
		byIndex[n.index] = append(byIndex[n.index], n)
	}
	indexes := make([]int, 0, len(byIndex))
	for idx := range byIndex {
		indexes = append(indexes, idx)
	}
	sort.Ints(indexes)

	firstOfLevel := make([]string, 0, len(indexes))
	for _, idx := range indexes {
		nodes := byIndex[idx]
		sort.Slice(nodes, func(i, j int) bool { return nodes[i].FQN() < nodes[j].FQN() })
		b.WriteString("subgraph { rank=same; ")
		for _, n := range nodes {
			fmt.Fprintf(&b, "%s [label=%q]; ", dotNodeID(n.FQN()), n.FQN())
		}
		b.WriteString("}\n")
		if len(nodes) > 0 {
			firstOfLevel = append(firstOfLevel, dotNodeID(nodes[0].FQN()))
		}
	}

	for i := 0; i+1 < len(firstOfLevel); i++ {
		fmt.Fprintf(&b, "%s -> %s [style=invis];\n", firstOfLevel[i], firstOfLevel[i+1])
	}

	for _, from := range g.nodes {
		targets := make([]string, 0, len(g.edges[from]))
		for to := range g.edges[from] {
			targets = append(targets, to.FQN())
		}
		sort.Strings(targets)
		for _, toFQN := range targets {
			fmt.Fprintf(&b, "%s -> %s\n", dotNodeID(from.FQN()), dotNodeID(toFQN))
		}
	}

	b.WriteString("}\n")
	return b.String()
}

// writeDOTFile renders g to a DOT file at path.
func writeDOTFile(path string, g *depGraph) error {
	return os.WriteFile(path, []byte(writeDOT(g)), 0o644)
}
