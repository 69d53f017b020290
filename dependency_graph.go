package reactor

import (
	"fmt"
	"sort"
)

// depGraph is the reaction dependency graph: an edge from A to B means A
// must execute before B within the same instant.
type depGraph struct {
	nodes []*Reaction
	edges map[*Reaction]map[*Reaction]bool
}

func newDepGraph() *depGraph {
	return &depGraph{edges: make(map[*Reaction]map[*Reaction]bool)}
}

func (g *depGraph) addNode(r *Reaction) {
	if _, ok := g.edges[r]; !ok {
		g.edges[r] = make(map[*Reaction]bool)
		g.nodes = append(g.nodes, r)
	}
}

func (g *depGraph) addEdge(from, to *Reaction) {
	g.addNode(from)
	g.addNode(to)
	g.edges[from][to] = true
}

// buildDependencyGraph walks every reactor in the environment's tree and
// produces one node per reaction plus two families of edges:
//
//   - port edges: for each trigger or dependency port a reaction reads,
//     resolve the port's ultimate binding source and add an edge from
//     every reaction that declares the source as an antidependency, to
//     the reading reaction.
//   - priority edges: within a single reactor, reactions are ordered by
//     ascending priority, each edge connecting consecutive priorities.
//
// Declaring two reactions of the same reactor with equal nonzero
// priority is a construction error reported here as ErrDuplicatePriority.
func buildDependencyGraph(e *Environment) (*depGraph, error) {
	g := newDepGraph()

	var reactors []*Reactor
	for _, top := range e.topLevel {
		top.walk(func(r *Reactor) { reactors = append(reactors, r) })
	}

	for _, r := range reactors {
		if err := addPriorityEdges(g, r); err != nil {
			return nil, err
		}
	}

	antidepWriters := buildAntidependencyIndex(reactors)

	for _, r := range reactors {
		for _, rx := range r.Reactions() {
			g.addNode(rx)
			var readPorts []Port
			for _, t := range rx.triggers {
				if p, ok := t.(Port); ok {
					readPorts = append(readPorts, p)
				}
			}
			readPorts = append(readPorts, rx.dependencies...)
			for _, p := range readPorts {
				src := resolveSource(p)
				for _, writer := range antidepWriters[src] {
					if writer == rx {
						continue
					}
					g.addEdge(writer, rx)
				}
			}
		}
	}

	return g, nil
}

func addPriorityEdges(g *depGraph, r *Reactor) error {
	reactions := r.Reactions()
	if len(reactions) == 0 {
		return nil
	}
	sort.Slice(reactions, func(i, j int) bool { return reactions[i].Priority() < reactions[j].Priority() })
	for i, rx := range reactions {
		g.addNode(rx)
		if i > 0 && reactions[i-1].Priority() == rx.Priority() {
			return fmt.Errorf("%w: %s and %s in %s both declare priority %d",
				ErrDuplicatePriority, reactions[i-1].FQN(), rx.FQN(), r.FQN(), rx.Priority())
		}
		if i > 0 {
			g.addEdge(reactions[i-1], rx)
		}
	}
	return nil
}

// buildAntidependencyIndex maps each port to the reactions that declare
// it as an antidependency, so port edges can be discovered without a
// linear scan per trigger.
func buildAntidependencyIndex(reactors []*Reactor) map[Port][]*Reaction {
	idx := make(map[Port][]*Reaction)
	for _, r := range reactors {
		for _, rx := range r.Reactions() {
			for _, p := range rx.antidependencies {
				idx[p] = append(idx[p], rx)
			}
		}
	}
	return idx
}

// calculateIndexes performs the layered variant of Kahn's algorithm
// over g: every reaction with no remaining unsatisfied incoming edges
// is assigned the same index_counter in one round, the counter is
// incremented once per round, and the round repeats over the newly
// exposed frontier. Reactions with no dependency on each other end up
// sharing an index (the same level), which is what lets the scheduler
// treat same-index reactions as parallelizable and what the DOT export
// groups into one rank=same subgraph. If not every reaction can be
// assigned an index, the graph contains a cycle and ErrCycleDetected is
// returned.
func calculateIndexes(e *Environment, g *depGraph) error {
	inDegree := make(map[*Reaction]int, len(g.nodes))
	for _, n := range g.nodes {
		inDegree[n] = 0
	}
	for _, targets := range g.edges {
		for t := range targets {
			inDegree[t]++
		}
	}

	var frontier []*Reaction
	for _, n := range g.nodes {
		if inDegree[n] == 0 {
			frontier = append(frontier, n)
		}
	}

	index := 0
	assigned := 0
	for len(frontier) > 0 {
		sort.Slice(frontier, func(i, j int) bool { return frontier[i].FQN() < frontier[j].FQN() })

		var next []*Reaction
		for _, n := range frontier {
			n.index = index
			assigned++
			for target := range g.edges[n] {
				inDegree[target]--
				if inDegree[target] == 0 {
					next = append(next, target)
				}
			}
		}
		frontier = next
		index++
	}

	if assigned != len(g.nodes) {
		for _, n := range g.nodes {
			if inDegree[n] > 0 {
				n.index = -1
			}
		}
		return fmt.Errorf("%w: %d of %d reactions could not be ordered", ErrCycleDetected, len(g.nodes)-assigned, len(g.nodes))
	}

	ordered := make([]*Reaction, len(g.nodes))
	copy(ordered, g.nodes)
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].index != ordered[j].index {
			return ordered[i].index < ordered[j].index
		}
		return ordered[i].FQN() < ordered[j].FQN()
	})
	e.reactionsByIndex = ordered
	if index > 0 {
		e.maxReactionIndex = index - 1
	} else {
		e.maxReactionIndex = -1
	}

	e.logger.Debug("dependency graph assembled", "reactions", len(g.nodes), "max_index", e.maxReactionIndex)
	return nil
}

// elementPresent reports whether a port or action trigger currently
// carries a value/firing for the instant in progress.
func elementPresent(t ReactorElement) bool {
	switch v := t.(type) {
	case Port:
		return v.hasValue()
	case Action:
		return v.IsPresent()
	default:
		return false
	}
}
