package workflow

import (
	"context"
	"fmt"

	"moodloop/app/service/conversation"
)

// End terminates graph traversal.
const End = "__end__"

// NodeFunc transforms the conversation state at one node.
type NodeFunc func(ctx context.Context, state conversation.State) (conversation.State, error)

// BranchFunc picks the next node from the state produced by the node it is
// attached to.
type BranchFunc func(state conversation.State) string

// Graph is a minimal directed graph of state-transforming nodes with
// unconditional edges and per-node conditional branches. Traversal is
// strictly sequential: one node runs at a time until an edge leads to End.
type Graph struct {
	nodes    map[string]NodeFunc
	edges    map[string]string
	branches map[string]BranchFunc
	entry    string
}

func NewGraph() *Graph {
	return &Graph{
		nodes:    make(map[string]NodeFunc),
		edges:    make(map[string]string),
		branches: make(map[string]BranchFunc),
	}
}

func (g *Graph) AddNode(name string, fn NodeFunc) {
	g.nodes[name] = fn
}

func (g *Graph) AddEdge(from, to string) {
	g.edges[from] = to
}

// AddBranch attaches a conditional edge. A branch takes precedence over an
// unconditional edge from the same node.
func (g *Graph) AddBranch(from string, fn BranchFunc) {
	g.branches[from] = fn
}

func (g *Graph) SetEntryPoint(name string) {
	g.entry = name
}

// Run walks the graph from the entry point, threading the state through
// each node. A node error aborts the walk and returns the last state the
// failed node received.
func (g *Graph) Run(ctx context.Context, state conversation.State) (conversation.State, error) {
	if g.entry == "" {
		return state, fmt.Errorf("graph has no entry point")
	}

	current := g.entry

	for current != End {
		node, ok := g.nodes[current]
		if !ok {
			return state, fmt.Errorf("unknown node %q", current)
		}

		next, err := node(ctx, state)
		if err != nil {
			return state, fmt.Errorf("node %q: %w", current, err)
		}
		state = next

		if branch, ok := g.branches[current]; ok {
			current = branch(state)
			continue
		}

		to, ok := g.edges[current]
		if !ok {
			return state, fmt.Errorf("node %q has no outgoing edge", current)
		}
		current = to
	}

	return state, nil
}
