package story

import (
	"fmt"
	"slices"
	"strings"

	"github.com/jwebster45206/gatebound/pkg/apperr"
)

// Graph is the immutable branching story graph.
type Graph struct {
	start string
	nodes map[string]*Node
	rules FlagRules
}

// NewGraph builds a graph from nodes. The first node is the start node.
func NewGraph(nodes []*Node, rules FlagRules) *Graph {
	g := &Graph{
		nodes: make(map[string]*Node, len(nodes)),
		rules: rules,
	}
	for i, n := range nodes {
		if i == 0 {
			g.start = n.ID
		}
		g.nodes[n.ID] = n
	}
	return g
}

// Start returns the entrance node.
func (g *Graph) Start() *Node {
	return g.nodes[g.start]
}

// Node looks up a node by id.
func (g *Graph) Node(id string) (*Node, error) {
	n, ok := g.nodes[id]
	if !ok {
		return nil, apperr.NotFound("story node", id)
	}
	return n, nil
}

// Advance resolves the node reached by choosing choiceID at currentNodeID.
// Flag rules for the choice are applied to a copy of flags first, then the
// node's routes are evaluated in order; the first match wins. If nothing
// matches the session stays on the current node. Ending nodes are terminal.
func (g *Graph) Advance(currentNodeID, choiceID string, flags Flags, history []string) (*Node, Flags, error) {
	node, err := g.Node(currentNodeID)
	if err != nil {
		return nil, nil, err
	}

	newFlags := flags.Clone()
	if node.IsEnding {
		return node, newFlags, nil
	}

	for _, f := range g.rules[choiceID] {
		newFlags[f] = true
	}

	hist := make([]string, 0, len(history)+1)
	hist = append(hist, history...)
	hist = append(hist, choiceID)

	for _, r := range node.Routes {
		if !r.matches(choiceID, newFlags, hist) {
			continue
		}
		next, ok := g.nodes[r.To]
		if !ok || !next.admits(newFlags, hist) {
			continue
		}
		return next, newFlags, nil
	}
	return node, newFlags, nil
}

// AvailableChoices returns the node's choices whose guards pass.
func (g *Graph) AvailableChoices(node *Node, flags Flags, history []string) []Choice {
	if node == nil || node.IsEnding {
		return []Choice{}
	}
	out := make([]Choice, 0, len(node.Choices))
	for _, c := range node.Choices {
		if c.Condition != nil && !c.Condition(flags, history) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// Nodes returns every node id in the graph.
func (g *Graph) Nodes() []string {
	ids := make([]string, 0, len(g.nodes))
	for id := range g.nodes {
		ids = append(ids, id)
	}
	return ids
}

// Validate checks structural integrity: the start node exists, every route
// target exists, and endings carry an ending type and no choices.
func (g *Graph) Validate() error {
	var problems []string
	if _, ok := g.nodes[g.start]; !ok {
		problems = append(problems, "missing start node")
	}
	for id, n := range g.nodes {
		if n.IsEnding {
			if len(n.Choices) > 0 {
				problems = append(problems, fmt.Sprintf("ending %q has choices", id))
			}
			if n.EndingType == "" {
				problems = append(problems, fmt.Sprintf("ending %q has no ending type", id))
			}
			continue
		}
		for _, r := range n.Routes {
			if _, ok := g.nodes[r.To]; !ok {
				problems = append(problems, fmt.Sprintf("node %q routes to unknown node %q", id, r.To))
			}
			if r.Choice != "" {
				if _, ok := n.Choice(r.Choice); !ok {
					problems = append(problems, fmt.Sprintf("node %q routes on unknown choice %q", id, r.Choice))
				}
			}
		}
	}
	if len(problems) > 0 {
		slices.Sort(problems)
		return fmt.Errorf("invalid story graph: %s", strings.Join(problems, "; "))
	}
	return nil
}
