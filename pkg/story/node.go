package story

import "slices"

// EndingType classifies terminal nodes.
type EndingType string

const (
	EndingVictory EndingType = "victory"
	EndingDefeat  EndingType = "defeat"
	EndingNeutral EndingType = "neutral"
	EndingSecret  EndingType = "secret"
)

// Flags are the boolean story flags accumulated by a session.
type Flags map[string]bool

// Clone returns an independent copy; nil stays an empty map.
func (f Flags) Clone() Flags {
	out := make(Flags, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// Has reports whether every named flag is set.
func (f Flags) Has(names ...string) bool {
	for _, n := range names {
		if !f[n] {
			return false
		}
	}
	return true
}

// Guard decides whether a node or choice is reachable for the given flags and history.
type Guard func(flags Flags, history []string) bool

// RequireFlags returns a guard satisfied when all flags are set.
func RequireFlags(names ...string) Guard {
	return func(flags Flags, _ []string) bool {
		return flags.Has(names...)
	}
}

// RequireChoice returns a guard satisfied once choiceID appears in the history.
func RequireChoice(choiceID string) Guard {
	return func(_ Flags, history []string) bool {
		return slices.Contains(history, choiceID)
	}
}

// Choice is one option presented on a node.
type Choice struct {
	ID     string `json:"id"`
	Icon   string `json:"icon,omitempty"`
	Text   string `json:"text"`
	Detail string `json:"detail,omitempty"`

	Condition Guard  `json:"-"` // Hidden unless satisfied
	Event     string `json:"-"` // Gameplay event emitted when chosen
}

// Route is one rung of a node's priority ladder.
type Route struct {
	Choice string // Empty matches any choice
	When   Guard  // Evaluated against the updated flags
	To     string
}

func (r Route) matches(choiceID string, flags Flags, history []string) bool {
	if r.Choice != "" && r.Choice != choiceID {
		return false
	}
	return r.When == nil || r.When(flags, history)
}

// FlagNote is narration appended when a flag is set.
type FlagNote struct {
	Flag string
	Text string
}

// Node is a static narrative node. Nodes are built once and never mutated.
type Node struct {
	ID         string
	Location   string // Scene/location id shown to the client
	Narration  string
	Notes      []FlagNote
	Choices    []Choice
	Routes     []Route
	Condition  Guard // Entry guard; routes skip targets whose guard fails
	Event      string
	IsEnding   bool
	EndingType EndingType
}

// Narrate renders the node narration for the given flags.
func (n *Node) Narrate(flags Flags) string {
	text := n.Narration
	for _, note := range n.Notes {
		if flags[note.Flag] {
			text += " " + note.Text
		}
	}
	return text
}

// Choice looks up an authored choice by id.
func (n *Node) Choice(id string) (Choice, bool) {
	for _, c := range n.Choices {
		if c.ID == id {
			return c, true
		}
	}
	return Choice{}, false
}

func (n *Node) admits(flags Flags, history []string) bool {
	return n.Condition == nil || n.Condition(flags, history)
}
