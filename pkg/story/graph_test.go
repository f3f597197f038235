package story

import (
	"testing"

	"github.com/jwebster45206/gatebound/pkg/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultGraph_Validate(t *testing.T) {
	require.NoError(t, DefaultGraph().Validate())
}

func TestGraph_Advance(t *testing.T) {
	g := DefaultGraph()

	tests := []struct {
		name      string
		current   string
		choice    string
		flags     Flags
		wantNode  string
		wantFlags []string
	}{
		{
			name:      "examine sets magical knowledge and stays",
			current:   StartNodeID,
			choice:    "examine-runes",
			wantNode:  StartNodeID,
			wantFlags: []string{FlagMagicalKnowledge},
		},
		{
			name:     "enter with no flags falls through the ladder",
			current:  StartNodeID,
			choice:   "enter-gate",
			wantNode: "dark_passage",
		},
		{
			name:     "enter with knowledge only",
			current:  StartNodeID,
			choice:   "enter-gate",
			flags:    Flags{FlagMagicalKnowledge: true},
			wantNode: "rune_corridor",
		},
		{
			name:     "enter with combat only",
			current:  StartNodeID,
			choice:   "enter-gate",
			flags:    Flags{FlagCombatReady: true},
			wantNode: "guardian_arena",
		},
		{
			name:     "first match wins when both flags are set",
			current:  StartNodeID,
			choice:   "enter-gate",
			flags:    Flags{FlagCombatReady: true, FlagMagicalKnowledge: true},
			wantNode: "inner_hall",
		},
		{
			name:      "strike without allies or lore is a defeat",
			current:   "guardian_arena",
			choice:    "strike-guardian",
			wantNode:  "ending_fallen",
			wantFlags: []string{FlagCombatReady, FlagGuardianDefeated},
		},
		{
			name:     "strike with trust reaches the hall",
			current:  "guardian_arena",
			choice:   "strike-guardian",
			flags:    Flags{FlagCompanionTrust: true},
			wantNode: "inner_hall",
		},
		{
			name:     "forbidden formula with trust is the secret ending",
			current:  "inner_hall",
			choice:   "cast-forbidden",
			flags:    Flags{FlagForbiddenLore: true, FlagCompanionTrust: true},
			wantNode: "ending_secret",
		},
		{
			name:     "unknown choice stays put",
			current:  "rune_corridor",
			choice:   "dance",
			wantNode: "rune_corridor",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, flags, err := g.Advance(tt.current, tt.choice, tt.flags, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.wantNode, next.ID)
			for _, f := range tt.wantFlags {
				assert.True(t, flags[f], "expected flag %s", f)
			}
		})
	}
}

func TestGraph_AdvanceDoesNotMutateInputs(t *testing.T) {
	g := DefaultGraph()
	flags := Flags{"existing": true}
	history := []string{"draw-weapon"}

	_, newFlags, err := g.Advance(StartNodeID, "examine-runes", flags, history)
	require.NoError(t, err)

	assert.Len(t, flags, 1)
	assert.Len(t, history, 1)
	assert.True(t, newFlags["existing"])
	assert.True(t, newFlags[FlagMagicalKnowledge])
}

func TestGraph_AdvanceIsDeterministic(t *testing.T) {
	g := DefaultGraph()
	flags := Flags{FlagMagicalKnowledge: true}
	history := []string{"examine-runes"}

	first, firstFlags, err := g.Advance(StartNodeID, "enter-gate", flags, history)
	require.NoError(t, err)
	for i := 0; i < 50; i++ {
		next, nextFlags, err := g.Advance(StartNodeID, "enter-gate", flags, history)
		require.NoError(t, err)
		assert.Equal(t, first.ID, next.ID)
		assert.Equal(t, firstFlags, nextFlags)
	}
}

func TestGraph_EndingsAreTerminal(t *testing.T) {
	g := DefaultGraph()
	for _, id := range []string{"ending_victory", "ending_fallen", "ending_retreat", "ending_secret"} {
		t.Run(id, func(t *testing.T) {
			for _, choice := range []string{"enter-gate", "seal-rift", "custom-hello", ""} {
				next, flags, err := g.Advance(id, choice, Flags{FlagCombatReady: true}, nil)
				require.NoError(t, err)
				assert.Equal(t, id, next.ID)
				assert.Equal(t, Flags{FlagCombatReady: true}, flags)
			}
			node, _ := g.Node(id)
			assert.Empty(t, g.AvailableChoices(node, nil, nil))
		})
	}
}

func TestGraph_AdvanceUnknownNode(t *testing.T) {
	_, _, err := DefaultGraph().Advance("nowhere", "enter-gate", nil, nil)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestGraph_AvailableChoicesFiltersGuards(t *testing.T) {
	g := DefaultGraph()
	node, err := g.Node("rune_corridor")
	require.NoError(t, err)

	without := g.AvailableChoices(node, Flags{}, nil)
	with := g.AvailableChoices(node, Flags{FlagMagicalKnowledge: true}, nil)

	assert.Len(t, without, 2)
	assert.Len(t, with, 3)
	assert.Equal(t, "decipher-glyphs", with[0].ID)
}

func TestGraph_EntryGuardSkipsRoute(t *testing.T) {
	nodes := []*Node{
		{
			ID:      "start",
			Choices: []Choice{{ID: "go"}},
			Routes: []Route{
				{Choice: "go", To: "locked"},
				{Choice: "go", To: "open"},
			},
		},
		{ID: "locked", Condition: RequireChoice("key"), IsEnding: true, EndingType: EndingSecret},
		{ID: "open", IsEnding: true, EndingType: EndingNeutral},
	}
	g := NewGraph(nodes, nil)

	next, _, err := g.Advance("start", "go", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "open", next.ID)

	next, _, err = g.Advance("start", "go", nil, []string{"key"})
	require.NoError(t, err)
	assert.Equal(t, "locked", next.ID)
}

func TestGraph_ValidateReportsBrokenRoutes(t *testing.T) {
	g := NewGraph([]*Node{
		{ID: "start", Choices: []Choice{{ID: "go"}}, Routes: []Route{{Choice: "go", To: "missing"}}},
		{ID: "end", IsEnding: true, Choices: []Choice{{ID: "again"}}},
	}, nil)

	err := g.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `routes to unknown node "missing"`)
	assert.Contains(t, err.Error(), `ending "end" has choices`)
	assert.Contains(t, err.Error(), `ending "end" has no ending type`)
}

func TestNode_Narrate(t *testing.T) {
	g := DefaultGraph()
	start := g.Start()

	plain := start.Narrate(nil)
	withLore := start.Narrate(Flags{FlagMagicalKnowledge: true})

	assert.NotContains(t, plain, "warning")
	assert.Contains(t, withLore, "the gate feeds on hesitation")
}

func TestDefaultEffects(t *testing.T) {
	eff, ok := DefaultEffects().Lookup("strike-guardian")
	require.True(t, ok)
	assert.Equal(t, -25, eff.HealthDelta)

	_, ok = DefaultEffects().Lookup("examine-runes")
	assert.False(t, ok)
}

func TestSceneDecor_Deterministic(t *testing.T) {
	a := SceneDecor("inner_hall", 4)
	b := SceneDecor("inner_hall", 4)
	assert.Equal(t, a, b)
	assert.NotEmpty(t, a.Runes)
	for _, p := range append(a.Runes, a.Particles...) {
		assert.True(t, p.X >= 0 && p.X <= 100 && p.Y >= 0 && p.Y <= 100)
	}
}
