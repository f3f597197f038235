package story

// Gameplay events emitted by the built-in graph.
const (
	EventMeetCompanion       = "meet_companion"
	EventPlayerEntersDungeon = "player_enters_dungeon"
	EventGuardianDefeated    = "guardian_defeated"
	EventEndEpisode          = "end_episode"
)

// StartNodeID is the entrance of the built-in graph.
const StartNodeID = "entrance"

// DefaultGraph returns the built-in Red Gate story graph.
func DefaultGraph() *Graph {
	return NewGraph(defaultNodes(), DefaultFlagRules())
}

func defaultNodes() []*Node {
	return []*Node{
		{
			ID:        StartNodeID,
			Location:  "dungeon_gate",
			Narration: "A red gate hangs above the abandoned subway platform, its rim crawling with runes. Hae-In waits beside you, sword still sheathed.",
			Notes: []FlagNote{
				{Flag: FlagMagicalKnowledge, Text: "The runes resolve into a warning: the gate feeds on hesitation."},
				{Flag: FlagCombatReady, Text: "Your dagger is drawn and the mana in the air prickles along its edge."},
				{Flag: FlagCompanionTrust, Text: "Hae-In stands close enough that your shoulders touch."},
			},
			Choices: []Choice{
				{ID: "examine-runes", Icon: "🔍", Text: "Examine the runes", Detail: "Study the glyphs circling the gate"},
				{ID: "draw-weapon", Icon: "⚔️", Text: "Draw your dagger", Detail: "Prepare for whatever waits inside"},
				{ID: "call-companion", Icon: "💬", Text: "Talk to Hae-In", Detail: "Ask how she reads the gate", Event: EventMeetCompanion},
				{ID: "enter-gate", Icon: "🚪", Text: "Step through the gate", Event: EventPlayerEntersDungeon},
				{ID: "retreat", Icon: "🏃", Text: "Walk away", Detail: "Report the gate and leave it to another team"},
			},
			Routes: []Route{
				{Choice: "enter-gate", When: RequireFlags(FlagMagicalKnowledge, FlagCombatReady), To: "inner_hall"},
				{Choice: "enter-gate", When: RequireFlags(FlagCombatReady), To: "guardian_arena"},
				{Choice: "enter-gate", When: RequireFlags(FlagMagicalKnowledge), To: "rune_corridor"},
				{Choice: "enter-gate", To: "dark_passage"},
				{Choice: "retreat", To: "ending_retreat"},
			},
		},
		{
			ID:        "dark_passage",
			Location:  "red_echo_depths",
			Narration: "The gate closes behind you. Only the red glow of the walls lights the passage.",
			Choices: []Choice{
				{ID: "cast-light", Icon: "✨", Text: "Conjure a light", Detail: "Costs mana"},
				{ID: "call-companion", Icon: "💬", Text: "Reach for Hae-In's hand", Event: EventMeetCompanion},
				{ID: "feel-walls", Icon: "🖐️", Text: "Follow the wall by touch"},
			},
			Routes: []Route{
				{Choice: "cast-light", To: "rune_corridor"},
				{Choice: "feel-walls", To: "guardian_arena"},
			},
		},
		{
			ID:        "rune_corridor",
			Location:  "red_echo_depths",
			Narration: "Runes pulse along the corridor walls in a slow heartbeat.",
			Notes: []FlagNote{
				{Flag: FlagForbiddenLore, Text: "One sequence repeats: a sealing formula no hunter is meant to know."},
			},
			Choices: []Choice{
				{ID: "decipher-glyphs", Icon: "📜", Text: "Decipher the glyphs", Condition: RequireFlags(FlagMagicalKnowledge)},
				{ID: "cast-light", Icon: "✨", Text: "Brighten the corridor"},
				{ID: "press-on", Icon: "➡️", Text: "Press deeper"},
			},
			Routes: []Route{
				{Choice: "decipher-glyphs", To: "sealed_archive"},
				{Choice: "press-on", When: RequireFlags(FlagGuardianDefeated), To: "inner_hall"},
				{Choice: "press-on", To: "guardian_arena"},
			},
		},
		{
			ID:        "guardian_arena",
			Location:  "guardian_arena",
			Narration: "A stone guardian unfolds from the arena floor, its eyes the same red as the gate.",
			Choices: []Choice{
				{ID: "strike-guardian", Icon: "⚔️", Text: "Strike the guardian", Event: EventGuardianDefeated},
				{ID: "cast-spell", Icon: "🔮", Text: "Unravel its binding runes", Condition: RequireFlags(FlagMagicalKnowledge), Event: EventGuardianDefeated},
				{ID: "shield-companion", Icon: "🛡️", Text: "Shield Hae-In from the blow"},
				{ID: "flee", Icon: "🏃", Text: "Flee to the gate"},
			},
			Routes: []Route{
				{Choice: "strike-guardian", When: RequireFlags(FlagCompanionTrust), To: "inner_hall"},
				{Choice: "strike-guardian", When: RequireFlags(FlagMagicalKnowledge), To: "inner_hall"},
				{Choice: "strike-guardian", To: "ending_fallen"},
				{Choice: "cast-spell", To: "inner_hall"},
				{Choice: "flee", To: "ending_retreat"},
			},
		},
		{
			ID:        "sealed_archive",
			Location:  "sealed_archive",
			Narration: "Behind the glyphs lies an archive sealed since before the first gates opened.",
			Choices: []Choice{
				{ID: "read-tome", Icon: "📖", Text: "Read the black tome"},
				{ID: "take-relic", Icon: "💎", Text: "Take the relic on the altar", Condition: func(flags Flags, _ []string) bool {
					return !flags[FlagRelicClaimed]
				}},
				{ID: "rest-at-shrine", Icon: "🕯️", Text: "Rest at the shrine"},
				{ID: "return", Icon: "↩️", Text: "Return to the corridor"},
			},
			Routes: []Route{
				{Choice: "return", When: RequireFlags(FlagGuardianDefeated), To: "inner_hall"},
				{Choice: "return", To: "guardian_arena"},
			},
		},
		{
			ID:        "inner_hall",
			Location:  "inner_hall",
			Narration: "At the heart of the dungeon a rift bleeds red light into the dark.",
			Condition: func(flags Flags, history []string) bool {
				return flags.Has(FlagCombatReady) || flags.Has(FlagMagicalKnowledge) || flags.Has(FlagCompanionTrust)
			},
			Choices: []Choice{
				{ID: "seal-rift", Icon: "🌀", Text: "Seal the rift together"},
				{ID: "cast-forbidden", Icon: "🩸", Text: "Speak the forbidden formula", Condition: RequireFlags(FlagForbiddenLore)},
				{ID: "retreat", Icon: "🏃", Text: "Fall back"},
			},
			Routes: []Route{
				{Choice: "cast-forbidden", When: RequireFlags(FlagForbiddenLore, FlagCompanionTrust), To: "ending_secret"},
				{Choice: "cast-forbidden", To: "ending_fallen"},
				{Choice: "seal-rift", To: "ending_victory"},
				{Choice: "retreat", To: "ending_retreat"},
			},
		},
		{
			ID:         "ending_victory",
			Location:   "dungeon_gate",
			Narration:  "The rift seals. Outside, Hae-In laughs for the first time today and the gate crumbles to ash.",
			Event:      EventEndEpisode,
			IsEnding:   true,
			EndingType: EndingVictory,
		},
		{
			ID:         "ending_fallen",
			Location:   "red_echo_depths",
			Narration:  "The red light swallows you. The last thing you hear is Hae-In calling your name.",
			Event:      EventEndEpisode,
			IsEnding:   true,
			EndingType: EndingDefeat,
		},
		{
			ID:         "ending_retreat",
			Location:   "dungeon_gate",
			Narration:  "You leave the gate to another team. Hae-In says nothing on the ride home.",
			Event:      EventEndEpisode,
			IsEnding:   true,
			EndingType: EndingNeutral,
		},
		{
			ID:         "ending_secret",
			Location:   "sealed_archive",
			Narration:  "The formula answers to two voices. The rift folds into a door only the two of you can open.",
			Event:      EventEndEpisode,
			IsEnding:   true,
			EndingType: EndingSecret,
		},
	}
}
