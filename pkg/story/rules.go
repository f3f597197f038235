package story

// FlagRules maps a structured choice id to the flags it sets.
type FlagRules map[string][]string

// Story flags set by structured choices.
const (
	FlagMagicalKnowledge = "magicalKnowledge"
	FlagCombatReady      = "combatReady"
	FlagCompanionTrust   = "companionTrust"
	FlagForbiddenLore    = "forbiddenLore"
	FlagGuardianDefeated = "guardianDefeated"
	FlagRelicClaimed     = "relicClaimed"
)

// DefaultFlagRules are the flag-setting rules for the built-in graph.
func DefaultFlagRules() FlagRules {
	return FlagRules{
		"examine-runes":    {FlagMagicalKnowledge},
		"decipher-glyphs":  {FlagMagicalKnowledge, FlagForbiddenLore},
		"read-tome":        {FlagForbiddenLore},
		"draw-weapon":      {FlagCombatReady},
		"strike-guardian":  {FlagCombatReady, FlagGuardianDefeated},
		"cast-spell":       {FlagGuardianDefeated},
		"call-companion":   {FlagCompanionTrust},
		"shield-companion": {FlagCompanionTrust},
		"take-relic":       {FlagRelicClaimed},
	}
}

// Effect is the fixed resource change attached to a choice id.
type Effect struct {
	HealthDelta int `json:"health_delta,omitempty"`
	ManaDelta   int `json:"mana_delta,omitempty"`
	Experience  int `json:"experience,omitempty"`
}

// Effects is the choice-id keyed lookup table of side effects.
type Effects map[string]Effect

// Lookup returns the effect for choiceID, if any.
func (e Effects) Lookup(choiceID string) (Effect, bool) {
	eff, ok := e[choiceID]
	return eff, ok
}

// DefaultEffects returns the side-effect table for the built-in graph.
func DefaultEffects() Effects {
	return Effects{
		"cast-light":       {ManaDelta: -10},
		"cast-spell":       {ManaDelta: -20, Experience: 60},
		"strike-guardian":  {HealthDelta: -25, Experience: 60},
		"shield-companion": {HealthDelta: -15},
		"read-tome":        {ManaDelta: -15, Experience: 30},
		"take-relic":       {Experience: 40},
		"rest-at-shrine":   {HealthDelta: 30, ManaDelta: 30},
		"seal-rift":        {ManaDelta: -30, Experience: 200},
		"cast-forbidden":   {HealthDelta: -20, ManaDelta: -50, Experience: 300},
	}
}
