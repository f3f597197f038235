package state

// DialogueDelta is the optional state change suggested by the dialogue
// provider alongside a reply. Deltas are bounded before they are applied.
type DialogueDelta struct {
	AffectionDelta int             `json:"affection_delta,omitempty"`
	IntimacyDelta  int             `json:"intimacy_delta,omitempty"`
	EnergyDelta    int             `json:"energy_delta,omitempty"`
	Mood           string          `json:"mood,omitempty"`
	SetFlags       []string        `json:"set_flags,omitempty"`
	AddItems       []InventoryItem `json:"add_items,omitempty"`
}

// MaxDialogueSwing bounds how far one reply can move affection or intimacy.
const MaxDialogueSwing = 5

// IsEmpty checks if the delta changes anything
func (d *DialogueDelta) IsEmpty() bool {
	return d == nil || (d.AffectionDelta == 0 &&
		d.IntimacyDelta == 0 &&
		d.EnergyDelta == 0 &&
		d.Mood == "" &&
		len(d.SetFlags) == 0 &&
		len(d.AddItems) == 0)
}

// Apply folds the delta into gs for the named companion.
func (d *DialogueDelta) Apply(gs *GameState, companion string) {
	if d.IsEmpty() {
		return
	}
	gs.AdjustAffection(clamp(d.AffectionDelta, -MaxDialogueSwing, MaxDialogueSwing))
	gs.AdjustIntimacy(clamp(d.IntimacyDelta, -MaxDialogueSwing, MaxDialogueSwing))
	gs.AdjustEnergy(d.EnergyDelta)
	if d.Mood != "" {
		gs.SetCompanionMood(companion, d.Mood)
	}
	for _, f := range d.SetFlags {
		gs.SetFlag(f)
	}
	for _, item := range d.AddItems {
		if item.ID != "" {
			gs.AddItem(item)
		}
	}
}
