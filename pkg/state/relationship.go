package state

// RelationshipStatus is derived from affection; it is never set directly.
type RelationshipStatus string

const (
	RelationshipNone    RelationshipStatus = "none"
	RelationshipDating  RelationshipStatus = "dating"
	RelationshipEngaged RelationshipStatus = "engaged"
	RelationshipMarried RelationshipStatus = "married"
)

// Affection thresholds on the 0-100 scale.
const (
	AffectionMax      = 100
	DatingThreshold   = 60
	EngagedThreshold  = 85
	MarriedThreshold  = 95
	affectionPerHeart = 20
	IntimacyMax       = 100
)

// StatusForAffection maps an affection value to a relationship status.
func StatusForAffection(affection int) RelationshipStatus {
	switch {
	case affection >= MarriedThreshold:
		return RelationshipMarried
	case affection >= EngagedThreshold:
		return RelationshipEngaged
	case affection >= DatingThreshold:
		return RelationshipDating
	default:
		return RelationshipNone
	}
}

// Hearts converts affection to the 0-5 display scale. Presentation only.
func Hearts(affection int) int {
	return clamp(affection, 0, AffectionMax) / affectionPerHeart
}

// AdjustAffection applies delta on the 0-100 scale and refreshes the status.
func (gs *GameState) AdjustAffection(delta int) {
	gs.AffectionLevel = clamp(gs.AffectionLevel+delta, 0, AffectionMax)
	gs.RelationshipStatus = StatusForAffection(gs.AffectionLevel)
}

func (gs *GameState) AdjustIntimacy(delta int) {
	gs.IntimacyLevel = clamp(gs.IntimacyLevel+delta, 0, IntimacyMax)
}
