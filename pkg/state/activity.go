package state

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/gatebound/pkg/apperr"
)

type ActivityStatus string

const (
	ActivityProposed  ActivityStatus = "proposed"
	ActivityConfirmed ActivityStatus = "confirmed"
	ActivityActive    ActivityStatus = "active"
	ActivityCompleted ActivityStatus = "completed"
	ActivityCancelled ActivityStatus = "cancelled"
)

var activityTransitions = map[ActivityStatus][]ActivityStatus{
	ActivityProposed:  {ActivityConfirmed, ActivityCancelled},
	ActivityConfirmed: {ActivityActive, ActivityCancelled},
	ActivityActive:    {ActivityCompleted, ActivityCancelled},
}

// Activity is a catalogue entry the player can schedule with the companion.
type Activity struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Location      string `json:"location"`
	MinAffection  int    `json:"min_affection"`
	EnergyCost    int    `json:"energy_cost"`
	AffectionGain int    `json:"affection_gain"`
	IntimacyGain  int    `json:"intimacy_gain,omitempty"`
	Default       bool   `json:"default"` // Available without unlocking
}

var activityCatalogue = []Activity{
	{ID: "coffee_date", Title: "Coffee at the Association café", Location: "hunter_association", EnergyCost: 10, AffectionGain: 5, Default: true},
	{ID: "training_session", Title: "Sparring practice", Location: "training_hall", EnergyCost: 25, AffectionGain: 3, Default: true},
	{ID: "dinner_date", Title: "Dinner in Myeongdong", Location: "myeongdong", MinAffection: 40, EnergyCost: 15, AffectionGain: 8, IntimacyGain: 2, Default: true},
	{ID: "post_raid_dinner", Title: "Post-raid barbecue", Location: "myeongdong", EnergyCost: 10, AffectionGain: 10, IntimacyGain: 3},
	{ID: "moonlit_market", Title: "Walk through the moonlit market", Location: "night_market", MinAffection: 50, EnergyCost: 15, AffectionGain: 10, IntimacyGain: 4},
	{ID: "stargazing", Title: "Stargazing on the Association roof", Location: "association_roof", MinAffection: 70, EnergyCost: 10, AffectionGain: 12, IntimacyGain: 6},
}

// ActivityCatalogue returns a copy of the known activities.
func ActivityCatalogue() []Activity {
	return slices.Clone(activityCatalogue)
}

// ActivityDef resolves an activity id. Ids unlocked by content but absent from
// the catalogue get a generic definition.
func (gs *GameState) ActivityDef(id string) (Activity, bool) {
	for _, a := range activityCatalogue {
		if a.ID == id {
			return a, a.Default || slices.Contains(gs.UnlockedActivities, id)
		}
	}
	if slices.Contains(gs.UnlockedActivities, id) {
		return Activity{
			ID:            id,
			Title:         strings.ReplaceAll(id, "_", " "),
			EnergyCost:    10,
			AffectionGain: 5,
		}, true
	}
	return Activity{}, false
}

type ScheduledActivity struct {
	ID           string         `json:"id"`
	ActivityID   string         `json:"activity_id"`
	Title        string         `json:"title"`
	Location     string         `json:"location"`
	ScheduledFor time.Time      `json:"scheduled_for"`
	Status       ActivityStatus `json:"status"`
	CreatedAt    time.Time      `json:"created_at"`
}

// ScheduleActivity proposes an activity. The activity must be available and
// the affection requirement met.
func (gs *GameState) ScheduleActivity(activityID string, at, now time.Time) (*ScheduledActivity, error) {
	def, ok := gs.ActivityDef(activityID)
	if !ok {
		return nil, apperr.WithMetadata(apperr.CodePrerequisiteUnmet,
			fmt.Sprintf("activity %s is not unlocked", activityID),
			map[string]string{"activity_id": activityID})
	}
	if gs.AffectionLevel < def.MinAffection {
		return nil, apperr.WithMetadata(apperr.CodePrerequisiteUnmet,
			fmt.Sprintf("activity %s needs affection %d, have %d", activityID, def.MinAffection, gs.AffectionLevel),
			map[string]string{"activity_id": activityID})
	}
	sa := ScheduledActivity{
		ID:           uuid.NewString(),
		ActivityID:   def.ID,
		Title:        def.Title,
		Location:     def.Location,
		ScheduledFor: at,
		Status:       ActivityProposed,
		CreatedAt:    now,
	}
	gs.ScheduledActivities = append(gs.ScheduledActivities, sa)
	return &gs.ScheduledActivities[len(gs.ScheduledActivities)-1], nil
}

// TransitionActivity moves a scheduled activity along its lifecycle.
// Completing an activity spends energy and grants its relationship gains.
func (gs *GameState) TransitionActivity(id string, to ActivityStatus) (*ScheduledActivity, error) {
	idx := slices.IndexFunc(gs.ScheduledActivities, func(a ScheduledActivity) bool { return a.ID == id })
	if idx < 0 {
		return nil, apperr.NotFound("scheduled activity", id)
	}
	sa := &gs.ScheduledActivities[idx]
	if !slices.Contains(activityTransitions[sa.Status], to) {
		return nil, apperr.Newf(apperr.CodeInvalidTransition, "activity %s cannot move from %s to %s", id, sa.Status, to)
	}

	if to == ActivityCompleted {
		def, _ := gs.ActivityDef(sa.ActivityID)
		if gs.Energy < def.EnergyCost {
			return nil, apperr.WithMetadata(apperr.CodeInsufficientResource,
				fmt.Sprintf("not enough energy: need %d, have %d", def.EnergyCost, gs.Energy),
				map[string]string{"resource": "energy"})
		}
		gs.AdjustEnergy(-def.EnergyCost)
		gs.AdjustAffection(def.AffectionGain)
		gs.AdjustIntimacy(def.IntimacyGain)
	}
	sa.Status = to
	return sa, nil
}
