package state

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/jwebster45206/gatebound/pkg/apperr"
)

var immutableKeys = []string{"id", "session_id", "created_at"}

// MergePatch shallow-merges patch over gs and returns a new state. Top-level
// keys in patch replace the existing values wholesale. The result is
// re-validated: identity is immutable, the choice history may only grow,
// story flags are never cleared and vitals are clamped.
func MergePatch(gs *GameState, patch map[string]json.RawMessage) (*GameState, error) {
	for _, k := range immutableKeys {
		if _, ok := patch[k]; ok {
			return nil, apperr.Newf(apperr.CodeInvalidArgument, "field %s cannot be updated", k)
		}
	}

	base, err := json.Marshal(gs)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal gamestate: %w", err)
	}
	doc := map[string]json.RawMessage{}
	if err := json.Unmarshal(base, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal gamestate: %w", err)
	}
	for k, v := range patch {
		doc[k] = v
	}
	merged, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal merged gamestate: %w", err)
	}

	var out GameState
	dec := json.NewDecoder(bytes.NewReader(merged))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&out); err != nil {
		return nil, apperr.Wrap(apperr.CodeInvalidArgument, "invalid game state patch", err)
	}

	if len(out.ChoiceHistory) < len(gs.ChoiceHistory) || !slices.Equal(out.ChoiceHistory[:len(gs.ChoiceHistory)], gs.ChoiceHistory) {
		return nil, apperr.New(apperr.CodeInvalidArgument, "choice_history is append-only")
	}
	for k, v := range gs.StoryFlags {
		if v {
			out.SetFlag(k)
		}
	}
	if err := out.Validate(); err != nil {
		return nil, err
	}
	out.Vitals.Clamp()
	out.AdjustAffection(0)
	out.AdjustIntimacy(0)
	return &out, nil
}

// Validate checks the invariants that clamping cannot repair.
func (gs *GameState) Validate() error {
	switch {
	case gs.Level < 1:
		return apperr.New(apperr.CodeInvalidArgument, "level must be at least 1")
	case gs.Experience < 0:
		return apperr.New(apperr.CodeInvalidArgument, "experience cannot be negative")
	case gs.StatPoints < 0 || gs.SkillPoints < 0:
		return apperr.New(apperr.CodeInvalidArgument, "stat and skill points cannot be negative")
	case gs.Gold < 0:
		return apperr.New(apperr.CodeInvalidArgument, "gold cannot be negative")
	}
	for name, v := range gs.Stats.Map() {
		if v < 0 {
			return apperr.Newf(apperr.CodeInvalidArgument, "stat %s cannot be negative", name)
		}
	}
	for _, s := range gs.Skills {
		if s.Level < 0 || (s.MaxLevel > 0 && s.Level > s.MaxLevel) {
			return apperr.Newf(apperr.CodeInvalidArgument, "skill %s level %d out of range", s.ID, s.Level)
		}
	}
	return nil
}
