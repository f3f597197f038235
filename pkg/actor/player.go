// Package actor exposes the player as a d20 actor so dialogue prompts and
// checks can reason about hit points, armour and attributes.
package actor

import (
	"fmt"
	"maps"
	"strings"

	"github.com/jwebster45206/d20"

	"github.com/jwebster45206/gatebound/pkg/state"
)

const baseArmorClass = 10

// Player is the runtime d20 view of a game state's hunter.
type Player struct {
	Name  string
	Level int
	Rank  string
	Down  bool       // Health reached zero; the actor itself keeps at least 1 HP
	Actor *d20.Actor // Built from the game state; never persisted
}

// Rank is the hunter rank for a level, E through S.
func Rank(level int) string {
	switch {
	case level >= 50:
		return "S"
	case level >= 35:
		return "A"
	case level >= 20:
		return "B"
	case level >= 10:
		return "C"
	case level >= 5:
		return "D"
	}
	return "E"
}

// Modifier is the d20 ability modifier for a score.
func Modifier(score int) int {
	if score < 10 {
		return (score - 11) / 2
	}
	return (score - 10) / 2
}

// NewPlayer builds a d20 actor from gs. Stats and skill levels become
// attributes; armour class derives from agility.
func NewPlayer(gs *state.GameState) (*Player, error) {
	if gs == nil {
		return nil, fmt.Errorf("gamestate cannot be nil")
	}

	attrs := gs.Stats.Map()
	skills := make(map[string]int, len(gs.Skills))
	for _, s := range gs.Skills {
		if s.Level > 0 {
			skills[s.ID] = s.Level
		}
	}
	maps.Copy(attrs, skills)

	name := gs.PlayerName
	if name == "" {
		name = "Hunter"
	}

	maxHP := max(gs.MaxHealth, 1)
	a, err := d20.NewActor(name).
		WithHP(maxHP).
		WithAC(baseArmorClass + Modifier(gs.Stats.Agility)).
		WithAttributes(attrs).
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build actor: %w", err)
	}

	hp := min(max(gs.Health, 1), maxHP)
	if hp != maxHP {
		if err := a.SetHP(hp); err != nil {
			return nil, fmt.Errorf("failed to set HP: %w", err)
		}
	}

	return &Player{
		Name:  name,
		Level: gs.Level,
		Rank:  Rank(gs.Level),
		Down:  gs.Health <= 0,
		Actor: a,
	}, nil
}

// Condition describes remaining hit points in words.
func (p *Player) Condition() string {
	hp, maxHP := p.Actor.HP(), p.Actor.MaxHP()
	switch {
	case p.Down:
		return "down"
	case hp*4 <= maxHP:
		return "badly wounded"
	case hp*2 <= maxHP:
		return "wounded"
	case hp < maxHP:
		return "lightly hurt"
	}
	return "unharmed"
}

// Attribute returns a stat or skill level, 0 when absent.
func (p *Player) Attribute(name string) int {
	v, _ := p.Actor.Attribute(name)
	return v
}

// BuildPrompt renders the player line of the dialogue system prompt.
// Returns an empty string if p is nil.
//
// Example output:
// The user is playing Jin, a Level 12 C-rank hunter (lightly hurt, AC 11).
func BuildPrompt(p *Player) string {
	if p == nil {
		return ""
	}
	sb := strings.Builder{}
	sb.WriteString("The user is playing ")
	sb.WriteString(p.Name)
	sb.WriteString(fmt.Sprintf(", a Level %d %s-rank hunter", p.Level, p.Rank))
	sb.WriteString(fmt.Sprintf(" (%s, AC %d).", p.Condition(), p.Actor.AC()))
	return sb.String()
}
