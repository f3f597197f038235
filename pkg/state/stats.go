package state

import "fmt"

// Stat names accepted by stat allocation.
const (
	StatStrength     = "strength"
	StatAgility      = "agility"
	StatIntelligence = "intelligence"
	StatVitality     = "vitality"
	StatSense        = "sense"
)

// StatNames lists every allocatable stat.
var StatNames = []string{StatStrength, StatAgility, StatIntelligence, StatVitality, StatSense}

type CharacterStats struct {
	Strength     int `json:"strength"`
	Agility      int `json:"agility"`
	Intelligence int `json:"intelligence"`
	Vitality     int `json:"vitality"`
	Sense        int `json:"sense"`
}

func (cs *CharacterStats) field(name string) (*int, error) {
	switch name {
	case StatStrength:
		return &cs.Strength, nil
	case StatAgility:
		return &cs.Agility, nil
	case StatIntelligence:
		return &cs.Intelligence, nil
	case StatVitality:
		return &cs.Vitality, nil
	case StatSense:
		return &cs.Sense, nil
	}
	return nil, fmt.Errorf("unknown stat: %q", name)
}

// Get returns the value of a named stat.
func (cs CharacterStats) Get(name string) (int, error) {
	p, err := cs.field(name)
	if err != nil {
		return 0, err
	}
	return *p, nil
}

// Add increments a named stat. Stats never drop below zero.
func (cs *CharacterStats) Add(name string, n int) error {
	p, err := cs.field(name)
	if err != nil {
		return err
	}
	*p = max(*p+n, 0)
	return nil
}

// Map returns the stats keyed by name.
func (cs CharacterStats) Map() map[string]int {
	return map[string]int{
		StatStrength:     cs.Strength,
		StatAgility:      cs.Agility,
		StatIntelligence: cs.Intelligence,
		StatVitality:     cs.Vitality,
		StatSense:        cs.Sense,
	}
}
