package state

// Vitals are the clamped resource pools of the player.
type Vitals struct {
	Health    int `json:"health"`
	MaxHealth int `json:"max_health"`
	Mana      int `json:"mana"`
	MaxMana   int `json:"max_mana"`
	Energy    int `json:"energy"`
	MaxEnergy int `json:"max_energy"`
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		hi = lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Clamp forces every pool into [0, max].
func (v *Vitals) Clamp() {
	v.MaxHealth = max(v.MaxHealth, 0)
	v.MaxMana = max(v.MaxMana, 0)
	v.MaxEnergy = max(v.MaxEnergy, 0)
	v.Health = clamp(v.Health, 0, v.MaxHealth)
	v.Mana = clamp(v.Mana, 0, v.MaxMana)
	v.Energy = clamp(v.Energy, 0, v.MaxEnergy)
}

func (v *Vitals) AdjustHealth(delta int) {
	v.Health = clamp(v.Health+delta, 0, v.MaxHealth)
}

func (v *Vitals) AdjustMana(delta int) {
	v.Mana = clamp(v.Mana+delta, 0, v.MaxMana)
}

func (v *Vitals) AdjustEnergy(delta int) {
	v.Energy = clamp(v.Energy+delta, 0, v.MaxEnergy)
}

// RaiseMaxHealth grows the pool and its current value by n.
func (v *Vitals) RaiseMaxHealth(n int) {
	v.MaxHealth += n
	v.Health = clamp(v.Health+n, 0, v.MaxHealth)
}

// RaiseMaxMana grows the pool and its current value by n.
func (v *Vitals) RaiseMaxMana(n int) {
	v.MaxMana += n
	v.Mana = clamp(v.Mana+n, 0, v.MaxMana)
}
