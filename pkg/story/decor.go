package story

import (
	"hash/fnv"
	"math/rand/v2"
)

// Point is a decorative position in percent of the scene viewport.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Decor holds presentation-only positions for runes and particles.
type Decor struct {
	Runes     []Point `json:"runes"`
	Particles []Point `json:"particles"`
}

// SceneDecor derives decorative positions from the node id and step count.
// The same inputs always produce the same layout.
func SceneDecor(nodeID string, step int) Decor {
	h := fnv.New64a()
	_, _ = h.Write([]byte(nodeID))
	rng := rand.New(rand.NewPCG(h.Sum64(), uint64(step)))

	d := Decor{
		Runes:     make([]Point, 3+rng.IntN(3)),
		Particles: make([]Point, 8+rng.IntN(5)),
	}
	for i := range d.Runes {
		d.Runes[i] = Point{X: rng.IntN(101), Y: rng.IntN(101)}
	}
	for i := range d.Particles {
		d.Particles[i] = Point{X: rng.IntN(101), Y: rng.IntN(101)}
	}
	return d
}
