// services/decider.go
package services

// Thresholds configures the score each algorithm family must reach for a
// guess to count as correct. Lexical scores live on a 0–100 scale, semantic
// cosine scores on -1..1.
type Thresholds struct {
	Lexical  float64
	Semantic float64
}

// DefaultThresholds matches the calibration the game shipped with: 70%
// lexical overlap, 0.75 cosine similarity.
func DefaultThresholds() Thresholds {
	return Thresholds{Lexical: 70, Semantic: 0.75}
}

// Decider converts a score into a correctness decision under the configured
// thresholds. Stateless; safe for concurrent use.
type Decider struct {
	thresholds Thresholds
}

func NewDecider(t Thresholds) *Decider {
	return &Decider{thresholds: t}
}

func (d *Decider) Decide(algorithm Algorithm, score float64) bool {
	if algorithm.IsLexical() {
		return score >= d.thresholds.Lexical
	}
	return score >= d.thresholds.Semantic
}
