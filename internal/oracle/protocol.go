package oracle

import (
	"fmt"
	"math"

	"finsim/internal/ratemap"
	"finsim/internal/treeseq"
)

// Request is one protocol message. Op selects which of the payload fields are set:
// OpSimulate uses Genealogy; OpMutate uses TreeSequence, Model and RateMap.
type Request struct {
	ID           uint64                 `json:"id,omitempty"`
	Op           string                 `json:"op"`
	Genealogy    *GenealogyRequest      `json:"genealogy,omitempty"`
	TreeSequence *treeseq.TreeSequence  `json:"tree_sequence,omitempty"`
	Model        *treeseq.MutationModel `json:"model,omitempty"`
	RateMap      *RateMap               `json:"rate_map,omitempty"`
}

// Response answers a Request with the same ID. A non-empty Error means the
// engine rejected the request.
type Response struct {
	ID           uint64                `json:"id,omitempty"`
	Error        string                `json:"error,omitempty"`
	TreeSequence *treeseq.TreeSequence `json:"tree_sequence,omitempty"`
	Dataset      *treeseq.Dataset      `json:"dataset,omitempty"`
}

// RateMap is a piecewise-constant rate: Rate[i] applies on [Position[i], Position[i+1]).
type RateMap struct {
	Position []float64 `json:"position"`
	Rate     []float64 `json:"rate"`
}

// NewRateMap maps each profile entry onto its unit-length site.
func NewRateMap(p ratemap.Profile) RateMap {
	rates := make([]float64, len(p.Rates))
	copy(rates, p.Rates)
	return RateMap{Position: p.Positions(), Rate: rates}
}

// Validate requires len(Position) == len(Rate)+1, strictly increasing
// positions starting at 0, and finite non-negative rates.
func (m RateMap) Validate() error {
	if len(m.Rate) == 0 {
		return fmt.Errorf("rate map is empty")
	}
	if len(m.Position) != len(m.Rate)+1 {
		return fmt.Errorf("rate map has %d positions for %d rates", len(m.Position), len(m.Rate))
	}
	if m.Position[0] != 0 {
		return fmt.Errorf("rate map starts at %g, want 0", m.Position[0])
	}
	for i, r := range m.Rate {
		if m.Position[i+1] <= m.Position[i] {
			return fmt.Errorf("rate map position %d (%g) not after %g", i+1, m.Position[i+1], m.Position[i])
		}
		if r < 0 || math.IsNaN(r) || math.IsInf(r, 0) {
			return fmt.Errorf("rate map rate %d = %v", i, r)
		}
	}
	return nil
}

// RateAt returns the rate of the interval containing x, or 0 outside the map.
func (m RateMap) RateAt(x float64) float64 {
	lo, hi := 0, len(m.Rate)
	for lo < hi {
		mid := (lo + hi) / 2
		switch {
		case x < m.Position[mid]:
			hi = mid
		case x >= m.Position[mid+1]:
			lo = mid + 1
		default:
			return m.Rate[mid]
		}
	}
	return 0
}
