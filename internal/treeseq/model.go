package treeseq

import "fmt"

// Allele symbols of the two-state model.
const (
	Ancestral = "A"
	Derived   = "G"
)

// MutationModel is a finite-state substitution model in matrix form.
type MutationModel struct {
	Alleles          []string    `json:"alleles"`
	RootDistribution []float64   `json:"root_distribution"`
	TransitionMatrix [][]float64 `json:"transition_matrix"`
}

// FlipModel is the strict two-state model: every event swaps the allele and
// the root is always Ancestral, so any mutation is visible against the reference.
func FlipModel() MutationModel {
	return MutationModel{
		Alleles:          []string{Ancestral, Derived},
		RootDistribution: []float64{1, 0},
		TransitionMatrix: [][]float64{{0, 1}, {1, 0}},
	}
}

// Validate accepts only the two-state flip model.
func (m MutationModel) Validate() error {
	want := FlipModel()
	if len(m.Alleles) != 2 || m.Alleles[0] != want.Alleles[0] || m.Alleles[1] != want.Alleles[1] {
		return fmt.Errorf("alleles %v: only %v is supported", m.Alleles, want.Alleles)
	}
	if len(m.RootDistribution) != 2 || m.RootDistribution[0] != 1 || m.RootDistribution[1] != 0 {
		return fmt.Errorf("root distribution %v: must place all mass on %s", m.RootDistribution, Ancestral)
	}
	if len(m.TransitionMatrix) != 2 {
		return fmt.Errorf("transition matrix has %d rows, want 2", len(m.TransitionMatrix))
	}
	for i, row := range m.TransitionMatrix {
		if len(row) != 2 || row[i] != 0 || row[1-i] != 1 {
			return fmt.Errorf("transition matrix row %d = %v: only the symmetric flip is supported", i, row)
		}
	}
	return nil
}
