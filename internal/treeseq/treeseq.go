// Package treeseq holds the genealogy and mutation types exchanged with the
// simulation oracle. Values are produced by an oracle and are read-only for
// every consumer downstream of it.
package treeseq

import (
	"errors"
	"fmt"
	"strings"
)

// Population describes the single growing population samples are drawn from.
type Population struct {
	SampleSize  int     `json:"sample_size"`
	InitialSize float64 `json:"initial_size"`
	GrowthRate  float64 `json:"growth_rate"`
}

// DefaultPopulation is the fixed configuration every replicate is simulated under.
func DefaultPopulation() Population {
	return Population{SampleSize: 80, InitialSize: 1_000_000, GrowthRate: 1.5}
}

// Tree is one marginal genealogy covering [Left, Right).
type Tree struct {
	Left     float64 `json:"left"`
	Right    float64 `json:"right"`
	Root     int     `json:"root"`
	RootTime float64 `json:"root_time"`
}

// TreeSequence is the oracle's genealogy for the simulated region. Handle is
// opaque to everything except the oracle that issued it.
type TreeSequence struct {
	SequenceLength float64 `json:"sequence_length"`
	NumSamples     int     `json:"num_samples"`
	Trees          []Tree  `json:"trees"`
	Handle         string  `json:"handle,omitempty"`
}

func (ts *TreeSequence) NumTrees() int {
	if ts == nil {
		return 0
	}
	return len(ts.Trees)
}

// Validate checks that trees are ordered, non-overlapping and inside the region.
func (ts *TreeSequence) Validate() error {
	if ts == nil {
		return errors.New("nil tree sequence")
	}
	if ts.NumSamples < 1 {
		return fmt.Errorf("tree sequence has %d samples", ts.NumSamples)
	}
	prev := 0.0
	for i, t := range ts.Trees {
		if t.Left < prev || t.Right <= t.Left || t.Right > ts.SequenceLength {
			return fmt.Errorf("tree %d spans [%g,%g) outside [%g,%g)", i, t.Left, t.Right, prev, ts.SequenceLength)
		}
		if t.RootTime < 0 {
			return fmt.Errorf("tree %d has negative root time %g", i, t.RootTime)
		}
		prev = t.Right
	}
	return nil
}

// Mutation is a single substitution event above Node.
type Mutation struct {
	Node         int    `json:"node"`
	DerivedState string `json:"derived_state"`
}

// Site is a position that carries at least one mutation record slot.
// Genotypes holds one allele index per sample.
type Site struct {
	Position       float64    `json:"position"`
	AncestralState string     `json:"ancestral_state"`
	Mutations      []Mutation `json:"mutations"`
	Genotypes      []int      `json:"genotypes"`
}

// Segregating reports whether at least one mutation landed on the site.
func (s Site) Segregating() bool { return len(s.Mutations) > 0 }

// Dataset is the mutated tree sequence returned by the mutation step.
type Dataset struct {
	NumSamples int    `json:"num_samples"`
	Sites      []Site `json:"sites"`
}

// NumMutations is the total number of mutation events over all sites.
func (d *Dataset) NumMutations() int {
	if d == nil {
		return 0
	}
	n := 0
	for _, s := range d.Sites {
		n += len(s.Mutations)
	}
	return n
}

// Validate checks genotype widths, allele indices and site ordering.
func (d *Dataset) Validate(length float64, alleles []string) error {
	if d == nil {
		return errors.New("nil dataset")
	}
	prev := -1.0
	for i, s := range d.Sites {
		if s.Position < 0 || s.Position >= length {
			return fmt.Errorf("site %d at %g outside [0,%g)", i, s.Position, length)
		}
		if s.Position <= prev {
			return fmt.Errorf("site %d at %g is not after %g", i, s.Position, prev)
		}
		prev = s.Position
		if len(s.Genotypes) != d.NumSamples {
			return fmt.Errorf("site %d has %d genotypes, want %d", i, len(s.Genotypes), d.NumSamples)
		}
		for _, g := range s.Genotypes {
			if g < 0 || g >= len(alleles) {
				return fmt.Errorf("site %d has allele index %d outside %d alleles", i, g, len(alleles))
			}
		}
	}
	return nil
}

// Haplotype renders the allele calls of one sample across all sites.
func (d *Dataset) Haplotype(sample int, alleles []string) string {
	var b strings.Builder
	b.Grow(len(d.Sites))
	for _, s := range d.Sites {
		b.WriteString(alleles[s.Genotypes[sample]])
	}
	return b.String()
}
