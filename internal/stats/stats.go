// Package stats derives the per-replicate summary record from a genealogy and
// its mutated dataset.
package stats

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"finsim/internal/treeseq"
)

// TimeScale converts oracle root times (generations) to the reported unit.
const TimeScale = 8.4

// ErrEmptyTreeSequence is returned when there is no tree to average over.
var ErrEmptyTreeSequence = errors.New("tree sequence has no trees")

// Record is one replicate's summary line.
type Record struct {
	Seed             uint64  `json:"seed"`
	TreeCount        int     `json:"tree_count"`
	MeanTMRCA        float64 `json:"mean_scaled_tmrca"`
	TotalMutations   int     `json:"total_mutations"`
	SegregatingSites int     `json:"segregating_sites"`
}

// Fields renders the record in column order.
func (r Record) Fields() []string {
	return []string{
		strconv.FormatUint(r.Seed, 10),
		strconv.Itoa(r.TreeCount),
		FormatFloat(r.MeanTMRCA),
		strconv.Itoa(r.TotalMutations),
		strconv.Itoa(r.SegregatingSites),
	}
}

// FormatFloat renders f with shortest round-trip digits, a trailing ".0" on
// integral values, and exponent form below 1e-4 or from 1e16 up. Existing
// data_props.txt files use this format.
func FormatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	e := strconv.FormatFloat(f, 'e', -1, 64)
	if f != 0 {
		x, _ := strconv.Atoi(e[strings.IndexByte(e, 'e')+1:])
		if x < -4 || x >= 16 {
			return e
		}
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsRune(s, '.') {
		s += ".0"
	}
	return s
}

// Line is "seed tree_count mean_scaled_TMRCA total_mutations segregating_sites"
// with no terminator.
func (r Record) Line() string { return strings.Join(r.Fields(), " ") }

// CountSegregating counts sites with at least one mutation event. Under the
// flip model every event changes state, so no allele comparison is needed.
func CountSegregating(ds *treeseq.Dataset) int {
	if ds == nil {
		return 0
	}
	n := 0
	for _, s := range ds.Sites {
		if s.Segregating() {
			n++
		}
	}
	return n
}

// MeanScaledTMRCA averages RootTime*TimeScale over every tree.
func MeanScaledTMRCA(ts *treeseq.TreeSequence) (float64, error) {
	n := ts.NumTrees()
	if n == 0 {
		return 0, ErrEmptyTreeSequence
	}
	var sum float64
	for _, t := range ts.Trees {
		sum += t.RootTime * TimeScale
	}
	return sum / float64(n), nil
}

// Compute merges the caller's seed and segregating count with the statistics
// read off ts and ds.
func Compute(ts *treeseq.TreeSequence, ds *treeseq.Dataset, seed uint64, segregating int) (Record, error) {
	mean, err := MeanScaledTMRCA(ts)
	if err != nil {
		return Record{}, err
	}
	return Record{
		Seed:             seed,
		TreeCount:        ts.NumTrees(),
		MeanTMRCA:        mean,
		TotalMutations:   ds.NumMutations(),
		SegregatingSites: segregating,
	}, nil
}
