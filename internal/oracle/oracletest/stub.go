// Package oracletest provides a deterministic stand-in for the simulation
// engines. It is a Transport, so it can be wrapped in oracle.Client in process
// or served over the wire protocol with Serve and Handler.
//
// The stub draws a coalescent tree height per recombination interval under the
// requested population size and exponential growth, and drops
// Poisson(rate*branch length) flip mutations on sample branches. It is
// reproducible for a given seed and nothing more.
package oracletest

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"strconv"
	"strings"
	"sync"

	"finsim/internal/oracle"
	"finsim/internal/treeseq"
)

const handlePrefix = "stub:"

// Stub answers oracle requests without an external engine.
type Stub struct {
	mu    sync.Mutex
	calls map[string]int
}

func New() *Stub { return &Stub{calls: map[string]int{}} }

// Calls reports how many requests of op were answered.
func (s *Stub) Calls(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

// NewOracle wraps a fresh Stub in the validating client.
func NewOracle() *oracle.Client { return oracle.NewClient(New()) }

func (s *Stub) Call(ctx context.Context, req oracle.Request) (oracle.Response, error) {
	if err := ctx.Err(); err != nil {
		return oracle.Response{}, err
	}
	s.mu.Lock()
	s.calls[req.Op]++
	s.mu.Unlock()
	resp := oracle.Response{ID: req.ID}
	var err error
	switch req.Op {
	case oracle.OpSimulate:
		if req.Genealogy == nil {
			err = fmt.Errorf("simulate: missing genealogy")
			break
		}
		resp.TreeSequence, err = simulate(*req.Genealogy)
	case oracle.OpMutate:
		if req.TreeSequence == nil || req.Model == nil || req.RateMap == nil {
			err = fmt.Errorf("mutate: missing tree sequence, model or rate map")
			break
		}
		resp.Dataset, err = mutate(req.TreeSequence, *req.Model, *req.RateMap)
	default:
		err = fmt.Errorf("unknown op %q", req.Op)
	}
	if err != nil {
		resp.Error = err.Error()
	}
	return resp, nil
}

func simulate(g oracle.GenealogyRequest) (*treeseq.TreeSequence, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	rng := rand.New(rand.NewPCG(g.Seed, 0x9e3779b97f4a7c15))
	n := g.Population.SampleSize
	pBreak := 1 - math.Exp(-g.RecombinationRate)

	ts := &treeseq.TreeSequence{SequenceLength: float64(g.Length), NumSamples: n, Handle: handlePrefix + strconv.FormatUint(g.Seed, 10)}
	left := 0
	for pos := 1; pos <= g.Length; pos++ {
		if pos < g.Length && rng.Float64() >= pBreak {
			continue
		}
		h, err := treeHeight(rng, g.Population)
		if err != nil {
			return nil, err
		}
		ts.Trees = append(ts.Trees, treeseq.Tree{
			Left:     float64(left),
			Right:    float64(pos),
			Root:     2*n - 2 + len(ts.Trees),
			RootTime: h,
		})
		left = pos
	}
	return ts, nil
}

// treeHeight sums coalescence waiting times, in generations, from SampleSize
// lineages down to one. Size is InitialSize*exp(-GrowthRate*t) going back in
// time and k lineages coalesce at rate C(k,2)/(2*size).
func treeHeight(rng *rand.Rand, pop treeseq.Population) (float64, error) {
	n0, g := pop.InitialSize, pop.GrowthRate
	var t float64
	for k := pop.SampleSize; k > 1; k-- {
		e := rng.ExpFloat64() / float64(k*(k-1)/2)
		if g == 0 {
			t += 2 * n0 * e
			continue
		}
		x := 2 * n0 * g * e * math.Exp(-g*t)
		if x <= -1 {
			return 0, fmt.Errorf("%d lineages never coalesce under growth rate %g", k, g)
		}
		t += math.Log1p(x) / g
	}
	return t, nil
}

func mutate(ts *treeseq.TreeSequence, model treeseq.MutationModel, rm oracle.RateMap) (*treeseq.Dataset, error) {
	if err := model.Validate(); err != nil {
		return nil, err
	}
	if err := rm.Validate(); err != nil {
		return nil, err
	}
	seed, err := seedFromHandle(ts.Handle)
	if err != nil {
		return nil, err
	}
	rng := rand.New(rand.NewPCG(seed, 0x6d75746174696f6e))
	n := ts.NumSamples
	ds := &treeseq.Dataset{NumSamples: n}
	for _, tr := range ts.Trees {
		branch := float64(n) * tr.RootTime
		for pos := math.Ceil(tr.Left); pos < tr.Right; pos++ {
			k := poisson(rng, rm.RateAt(pos)*branch)
			if k == 0 {
				continue
			}
			site := treeseq.Site{Position: pos, AncestralState: model.Alleles[0], Genotypes: make([]int, n)}
			for i := 0; i < k; i++ {
				node := rng.IntN(n)
				site.Genotypes[node] = 1 - site.Genotypes[node]
				site.Mutations = append(site.Mutations, treeseq.Mutation{Node: node, DerivedState: model.Alleles[site.Genotypes[node]]})
			}
			ds.Sites = append(ds.Sites, site)
		}
	}
	return ds, nil
}

func seedFromHandle(h string) (uint64, error) {
	if !strings.HasPrefix(h, handlePrefix) {
		return 0, fmt.Errorf("tree sequence handle %q was not issued by this engine", h)
	}
	return strconv.ParseUint(strings.TrimPrefix(h, handlePrefix), 10, 64)
}

func poisson(rng *rand.Rand, lambda float64) int {
	switch {
	case lambda <= 0:
		return 0
	case lambda > 30:
		return max(0, int(math.Round(lambda+math.Sqrt(lambda)*rng.NormFloat64())))
	}
	l := math.Exp(-lambda)
	k, p := 0, 1.0
	for {
		p *= rng.Float64()
		if p <= l {
			return k
		}
		k++
	}
}
