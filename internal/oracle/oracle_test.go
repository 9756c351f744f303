package oracle_test

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"finsim/internal/oracle"
	"finsim/internal/oracle/oracletest"
	"finsim/internal/ratemap"
	"finsim/internal/treeseq"
)

func request(length int, seed uint64, rho float64) oracle.GenealogyRequest {
	return oracle.GenealogyRequest{Length: length, Seed: seed, Population: treeseq.DefaultPopulation(), RecombinationRate: rho}
}

func uniform(n int, v float64) ratemap.Profile {
	raw := make([]float64, n)
	for i := range raw {
		raw[i] = v
	}
	return ratemap.Scale(raw)
}

func TestClientDeterministic(t *testing.T) {
	ctx := context.Background()
	run := func() (*treeseq.TreeSequence, *treeseq.Dataset) {
		c := oracletest.NewOracle()
		ts, err := c.SimulateGenealogy(ctx, request(200, 42, 0.05))
		if err != nil {
			t.Fatalf("simulate: %v", err)
		}
		ds, err := c.ApplyMutations(ctx, ts, treeseq.FlipModel(), uniform(200, 50))
		if err != nil {
			t.Fatalf("mutate: %v", err)
		}
		return ts, ds
	}
	ts1, ds1 := run()
	ts2, ds2 := run()
	if !reflect.DeepEqual(ts1, ts2) || !reflect.DeepEqual(ds1, ds2) {
		t.Fatalf("same seed produced different replicates")
	}
	if ts1.NumTrees() < 2 {
		t.Fatalf("expected recombination to split the region, got %d trees", ts1.NumTrees())
	}
	if ds1.NumMutations() == 0 {
		t.Fatalf("expected mutations at high rate")
	}
}

func TestClientNoRecombinationSingleTree(t *testing.T) {
	ts, err := oracletest.NewOracle().SimulateGenealogy(context.Background(), request(10, 7, 0))
	if err != nil {
		t.Fatalf("simulate: %v", err)
	}
	if ts.NumTrees() != 1 || ts.Trees[0].Left != 0 || ts.Trees[0].Right != 10 {
		t.Fatalf("want one tree over [0,10), got %+v", ts.Trees)
	}
}

func TestClientZeroRatesNoMutations(t *testing.T) {
	ctx := context.Background()
	c := oracletest.NewOracle()
	ts, err := c.SimulateGenealogy(ctx, request(10, 3, 0))
	if err != nil {
		t.Fatalf("simulate: %v", err)
	}
	ds, err := c.ApplyMutations(ctx, ts, treeseq.FlipModel(), uniform(10, 0))
	if err != nil {
		t.Fatalf("mutate: %v", err)
	}
	if ds.NumMutations() != 0 || len(ds.Sites) != 0 {
		t.Fatalf("want no mutations, got %d over %d sites", ds.NumMutations(), len(ds.Sites))
	}
	if ds.NumSamples != 80 {
		t.Fatalf("NumSamples=%d", ds.NumSamples)
	}
}

func TestClientRejectsParameters(t *testing.T) {
	stub := oracletest.New()
	c := oracle.NewClient(stub)
	for name, req := range map[string]oracle.GenealogyRequest{
		"zero-length":   request(0, 1, 0),
		"negative-rate": request(10, 1, -0.5),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := c.SimulateGenealogy(context.Background(), req)
			if !errors.Is(err, oracle.ErrSimulation) {
				t.Fatalf("want ErrSimulation, got %v", err)
			}
		})
	}
	if n := stub.Calls(oracle.OpSimulate); n != 0 {
		t.Fatalf("invalid requests reached the engine %d times", n)
	}
}

func TestClientRateMapMismatch(t *testing.T) {
	ctx := context.Background()
	c := oracletest.NewOracle()
	ts, err := c.SimulateGenealogy(ctx, request(10, 1, 0))
	if err != nil {
		t.Fatalf("simulate: %v", err)
	}
	_, err = c.ApplyMutations(ctx, ts, treeseq.FlipModel(), uniform(9, 1))
	var se *oracle.SimulationError
	if !errors.As(err, &se) || se.Op != oracle.OpMutate {
		t.Fatalf("want mutate SimulationError, got %v", err)
	}
}

func TestClientRejectsModel(t *testing.T) {
	ctx := context.Background()
	c := oracletest.NewOracle()
	ts, _ := c.SimulateGenealogy(ctx, request(5, 1, 0))
	m := treeseq.FlipModel()
	m.RootDistribution = []float64{0, 1}
	if _, err := c.ApplyMutations(ctx, ts, m, uniform(5, 1)); !errors.Is(err, oracle.ErrSimulation) {
		t.Fatalf("want ErrSimulation, got %v", err)
	}
}

type scripted struct {
	resp oracle.Response
	err  error
}

func (s scripted) Call(context.Context, oracle.Request) (oracle.Response, error) {
	return s.resp, s.err
}

func TestClientResponseChecks(t *testing.T) {
	ctx := context.Background()
	good := &treeseq.TreeSequence{SequenceLength: 4, NumSamples: 80, Trees: []treeseq.Tree{{Left: 0, Right: 4, RootTime: 1}}}
	cases := map[string]scripted{
		"engine-error":   {resp: oracle.Response{Error: "boom"}},
		"transport":      {err: errors.New("broken pipe")},
		"empty":          {resp: oracle.Response{}},
		"wrong-length":   {resp: oracle.Response{TreeSequence: &treeseq.TreeSequence{SequenceLength: 3, NumSamples: 80, Trees: good.Trees[:0]}}},
		"wrong-samples":  {resp: oracle.Response{TreeSequence: &treeseq.TreeSequence{SequenceLength: 4, NumSamples: 2, Trees: good.Trees}}},
		"bad-tree-range": {resp: oracle.Response{TreeSequence: &treeseq.TreeSequence{SequenceLength: 4, NumSamples: 80, Trees: []treeseq.Tree{{Left: 0, Right: 5}}}}},
	}
	for name, tr := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := oracle.NewClient(tr).SimulateGenealogy(ctx, request(4, 1, 0))
			if !errors.Is(err, oracle.ErrSimulation) {
				t.Fatalf("want ErrSimulation, got %v", err)
			}
		})
	}

	bad := scripted{resp: oracle.Response{Dataset: &treeseq.Dataset{NumSamples: 80, Sites: []treeseq.Site{{Position: 1, Genotypes: []int{1}}}}}}
	if _, err := oracle.NewClient(bad).ApplyMutations(ctx, good, treeseq.FlipModel(), uniform(4, 1)); !errors.Is(err, oracle.ErrSimulation) {
		t.Fatalf("want ErrSimulation for short genotype vector, got %v", err)
	}
}

func TestClientCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := oracletest.NewOracle().SimulateGenealogy(ctx, request(4, 1, 0))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled, got %v", err)
	}
}
