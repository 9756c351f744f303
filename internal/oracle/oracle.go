package oracle

import (
	"context"
	"errors"
	"fmt"
	"math"

	"finsim/internal/ratemap"
	"finsim/internal/treeseq"
)

// ErrSimulation marks a rejected or failed oracle call.
var ErrSimulation = errors.New("simulation failed")

// SimulationError names the oracle operation that failed.
type SimulationError struct {
	Op  string
	Err error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Op, ErrSimulation, e.Err)
}

func (e *SimulationError) Unwrap() []error { return []error{ErrSimulation, e.Err} }

func simErr(op string, format string, a ...any) error {
	return &SimulationError{Op: op, Err: fmt.Errorf(format, a...)}
}

// Operation names, also used as protocol ops.
const (
	OpSimulate = "simulate"
	OpMutate   = "mutate"
)

// GenealogyRequest parameterises one coalescent simulation.
type GenealogyRequest struct {
	Length            int                `json:"length"`
	Seed              uint64             `json:"seed"`
	Population        treeseq.Population `json:"population"`
	RecombinationRate float64            `json:"recombination_rate"`
}

// Validate rejects parameters no engine can simulate.
func (g GenealogyRequest) Validate() error {
	switch {
	case g.Length < 1:
		return fmt.Errorf("sequence length %d must be >= 1", g.Length)
	case g.RecombinationRate < 0 || math.IsNaN(g.RecombinationRate) || math.IsInf(g.RecombinationRate, 0):
		return fmt.Errorf("recombination rate %v must be finite and >= 0", g.RecombinationRate)
	case g.Population.SampleSize < 2:
		return fmt.Errorf("sample size %d must be >= 2", g.Population.SampleSize)
	case !(g.Population.InitialSize > 0):
		return fmt.Errorf("initial population size %v must be > 0", g.Population.InitialSize)
	}
	return nil
}

// Oracle produces genealogies and mutates them.
type Oracle interface {
	SimulateGenealogy(ctx context.Context, req GenealogyRequest) (*treeseq.TreeSequence, error)
	ApplyMutations(ctx context.Context, ts *treeseq.TreeSequence, model treeseq.MutationModel, profile ratemap.Profile) (*treeseq.Dataset, error)
}

// Transport delivers one protocol request to an engine and returns its reply.
type Transport interface {
	Call(ctx context.Context, req Request) (Response, error)
}

// Client is the Oracle every transport is wrapped in.
type Client struct {
	t Transport
}

var _ Oracle = (*Client)(nil)

func NewClient(t Transport) *Client { return &Client{t: t} }

func (c *Client) SimulateGenealogy(ctx context.Context, req GenealogyRequest) (*treeseq.TreeSequence, error) {
	if err := req.Validate(); err != nil {
		return nil, &SimulationError{Op: OpSimulate, Err: err}
	}
	resp, err := c.call(ctx, Request{Op: OpSimulate, Genealogy: &req})
	if err != nil {
		return nil, err
	}
	ts := resp.TreeSequence
	if ts == nil {
		return nil, simErr(OpSimulate, "response carries no tree sequence")
	}
	if err := ts.Validate(); err != nil {
		return nil, &SimulationError{Op: OpSimulate, Err: err}
	}
	if ts.SequenceLength != float64(req.Length) {
		return nil, simErr(OpSimulate, "tree sequence length %g, requested %d", ts.SequenceLength, req.Length)
	}
	if ts.NumSamples != req.Population.SampleSize {
		return nil, simErr(OpSimulate, "tree sequence has %d samples, requested %d", ts.NumSamples, req.Population.SampleSize)
	}
	return ts, nil
}

func (c *Client) ApplyMutations(ctx context.Context, ts *treeseq.TreeSequence, model treeseq.MutationModel, profile ratemap.Profile) (*treeseq.Dataset, error) {
	if ts == nil {
		return nil, simErr(OpMutate, "nil tree sequence")
	}
	if err := model.Validate(); err != nil {
		return nil, &SimulationError{Op: OpMutate, Err: err}
	}
	rm := NewRateMap(profile)
	if err := rm.Validate(); err != nil {
		return nil, &SimulationError{Op: OpMutate, Err: err}
	}
	if end := rm.Position[len(rm.Position)-1]; end != ts.SequenceLength {
		return nil, simErr(OpMutate, "rate map ends at %g, tree sequence length is %g", end, ts.SequenceLength)
	}
	resp, err := c.call(ctx, Request{Op: OpMutate, TreeSequence: ts, Model: &model, RateMap: &rm})
	if err != nil {
		return nil, err
	}
	ds := resp.Dataset
	if ds == nil {
		return nil, simErr(OpMutate, "response carries no dataset")
	}
	if ds.NumSamples != ts.NumSamples {
		return nil, simErr(OpMutate, "dataset has %d samples, tree sequence has %d", ds.NumSamples, ts.NumSamples)
	}
	if err := ds.Validate(ts.SequenceLength, model.Alleles); err != nil {
		return nil, &SimulationError{Op: OpMutate, Err: err}
	}
	return ds, nil
}

func (c *Client) call(ctx context.Context, req Request) (Response, error) {
	resp, err := c.t.Call(ctx, req)
	if err != nil {
		if ctx.Err() != nil {
			return Response{}, ctx.Err()
		}
		return Response{}, &SimulationError{Op: req.Op, Err: err}
	}
	if resp.Error != "" {
		return Response{}, &SimulationError{Op: req.Op, Err: errors.New(resp.Error)}
	}
	return resp, nil
}
