// internal/pipeline/pipeline.go
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"finsim/internal/cmdutil"
	"finsim/internal/oracle"
	"finsim/internal/output"
	"finsim/internal/publish"
	"finsim/internal/ratemap"
	"finsim/internal/results"
	"finsim/internal/stats"
	"finsim/internal/treeseq"
)

// Paths are the three output files of a replicate.
type Paths struct {
	Sequences string `json:"sequences"`
	Reference string `json:"reference"`
	Stats     string `json:"stats"`
}

// DefaultPaths places the standard file names in dir.
func DefaultPaths(dir string) Paths {
	return Paths{
		Sequences: filepath.Join(dir, output.SequencesFile),
		Reference: filepath.Join(dir, output.ReferenceFile),
		Stats:     filepath.Join(dir, output.StatsFile),
	}
}

// Config fixes every input of one replicate.
type Config struct {
	RateMap           string
	RecombinationRate float64
	Seed              uint64
	Population        treeseq.Population
	Paths             Paths
	StatsNewline      bool // terminate the appended record with "\n"
}

// Ledger stores finished replicates.
type Ledger interface {
	Insert(ctx context.Context, row results.Row) error
}

// Publisher copies output files elsewhere once they are written.
type Publisher interface {
	Files(ctx context.Context, runID string, paths ...string) ([]publish.Info, error)
}

// Driver runs replicates against an Oracle.
type Driver struct {
	Oracle    oracle.Oracle
	Ledger    Ledger    // optional
	Publisher Publisher // optional
	// OracleTimeout bounds each oracle call; zero means no deadline.
	OracleTimeout time.Duration
	// Observe is called after every transition with the time the step took.
	Observe func(State, time.Duration)
	Log     *cmdutil.Logger
	Now     func() time.Time
}

// Result describes how far a run got and what it produced.
type Result struct {
	RunID     uuid.UUID
	Seed      uint64
	State     State
	Trace     []State
	Sites     int
	Record    stats.Record
	Published []publish.Info
}

type run struct {
	d     *Driver
	res   *Result
	since time.Time
}

func (r *run) advance(to State) error {
	if err := Transition(r.res.State, to); err != nil {
		return err
	}
	now := r.d.now()
	r.d.Log.Debugf("run %s: %s -> %s (%s)", r.res.RunID, r.res.State, to, now.Sub(r.since))
	if r.d.Observe != nil {
		r.d.Observe(to, now.Sub(r.since))
	}
	r.res.State = to
	r.res.Trace = append(r.res.Trace, to)
	r.since = now
	return nil
}

func (r *run) fail(err error) error {
	from := r.res.State
	_ = r.advance(StateFailed)
	return &StepError{From: from, Err: err}
}

func (d *Driver) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

// Run executes one replicate. The returned Result is meaningful on error too:
// State is FAILED and Trace shows the last state reached.
func (d *Driver) Run(ctx context.Context, cfg Config) (Result, error) {
	res := Result{RunID: uuid.New(), Seed: cfg.Seed, State: StateStart, Trace: []State{StateStart}}
	r := &run{d: d, res: &res, since: d.now()}
	if d.Oracle == nil {
		return res, r.fail(errors.New("no simulation oracle configured"))
	}

	var (
		profile ratemap.Profile
		ts      *treeseq.TreeSequence
		ds      *treeseq.Dataset
		model   = treeseq.FlipModel()
	)
	// steps[s] does the work that leads into state s.
	steps := map[State]func() error{
		StateRateLoaded: func() (err error) {
			profile, err = ratemap.Load(cfg.RateMap)
			res.Sites = profile.Len()
			return err
		},
		StateGenealogySimulated: func() (err error) {
			octx, cancel := d.oracleContext(ctx)
			defer cancel()
			ts, err = d.Oracle.SimulateGenealogy(octx, oracle.GenealogyRequest{
				Length:            profile.Len(),
				Seed:              cfg.Seed,
				Population:        cfg.Population,
				RecombinationRate: cfg.RecombinationRate,
			})
			return err
		},
		StateMutationsApplied: func() (err error) {
			octx, cancel := d.oracleContext(ctx)
			defer cancel()
			ds, err = d.Oracle.ApplyMutations(octx, ts, model, profile)
			return err
		},
		StateStatsComputed: func() (err error) {
			res.Record, err = stats.Compute(ts, ds, cfg.Seed, stats.CountSegregating(ds))
			return err
		},
		StateOutputsWritten: func() error {
			return d.writeOutputs(ctx, cfg, &res, ds, model)
		},
	}

	for !IsTerminal(res.State) {
		to, ok := Next(res.State)
		if !ok {
			return res, r.fail(fmt.Errorf("no successor of %s", res.State))
		}
		if err := steps[to](); err != nil {
			return res, r.fail(err)
		}
		if err := r.advance(to); err != nil {
			return res, err
		}
	}
	rec := res.Record
	d.Log.Infof("run %s: seed=%d trees=%d mutations=%d segregating=%d",
		res.RunID, rec.Seed, rec.TreeCount, rec.TotalMutations, rec.SegregatingSites)
	return res, nil
}

// oracleContext bounds a single oracle call by OracleTimeout.
func (d *Driver) oracleContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if d.OracleTimeout > 0 {
		return context.WithTimeout(ctx, d.OracleTimeout)
	}
	return ctx, func() {}
}

func (d *Driver) writeOutputs(ctx context.Context, cfg Config, res *Result, ds *treeseq.Dataset, model treeseq.MutationModel) error {
	p := cfg.Paths
	if err := output.WriteSequencesFile(p.Sequences, ds, model.Alleles); err != nil {
		return err
	}
	if err := output.AppendStats(p.Stats, res.Record, cfg.StatsNewline); err != nil {
		return err
	}
	if err := output.WriteReferenceFile(p.Reference, res.Record.SegregatingSites); err != nil {
		return err
	}
	if d.Ledger != nil {
		row := results.Row{
			RunID:             res.RunID,
			Record:            res.Record,
			RecombinationRate: cfg.RecombinationRate,
			RateMap:           cfg.RateMap,
			Sites:             res.Sites,
			CreatedAt:         d.now(),
		}
		if err := d.Ledger.Insert(ctx, row); err != nil {
			return err
		}
	}
	if d.Publisher != nil {
		infos, err := d.Publisher.Files(ctx, res.RunID.String(), p.Sequences, p.Reference, p.Stats)
		res.Published = infos
		if err != nil {
			return err
		}
	}
	return nil
}
