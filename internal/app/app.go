// internal/app/app.go
package app

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"time"

	"finsim/internal/appshell"
	"finsim/internal/cli"
	"finsim/internal/cmdutil"
	"finsim/internal/metrics"
	"finsim/internal/oracle"
	"finsim/internal/oracle/oracletest"
	"finsim/internal/output"
	"finsim/internal/pipeline"
	"finsim/internal/publish"
	"finsim/internal/ratemap"
	"finsim/internal/results"
	"finsim/internal/treeseq"
	"finsim/internal/version"
)

// Exit codes.
const (
	ExitOK       = 0
	ExitUsage    = 2
	ExitRuntime  = 3
	ExitCanceled = appshell.ExitCanceled
)

func RunContext(parent context.Context, argv []string, stdout, stderr io.Writer) int {
	outw := bufio.NewWriter(stdout)
	defer func() { _ = outw.Flush() }()

	fs := cli.NewFlagSet("finsim")
	fs.SetOutput(io.Discard)

	opts, err := cli.ParseArgs(fs, argv)
	if err != nil {
		code := ExitOK
		if !errors.Is(err, flag.ErrHelp) {
			_, _ = fmt.Fprintln(stderr, err)
			code = ExitUsage
		}
		fs.SetOutput(outw)
		fs.Usage()
		if e := outw.Flush(); e != nil && !output.IsBrokenPipe(e) {
			_, _ = fmt.Fprintln(stderr, e)
			return ExitRuntime
		}
		return code
	}
	if opts.Version {
		_, _ = fmt.Fprintf(outw, "finsim version %s\n", version.Version)
		return ExitOK
	}

	level := cmdutil.LevelWarn
	switch {
	case opts.Quiet:
		level = cmdutil.LevelQuiet
	case opts.Verbose:
		level = cmdutil.LevelDebug
	}
	log := cmdutil.NewLogger(stderr, level)

	d := &pipeline.Driver{Log: log, OracleTimeout: opts.OracleTimeout}
	orc, closeOracle, err := openOracle(parent, opts)
	if err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return exitCode(parent, err)
	}
	defer closeOracle()
	d.Oracle = orc

	if opts.ResultsDB != "" {
		db, err := results.Open(parent, opts.ResultsDB)
		if err != nil {
			_, _ = fmt.Fprintln(stderr, err)
			return exitCode(parent, err)
		}
		defer db.Close()
		d.Ledger = db
	}
	if opts.Publish != "" {
		st, prefix, err := publish.Open(parent, opts.Publish)
		if err != nil {
			_, _ = fmt.Fprintln(stderr, err)
			return exitCode(parent, err)
		}
		d.Publisher = &publish.Publisher{Store: st, Prefix: prefix}
	}
	var rec *metrics.Recorder
	if opts.MetricsTextfile != "" {
		rec = metrics.New()
		d.Observe = func(s pipeline.State, took time.Duration) { rec.Stage(string(s), took) }
	}

	seed := uint64(opts.Seed)
	if opts.Seed < 0 {
		seed = pipeline.DrawSeed()
	}
	log.Debugf("seed %d, recombination rate %v, rate map %s", seed, opts.RecombinationRate, opts.RateMap)

	cfg := pipeline.Config{
		RateMap:           opts.RateMap,
		RecombinationRate: opts.RecombinationRate,
		Seed:              seed,
		Population:        treeseq.DefaultPopulation(),
		Paths: pipeline.Paths{
			Sequences: opts.Sequences,
			Reference: opts.Reference,
			Stats:     opts.Stats,
		},
		StatsNewline: opts.StatsNewline,
	}
	res, runErr := d.Run(parent, cfg)

	if rec != nil {
		rec.Finish(string(res.State), time.Now())
		if runErr == nil {
			rec.Replicate(res.Record, res.Sites)
		}
		if err := rec.WriteTextfile(opts.MetricsTextfile); err != nil {
			log.Warnf("metrics textfile: %v", err)
		}
	}
	if opts.JSON {
		err := encodePretty(outw, summarize(cfg, res, runErr))
		if err == nil {
			err = outw.Flush()
		}
		if err != nil && !output.IsBrokenPipe(err) {
			log.Warnf("summary: %v", err)
		}
	}
	if runErr != nil {
		_, _ = fmt.Fprintln(stderr, runErr)
		return exitCode(parent, runErr)
	}
	return ExitOK
}

func Run(argv []string, stdout, stderr io.Writer) int {
	return RunContext(context.Background(), argv, stdout, stderr)
}

// openOracle builds the selected backend and a func releasing it.
func openOracle(ctx context.Context, opts cli.Options) (oracle.Oracle, func(), error) {
	switch opts.Oracle {
	case cli.OracleStub:
		return oracletest.NewOracle(), func() {}, nil
	case cli.OracleWS:
		dctx, cancel := ctx, context.CancelFunc(func() {})
		if opts.OracleTimeout > 0 {
			dctx, cancel = context.WithTimeout(ctx, opts.OracleTimeout)
		}
		defer cancel()
		t, err := oracle.DialWS(dctx, opts.OracleURL, nil)
		if err != nil {
			return nil, nil, &oracle.SimulationError{Op: "dial", Err: err}
		}
		return oracle.NewClient(t), func() { _ = t.Close() }, nil
	default:
		t, err := oracle.NewExecTransport(opts.OracleCmd[0], opts.OracleCmd[1:]...)
		if err != nil {
			return nil, nil, err
		}
		return oracle.NewClient(t), func() { _ = t.Close() }, nil
	}
}

// exitCode maps the error taxonomy onto process exit codes. Cancellation is
// judged on parent so that an oracle deadline stays a runtime failure.
func exitCode(parent context.Context, err error) int {
	var se *pipeline.StepError
	switch {
	case err == nil:
		return ExitOK
	case parent.Err() != nil:
		return ExitCanceled
	case errors.Is(err, ratemap.ErrMalformedRateFile):
		return ExitUsage
	case errors.As(err, &se) && se.From == pipeline.StateStart:
		return ExitUsage // unreadable rate map
	default:
		return ExitRuntime
	}
}
