// internal/cli/options.go
package cli

import (
	"errors"
	"flag"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"finsim/internal/cliutil"
	"finsim/internal/oracle"
	"finsim/internal/output"
)

// DefaultRateMap is read when no rate-map positional is given.
const DefaultRateMap = "mut_map.txt"

// Oracle backends.
const (
	OracleExec = "exec"
	OracleWS   = "ws"
	OracleStub = "stub"
)

const (
	EnvOracleCmd = "FINSIM_ORACLE_CMD"
	EnvResultsDB = "FINSIM_RESULTS_DB"
)

// Options holds all CLI flags and arguments.
type Options struct {
	RecombinationRate float64
	RateMap           string
	Seed              int64 // <0 draws one

	// Output
	OutDir       string
	Sequences    string
	Reference    string
	Stats        string
	StatsNewline bool

	// Oracle
	Oracle        string
	OracleCmd     []string
	OracleURL     string
	OracleTimeout time.Duration

	// Sinks
	ResultsDB       string
	Publish         string
	MetricsTextfile string

	JSON    bool // print a run summary on stdout
	Verbose bool
	Quiet   bool
	Version bool
}

// ParseArgs registers and parses all flags. Flags may follow positionals.
func ParseArgs(fs *flag.FlagSet, argv []string) (Options, error) {
	var opt Options
	var help bool
	var oracleCmd string

	fs.Int64Var(&opt.Seed, "seed", -1, "simulation seed (-1 = draw)")

	fs.StringVar(&opt.OutDir, "out-dir", ".", "output directory")
	fs.StringVar(&opt.Sequences, "sequences", "", "sample FASTA path")
	fs.StringVar(&opt.Reference, "reference", "", "reference FASTA path")
	fs.StringVar(&opt.Stats, "stats", "", "statistics path")
	fs.BoolVar(&opt.StatsNewline, "stats-newline", false, "newline-terminate statistics records")

	fs.StringVar(&opt.Oracle, "oracle", OracleExec, "simulation backend: exec | ws | stub")
	fs.StringVar(&oracleCmd, "oracle-cmd", envOr(EnvOracleCmd, oracle.DefaultWorker), "worker command")
	fs.StringVar(&opt.OracleURL, "oracle-url", "", "worker websocket URL")
	fs.DurationVar(&opt.OracleTimeout, "oracle-timeout", 0, "deadline for each oracle call (0 = none)")

	fs.StringVar(&opt.ResultsDB, "results-db", os.Getenv(EnvResultsDB), "replicate ledger")
	fs.StringVar(&opt.Publish, "publish", "", "publish target")
	fs.StringVar(&opt.MetricsTextfile, "metrics-textfile", "", "prometheus textfile path")

	fs.BoolVar(&opt.JSON, "json", false, "print a JSON run summary")
	fs.BoolVar(&opt.Verbose, "verbose", false, "debug logging")
	fs.BoolVar(&opt.Quiet, "quiet", false, "suppress warnings")
	fs.BoolVar(&opt.Quiet, "q", false, "alias of --quiet")
	fs.BoolVar(&opt.Version, "v", false, "print version and exit")
	fs.BoolVar(&opt.Version, "version", false, "print version and exit")
	fs.BoolVar(&help, "h", false, "show this help message")
	fs.BoolVar(&help, "help", false, "show this help message")

	flagArgs, pos := cliutil.SplitFlagsAndPositionals(fs, argv)
	if err := fs.Parse(flagArgs); err != nil {
		return opt, err
	}
	if help {
		return opt, flag.ErrHelp
	}
	if opt.Version {
		return opt, nil
	}
	pos = append(pos, fs.Args()...)

	switch len(pos) {
	case 0:
		return opt, errors.New("missing <recombination-rate>")
	case 1:
		opt.RateMap = DefaultRateMap
	case 2:
		opt.RateMap = pos[1]
	default:
		return opt, fmt.Errorf("too many arguments: %s", strings.Join(pos[2:], " "))
	}
	rho, err := strconv.ParseFloat(pos[0], 64)
	if err != nil || rho < 0 || math.IsNaN(rho) || math.IsInf(rho, 0) {
		return opt, fmt.Errorf("recombination rate %q must be a finite number ≥ 0", pos[0])
	}
	opt.RecombinationRate = rho

	if opt.OracleTimeout < 0 {
		return opt, errors.New("--oracle-timeout must be ≥ 0")
	}
	switch opt.Oracle {
	case OracleExec:
		opt.OracleCmd = strings.Fields(oracleCmd)
		if len(opt.OracleCmd) == 0 {
			return opt, errors.New("--oracle-cmd is empty")
		}
	case OracleWS:
		if !strings.HasPrefix(opt.OracleURL, "ws://") && !strings.HasPrefix(opt.OracleURL, "wss://") {
			return opt, errors.New("--oracle ws requires --oracle-url ws://... or wss://...")
		}
	case OracleStub:
	default:
		return opt, fmt.Errorf("invalid --oracle %q", opt.Oracle)
	}
	if strings.HasPrefix(opt.Publish, "memory:") {
		return opt, errors.New("--publish memory: keeps nothing after exit; use s3:// or a directory")
	}
	if opt.Verbose && opt.Quiet {
		return opt, errors.New("--verbose conflicts with --quiet")
	}

	if opt.Sequences == "" {
		opt.Sequences = filepath.Join(opt.OutDir, output.SequencesFile)
	}
	if opt.Reference == "" {
		opt.Reference = filepath.Join(opt.OutDir, output.ReferenceFile)
	}
	if opt.Stats == "" {
		opt.Stats = filepath.Join(opt.OutDir, output.StatsFile)
	}
	return opt, nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
