// internal/cli/options_test.go
package cli

import (
	"errors"
	"flag"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func mustParse(t *testing.T, args ...string) Options {
	t.Helper()
	opts, err := ParseArgs(NewFlagSet("test"), args)
	if err != nil {
		t.Fatalf("parse err: %v", err)
	}
	return opts
}

func TestDefaults(t *testing.T) {
	t.Setenv(EnvOracleCmd, "")
	t.Setenv(EnvResultsDB, "")
	o := mustParse(t, "0.5")
	if o.RecombinationRate != 0.5 || o.RateMap != DefaultRateMap {
		t.Errorf("positionals: %+v", o)
	}
	if o.Seed != -1 || o.Oracle != OracleExec || len(o.OracleCmd) != 1 || o.OracleCmd[0] != "finsim-oracle" {
		t.Errorf("defaults: %+v", o)
	}
	if o.Stats != filepath.Join(".", "data_props.txt") || o.Sequences != "gen_data.fasta" || o.Reference != "ref_seq.fasta" {
		t.Errorf("paths: %q %q %q", o.Sequences, o.Reference, o.Stats)
	}
	if o.StatsNewline || o.ResultsDB != "" {
		t.Errorf("sinks: %+v", o)
	}
}

func TestRateMapPositionalAndTrailingFlags(t *testing.T) {
	o := mustParse(t, "0", "maps/chr2.txt", "--seed", "42", "--out-dir", "out", "--stats", "all.txt")
	if o.RateMap != "maps/chr2.txt" || o.Seed != 42 {
		t.Errorf("got %+v", o)
	}
	if o.Sequences != filepath.Join("out", "gen_data.fasta") || o.Stats != "all.txt" {
		t.Errorf("paths: %q %q", o.Sequences, o.Stats)
	}
}

func TestOracleSelection(t *testing.T) {
	o := mustParse(t, "--oracle-cmd", "python3 worker.py --fast", "1")
	if strings.Join(o.OracleCmd, "|") != "python3|worker.py|--fast" {
		t.Errorf("cmd=%q", o.OracleCmd)
	}
	o = mustParse(t, "--oracle", "ws", "--oracle-url", "ws://127.0.0.1:9000/oracle", "--oracle-timeout", "30s", "1")
	if o.OracleURL == "" || o.OracleTimeout != 30*time.Second {
		t.Errorf("ws: %+v", o)
	}
	t.Setenv(EnvOracleCmd, "my-worker -x")
	o = mustParse(t, "1")
	if strings.Join(o.OracleCmd, " ") != "my-worker -x" {
		t.Errorf("env cmd=%q", o.OracleCmd)
	}
}

func TestResultsDBFromEnv(t *testing.T) {
	t.Setenv(EnvResultsDB, "sqlite:runs.db")
	if o := mustParse(t, "1"); o.ResultsDB != "sqlite:runs.db" {
		t.Errorf("results db %q", o.ResultsDB)
	}
}

func TestErrors(t *testing.T) {
	cases := map[string][]string{
		"no positional":    {},
		"too many":         {"1", "a", "b"},
		"not a number":     {"abc"},
		"negative rate":    {"--", "-1"},
		"bad oracle":       {"--oracle", "grpc", "1"},
		"ws without url":   {"--oracle", "ws", "1"},
		"verbose+quiet":    {"--verbose", "-q", "1"},
		"negative timeout": {"--oracle-timeout", "-1s", "1"},
		"memory publish":   {"--publish", "memory:runs", "1"},
	}
	for name, args := range cases {
		if _, err := ParseArgs(NewFlagSet("test"), args); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestHelpAndVersion(t *testing.T) {
	if _, err := ParseArgs(NewFlagSet("test"), []string{"-h"}); !errors.Is(err, flag.ErrHelp) {
		t.Fatalf("want ErrHelp, got %v", err)
	}
	o, err := ParseArgs(NewFlagSet("test"), []string{"--version"})
	if err != nil || !o.Version {
		t.Fatalf("version: %+v %v", o, err)
	}
}
