// internal/cli/flagset.go
package cli

import (
	"flag"
	"fmt"

	"finsim/internal/version"
)

// NewFlagSet returns a ContinueOnError FlagSet with the finsim usage banner.
func NewFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.Usage = func() {
		out := fs.Output()
		def := func(n string) string {
			if f := fs.Lookup(n); f != nil {
				return f.DefValue
			}
			return ""
		}
		fmt.Fprintf(out, "%s – finite-sites coalescent replicate generator\n\n", name)
		fmt.Fprintf(out, "Version: %s\n\n", version.Version)
		fmt.Fprintf(out, "Usage:\n  %s [flags] <recombination-rate> [rate-map]\n\n", name)
		fmt.Fprintf(out, "The rate map holds one non-negative per-site rate per line [%s].\n", DefaultRateMap)

		fmt.Fprintln(out, "\nRun:")
		fmt.Fprintln(out, "      --seed int              Simulation seed (-1 = draw from [0,100000)) [-1]")

		fmt.Fprintln(out, "\nOutput:")
		fmt.Fprintf(out, "      --out-dir dir           Directory for the three output files [%s]\n", def("out-dir"))
		fmt.Fprintln(out, "      --sequences file        Sample FASTA path (overrides --out-dir)")
		fmt.Fprintln(out, "      --reference file        Reference FASTA path (overrides --out-dir)")
		fmt.Fprintln(out, "      --stats file            Appended statistics path (overrides --out-dir)")
		fmt.Fprintf(out, "      --stats-newline         Terminate each statistics record with a newline [%s]\n", def("stats-newline"))

		fmt.Fprintln(out, "\nOracle:")
		fmt.Fprintf(out, "      --oracle string         Simulation backend: exec | ws | stub [%s]\n", def("oracle"))
		fmt.Fprintf(out, "      --oracle-cmd string     Worker command for exec ($%s) [%s]\n", EnvOracleCmd, def("oracle-cmd"))
		fmt.Fprintln(out, "      --oracle-url url        Worker websocket URL for ws")
		fmt.Fprintf(out, "      --oracle-timeout dur    Deadline for each oracle call (0 = none) [%s]\n", def("oracle-timeout"))

		fmt.Fprintln(out, "\nSinks:")
		fmt.Fprintf(out, "      --results-db dsn        sqlite path or postgres:// URL ($%s)\n", EnvResultsDB)
		fmt.Fprintln(out, "      --publish target        s3://bucket/prefix | file:///dir")
		fmt.Fprintln(out, "      --metrics-textfile file Write Prometheus textfile metrics after the run")

		fmt.Fprintln(out, "\nMiscellaneous:")
		fmt.Fprintf(out, "      --json                  Print a JSON run summary on stdout [%s]\n", def("json"))
		fmt.Fprintf(out, "      --verbose               Log every state transition [%s]\n", def("verbose"))
		fmt.Fprintf(out, "  -q, --quiet                 Suppress warnings [%s]\n", def("quiet"))
		fmt.Fprintln(out, "  -v, --version               Print version and exit")
		fmt.Fprintln(out, "  -h, --help                  Show this help and exit")
	}
	return fs
}
