package cliutil

import (
	"flag"
	"slices"
	"testing"
)

func TestSplitFlagsAndPositionals(t *testing.T) {
	fs := flag.NewFlagSet("x", flag.ContinueOnError)
	fs.Bool("verbose", false, "")
	fs.Int64("seed", -1, "")

	cases := []struct {
		argv       []string
		flags, pos []string
	}{
		{[]string{"--verbose", "0.5", "--", "-map"}, []string{"--verbose"}, []string{"0.5", "-map"}},
		{[]string{"0.5", "map.txt", "--seed", "7"}, []string{"--seed", "7"}, []string{"0.5", "map.txt"}},
		{[]string{"--seed=7", "1", "-"}, []string{"--seed=7"}, []string{"1", "-"}},
		{[]string{"--verbose=false", "1"}, []string{"--verbose=false"}, []string{"1"}},
	}
	for _, tc := range cases {
		flags, pos := SplitFlagsAndPositionals(fs, tc.argv)
		if !slices.Equal(flags, tc.flags) || !slices.Equal(pos, tc.pos) {
			t.Errorf("%q: got %q / %q", tc.argv, flags, pos)
		}
	}
}
