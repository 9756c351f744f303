package stats

import (
	"errors"
	"math"
	"strings"
	"testing"

	"finsim/internal/treeseq"
)

func TestMeanSingleTree(t *testing.T) {
	for _, T := range []float64{0, 1, 1234.5678, 3e6} {
		ts := &treeseq.TreeSequence{SequenceLength: 5, NumSamples: 2, Trees: []treeseq.Tree{{Left: 0, Right: 5, RootTime: T}}}
		got, err := MeanScaledTMRCA(ts)
		if err != nil {
			t.Fatalf("mean: %v", err)
		}
		if got != T*8.4 {
			t.Fatalf("T=%v: got %v want %v", T, got, T*8.4)
		}
	}
}

func TestMeanOverTrees(t *testing.T) {
	ts := &treeseq.TreeSequence{SequenceLength: 4, NumSamples: 2, Trees: []treeseq.Tree{
		{Left: 0, Right: 1, RootTime: 10},
		{Left: 1, Right: 4, RootTime: 30},
	}}
	got, err := MeanScaledTMRCA(ts)
	if err != nil {
		t.Fatalf("mean: %v", err)
	}
	want := (10*8.4 + 30*8.4) / 2
	if got != want {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestComputeEmptyTreeSequence(t *testing.T) {
	_, err := Compute(&treeseq.TreeSequence{SequenceLength: 1, NumSamples: 2}, &treeseq.Dataset{}, 1, 0)
	if !errors.Is(err, ErrEmptyTreeSequence) {
		t.Fatalf("want ErrEmptyTreeSequence, got %v", err)
	}
	_, err = Compute(nil, nil, 1, 0)
	if !errors.Is(err, ErrEmptyTreeSequence) {
		t.Fatalf("nil tree sequence: want ErrEmptyTreeSequence, got %v", err)
	}
}

func TestComputeRecord(t *testing.T) {
	ts := &treeseq.TreeSequence{SequenceLength: 10, NumSamples: 2, Trees: []treeseq.Tree{{Left: 0, Right: 10, RootTime: 2.5}}}
	ds := &treeseq.Dataset{NumSamples: 2, Sites: []treeseq.Site{
		{Position: 2, Mutations: []treeseq.Mutation{{Node: 0}}, Genotypes: []int{1, 0}},
		{Position: 7, Mutations: []treeseq.Mutation{{Node: 1}, {Node: 1}}, Genotypes: []int{0, 0}},
		{Position: 8, Genotypes: []int{0, 0}},
	}}
	seg := CountSegregating(ds)
	if seg != 2 {
		t.Fatalf("segregating=%d want 2", seg)
	}
	rec, err := Compute(ts, ds, 42, seg)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	want := Record{Seed: 42, TreeCount: 1, MeanTMRCA: 2.5 * 8.4, TotalMutations: 3, SegregatingSites: 2}
	if rec != want {
		t.Fatalf("got %+v want %+v", rec, want)
	}
}

func TestRecordLine(t *testing.T) {
	rec := Record{Seed: 42, TreeCount: 3, MeanTMRCA: 21, TotalMutations: 7, SegregatingSites: 5}
	if got := rec.Line(); got != "42 3 21.0 7 5" {
		t.Fatalf("line=%q", got)
	}
	rec.MeanTMRCA = 10.125
	if f := strings.Fields(rec.Line()); len(f) != 5 || f[2] != "10.125" {
		t.Fatalf("fields=%v", f)
	}
}

func TestFormatFloatShortestRepr(t *testing.T) {
	cases := map[float64]string{
		84:                "84.0",
		0:                 "0.0",
		10.125:            "10.125",
		0.0001:            "0.0001",
		0.00005:           "5e-05",
		1.5e-07:           "1.5e-07",
		123456789012345.6: "123456789012345.6",
		1e16:              "1e+16",
		2.5e22:            "2.5e+22",
		-3:                "-3.0",
		8.4 * 2.5:         "21.0",
		math.Inf(1):       "inf",
		1234567.0:         "1234567.0",
	}
	for f, want := range cases {
		if got := FormatFloat(f); got != want {
			t.Errorf("FormatFloat(%v)=%q want %q", f, got, want)
		}
	}
}
