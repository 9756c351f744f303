package appshell

import (
	"context"
	"io"
	"slices"
	"testing"
)

func TestRunDefaultsToHelp(t *testing.T) {
	var got []string
	cmd := func(_ context.Context, argv []string, _, _ io.Writer) int { got = argv; return 0 }
	if code := Run(context.Background(), cmd, nil, io.Discard, io.Discard); code != 0 {
		t.Fatalf("exit %d", code)
	}
	if !slices.Equal(got, []string{"-h"}) {
		t.Fatalf("argv=%q", got)
	}
}

func TestRunCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ok := func(context.Context, []string, io.Writer, io.Writer) int { return 0 }
	if code := Run(ctx, ok, []string{"1"}, io.Discard, io.Discard); code != ExitCanceled {
		t.Fatalf("exit %d want %d", code, ExitCanceled)
	}
	fail := func(context.Context, []string, io.Writer, io.Writer) int { return 3 }
	if code := Run(ctx, fail, []string{"1"}, io.Discard, io.Discard); code != 3 {
		t.Fatalf("non-zero code must pass through, got %d", code)
	}
}
