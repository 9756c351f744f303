// internal/appshell/shell.go
package appshell

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
)

// ExitCanceled is reported when the run was interrupted.
const ExitCanceled = 130

// Command is the signature shared by every finsim entry point.
type Command func(ctx context.Context, argv []string, stdout, stderr io.Writer) int

// Run invokes cmd, asking for help when argv is empty, and turns a clean
// exit under a cancelled context into ExitCanceled.
func Run(ctx context.Context, cmd Command, argv []string, stdout, stderr io.Writer) int {
	if len(argv) == 0 {
		argv = []string{"-h"}
	}
	code := cmd(ctx, argv, stdout, stderr)
	if ctx.Err() != nil && code == 0 {
		code = ExitCanceled
	}
	return code
}

// Main runs cmd under SIGINT/SIGTERM cancellation and exits the process.
func Main(cmd Command) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := Run(ctx, cmd, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
