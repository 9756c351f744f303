// cmd/finsim-stub-oracle/main.go
//
// finsim-stub-oracle answers oracle requests with the deterministic stub
// engine: one JSON request per stdin (the exec protocol), or a websocket
// endpoint with --listen.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"finsim/internal/cmdutil"
	"finsim/internal/oracle/oracletest"
)

func run(ctx context.Context, argv []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("finsim-stub-oracle", flag.ContinueOnError)
	fs.SetOutput(stderr)
	listen := fs.String("listen", "", "serve websocket requests on this address instead of stdin")
	if err := fs.Parse(argv); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	stub := oracletest.New()
	if *listen == "" {
		if err := oracletest.Serve(ctx, stub, os.Stdin, stdout); err != nil {
			_, _ = fmt.Fprintln(stderr, err)
			return 3
		}
		return 0
	}

	srv := &http.Server{Addr: *listen, Handler: oracletest.Handler(stub), ReadHeaderTimeout: 10 * time.Second}
	go func() {
		<-ctx.Done()
		shut, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shut)
	}()
	cmdutil.NewLogger(stderr, cmdutil.LevelInfo).Infof("stub oracle listening on %s", *listen)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		_, _ = fmt.Fprintln(stderr, err)
		return 3
	}
	return 0
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	os.Exit(code)
}
