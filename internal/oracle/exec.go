package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// DefaultWorker is the engine command used when none is configured.
const DefaultWorker = "finsim-oracle"

// WorkDirEnv tells the worker where it may keep state between calls of one run
// (for example a dumped tree sequence that a Handle points at).
const WorkDirEnv = "FINSIM_ORACLE_WORKDIR"

// ExecTransport starts the worker command once per call, writes the request
// to its stdin and reads a single JSON response from its stdout.
type ExecTransport struct {
	Command string
	Args    []string
	Env     []string // appended to the parent environment

	workDir string
}

// NewExecTransport creates the per-run scratch directory shared by all calls.
func NewExecTransport(command string, args ...string) (*ExecTransport, error) {
	if command == "" {
		command = DefaultWorker
	}
	dir := filepath.Join(os.TempDir(), "finsim-"+uuid.NewString())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("oracle scratch dir: %w", err)
	}
	return &ExecTransport{Command: command, Args: args, workDir: dir}, nil
}

// WorkDir is the scratch directory exported to the worker.
func (e *ExecTransport) WorkDir() string { return e.workDir }

func (e *ExecTransport) Call(ctx context.Context, req Request) (Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return Response{}, fmt.Errorf("encode %s request: %w", req.Op, err)
	}
	cmd := exec.CommandContext(ctx, e.Command, e.Args...)
	cmd.Env = append(os.Environ(), e.Env...)
	if e.workDir != "" {
		cmd.Env = append(cmd.Env, WorkDirEnv+"="+e.workDir)
	}
	cmd.Stdin = bytes.NewReader(body)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := tail(stderr.String(), 512); msg != "" {
			return Response{}, fmt.Errorf("%s: %w: %s", e.Command, err, msg)
		}
		return Response{}, fmt.Errorf("%s: %w", e.Command, err)
	}
	var resp Response
	dec := json.NewDecoder(&stdout)
	if err := dec.Decode(&resp); err != nil {
		return Response{}, fmt.Errorf("%s: decode response: %w", e.Command, err)
	}
	return resp, nil
}

// Close removes the scratch directory.
func (e *ExecTransport) Close() error {
	if e.workDir == "" {
		return nil
	}
	err := os.RemoveAll(e.workDir)
	e.workDir = ""
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) > n {
		s = "..." + s[len(s)-n:]
	}
	return s
}
