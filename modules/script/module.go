// Package script implements the 'script' step kind: it runs a step's body
// through bash with strict shell semantics, the way the consuming CI system's
// runners do.
package script

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sort"
	"sync"
	"syscall"

	"github.com/kvolkov/gridci/internal/ctxlog"
	"github.com/kvolkov/gridci/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterStepKind("script", OnRunScript)
}

// OnRunScript is the handler for the 'script' step kind. The step body runs
// under `set -euo pipefail`, so the first failing command aborts the step
// with its exit code. If the body names an existing file, that file is
// executed instead of being treated as an inline script.
func OnRunScript(ctx context.Context, sc *registry.StepContext) error {
	logger := ctxlog.FromContext(ctx).With("step", sc.StepName, "job", sc.NodeID)
	logger.Debug("Handler started")
	defer logger.Debug("Handler finished")

	if sc.Run == "" {
		return fmt.Errorf("script step has an empty body")
	}

	args := []string{"-euo", "pipefail"}
	if info, err := os.Stat(sc.Run); err == nil && !info.IsDir() {
		args = append(args, sc.Run)
	} else {
		args = append(args, "-c", sc.Run)
	}

	cmd := exec.CommandContext(ctx, "bash", args...)
	cmd.Env = flattenEnv(sc.Env)
	// Scripts spawn children; kill the whole process group on cancellation.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		if cmd.Process == nil {
			return nil
		}
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("attaching stdout: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("attaching stderr: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("starting script: %w", err)
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go streamLines(&wg, logger, stdout, "stdout", func(line string) { logger.Info(line, "stream", "stdout") })
	go streamLines(&wg, logger, stderr, "stderr", func(line string) { logger.Warn(line, "stream", "stderr") })
	wg.Wait()

	if err := cmd.Wait(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return fmt.Errorf("script exited with code %d", exitErr.ExitCode())
		}
		return fmt.Errorf("running script: %w", err)
	}
	return nil
}

// streamLines forwards each line of a pipe into the supplied sink. A scanner
// error (a line over the buffer limit) truncates the rest of the stream, so
// it is reported instead of dropped silently.
func streamLines(wg *sync.WaitGroup, logger *slog.Logger, r io.Reader, name string, sink func(string)) {
	defer wg.Done()
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		sink(scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		logger.Warn("Script output stream truncated.", "stream", name, "error", err)
	}
}

// flattenEnv renders an env map as the KEY=value slice exec expects, in
// sorted key order for reproducible process environments.
func flattenEnv(env map[string]string) []string {
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, fmt.Sprintf("%s=%s", k, env[k]))
	}
	return out
}
