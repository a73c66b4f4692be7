package script

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kvolkov/gridci/internal/ctxlog"
	"github.com/kvolkov/gridci/internal/registry"
)

// lockedBuffer guards against the concurrent stdout/stderr stream goroutines.
type lockedBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

func loggedContext(t *testing.T) (context.Context, *lockedBuffer) {
	t.Helper()
	var buf lockedBuffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return ctxlog.WithLogger(context.Background(), logger), &buf
}

func TestOnRunScript_InlineSuccess(t *testing.T) {
	ctx, buf := loggedContext(t)

	err := OnRunScript(ctx, &registry.StepContext{
		StepName: "greet",
		NodeID:   "job.tests[0]",
		Run:      `echo "hello from the step"`,
	})

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "hello from the step")
}

func TestOnRunScript_NonZeroExit(t *testing.T) {
	ctx, _ := loggedContext(t)

	err := OnRunScript(ctx, &registry.StepContext{
		StepName: "boom",
		NodeID:   "job.tests[0]",
		Run:      "exit 42",
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "script exited with code 42")
}

func TestOnRunScript_StrictModeAbortsOnFirstFailure(t *testing.T) {
	ctx, buf := loggedContext(t)

	err := OnRunScript(ctx, &registry.StepContext{
		StepName: "strict",
		NodeID:   "job.tests[0]",
		Run:      "false\necho should-not-run",
	})

	require.Error(t, err)
	assert.NotContains(t, buf.String(), "should-not-run")
}

func TestOnRunScript_EnvIsInjected(t *testing.T) {
	ctx, buf := loggedContext(t)

	err := OnRunScript(ctx, &registry.StepContext{
		StepName: "env",
		NodeID:   "job.tests[0]",
		Run:      `echo "cu=${CU_VERSION}"`,
		Env:      map[string]string{"CU_VERSION": "cu121", "PATH": os.Getenv("PATH")},
	})

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "cu=cu121")
}

func TestOnRunScript_ScriptFile(t *testing.T) {
	ctx, buf := loggedContext(t)

	scriptPath := filepath.Join(t.TempDir(), "step.sh")
	require.NoError(t, os.WriteFile(scriptPath, []byte("echo ran-from-file\n"), 0o755))

	err := OnRunScript(ctx, &registry.StepContext{
		StepName: "file",
		NodeID:   "job.tests[0]",
		Run:      scriptPath,
	})

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "ran-from-file")
}

func TestOnRunScript_EmptyBody(t *testing.T) {
	ctx, _ := loggedContext(t)

	err := OnRunScript(ctx, &registry.StepContext{StepName: "empty", NodeID: "job.tests[0]"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty body")
}

func TestStreamLines_ReportsTruncation(t *testing.T) {
	var buf lockedBuffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	// One line over the scanner's 1 MiB limit aborts the stream.
	var wg sync.WaitGroup
	wg.Add(1)
	var lines []string
	streamLines(&wg, logger, strings.NewReader(strings.Repeat("x", 2<<20)), "stdout", func(line string) {
		lines = append(lines, line)
	})
	wg.Wait()

	assert.Empty(t, lines)
	assert.Contains(t, buf.String(), "Script output stream truncated.")
	assert.Contains(t, buf.String(), "token too long")
}

func TestFlattenEnv_SortedPairs(t *testing.T) {
	got := flattenEnv(map[string]string{"B": "2", "A": "1", "C": "3"})
	assert.Equal(t, []string{"A=1", "B=2", "C=3"}, got)
}
