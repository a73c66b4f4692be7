// Package testutil provides the shared harness for integration tests: it
// materializes workflow trees in a temp directory, runs the full application
// against them, and captures log output for assertions.
package testutil

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kvolkov/gridci/internal/app"
	"github.com/kvolkov/gridci/internal/registry"
	"github.com/kvolkov/gridci/internal/yamlcfg"
)

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

// Write implements the io.Writer interface for SafeBuffer.
func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

// String implements the fmt.Stringer interface for SafeBuffer.
func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// Options tunes a harness run. The zero value runs a push event on 'main'.
type Options struct {
	EventKind string
	Branch    string
	Inputs    map[string]string
	DryRun    bool
	Modules   []registry.Module
}

// HarnessResult holds the outcomes of an integration test run.
type HarnessResult struct {
	LogOutput string
	Err       error
	App       *app.App
}

// RunIntegrationTest provides a standardized harness for running integration
// tests. The files map holds workflow file contents keyed by path relative to
// the temporary workflow root.
func RunIntegrationTest(t *testing.T, files map[string]string, opts Options) *HarnessResult {
	t.Helper()
	return RunIntegrationTestWithContext(context.Background(), t, files, opts)
}

// RunIntegrationTestWithContext is RunIntegrationTest with a caller-supplied
// context.
func RunIntegrationTestWithContext(ctx context.Context, t *testing.T, files map[string]string, opts Options) *HarnessResult {
	t.Helper()

	tmpDir := t.TempDir()
	for name, content := range files {
		filePath := filepath.Join(tmpDir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(filePath), 0755))
		require.NoError(t, os.WriteFile(filePath, []byte(content), 0644))
	}

	if opts.EventKind == "" {
		opts.EventKind = "push"
		if opts.Branch == "" {
			opts.Branch = "main"
		}
	}

	appConfig := &app.Config{
		WorkflowPath:   tmpDir,
		EventKind:      opts.EventKind,
		Branch:         opts.Branch,
		DispatchInputs: opts.Inputs,
		LogLevel:       "debug",
		LogFormat:      "text",
		WorkerCount:    4,
		DryRun:         opts.DryRun,
	}

	logBuffer := &SafeBuffer{}

	var testApp *app.App
	var panicErr any
	func() {
		defer func() {
			if r := recover(); r != nil {
				if os.Getenv("GRIDCI_TEST_LOGS") == "true" {
					t.Logf("--- HARNESS RECOVERED PANIC ---\n%q", fmt.Sprintf("%v", r))
				}
				panicErr = r
			}
		}()
		testApp = app.NewApp(logBuffer, appConfig, yamlcfg.NewLoader(), opts.Modules...)
	}()

	if panicErr != nil {
		return &HarnessResult{
			LogOutput: logBuffer.String(),
			Err:       fmt.Errorf("application startup panicked | %v", panicErr),
			App:       nil,
		}
	}

	runErr := testApp.Run(ctx, appConfig)

	if os.Getenv("GRIDCI_TEST_LOGS") == "true" {
		t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logBuffer.String())
	}

	return &HarnessResult{
		LogOutput: logBuffer.String(),
		Err:       runErr,
		App:       testApp,
	}
}
