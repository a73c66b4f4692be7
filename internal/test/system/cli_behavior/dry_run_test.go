package system

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kvolkov/gridci/internal/app"
	"github.com/kvolkov/gridci/internal/testutil"
	"github.com/kvolkov/gridci/internal/yamlcfg"
)

const gpuWorkflow = `
name: gpu-tests
on:
  push:
    branches: [main, release/*]
jobs:
  tests:
    strategy:
      matrix:
        python_version: ["3.10", "3.11"]
        cuda_arch_version: ["12.1"]
    uses: linux.g5.4xlarge.nvidia.gpu
    steps:
      - name: run
        run: echo running
`

// Test for: dry-run prints the expanded plan without executing any step.
func TestCliBehavior_DryRunPrintsPlanWithoutExecuting(t *testing.T) {
	files := map[string]string{"gpu.yml": gpuWorkflow}

	result := testutil.RunIntegrationTest(t, files, testutil.Options{DryRun: true})

	require.NoError(t, result.Err)
	assert.Contains(t, result.LogOutput, "workflow gpu-tests")
	assert.Contains(t, result.LogOutput, "job.tests[cuda_arch_version=12.1,python_version=3.10]")
	assert.Contains(t, result.LogOutput, "job.tests[cuda_arch_version=12.1,python_version=3.11]")
	assert.Contains(t, result.LogOutput, "runner=linux.g5.4xlarge.nvidia.gpu")
	assert.NotContains(t, result.LogOutput, "✅ Job finished")
}

// Test for: a push to a non-matching branch runs nothing and is not an error.
func TestCliBehavior_NonMatchingBranchRunsNothing(t *testing.T) {
	files := map[string]string{"gpu.yml": gpuWorkflow}

	result := testutil.RunIntegrationTest(t, files, testutil.Options{Branch: "feature/x"})

	require.NoError(t, result.Err)
	assert.Contains(t, result.LogOutput, "No workflow matched the event.")
}

// Test for: the release/* pattern accepts any release branch.
func TestCliBehavior_ReleaseBranchGlobMatches(t *testing.T) {
	files := map[string]string{"gpu.yml": gpuWorkflow}

	result := testutil.RunIntegrationTest(t, files, testutil.Options{Branch: "release/2.1"})

	require.NoError(t, result.Err)
	testutil.AssertJobRan(t, result, "tests", "cuda_arch_version=12.1,python_version=3.10")
}

// Test for: the experiment path loads a sheet, applies defaults and prints the
// resolved values.
func TestCliBehavior_ExperimentSheetResolvesValues(t *testing.T) {
	tmpDir := t.TempDir()
	sheet := filepath.Join(tmpDir, "td3.yaml")
	require.NoError(t, os.WriteFile(sheet, []byte(`
env:
  name: HalfCheetah-v4
optim:
  batch_size: 256
  policy_update_delay: 2
`), 0o644))

	appConfig := &app.Config{
		ExperimentPath: sheet,
		LogLevel:       "debug",
		LogFormat:      "text",
		WorkerCount:    1,
	}
	out := &testutil.SafeBuffer{}
	testApp := app.NewApp(out, appConfig, yamlcfg.NewLoader())

	err := testApp.Run(context.Background(), appConfig)

	require.NoError(t, err)
	assert.Contains(t, out.String(), "batch_size: 256")
	assert.Contains(t, out.String(), "policy_update_delay: 2")
	assert.Contains(t, out.String(), "name: HalfCheetah-v4")
}
