package system

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kvolkov/gridci/internal/testutil"
)

// Test for: a failing step fails its job instance and skips every dependent.
func TestErrorHandling_StepFailSkipsDependents(t *testing.T) {
	// --- Arrange ---
	workflow := `
name: pipeline
on:
  push:
    branches: [main]
jobs:
  build:
    uses: local
    steps:
      - name: break
        run: exit 1
  test:
    needs: build
    uses: local
    steps:
      - name: never
        run: echo "must not run"
  publish:
    needs: test
    uses: local
    steps:
      - name: never
        run: echo "must not run"
`
	files := map[string]string{"pipeline.yml": workflow}

	// --- Act ---
	result := testutil.RunIntegrationTest(t, files, testutil.Options{})

	// --- Assert ---
	require.Error(t, result.Err)
	assert.Contains(t, result.Err.Error(), "script exited with code 1")
	testutil.AssertJobSkipped(t, result, "test", "0")
	testutil.AssertJobSkipped(t, result, "publish", "0")
	assert.NotContains(t, result.LogOutput, "must not run")
}

// Test for: fail-fast disabled keeps sibling matrix instances running after a
// failure.
func TestErrorHandling_NoFailFastKeepsSiblings(t *testing.T) {
	// --- Arrange ---
	workflow := `
name: resilient
on:
  push:
    branches: [main]
jobs:
  tests:
    strategy:
      fail-fast: false
      matrix:
        mode: [breaks, survives]
    uses: local
    steps:
      - name: attempt
        run: |
          if [ "${{ matrix.mode }}" = "breaks" ]; then exit 7; fi
          echo "mode ${{ matrix.mode }} completed"
`
	files := map[string]string{"resilient.yml": workflow}

	// --- Act ---
	result := testutil.RunIntegrationTest(t, files, testutil.Options{})

	// --- Assert ---
	require.Error(t, result.Err)
	assert.Contains(t, result.Err.Error(), "script exited with code 7")
	assert.Contains(t, result.LogOutput, "mode survives completed")
}

// Test for: structural validation failures abort startup with every violation
// reported.
func TestErrorHandling_ValidationFailuresAreCollected(t *testing.T) {
	// --- Arrange ---
	workflow := `
name: broken
on:
  push:
    branches: [main]
jobs:
  first: {}
  second:
    needs: ghost
    uses: local
    steps:
      - name: ok
        run: echo ok
`
	files := map[string]string{"broken.yml": workflow}

	// --- Act ---
	result := testutil.RunIntegrationTest(t, files, testutil.Options{})

	// --- Assert ---
	require.Error(t, result.Err)
	assert.Contains(t, result.Err.Error(), "application startup panicked")
	assert.Contains(t, result.Err.Error(), "missing required key 'uses'")
	assert.Contains(t, result.Err.Error(), "'needs' references unknown job 'ghost'")
}
