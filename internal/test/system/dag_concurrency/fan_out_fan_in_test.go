package system

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kvolkov/gridci/internal/testutil"
)

// Test for: independent jobs all execute regardless of scheduling order.
func TestDagConcurrency_IndependentJobsAllRun(t *testing.T) {
	// --- Arrange ---
	workflow := `
name: parallel
on:
  push:
    branches: [main]
jobs:
  alpha:
    uses: local
    with:
      script: echo "alpha done"
  beta:
    uses: local
    with:
      script: echo "beta done"
  gamma:
    uses: local
    with:
      script: echo "gamma done"
`
	files := map[string]string{"parallel.yml": workflow}

	// --- Act ---
	result := testutil.RunIntegrationTest(t, files, testutil.Options{})

	// --- Assert ---
	require.NoError(t, result.Err)
	for _, job := range []string{"alpha", "beta", "gamma"} {
		testutil.AssertJobRan(t, result, job, "0")
		assert.Contains(t, result.LogOutput, job+" done")
	}
}

// Test for: a fan-in job starts only after every upstream job has finished.
func TestDagConcurrency_FanInWaitsForAllUpstreams(t *testing.T) {
	// --- Arrange ---
	workflow := `
name: fan-in
on:
  push:
    branches: [main]
jobs:
  left:
    uses: local
    with:
      script: echo "left finished"
  right:
    uses: local
    with:
      script: echo "right finished"
  merge:
    needs: [left, right]
    uses: local
    with:
      script: echo "merge started"
`
	files := map[string]string{"fanin.yml": workflow}

	// --- Act ---
	result := testutil.RunIntegrationTest(t, files, testutil.Options{})

	// --- Assert ---
	require.NoError(t, result.Err)
	mergeAt := strings.Index(result.LogOutput, "merge started")
	require.Greater(t, mergeAt, -1)
	assert.Greater(t, mergeAt, strings.Index(result.LogOutput, "left finished"))
	assert.Greater(t, mergeAt, strings.Index(result.LogOutput, "right finished"))
}

// Test for: fan-out from one upstream unlocks every dependent instance.
func TestDagConcurrency_FanOutUnlocksAllDependents(t *testing.T) {
	// --- Arrange ---
	workflow := `
name: fan-out
on:
  push:
    branches: [main]
jobs:
  seed:
    uses: local
    with:
      script: echo "seed finished"
  workers:
    needs: seed
    strategy:
      matrix:
        shard: ["1", "2", "3"]
    uses: local
    with:
      script: echo "shard ${{ matrix.shard }} finished"
`
	files := map[string]string{"fanout.yml": workflow}

	// --- Act ---
	result := testutil.RunIntegrationTest(t, files, testutil.Options{})

	// --- Assert ---
	require.NoError(t, result.Err)
	for _, shard := range []string{"1", "2", "3"} {
		testutil.AssertJobRan(t, result, "workers", "shard="+shard)
		assert.Contains(t, result.LogOutput, "shard "+shard+" finished")
	}
}
