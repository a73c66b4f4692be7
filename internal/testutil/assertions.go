package testutil

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// containsAttr reports whether the log output carries the given slog attribute.
// The text handler quotes values that contain '=', which matrix combo keys do,
// so both renderings are accepted.
func containsAttr(logOutput, key, value string) bool {
	return strings.Contains(logOutput, fmt.Sprintf("%s=%s", key, value)) ||
		strings.Contains(logOutput, fmt.Sprintf("%s=%q", key, value))
}

// AssertJobRan checks the log output within a HarnessResult to confirm that a
// specific job instance started. It abstracts the underlying node ID format,
// making tests more resilient to internal refactoring.
func AssertJobRan(t *testing.T, result *HarnessResult, jobID, comboKey string) {
	t.Helper()

	nodeID := fmt.Sprintf("job.%s[%s]", jobID, comboKey)
	require.True(t,
		containsAttr(result.LogOutput, "job", nodeID),
		"expected log output for job '%s' was not found in logs", nodeID,
	)
}

// AssertJobSkipped confirms that a job instance was skipped due to an
// upstream failure.
func AssertJobSkipped(t *testing.T, result *HarnessResult, jobID, comboKey string) {
	t.Helper()

	nodeID := fmt.Sprintf("job.%s[%s]", jobID, comboKey)
	require.True(t,
		strings.Contains(result.LogOutput, "Skipping dependent job") && containsAttr(result.LogOutput, "nodeID", nodeID),
		"expected job '%s' to be skipped, logs do not show it", nodeID,
	)
}
