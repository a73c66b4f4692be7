package system

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kvolkov/gridci/internal/testutil"
)

const dispatchWorkflow = `
name: manual
on:
  workflow_dispatch:
    inputs:
      channel:
        description: upload channel
        default: nightly
jobs:
  upload:
    uses: local
    steps:
      - name: report
        run: echo "channel is ${{ env.channel }}"
`

// Test for: workflow_dispatch inputs fall back to their declared defaults.
func TestCoreExecution_DispatchInputDefault(t *testing.T) {
	files := map[string]string{"manual.yml": dispatchWorkflow}

	result := testutil.RunIntegrationTest(t, files, testutil.Options{
		EventKind: "workflow_dispatch",
	})

	require.NoError(t, result.Err)
	assert.Contains(t, result.LogOutput, "channel is nightly")
}

// Test for: a supplied input overrides the declared default.
func TestCoreExecution_DispatchInputOverride(t *testing.T) {
	files := map[string]string{"manual.yml": dispatchWorkflow}

	result := testutil.RunIntegrationTest(t, files, testutil.Options{
		EventKind: "workflow_dispatch",
		Inputs:    map[string]string{"channel": "test"},
	})

	require.NoError(t, result.Err)
	assert.Contains(t, result.LogOutput, "channel is test")
}
