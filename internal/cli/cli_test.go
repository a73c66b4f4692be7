package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_WorkflowFlags(t *testing.T) {
	var out bytes.Buffer
	cfg, shouldExit, err := Parse([]string{
		"-workflow", "workflows/",
		"-event", "push",
		"-branch", "main",
		"-workers", "8",
		"-log-format", "text",
		"-log-level", "debug",
	}, &out)

	require.NoError(t, err)
	require.False(t, shouldExit)
	require.NotNil(t, cfg)
	assert.Equal(t, "workflows/", cfg.WorkflowPath)
	assert.Equal(t, "push", cfg.EventKind)
	assert.Equal(t, "main", cfg.Branch)
	assert.Equal(t, 8, cfg.WorkerCount)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestParse_PositionalPathAndShorthand(t *testing.T) {
	var out bytes.Buffer
	cfg, _, err := Parse([]string{"-event", "pull_request", "ci.yml"}, &out)
	require.NoError(t, err)
	assert.Equal(t, "ci.yml", cfg.WorkflowPath)

	cfg, _, err = Parse([]string{"-w", "short.yml", "-event", "pull_request"}, &out)
	require.NoError(t, err)
	assert.Equal(t, "short.yml", cfg.WorkflowPath)
}

func TestParse_RepeatedInputs(t *testing.T) {
	var out bytes.Buffer
	cfg, _, err := Parse([]string{
		"-workflow", "ci.yml",
		"-event", "workflow_dispatch",
		"-input", "channel=nightly",
		"-input", "ref=release/2.1",
	}, &out)

	require.NoError(t, err)
	assert.Equal(t, map[string]string{"channel": "nightly", "ref": "release/2.1"}, cfg.DispatchInputs)
}

func TestParse_MalformedInput(t *testing.T) {
	var out bytes.Buffer
	_, _, err := Parse([]string{"-workflow", "ci.yml", "-event", "push", "-input", "nopair"}, &out)

	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 2, exitErr.Code)
}

func TestParse_NoPathPrintsUsage(t *testing.T) {
	var out bytes.Buffer
	cfg, shouldExit, err := Parse([]string{}, &out)

	require.NoError(t, err)
	assert.True(t, shouldExit)
	assert.Nil(t, cfg)
	assert.Contains(t, out.String(), "Usage:")
}

func TestParse_HelpFlag(t *testing.T) {
	var out bytes.Buffer
	cfg, shouldExit, err := Parse([]string{"-h"}, &out)

	require.NoError(t, err)
	assert.True(t, shouldExit)
	assert.Nil(t, cfg)
}

func TestParse_UnknownFlag(t *testing.T) {
	var out bytes.Buffer
	_, shouldExit, err := Parse([]string{"-does-not-exist"}, &out)

	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 2, exitErr.Code)
	assert.False(t, shouldExit)
}

func TestParse_InvalidLogFormat(t *testing.T) {
	var out bytes.Buffer
	_, _, err := Parse([]string{"-workflow", "ci.yml", "-event", "push", "-log-format", "xml"}, &out)

	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Contains(t, exitErr.Message, "invalid log-format")
}

func TestParse_InvalidLogLevel(t *testing.T) {
	var out bytes.Buffer
	_, _, err := Parse([]string{"-workflow", "ci.yml", "-event", "push", "-log-level", "loud"}, &out)

	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Contains(t, exitErr.Message, "invalid log-level")
}

func TestParse_WorkflowWithoutEvent(t *testing.T) {
	var out bytes.Buffer
	_, _, err := Parse([]string{"-workflow", "ci.yml"}, &out)

	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Contains(t, exitErr.Message, "event kind is required")
}

func TestParse_ExperimentOnly(t *testing.T) {
	var out bytes.Buffer
	cfg, shouldExit, err := Parse([]string{"-experiment", "td3.yaml"}, &out)

	require.NoError(t, err)
	assert.False(t, shouldExit)
	assert.Equal(t, "td3.yaml", cfg.ExperimentPath)
	assert.Empty(t, cfg.WorkflowPath)
}
