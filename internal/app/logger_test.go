package app

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger("warn", "text", &buf)

	logger.Info("below threshold")
	logger.Warn("at threshold")

	assert.NotContains(t, buf.String(), "below threshold")
	assert.Contains(t, buf.String(), "at threshold")
}

func TestNewLogger_FormatSelection(t *testing.T) {
	var buf bytes.Buffer
	newLogger("info", "json", &buf).Info("payload")
	assert.True(t, strings.HasPrefix(buf.String(), "{"), "json format must emit JSON objects, got: %s", buf.String())

	buf.Reset()
	newLogger("info", "text", &buf).Info("payload")
	assert.Contains(t, buf.String(), "msg=payload")
}

func TestNewLogger_UnknownLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger("chatty", "text", &buf)

	logger.Debug("hidden")
	logger.Info("visible")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "visible")
}
