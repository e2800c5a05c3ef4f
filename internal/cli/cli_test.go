package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRequestPath(t *testing.T) {
	var out bytes.Buffer

	opts, exit, err := Parse([]string{"request.json"}, &out)
	require.NoError(t, err)
	require.False(t, exit)
	assert.Equal(t, "request.json", opts.RequestPath)
	assert.Equal(t, "info", opts.LogLevel)
	assert.False(t, opts.DryRun)
}

func TestParseFlags(t *testing.T) {
	var out bytes.Buffer

	opts, exit, err := Parse([]string{
		"-r", "req.json",
		"-config", "pw.hcl",
		"-dry-run",
		"-log-level", "debug",
		"-log-format", "json",
	}, &out)
	require.NoError(t, err)
	require.False(t, exit)
	assert.Equal(t, "req.json", opts.RequestPath)
	assert.Equal(t, "pw.hcl", opts.ConfigPath)
	assert.True(t, opts.DryRun)
	assert.Equal(t, "debug", opts.LogLevel)
	assert.Equal(t, "json", opts.LogFormat)
}

func TestParseNoArgsPrintsUsage(t *testing.T) {
	var out bytes.Buffer

	_, exit, err := Parse(nil, &out)
	require.NoError(t, err)
	assert.True(t, exit)
	assert.Contains(t, out.String(), "Usage:")
}

func TestParseRejectsBadLogLevel(t *testing.T) {
	var out bytes.Buffer

	_, _, err := Parse([]string{"-log-level", "loud", "req.json"}, &out)
	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 2, exitErr.Code)
}

func TestParseRejectsBadLogFormat(t *testing.T) {
	var out bytes.Buffer

	_, _, err := Parse([]string{"-log-format", "xml", "req.json"}, &out)
	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 2, exitErr.Code)
}
