package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExitError(t *testing.T) {
	err := NewExitError(ExitCommandError, "bad path")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Equal(t, "bad path", err.Error())

	wrapped := fmt.Errorf("outer: %w", err)
	assert.Equal(t, ExitCommandError, GetExitCode(wrapped))

	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")))
}

func TestFormatter_JSON(t *testing.T) {
	var buf bytes.Buffer
	f := &OutputFormatter{Format: "json", Writer: &buf}
	require.NoError(t, f.Success(map[string]int{"count": 3}))

	var resp Response
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)

	buf.Reset()
	require.NoError(t, f.Error("D003", "schema violation", nil))
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, "D003", resp.Error.Code)
}

func TestFormatter_VerboseLogGoesToErrWriter(t *testing.T) {
	var out, errOut bytes.Buffer
	f := &OutputFormatter{Format: "json", Writer: &out, ErrWriter: &errOut, Verbose: true}

	f.VerboseLog("loaded %d entities", 7)
	assert.Empty(t, out.String(), "diagnostics must not corrupt json output")
	assert.Contains(t, errOut.String(), "loaded 7 entities")

	f.Verbose = false
	errOut.Reset()
	f.VerboseLog("hidden")
	assert.Empty(t, errOut.String())
}
