package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tracedraft/vellum/internal/changelog"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func writeDoc(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "doc.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const cleanDoc = `{
	"layers": [], "text_styles": [], "dim_styles": [], "linetypes": [], "blocks": [],
	"model_space": [
		{"kind": "LINE", "handle": "A1", "start": {"x": 0, "y": 0}, "end": {"x": 1, "y": 0}}
	],
	"paper_space": []
}`

const brokenDoc = `{
	"layers": [], "text_styles": [], "dim_styles": [], "linetypes": [], "blocks": [],
	"model_space": [
		{"kind": "DIMENSION", "handle": "D1", "sub_kind": "linear", "dim_style": "Ghost"}
	],
	"paper_space": []
}`

func TestValidate(t *testing.T) {
	t.Run("valid document", func(t *testing.T) {
		out, _, err := execute(t, "validate", writeDoc(t, cleanDoc))
		require.NoError(t, err)
		assert.Contains(t, out, "document valid")
	})

	t.Run("schema violation", func(t *testing.T) {
		bad := writeDoc(t, `{"layers": [], "text_styles": [], "dim_styles": [],
			"linetypes": [], "blocks": [],
			"model_space": [{"kind": "CIRCLE", "center": {"x": 0, "y": 0}, "radius": -1}],
			"paper_space": []}`)
		out, _, err := execute(t, "validate", bad)
		require.Error(t, err)
		assert.Equal(t, ExitFailure, GetExitCode(err))
		assert.Contains(t, out, "document invalid")
	})

	t.Run("missing file is a command error", func(t *testing.T) {
		_, _, err := execute(t, "validate", "no-such.json")
		require.Error(t, err)
		assert.Equal(t, ExitCommandError, GetExitCode(err))
	})

	t.Run("json format", func(t *testing.T) {
		out, _, err := execute(t, "--format", "json", "validate", writeDoc(t, cleanDoc))
		require.NoError(t, err)
		var resp Response
		require.NoError(t, json.Unmarshal([]byte(out), &resp))
		assert.Equal(t, "ok", resp.Status)
	})
}

func TestAudit(t *testing.T) {
	t.Run("clean document", func(t *testing.T) {
		out, _, err := execute(t, "audit", writeDoc(t, cleanDoc))
		require.NoError(t, err)
		assert.Contains(t, out, "document clean")
	})

	t.Run("report without repair fails", func(t *testing.T) {
		out, _, err := execute(t, "audit", writeDoc(t, brokenDoc))
		require.Error(t, err)
		assert.Equal(t, ExitFailure, GetExitCode(err))
		assert.Contains(t, out, "dimstyle-missing")
	})

	t.Run("repair succeeds", func(t *testing.T) {
		out, _, err := execute(t, "audit", writeDoc(t, brokenDoc), "--repair")
		require.NoError(t, err, "all issues repairable, so the run is clean")
		assert.Contains(t, out, "repaired dimstyle-missing")
	})

	t.Run("repair with journal", func(t *testing.T) {
		journal := filepath.Join(t.TempDir(), "audit.db")
		_, _, err := execute(t, "audit", writeDoc(t, brokenDoc), "--repair", "--journal", journal)
		require.NoError(t, err)

		j, err := changelog.Open(journal)
		require.NoError(t, err)
		defer j.Close()
		runs, err := j.Runs()
		require.NoError(t, err)
		require.Len(t, runs, 1)
		mutations, err := j.Mutations(runs[0])
		require.NoError(t, err)
		assert.NotEmpty(t, mutations)
	})

	t.Run("json format", func(t *testing.T) {
		out, _, err := execute(t, "--format", "json", "audit", writeDoc(t, brokenDoc), "--repair")
		require.NoError(t, err)
		var resp Response
		require.NoError(t, json.Unmarshal([]byte(out), &resp))
		assert.Equal(t, "ok", resp.Status)
	})
}

func TestExplode(t *testing.T) {
	doc := `{
		"layers": [], "text_styles": [], "dim_styles": [], "linetypes": [],
		"blocks": [
			{"name": "Part", "entities": [
				{"kind": "LINE", "start": {"x": 0, "y": 0}, "end": {"x": 1, "y": 0}}
			]}
		],
		"model_space": [
			{"kind": "INSERT", "handle": "I1", "block": "Part", "position": {"x": 10, "y": 0}},
			{"kind": "INSERT", "handle": "I2", "block": "Nowhere"}
		],
		"paper_space": []
	}`

	t.Run("insert decomposes to line", func(t *testing.T) {
		out, _, err := execute(t, "explode", writeDoc(t, doc), "--handle", "I1")
		require.NoError(t, err)
		assert.Contains(t, out, `"kind": "LINE"`)
		assert.Contains(t, out, "10.0000,0.0000,0.0000")
	})

	t.Run("unknown handle", func(t *testing.T) {
		_, _, err := execute(t, "explode", writeDoc(t, doc), "--handle", "ZZ")
		require.Error(t, err)
		assert.Equal(t, ExitCommandError, GetExitCode(err))
	})

	t.Run("missing block is a decomposition failure", func(t *testing.T) {
		_, _, err := execute(t, "explode", writeDoc(t, doc), "--handle", "I2")
		require.Error(t, err)
		assert.Equal(t, ExitFailure, GetExitCode(err))
	})

	t.Run("invalid target", func(t *testing.T) {
		_, _, err := execute(t, "explode", writeDoc(t, doc), "--handle", "I1", "--target", "bezier")
		require.Error(t, err)
		assert.Equal(t, ExitCommandError, GetExitCode(err))
	})
}
