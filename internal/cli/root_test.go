package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "vellum", cmd.Use)
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"validate", "audit", "explode"}

	for _, name := range commands {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			require.NotNil(t, sub)
			assert.Equal(t, name, sub.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verbose := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verbose)
	assert.Equal(t, "v", verbose.Shorthand)
	assert.Equal(t, "false", verbose.DefValue)

	format := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, format)
	assert.Equal(t, "text", format.DefValue)
}

func TestInvalidFormatRejected(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--format", "xml", "validate", "nope.json"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestAuditCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	auditCmd, _, err := cmd.Find([]string{"audit"})
	require.NoError(t, err)

	require.NotNil(t, auditCmd.Flags().Lookup("repair"))
	require.NotNil(t, auditCmd.Flags().Lookup("journal"))
	require.NotNil(t, auditCmd.Flags().Lookup("max-passes"))
}

func TestExplodeCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	explodeCmd, _, err := cmd.Find([]string{"explode"})
	require.NoError(t, err)

	require.NotNil(t, explodeCmd.Flags().Lookup("handle"))
	target := explodeCmd.Flags().Lookup("target")
	require.NotNil(t, target)
	assert.Equal(t, "arc", target.DefValue)
}
