package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCmdRegistersSubcommands(t *testing.T) {
	t.Parallel()

	cmd := NewRootCmd("1.2.3", "abc123", "2026-08-28")

	names := make([]string, 0)
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}

	for _, expected := range []string{"init", "up", "connect", "verify", "down", "cluster"} {
		assert.Contains(t, names, expected)
	}

	assert.Contains(t, cmd.Version, "1.2.3")
	assert.Contains(t, cmd.Version, "abc123")
}

func TestRootCmdPrintsHelp(t *testing.T) {
	t.Parallel()

	cmd := NewRootCmd("dev", "none", "unknown")

	var out bytes.Buffer

	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "mksandbox")
	assert.Contains(t, out.String(), "Available Commands")
}
