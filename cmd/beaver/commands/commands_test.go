package commands

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_Flags(t *testing.T) {
	cmd := Init()

	assert.Equal(t, "init <dir>", cmd.Use)
	for name, short := range map[string]string{"project": "p", "region": "r", "name": "n", "force": ""} {
		flag := cmd.Flags().Lookup(name)
		require.NotNil(t, flag, "%s flag should exist", name)
		assert.Equal(t, short, flag.Shorthand)
	}
	assert.Equal(t, "false", cmd.Flags().Lookup("force").DefValue)
}

func TestDeploy_Flags(t *testing.T) {
	cmd := Deploy()

	assert.Equal(t, "deploy <dir>", cmd.Use)
	assert.Contains(t, cmd.Long, "Cloud Scheduler trigger")
	for _, name := range []string{"parallel", "rollback", "log-level"} {
		assert.NotNil(t, cmd.Flags().Lookup(name), "%s flag should exist", name)
	}
	assert.Equal(t, "false", cmd.Flags().Lookup("parallel").DefValue)
	assert.NotNil(t, cmd.RunE)
}

func TestDestroy_Flags(t *testing.T) {
	cmd := Destroy()

	assert.Equal(t, "destroy <dir>", cmd.Use)
	assert.Contains(t, cmd.Long, "WARNING")
	assert.NotNil(t, cmd.Flags().Lookup("log-level"))
	assert.NotNil(t, cmd.RunE)
}

func TestVersion_Output(t *testing.T) {
	origVersion, origCommit, origDate := version, commit, date
	defer func() {
		version, commit, date = origVersion, origCommit, origDate
	}()

	SetVersionInfo("1.2.3", "abc123", "2026-01-01")

	var out bytes.Buffer
	cmd := Version()
	cmd.SetOut(&out)
	require.NoError(t, cmd.Execute())

	assert.Contains(t, out.String(), "beaver 1.2.3")
	assert.Contains(t, out.String(), "commit: abc123")
	assert.Contains(t, out.String(), "built:  2026-01-01")
}

func TestCompletion(t *testing.T) {
	for _, shell := range []string{"bash", "zsh", "fish", "powershell"} {
		t.Run(shell, func(t *testing.T) {
			var out bytes.Buffer
			root := Root()
			root.SetOut(&out)
			root.SetArgs([]string{"completion", shell})

			require.NoError(t, root.Execute())
			assert.NotEmpty(t, out.String())
		})
	}
}

func TestCompletion_InvalidShell(t *testing.T) {
	root := Root()
	root.SetArgs([]string{"completion", "tcsh"})
	assert.Error(t, root.Execute())
}
