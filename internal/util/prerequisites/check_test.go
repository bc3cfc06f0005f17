package prerequisites

import (
	"errors"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeLookPath(found ...string) LookPathFunc {
	return func(name string) (string, error) {
		for _, f := range found {
			if f == name {
				return "/usr/bin/" + name, nil
			}
		}
		return "", exec.ErrNotFound
	}
}

func TestCheckWith_AllFound(t *testing.T) {
	t.Parallel()
	results := CheckWith(fakeLookPath("gcloud", "bq"), DeployTools())

	require.Len(t, results.Results, 2)
	assert.True(t, results.Results[0].Found)
	assert.Equal(t, "/usr/bin/gcloud", results.Results[0].Path)
	assert.False(t, results.HasErrors())
	assert.NoError(t, results.Error())
}

func TestCheckWith_MissingRequired(t *testing.T) {
	t.Parallel()
	results := CheckWith(fakeLookPath("gcloud"), DeployTools())

	require.True(t, results.HasErrors())
	err := results.Error()

	var missing *MissingError
	require.True(t, errors.As(err, &missing))
	require.Len(t, missing.Tools, 1)
	assert.Equal(t, "bq", missing.Tools[0].Name)
	assert.Contains(t, err.Error(), "bq (https://cloud.google.com/bigquery/docs/bq-command-line-tool)")
}

func TestCheckWith_OptionalMissing(t *testing.T) {
	t.Parallel()
	results := CheckWith(fakeLookPath(), []Tool{{Name: "gsutil", Required: false}})

	assert.Len(t, results.Missing, 1)
	assert.False(t, results.HasErrors())
	assert.NoError(t, results.Error())
}

func TestCheck_NonexistentTool(t *testing.T) {
	t.Parallel()
	results := Check([]Tool{{Name: "nonexistent-tool-xyz123", Required: true}})

	assert.Len(t, results.Missing, 1)
	assert.Error(t, results.Error())
}

func TestDeployTools(t *testing.T) {
	t.Parallel()
	names := make([]string, 0)
	for _, tool := range DeployTools() {
		assert.True(t, tool.Required, "%s should be required", tool.Name)
		names = append(names, tool.Name)
	}
	assert.Equal(t, []string{"gcloud", "bq"}, names)
}
