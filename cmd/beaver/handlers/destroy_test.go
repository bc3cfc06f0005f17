package handlers

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beaver-logs/beaver/internal/config"
	"github.com/beaver-logs/beaver/internal/provisioning"
	"github.com/beaver-logs/beaver/internal/resources"
)

func TestDestroy_AfterDeploy(t *testing.T) {
	runner := newRunner()
	out := stubEnvironment(t, runner, nil)
	root := initRoot(t)
	require.NoError(t, Deploy(t.Context(), root, DeployOptions{}))
	out.Reset()

	require.NoError(t, Destroy(t.Context(), root, DestroyOptions{}))

	m, err := resources.Load(config.NewLayout(root).ResourcesFile())
	require.NoError(t, err)
	_, ok := m.Job()
	assert.False(t, ok)
	assert.Len(t, runner.CallsMatching("gcloud scheduler jobs delete"), 1)
	assert.Len(t, runner.CallsMatching("bq rm -r -f --dataset"), 1)
	assert.Contains(t, out.String(), "beaver destroy: logs")
	assert.Contains(t, out.String(), "Destroyed")
}

func TestDestroy_Failure(t *testing.T) {
	stubEnvironment(t, newRunner(), nil)
	origDestroy := runDestroy
	defer func() { runDestroy = origDestroy }()
	runDestroy = func(_ *provisioning.Context) error { return errors.New("bucket is locked") }

	err := Destroy(t.Context(), initRoot(t), DestroyOptions{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "destroy failed: bucket is locked")
}
