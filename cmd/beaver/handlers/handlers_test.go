package handlers

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/require"

	"github.com/beaver-logs/beaver/internal/config"
	"github.com/beaver-logs/beaver/internal/logging"
	"github.com/beaver-logs/beaver/internal/naming"
	"github.com/beaver-logs/beaver/internal/platform/executor"
	"github.com/beaver-logs/beaver/internal/provisioning"
)

const jobManifest = `apiVersion: run.googleapis.com/v1
kind: Job
metadata:
  name: logs-vector
spec:
  template:
    spec:
      template:
        spec:
          containers:
          - image: docker.io/timberio/vector:latest-alpine
`

// stubEnvironment points the handlers at runner, silences the console and
// captures stdout. It returns the captured output.
func stubEnvironment(t *testing.T, runner executor.Runner, prereqs func() error) *bytes.Buffer {
	t.Helper()
	origCtx, origLogger, origStdout := newProvisioningContext, newLogger, stdout
	t.Cleanup(func() {
		newProvisioningContext, newLogger, stdout = origCtx, origLogger, origStdout
	})

	if prereqs == nil {
		prereqs = func() error { return nil }
	}
	newProvisioningContext = func(ctx context.Context, layout config.Layout, log logr.Logger) *provisioning.Context {
		pCtx := provisioning.NewContext(ctx, layout, log)
		pCtx.Runner = runner
		pCtx.CheckPrerequisites = prereqs
		pCtx.Suffix = naming.SeededSuffix(1)
		return pCtx
	}
	newLogger = func(opts logging.Options) (logr.Logger, func() error, error) {
		opts.Console = io.Discard
		return logging.New(opts)
	}

	out := &bytes.Buffer{}
	stdout = out
	return out
}

func newRunner() *executor.FakeRunner {
	return executor.NewFakeRunner().On("gcloud run jobs describe", executor.Succeed(jobManifest))
}

// initRoot creates a configuration root through Init.
func initRoot(t *testing.T) string {
	t.Helper()
	root := filepath.Join(t.TempDir(), "deploy")
	require.NoError(t, Init(t.Context(), root, InitOptions{
		Project: "acme-logs",
		Region:  "europe-west1",
		Name:    "logs",
	}))
	return root
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}
