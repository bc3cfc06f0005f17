package provisioning

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/require"

	"github.com/beaver-logs/beaver/internal/config"
	"github.com/beaver-logs/beaver/internal/naming"
	"github.com/beaver-logs/beaver/internal/platform/executor"
	"github.com/beaver-logs/beaver/internal/resources"
)

const (
	testProject = "acme-logs"
	testRegion  = "europe-west1"
)

const testFragment = `sources:
  app_logs:
    type: file
    include:
      - /var/log/app/*.log
transforms:
  parse:
    type: remap
    inputs: [app_logs]
    source: . = parse_json!(.message)
  drop_debug:
    type: filter
    inputs: [parse]
    condition: .level != "debug"
`

const testManifest = `apiVersion: run.googleapis.com/v1
kind: Job
metadata:
  name: logs-vector
spec:
  template:
    spec:
      template:
        spec:
          containers:
          - image: docker.io/timberio/vector:0.39.0-alpine
`

const resolvedModel = `bigquery:
  project_id: acme-logs
  dataset_id: beaver_datalake_k3j9x0q2m
  table_id: table1
  provisioned: true
pubsub:
  project_id: acme-logs
  topic_id: logs-events
  provisioned: true
bucket:
  bucket_name: acme-logs-logs-vector
  provisioned: true
job:
  job_name: logs-vector
  image_reference: docker.io/timberio/vector:0.39.0-alpine
  provisioned: true
scheduler:
  name: logs-vector-trigger
  schedule_expression: '*/15 * * * *'
  target_job: logs-vector
  provisioned: true
`

// Command prefixes of every create call a deployment can issue.
var createPrefixes = []string{
	"bq mk",
	"gcloud pubsub topics create",
	"gcloud storage buckets create",
	"gcloud run jobs create",
	"gcloud scheduler jobs create",
}

// testingT is satisfied by *testing.T and GinkgoT().
type testingT interface {
	require.TestingT
	Helper()
	TempDir() string
}

type testEnv struct {
	layout   config.Layout
	runner   *executor.FakeRunner
	observer *MockObserver

	mu       sync.Mutex
	replaced [][]byte
}

// newTestEnv prepares a configuration root with config.yaml and the
// pipeline fragment, and a fake runner answering job describes.
func newTestEnv(t testingT, mutate func(*config.Config)) *testEnv {
	t.Helper()
	root := filepath.Join(t.TempDir(), "deploy")
	require.NoError(t, os.MkdirAll(root, 0o755))
	layout := config.NewLayout(root)

	cfg := &config.Config{
		Project:        testProject,
		Region:         testRegion,
		Name:           "logs",
		Image:          "docker.io/timberio/vector:0.39.0-alpine",
		ServiceAccount: "runner@acme-logs.iam.gserviceaccount.com",
	}
	if mutate != nil {
		mutate(cfg)
	}
	require.NoError(t, config.Save(layout.ConfigFile(), cfg))
	writeFile(t, layout.FragmentFile(), testFragment)

	env := &testEnv{layout: layout, observer: NewMockObserver()}
	env.runner = executor.NewFakeRunner().
		On("gcloud run jobs describe", executor.Succeed(testManifest)).
		On("gcloud beta run jobs replace", env.captureReplace)
	return env
}

// captureReplace keeps the resubmitted manifest; the patcher deletes the file.
func (e *testEnv) captureReplace(call executor.Call) (*executor.Result, error) {
	data, err := os.ReadFile(call.Args[4])
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	e.replaced = append(e.replaced, data)
	e.mu.Unlock()
	return &executor.Result{}, nil
}

func (e *testEnv) Replaced() [][]byte {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([][]byte(nil), e.replaced...)
}

// newContext builds a provisioning context running against the fake runner.
func (e *testEnv) newContext(ctx context.Context) *Context {
	pctx := NewContext(ctx, e.layout, logr.Discard())
	pctx.Runner = e.runner
	pctx.Observer = e.observer
	pctx.CheckPrerequisites = func() error { return nil }
	pctx.Suffix = naming.SeededSuffix(42)
	return pctx
}

func (e *testEnv) writeModel(t testingT, content string) {
	t.Helper()
	writeFile(t, e.layout.ResourcesFile(), content)
}

func (e *testEnv) loadModel(t testingT) *resources.Model {
	t.Helper()
	m, err := resources.Load(e.layout.ResourcesFile())
	require.NoError(t, err)
	return m
}

func (e *testEnv) createCalls() []executor.Call {
	var out []executor.Call
	for _, p := range createPrefixes {
		out = append(out, e.runner.CallsMatching(p)...)
	}
	return out
}

func writeFile(t testingT, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func commandLines(calls []executor.Call) []string {
	out := make([]string, len(calls))
	for i, c := range calls {
		out[i] = c.String()
	}
	return out
}
