package manifest

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	sigsyaml "sigs.k8s.io/yaml"
)

const exportedJob = `apiVersion: run.googleapis.com/v1
kind: Job
metadata:
  name: logs-vector
  labels:
    managed-by: beaver
spec:
  template:
    spec:
      taskCount: 1
      template:
        spec:
          maxRetries: 3
          containers:
          - image: docker.io/timberio/vector:latest-alpine
            resources:
              limits:
                memory: 512Mi
`

var testVolume = Volume{Name: "vector-config", BucketName: "acme-logs-vector", MountPath: "/etc/vector"}

func decode(t *testing.T, doc []byte) map[string]interface{} {
	t.Helper()
	var obj map[string]interface{}
	require.NoError(t, sigsyaml.Unmarshal(doc, &obj))
	return obj
}

func TestPatch_AddsVolumeAndMount(t *testing.T) {
	t.Parallel()
	out, err := Patch([]byte(exportedJob), testVolume)
	require.NoError(t, err)
	obj := decode(t, out)

	containers, found, err := unstructured.NestedSlice(obj, "spec", "template", "spec", "template", "spec", "containers")
	require.NoError(t, err)
	require.True(t, found)
	require.Len(t, containers, 1)
	mounts := containers[0].(map[string]interface{})["volumeMounts"].([]interface{})
	assert.Equal(t, []interface{}{
		map[string]interface{}{"mountPath": "/etc/vector", "name": "vector-config"},
	}, mounts)

	volumes, found, err := unstructured.NestedSlice(obj, "spec", "template", "spec", "template", "spec", "volumes")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, []interface{}{
		map[string]interface{}{
			"name": "vector-config",
			"csi": map[string]interface{}{
				"driver":           CSIDriver,
				"volumeAttributes": map[string]interface{}{"bucketName": "acme-logs-vector"},
			},
		},
	}, volumes)

	// Untouched fields survive.
	image, _, _ := unstructured.NestedString(containers[0].(map[string]interface{}), "image")
	assert.Equal(t, "docker.io/timberio/vector:latest-alpine", image)
	retries, _, _ := unstructured.NestedFieldNoCopy(obj, "spec", "template", "spec", "template", "spec", "maxRetries")
	assert.EqualValues(t, 3, retries)
	name, _, _ := unstructured.NestedString(obj, "metadata", "name")
	assert.Equal(t, "logs-vector", name)
}

func TestPatch_Idempotent(t *testing.T) {
	t.Parallel()
	once, err := Patch([]byte(exportedJob), testVolume)
	require.NoError(t, err)
	twice, err := Patch(once, testVolume)
	require.NoError(t, err)

	assert.YAMLEq(t, string(once), string(twice))
}

func TestPatch_KeepsOtherVolumes(t *testing.T) {
	t.Parallel()
	doc := `spec:
  template:
    spec:
      template:
        spec:
          containers:
          - image: vector
            volumeMounts:
            - name: secrets
              mountPath: /secrets
            - name: vector-config
              mountPath: /old
          volumes:
          - name: secrets
            secret: {secretName: s}
`
	out, err := Patch([]byte(doc), testVolume)
	require.NoError(t, err)
	obj := decode(t, out)

	containers, _, _ := unstructured.NestedSlice(obj, "spec", "template", "spec", "template", "spec", "containers")
	mounts := containers[0].(map[string]interface{})["volumeMounts"].([]interface{})
	require.Len(t, mounts, 2)
	assert.Equal(t, "secrets", mounts[0].(map[string]interface{})["name"])
	assert.Equal(t, "/etc/vector", mounts[1].(map[string]interface{})["mountPath"])

	volumes, _, _ := unstructured.NestedSlice(obj, "spec", "template", "spec", "template", "spec", "volumes")
	assert.Len(t, volumes, 2)
}

func TestPatch_StructureErrors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name        string
		doc         string
		wantSegment string
		wantPath    string
	}{
		{"empty", "", "spec", "spec"},
		{"no spec", "kind: Job\n", "spec", "spec"},
		{"single template level", "spec:\n  template:\n    spec:\n      containers: []\n", "template", "spec.template.spec.template"},
		{"no pod spec", "spec:\n  template:\n    spec:\n      template: {}\n", "spec", "spec.template.spec.template.spec"},
		{"no containers", "spec:\n  template:\n    spec:\n      template:\n        spec: {maxRetries: 1}\n", "containers[0]", "spec.template.spec.template.spec.containers"},
		{"empty containers", "spec:\n  template:\n    spec:\n      template:\n        spec: {containers: []}\n", "containers[0]", "spec.template.spec.template.spec.containers"},
		{"scalar template", "spec:\n  template: nope\n", "template", "spec.template"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Patch([]byte(tt.doc), testVolume)
			var se *StructureError
			require.True(t, errors.As(err, &se), "got %v", err)
			assert.Equal(t, tt.wantSegment, se.Segment)
			assert.Equal(t, tt.wantPath, se.Path)
		})
	}
}

func TestPatch_InvalidYAML(t *testing.T) {
	t.Parallel()
	_, err := Patch([]byte("spec: [unterminated"), testVolume)
	require.Error(t, err)
	var se *StructureError
	assert.False(t, errors.As(err, &se))
}
