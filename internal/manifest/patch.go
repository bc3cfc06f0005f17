package manifest

import (
	"fmt"
	"strings"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	sigsyaml "sigs.k8s.io/yaml"
)

// CSIDriver is the Cloud Run gcsfuse volume driver.
const CSIDriver = "gcsfuse.run.googleapis.com"

// podSpecPath locates the task pod spec in an exported Cloud Run job. The
// nesting is job spec -> execution template -> task template.
var podSpecPath = []string{"spec", "template", "spec", "template", "spec"}

// Volume describes the bucket volume to attach.
type Volume struct {
	Name       string
	BucketName string
	MountPath  string
}

// StructureError reports a manifest without an expected field.
type StructureError struct {
	Segment string
	Path    string
}

func (e *StructureError) Error() string {
	return fmt.Sprintf("job manifest is missing %q at %s", e.Segment, e.Path)
}

// Patch adds the volume and its mount to the first container of a job
// manifest. Entries with the same name are replaced, so patching twice
// yields the same document.
func Patch(doc []byte, v Volume) ([]byte, error) {
	obj := &unstructured.Unstructured{}
	if err := sigsyaml.Unmarshal(doc, &obj.Object); err != nil {
		return nil, fmt.Errorf("failed to decode job manifest: %w", err)
	}
	if obj.Object == nil {
		return nil, &StructureError{Segment: podSpecPath[0], Path: podSpecPath[0]}
	}

	podSpec, err := walk(obj.Object, podSpecPath)
	if err != nil {
		return nil, err
	}

	containersPath := strings.Join(podSpecPath, ".") + ".containers"
	containers, found, err := unstructured.NestedSlice(podSpec, "containers")
	if err != nil || !found || len(containers) == 0 {
		return nil, &StructureError{Segment: "containers[0]", Path: containersPath}
	}
	container, ok := containers[0].(map[string]interface{})
	if !ok {
		return nil, &StructureError{Segment: "containers[0]", Path: containersPath}
	}

	mounts, _, _ := unstructured.NestedSlice(container, "volumeMounts")
	container["volumeMounts"] = upsertByName(mounts, map[string]interface{}{
		"mountPath": v.MountPath,
		"name":      v.Name,
	})
	containers[0] = container
	if err := unstructured.SetNestedSlice(podSpec, containers, "containers"); err != nil {
		return nil, fmt.Errorf("failed to set containers: %w", err)
	}

	volumes, _, _ := unstructured.NestedSlice(podSpec, "volumes")
	podSpec["volumes"] = upsertByName(volumes, map[string]interface{}{
		"name": v.Name,
		"csi": map[string]interface{}{
			"driver": CSIDriver,
			"volumeAttributes": map[string]interface{}{
				"bucketName": v.BucketName,
			},
		},
	})

	if err := unstructured.SetNestedMap(obj.Object, podSpec, podSpecPath...); err != nil {
		return nil, fmt.Errorf("failed to set pod spec: %w", err)
	}

	out, err := sigsyaml.Marshal(obj.Object)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal job manifest: %w", err)
	}
	return out, nil
}

// walk returns a copy of the map at path, naming the first missing segment.
func walk(obj map[string]interface{}, path []string) (map[string]interface{}, error) {
	for i := range path {
		m, found, err := unstructured.NestedMap(obj, path[:i+1]...)
		if err != nil || !found || m == nil {
			return nil, &StructureError{Segment: path[i], Path: strings.Join(path[:i+1], ".")}
		}
		if i == len(path)-1 {
			return m, nil
		}
	}
	return nil, &StructureError{Path: strings.Join(path, ".")}
}

func upsertByName(list []interface{}, entry map[string]interface{}) []interface{} {
	name := entry["name"]
	out := make([]interface{}, 0, len(list)+1)
	for _, item := range list {
		if m, ok := item.(map[string]interface{}); ok && m["name"] == name {
			continue
		}
		out = append(out, item)
	}
	return append(out, entry)
}
