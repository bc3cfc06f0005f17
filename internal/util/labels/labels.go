package labels

import (
	"sort"
	"strings"
)

// Standard label keys.
const (
	// KeyDeployment identifies which deployment a resource belongs to.
	KeyDeployment = "beaver-deployment"

	// KeyComponent identifies the pipeline component.
	KeyComponent = "beaver-component"

	// KeyManagedBy identifies the management system.
	KeyManagedBy = "managed-by"
)

// Component values.
const (
	ComponentTopic  = "topic"
	ComponentBucket = "bucket"
	ComponentJob    = "job"
)

// ManagedByBeaver marks resources created by this tool.
const ManagedByBeaver = "beaver"

// LabelBuilder provides a fluent interface for building resource labels.
type LabelBuilder struct {
	labels map[string]string
}

// NewLabelBuilder creates a new label builder with the deployment name pre-set.
func NewLabelBuilder(deployment string) *LabelBuilder {
	return &LabelBuilder{
		labels: map[string]string{
			KeyDeployment: Sanitize(deployment),
			KeyManagedBy:  ManagedByBeaver,
		},
	}
}

// WithComponent sets the component label.
func (lb *LabelBuilder) WithComponent(component string) *LabelBuilder {
	lb.labels[KeyComponent] = component
	return lb
}

// Build returns a copy of the labels map.
func (lb *LabelBuilder) Build() map[string]string {
	result := make(map[string]string, len(lb.labels))
	for k, v := range lb.labels {
		result[k] = v
	}
	return result
}

// Flag renders labels as "k1=v1,k2=v2" with keys sorted.
func Flag(labels map[string]string) string {
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+labels[k])
	}
	return strings.Join(parts, ",")
}

// Sanitize lowercases s and replaces characters Google Cloud rejects in
// label keys and values with dashes. Values are truncated to 63 characters.
func Sanitize(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}
	out := b.String()
	if len(out) > 63 {
		out = out[:63]
	}
	return out
}
