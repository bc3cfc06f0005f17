package naming

import (
	"fmt"
	"strings"
)

// DefaultTable is used when the resource model leaves table_id empty.
const DefaultTable = "table1"

// DatasetPrefix starts every auto-generated dataset name.
const DatasetPrefix = "beaver_datalake_"

// VolumeName is the job volume backed by the routing config bucket.
const VolumeName = "vector-config"

// RoutingObject is the object key of the routing config in the bucket.
const RoutingObject = "vector.yaml"

// MountPath is where the job container sees the routing config.
const MountPath = "/etc/vector"

func Topic(deployment string) string {
	return fmt.Sprintf("%s-events", deployment)
}

func Bucket(project, deployment string) string {
	return fmt.Sprintf("%s-%s-vector", project, deployment)
}

func Job(deployment string) string {
	return fmt.Sprintf("%s-vector", deployment)
}

func Scheduler(deployment string) string {
	return fmt.Sprintf("%s-vector-trigger", deployment)
}

// RunJobURI is the Cloud Run admin endpoint a scheduler calls to start job.
func RunJobURI(region, project, job string) string {
	return fmt.Sprintf("https://%s-run.googleapis.com/apis/run.googleapis.com/v1/namespaces/%s/jobs/%s:run", region, project, job)
}

// DatasetRef identifies a BigQuery dataset.
type DatasetRef struct {
	Project string
	Dataset string
}

// String returns the project:dataset form used by bq.
func (d DatasetRef) String() string {
	return d.Project + ":" + d.Dataset
}

// TableRef returns the project:dataset.table form used by bq.
func (d DatasetRef) TableRef(table string) string {
	return d.String() + "." + table
}

// ParseDatasetRef parses the project:dataset form.
func ParseDatasetRef(s string) (DatasetRef, error) {
	project, dataset, ok := strings.Cut(s, ":")
	if !ok || project == "" || dataset == "" || strings.Contains(dataset, ".") {
		return DatasetRef{}, fmt.Errorf("invalid dataset reference %q", s)
	}
	return DatasetRef{Project: project, Dataset: dataset}, nil
}

// ParseTableRef parses the project:dataset.table form.
func ParseTableRef(s string) (DatasetRef, string, error) {
	head, table, ok := strings.Cut(s, ".")
	if !ok || table == "" {
		return DatasetRef{}, "", fmt.Errorf("invalid table reference %q", s)
	}
	ref, err := ParseDatasetRef(head)
	if err != nil {
		return DatasetRef{}, "", fmt.Errorf("invalid table reference %q", s)
	}
	return ref, table, nil
}
