package provisioning

import (
	"context"

	"github.com/beaver-logs/beaver/internal/manifest"
	"github.com/beaver-logs/beaver/internal/naming"
)

// Phase defines the interface for a provisioning phase.
type Phase interface {
	// Name returns the human-readable name of this phase.
	Name() string

	// Provision executes the provisioning logic for this phase.
	Provision(ctx *Context) error
}

// Warehouse manages BigQuery datasets and tables.
// Implemented by internal/platform/gcloud.Client.
type Warehouse interface {
	naming.DatasetCreator

	// CreateTable creates table in the dataset ref.
	CreateTable(ctx context.Context, ref naming.DatasetRef, table string) error
	DeleteTable(ctx context.Context, ref naming.DatasetRef, table string) error

	// DeleteDataset removes a dataset together with its tables.
	DeleteDataset(ctx context.Context, ref naming.DatasetRef) error
}

// Topics manages Pub/Sub topics.
// Implemented by internal/platform/gcloud.Client and internal/platform/pubsub.Client.
type Topics interface {
	CreateTopic(ctx context.Context, project, topic string, labels map[string]string) error
	DeleteTopic(ctx context.Context, project, topic string) error
}

// Buckets manages the bucket holding the routing config.
// Implemented by internal/platform/gcloud.Client, internal/platform/gcs.Client
// and internal/platform/s3.Client.
type Buckets interface {
	CreateBucket(ctx context.Context, bucket, location string, labels map[string]string) error

	// Upload copies the local file at localPath to bucket/object,
	// replacing an existing object.
	Upload(ctx context.Context, bucket, object, localPath string) error

	// DeleteBucket removes the bucket and every object in it.
	DeleteBucket(ctx context.Context, bucket string) error
}

// Jobs manages Cloud Run jobs. DescribeJob and ReplaceJob come from the
// manifest patcher contract.
type Jobs interface {
	manifest.JobClient

	CreateJob(ctx context.Context, job, image string, labels map[string]string) error
	DeleteJob(ctx context.Context, job string) error
}

// Schedulers manages Cloud Scheduler triggers.
type Schedulers interface {
	// CreateScheduler creates an HTTP trigger that POSTs to uri on schedule.
	// serviceAccount may be empty.
	CreateScheduler(ctx context.Context, name, schedule, uri, serviceAccount string) error
	DeleteScheduler(ctx context.Context, name string) error
}
