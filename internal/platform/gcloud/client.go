package gcloud

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"

	"github.com/beaver-logs/beaver/internal/naming"
	"github.com/beaver-logs/beaver/internal/platform/executor"
	"github.com/beaver-logs/beaver/internal/util/labels"
)

const (
	toolBQ     = "bq"
	toolGcloud = "gcloud"
)

// Client issues bq and gcloud commands scoped to one project and region.
type Client struct {
	runner  executor.Runner
	project string
	region  string
	log     logr.Logger
}

// NewClient creates a client.
func NewClient(runner executor.Runner, project, region string, log logr.Logger) *Client {
	return &Client{runner: runner, project: project, region: region, log: log}
}

func (c *Client) run(ctx context.Context, tool string, args ...string) (*executor.Result, error) {
	return executor.RunChecked(ctx, c.runner, c.log, executor.StderrLogged, tool, args...)
}

func (c *Client) gcloud(ctx context.Context, args ...string) error {
	_, err := c.run(ctx, toolGcloud, append(args, "--project", c.project)...)
	return err
}

// regional appends the Cloud Run region flag.
func (c *Client) regional(args ...string) []string {
	return append(args, "--region", c.region)
}

// CreateDataset runs bq mk --dataset.
func (c *Client) CreateDataset(ctx context.Context, ref naming.DatasetRef) error {
	_, err := c.run(ctx, toolBQ, "mk", "--dataset", ref.String())
	return err
}

// CreateTable creates a table with a single JSON column named data.
func (c *Client) CreateTable(ctx context.Context, ref naming.DatasetRef, table string) error {
	_, err := c.run(ctx, toolBQ, "mk", "--table", ref.TableRef(table), "data:JSON")
	return err
}

// DeleteTable removes one table.
func (c *Client) DeleteTable(ctx context.Context, ref naming.DatasetRef, table string) error {
	_, err := c.run(ctx, toolBQ, "rm", "-f", "--table", ref.TableRef(table))
	return err
}

// DeleteDataset removes a dataset and all of its tables.
func (c *Client) DeleteDataset(ctx context.Context, ref naming.DatasetRef) error {
	_, err := c.run(ctx, toolBQ, "rm", "-r", "-f", "--dataset", ref.String())
	return err
}

// CreateTopic creates a Pub/Sub topic.
func (c *Client) CreateTopic(ctx context.Context, project, topic string, l map[string]string) error {
	args := withLabels([]string{"pubsub", "topics", "create", topic}, l)
	_, err := c.run(ctx, toolGcloud, append(args, "--project", project)...)
	return err
}

// DeleteTopic deletes a Pub/Sub topic.
func (c *Client) DeleteTopic(ctx context.Context, project, topic string) error {
	_, err := c.run(ctx, toolGcloud, "pubsub", "topics", "delete", topic, "--project", project)
	return err
}

// CreateBucket creates a bucket in location.
func (c *Client) CreateBucket(ctx context.Context, bucket, location string, l map[string]string) error {
	return c.gcloud(ctx, withLabels([]string{"storage", "buckets", "create", gsURL(bucket), "--location", location}, l)...)
}

// Upload copies a local file to bucket/object.
func (c *Client) Upload(ctx context.Context, bucket, object, localPath string) error {
	return c.gcloud(ctx, "storage", "cp", localPath, gsURL(bucket)+"/"+object)
}

// DeleteBucket removes a bucket and its objects.
func (c *Client) DeleteBucket(ctx context.Context, bucket string) error {
	return c.gcloud(ctx, "storage", "rm", "-r", gsURL(bucket))
}

// CreateJob creates a Cloud Run job running image.
func (c *Client) CreateJob(ctx context.Context, job, image string, l map[string]string) error {
	args := withLabels([]string{"run", "jobs", "create", job, "--image", image}, l)
	return c.gcloud(ctx, c.regional(args...)...)
}

// DescribeJob exports the job manifest. Any stderr output fails the call.
func (c *Client) DescribeJob(ctx context.Context, job string) ([]byte, error) {
	args := c.regional("run", "jobs", "describe", job, "--format", "export")
	res, err := executor.RunChecked(ctx, c.runner, c.log, executor.StderrFatal, toolGcloud, append(args, "--project", c.project)...)
	if err != nil {
		return nil, err
	}
	return res.Stdout, nil
}

// ReplaceJob resubmits the job manifest stored at path.
func (c *Client) ReplaceJob(ctx context.Context, path string) error {
	return c.gcloud(ctx, c.regional("beta", "run", "jobs", "replace", path)...)
}

// DeleteJob deletes a Cloud Run job.
func (c *Client) DeleteJob(ctx context.Context, job string) error {
	return c.gcloud(ctx, c.regional("run", "jobs", "delete", job, "--quiet")...)
}

// CreateScheduler creates an HTTP scheduler job that POSTs to uri on
// schedule. serviceAccount, if set, signs the request.
func (c *Client) CreateScheduler(ctx context.Context, name, schedule, uri, serviceAccount string) error {
	args := []string{
		"scheduler", "jobs", "create", "http", name,
		"--schedule", schedule,
		"--uri", uri,
		"--http-method", "POST",
		"--location", c.region,
	}
	if serviceAccount != "" {
		args = append(args, "--oauth-service-account-email", serviceAccount)
	}
	return c.gcloud(ctx, args...)
}

// DeleteScheduler deletes a scheduler job.
func (c *Client) DeleteScheduler(ctx context.Context, name string) error {
	return c.gcloud(ctx, "scheduler", "jobs", "delete", name, "--quiet", "--location", c.region)
}

func withLabels(args []string, l map[string]string) []string {
	if len(l) == 0 {
		return args
	}
	return append(args, "--labels", labels.Flag(l))
}

func gsURL(bucket string) string {
	return fmt.Sprintf("gs://%s", bucket)
}
