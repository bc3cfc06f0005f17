package manifest

import (
	"context"
	"fmt"
	"os"

	"github.com/go-logr/logr"
)

// JobClient exports and replaces Cloud Run job manifests.
type JobClient interface {
	// DescribeJob returns the exported manifest of a job.
	DescribeJob(ctx context.Context, name string) ([]byte, error)

	// ReplaceJob resubmits the manifest stored at path.
	ReplaceJob(ctx context.Context, path string) error
}

// Patcher attaches the routing config volume to a deployed job.
type Patcher struct {
	Jobs JobClient
	Log  logr.Logger

	// TempDir holds the patched manifest during replace. Empty means the
	// system temp directory.
	TempDir string
}

// NewPatcher creates a patcher.
func NewPatcher(jobs JobClient, log logr.Logger) *Patcher {
	return &Patcher{Jobs: jobs, Log: log}
}

// PatchAndResubmit exports job, mounts v into its first container and
// replaces the job with the result. Nothing is resubmitted when the export
// lacks the expected structure.
func (p *Patcher) PatchAndResubmit(ctx context.Context, job string, v Volume) error {
	doc, err := p.Jobs.DescribeJob(ctx, job)
	if err != nil {
		return fmt.Errorf("failed to describe job %s: %w", job, err)
	}

	patched, err := Patch(doc, v)
	if err != nil {
		return fmt.Errorf("failed to patch job %s: %w", job, err)
	}

	f, err := os.CreateTemp(p.TempDir, "beaver-job-*.yaml")
	if err != nil {
		return fmt.Errorf("failed to create manifest file: %w", err)
	}
	path := f.Name()
	defer func() {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			p.Log.Error(err, "failed to remove manifest file", "path", path)
		}
	}()

	if _, err := f.Write(patched); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write manifest file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write manifest file: %w", err)
	}

	p.Log.V(1).Info("replacing job", "job", job, "volume", v.Name, "bucket", v.BucketName)
	if err := p.Jobs.ReplaceJob(ctx, path); err != nil {
		return fmt.Errorf("failed to replace job %s: %w", job, err)
	}
	return nil
}
