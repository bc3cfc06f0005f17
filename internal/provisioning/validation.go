package provisioning

import (
	"fmt"
	"strings"

	"github.com/beaver-logs/beaver/internal/naming"
)

// ValidationError represents a deployment validation error or warning.
type ValidationError struct {
	Field    string // Configuration or resource field that failed validation
	Message  string // Human-readable error message
	Severity string // "error" or "warning"
}

// Error implements the error interface.
func (ve ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", ve.Severity, ve.Field, ve.Message)
}

// IsError returns true if this is an error (not a warning).
func (ve ValidationError) IsError() bool {
	return ve.Severity == "error"
}

// checkDeployment reports findings about the loaded configuration and
// resource model and fails on errors. Warnings are only logged.
func checkDeployment(ctx *Context, phase string) error {
	var errs []string
	for _, ve := range validate(ctx) {
		LogValidation(ctx.Observer, phase, ve)
		if ve.IsError() {
			errs = append(errs, ve.Error())
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("deployment validation failed:\n  %s", strings.Join(errs, "\n  "))
	}
	return nil
}

// validate runs all checks against ctx.Config and ctx.Model.
func validate(ctx *Context) []ValidationError {
	var errs []ValidationError
	cfg := ctx.Config

	// --- Configuration ---

	if cfg.ServiceAccount == "" {
		errs = append(errs, ValidationError{
			Field:    "service_account",
			Message:  "no service account set, the trigger will call the Run API without an OAuth identity",
			Severity: "warning",
		})
	}

	if !strings.Contains(imageTag(cfg.Image), ":") || strings.HasSuffix(cfg.Image, ":latest") ||
		strings.Contains(cfg.Image, ":latest-") {
		errs = append(errs, ValidationError{
			Field:    "image",
			Message:  fmt.Sprintf("image %q is not pinned to a release, job runs may change behaviour", cfg.Image),
			Severity: "warning",
		})
	}

	// --- Resource model ---

	if t, ok := ctx.Model.Table(); ok {
		if t.ProjectID != "" && t.ProjectID != cfg.Project {
			errs = append(errs, ValidationError{
				Field:    "bigquery.project_id",
				Message:  fmt.Sprintf("dataset lives in project %s, other resources in %s", t.ProjectID, cfg.Project),
				Severity: "warning",
			})
		}
		if !t.Provisioned && t.DatasetID != "" && !strings.HasPrefix(t.DatasetID, naming.DatasetPrefix) {
			errs = append(errs, ValidationError{
				Field:    "bigquery.dataset_id",
				Message:  fmt.Sprintf("pre-set dataset %s will be used as is", t.DatasetID),
				Severity: "warning",
			})
		}
	}

	if j, ok := ctx.Model.Job(); ok && j.Provisioned && j.ImageReference != cfg.Image {
		errs = append(errs, ValidationError{
			Field:    "job.image_reference",
			Message:  fmt.Sprintf("job %s keeps image %s, configured %s is not applied to a provisioned job", j.JobName, j.ImageReference, cfg.Image),
			Severity: "warning",
		})
	}

	j, jobSet := ctx.Model.Job()
	if s, ok := ctx.Model.Scheduler(); ok && jobSet && s.TargetJob != "" && s.TargetJob != j.JobName {
		errs = append(errs, ValidationError{
			Field:    "scheduler.target_job",
			Message:  fmt.Sprintf("trigger %s targets %s but the job is %s", s.Name, s.TargetJob, j.JobName),
			Severity: "error",
		})
	}

	return errs
}

// imageTag returns the last path element of an image reference.
func imageTag(image string) string {
	if i := strings.LastIndex(image, "/"); i >= 0 {
		return image[i+1:]
	}
	return image
}
