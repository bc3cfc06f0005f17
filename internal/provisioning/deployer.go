package provisioning

import (
	"errors"
	"time"

	"github.com/beaver-logs/beaver/internal/resources"
)

// Report summarizes one deployment run.
type Report struct {
	RunID    string
	Duration time.Duration

	// Created lists the resources this run created, in creation order.
	Created []resources.Entry

	// FailedStage is empty when the run reached Deployed.
	FailedStage string

	// RolledBack is set when a failed run's resources were removed again.
	RolledBack bool
}

// Deployed reports whether every phase completed.
func (r *Report) Deployed() bool {
	return r.FailedStage == ""
}

// Deployer runs the deployment pipeline.
type Deployer struct {
	Phases []Phase

	// Rollback compensates the run's journal when a phase fails and the
	// configuration enables rollback_on_failure. Optional.
	Rollback Phase
}

// NewDeployer creates a deployer for the standard pipeline.
func NewDeployer(parallel bool, rollback Phase) *Deployer {
	return &Deployer{Phases: DeployPhases(parallel), Rollback: rollback}
}

// Deploy runs every phase. On failure the model is still saved so that
// slots provisioned before the failure are skipped next time, unless the
// run was rolled back completely. Metrics are exported either way.
func (d *Deployer) Deploy(ctx *Context) (*Report, error) {
	start := time.Now()
	err := RunPhases(ctx, d.Phases)

	report := &Report{Created: ctx.Journal.Snapshot()}
	if ctx.Journal != nil {
		report.RunID = ctx.Journal.RunID
	}

	if err != nil {
		report.FailedStage = failedStage(err)
		if d.shouldRollback(ctx, report) {
			if rbErr := runPhase(ctx, d.Rollback, d.Rollback.Name()); rbErr != nil {
				err = errors.Join(err, rbErr)
			} else {
				report.RolledBack = true
			}
		}
		if !report.RolledBack && ctx.Config != nil && provisioningStarted(report.FailedStage) {
			if saveErr := ctx.Model.Save(ctx.Layout.ResourcesFile()); saveErr != nil {
				ctx.Log.Error(saveErr, "failed to save resource model after failure")
			}
		}
	}

	report.Duration = time.Since(start)
	ctx.Metrics.ObserveRun(err == nil, report.Duration)
	d.exportMetrics(ctx)

	if cerr := ctx.Clients.Close(); cerr != nil {
		ctx.Log.Error(cerr, "failed to close clients")
	}
	return report, err
}

func (d *Deployer) shouldRollback(ctx *Context, report *Report) bool {
	return d.Rollback != nil && ctx.Config != nil && ctx.Config.RollbackOnFailure && len(report.Created) > 0
}

func (d *Deployer) exportMetrics(ctx *Context) {
	if ctx.Config == nil || ctx.Config.MetricsFile == "" {
		return
	}
	path := ctx.Layout.Resolve(ctx.Config.MetricsFile)
	if err := ctx.Metrics.WriteTextfile(path); err != nil {
		ctx.Log.Error(err, "failed to write metrics", "path", path)
		return
	}
	ctx.Log.V(1).Info("metrics written", "path", path)
}

func failedStage(err error) string {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage
	}
	return "unknown"
}

// provisioningStarted reports whether the failing stage came after the
// resource model was loaded.
func provisioningStarted(stage string) bool {
	switch stage {
	case StageValidatePath, StageCheckPrerequisites, StageLoadResourceModel:
		return false
	}
	return true
}
