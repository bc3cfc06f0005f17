package handlers

import (
	"context"
	"fmt"

	"github.com/beaver-logs/beaver/internal/config"
	"github.com/beaver-logs/beaver/internal/provisioning"
	"github.com/beaver-logs/beaver/internal/provisioning/destroy"
)

// Deployer matches provisioning.Deployer.
type Deployer interface {
	Deploy(ctx *provisioning.Context) (*provisioning.Report, error)
}

// newDeployer creates the deployer; it can be replaced in tests.
var newDeployer = func(parallel bool) Deployer {
	return provisioning.NewDeployer(parallel, destroy.NewRollback())
}

// DeployOptions are the deploy command flags.
type DeployOptions struct {
	Parallel bool
	Rollback bool
	LogLevel string
}

// Deploy provisions the pipeline of the configuration root at root and
// prints a summary. The summary is printed for failed runs too, since the
// resources created before the failure are kept.
func Deploy(ctx context.Context, root string, opts DeployOptions) error {
	layout := config.NewLayout(root)

	log, closeLog, err := openLogger(layout, opts.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = closeLog() }()

	pCtx := newProvisioningContext(ctx, layout, log)

	// The config is loaded early to pick the pipeline shape. A broken config
	// is left to the load phase, which reports it after the path checks.
	parallel := opts.Parallel
	if cfg, err := config.Load(layout); err == nil {
		if opts.Rollback {
			cfg.RollbackOnFailure = true
		}
		parallel = parallel || cfg.Parallel
		pCtx.Config = cfg
	}

	report, err := newDeployer(parallel).Deploy(pCtx)
	if report != nil {
		fmt.Fprint(stdout, renderDeploySummary(report, pCtx.Model, pCtx.Config))
	}
	return err
}
