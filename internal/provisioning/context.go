package provisioning

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-logr/logr"

	"github.com/beaver-logs/beaver/internal/config"
	"github.com/beaver-logs/beaver/internal/metrics"
	"github.com/beaver-logs/beaver/internal/naming"
	"github.com/beaver-logs/beaver/internal/platform/executor"
	"github.com/beaver-logs/beaver/internal/resources"
	"github.com/beaver-logs/beaver/internal/util/prerequisites"
)

// Context wraps all dependencies and state needed for a provisioning phase.
type Context struct {
	context.Context
	Layout   config.Layout
	Config   *config.Config
	Model    *resources.Model
	Journal  *resources.Journal
	Clients  *Clients
	Observer Observer
	Timeouts *config.Timeouts
	Metrics  *metrics.Recorder
	Log      logr.Logger

	// Runner executes gcloud and bq for the CLI-backed clients.
	Runner executor.Runner

	// NewClients builds Clients once the configuration is known. It is not
	// called when Clients is already set.
	NewClients ClientFactory

	// CheckPrerequisites returns a *prerequisites.MissingError when a
	// required tool is unavailable.
	CheckPrerequisites func() error

	// Suffix overrides the random dataset name suffix.
	Suffix naming.SuffixFunc

	journalMu sync.Mutex
}

// NewContext creates a provisioning context for the configuration root of layout.
func NewContext(ctx context.Context, layout config.Layout, log logr.Logger) *Context {
	timeouts := config.LoadTimeouts()
	recorder := metrics.NewRecorder()
	return &Context{
		Context:    ctx,
		Layout:     layout,
		Model:      resources.NewModel(),
		Journal:    resources.NewJournal(),
		Observer:   NewLogObserver(log),
		Timeouts:   timeouts,
		Metrics:    recorder,
		Log:        log,
		Runner:     recorder.InstrumentRunner(executor.NewCommandRunner(timeouts.Command, log.WithName("executor"))),
		NewClients: NewClients,
		CheckPrerequisites: func() error {
			return prerequisites.CheckDeploy().Error()
		},
	}
}

// RecordCreated journals a resource created by this run and saves the
// journal, so that it survives a failure in a later phase.
func (c *Context) RecordCreated(stage string, kind resources.Kind, id, project, location string) error {
	c.Metrics.ResourceCreated(string(kind))

	c.journalMu.Lock()
	defer c.journalMu.Unlock()
	c.Journal.Record(resources.Entry{
		Stage:    stage,
		Kind:     kind,
		ID:       id,
		Project:  project,
		Location: location,
	})
	if err := c.Journal.Save(c.Layout.JournalFile()); err != nil {
		return fmt.Errorf("failed to save journal: %w", err)
	}
	return nil
}

// ensure runs create for one resource and reports whether it was adopted.
// A resource that already exists counts as done but is not journaled, so
// rollback and destroy leave it alone. The exception is a resource the
// journal already records: an earlier run created it and it stays owned.
func (c *Context) ensure(stage string, kind resources.Kind, id, project, location string, create func() error) (bool, error) {
	LogResourceCreating(c.Observer, stage, string(kind), id)

	err := create()
	switch {
	case err == nil:
		LogResourceCreated(c.Observer, stage, string(kind), id, id)
		return false, c.RecordCreated(stage, kind, id, project, location)
	case executor.IsAlreadyExists(err) && c.Journal.Owns(kind, id):
		LogResourceExists(c.Observer, stage, string(kind), id, id)
		return false, nil
	case executor.IsAlreadyExists(err):
		LogResourceExists(c.Observer, stage, string(kind), id, id)
		return true, nil
	default:
		LogResourceFailed(c.Observer, stage, string(kind), id, err)
		return false, fmt.Errorf("failed to create %s %s: %w", kind, id, err)
	}
}
