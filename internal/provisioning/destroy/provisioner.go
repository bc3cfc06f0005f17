package destroy

import (
	"errors"
	"fmt"
	"slices"

	"github.com/beaver-logs/beaver/internal/naming"
	"github.com/beaver-logs/beaver/internal/platform/executor"
	"github.com/beaver-logs/beaver/internal/provisioning"
	"github.com/beaver-logs/beaver/internal/resources"
)

// Phase names.
const (
	StageDestroy  = "destroy"
	StageRollback = "rollback"
)

// teardownOrder is the reverse of the creation dependencies.
var teardownOrder = []resources.Kind{
	resources.KindScheduler,
	resources.KindJob,
	resources.KindBucket,
	resources.KindTopic,
	resources.KindTable,
	resources.KindDataset,
}

// Provisioner handles deployment destruction.
type Provisioner struct{}

// NewProvisioner creates a new destroy provisioner.
func NewProvisioner() *Provisioner {
	return &Provisioner{}
}

// Name implements provisioning.Phase.
func (p *Provisioner) Name() string { return StageDestroy }

// Provision deletes the resources the model owns and those the last journal
// records, including entries carried over from earlier failed runs. Adopted
// resources stay in place. Resources that are already gone are not an error.
// On success every slot is cleared and both files are saved.
func (p *Provisioner) Provision(ctx *provisioning.Context) error {
	ctx.Observer.Printf("Destroying deployment %s", ctx.Config.Name)

	prev, err := resources.LoadJournal(ctx.Layout.JournalFile())
	if err != nil {
		return err
	}

	targets := append(fromEntries(ctx.Model.Owned()), fromEntries(prev.All())...)
	targets = sortForTeardown(dropCoveredTables(dedupe(targets)))
	if len(targets) == 0 {
		ctx.Observer.Printf("Nothing to destroy")
	}

	if err := deleteAll(ctx, p.Name(), targets); err != nil {
		return err
	}

	ctx.Model.Clear()
	if err := ctx.Model.Save(ctx.Layout.ResourcesFile()); err != nil {
		return err
	}
	if err := resources.NewJournal().Save(ctx.Layout.JournalFile()); err != nil {
		return fmt.Errorf("failed to save journal: %w", err)
	}

	ctx.Observer.Printf("Deployment %s destroyed (%d resources)", ctx.Config.Name, len(targets))
	return nil
}

// Rollback deletes the resources journaled by the current run, newest first.
// Resources the run adopted are not journaled and stay in place. Entries
// carried over from earlier runs are kept for destroy.
type Rollback struct{}

// NewRollback creates the rollback phase injected into the deployer.
func NewRollback() *Rollback {
	return &Rollback{}
}

// Name implements provisioning.Phase.
func (r *Rollback) Name() string { return StageRollback }

// Provision implements provisioning.Phase.
func (r *Rollback) Provision(ctx *provisioning.Context) error {
	targets := dropCoveredTables(fromEntries(ctx.Journal.Reversed()))
	ctx.Observer.Printf("Rolling back %d resources of run %s", len(targets), ctx.Journal.RunID)

	if err := deleteAll(ctx, r.Name(), targets); err != nil {
		return err
	}
	rest := resources.NewJournal()
	rest.SetPending(ctx.Journal.PendingSnapshot())
	if err := rest.Save(ctx.Layout.JournalFile()); err != nil {
		return fmt.Errorf("failed to save journal: %w", err)
	}
	return nil
}

// target is one resource to delete.
type target struct {
	kind    resources.Kind
	id      string
	project string
}

func (t target) key() string { return string(t.kind) + "/" + t.id }

func fromEntries(entries []resources.Entry) []target {
	out := make([]target, 0, len(entries))
	for _, e := range entries {
		out = append(out, target{kind: e.Kind, id: e.ID, project: e.Project})
	}
	return out
}

func dedupe(targets []target) []target {
	seen := make(map[string]bool, len(targets))
	out := targets[:0:0]
	for _, t := range targets {
		if seen[t.key()] {
			continue
		}
		seen[t.key()] = true
		out = append(out, t)
	}
	return out
}

// dropCoveredTables removes tables whose dataset is deleted as well, since
// deleting a dataset removes its tables.
func dropCoveredTables(targets []target) []target {
	datasets := make(map[string]bool)
	for _, t := range targets {
		if t.kind == resources.KindDataset {
			datasets[t.id] = true
		}
	}
	return slices.DeleteFunc(targets, func(t target) bool {
		if t.kind != resources.KindTable {
			return false
		}
		ref, _, err := naming.ParseTableRef(t.id)
		return err == nil && datasets[ref.String()]
	})
}

func sortForTeardown(targets []target) []target {
	slices.SortStableFunc(targets, func(a, b target) int {
		return slices.Index(teardownOrder, a.kind) - slices.Index(teardownOrder, b.kind)
	})
	return targets
}

// deleteAll deletes every target and reports all failures together.
func deleteAll(ctx *provisioning.Context, stage string, targets []target) error {
	var errs []error
	for _, t := range targets {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if err := deleteOne(ctx, stage, t); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("failed to delete %d of %d resources: %w", len(errs), len(targets), errors.Join(errs...))
	}
	return nil
}

func deleteOne(ctx *provisioning.Context, stage string, t target) error {
	provisioning.LogResourceDeleting(ctx.Observer, stage, string(t.kind), t.id)

	err := remove(ctx, t)
	if executor.IsNotFound(err) {
		ctx.Observer.Printf("%s %s not found, skipping", t.kind, t.id)
		err = nil
	}
	if err != nil {
		provisioning.LogResourceFailed(ctx.Observer, stage, string(t.kind), t.id, err)
		return fmt.Errorf("failed to delete %s %s: %w", t.kind, t.id, err)
	}

	provisioning.LogResourceDeleted(ctx.Observer, stage, string(t.kind), t.id)
	return nil
}

func remove(ctx *provisioning.Context, t target) error {
	c := ctx.Clients
	switch t.kind {
	case resources.KindScheduler:
		return c.Schedulers.DeleteScheduler(ctx, t.id)
	case resources.KindJob:
		return c.Jobs.DeleteJob(ctx, t.id)
	case resources.KindBucket:
		return c.Buckets.DeleteBucket(ctx, t.id)
	case resources.KindTopic:
		return c.Topics.DeleteTopic(ctx, t.project, t.id)
	case resources.KindTable:
		ref, table, err := naming.ParseTableRef(t.id)
		if err != nil {
			return err
		}
		return c.Warehouse.DeleteTable(ctx, ref, table)
	case resources.KindDataset:
		ref, err := naming.ParseDatasetRef(t.id)
		if err != nil {
			return err
		}
		return c.Warehouse.DeleteDataset(ctx, ref)
	default:
		return fmt.Errorf("unknown resource kind %q", t.kind)
	}
}

// Phases returns the destroy pipeline: the deployment's load phases
// followed by teardown.
func Phases() []provisioning.Phase {
	return []provisioning.Phase{
		provisioning.ValidatePath(),
		provisioning.CheckPrerequisites(),
		provisioning.LoadResourceModel(),
		NewProvisioner(),
	}
}

// Run destroys the deployment of ctx and closes its clients.
func Run(ctx *provisioning.Context) error {
	err := provisioning.RunPhases(ctx, Phases())
	if cerr := ctx.Clients.Close(); cerr != nil {
		ctx.Log.Error(cerr, "failed to close clients")
	}
	return err
}
