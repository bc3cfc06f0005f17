package provisioning

import (
	"errors"
	"fmt"

	"github.com/beaver-logs/beaver/internal/config"
	"github.com/beaver-logs/beaver/internal/manifest"
	"github.com/beaver-logs/beaver/internal/naming"
	"github.com/beaver-logs/beaver/internal/resources"
	"github.com/beaver-logs/beaver/internal/routing"
	"github.com/beaver-logs/beaver/internal/util/labels"
)

// Phase names, in deployment order.
const (
	StageValidatePath          = "validate-path"
	StageCheckPrerequisites    = "check-prerequisites"
	StageLoadResourceModel     = "load-resource-model"
	StageCreateTable           = "create-table"
	StageCreateTopic           = "create-topic"
	StageGenerateRoutingConfig = "generate-routing-config"
	StageCreateBucket          = "create-bucket"
	StageUploadRoutingConfig   = "upload-routing-config"
	StageCreateJob             = "create-job"
	StagePatchManifest         = "patch-manifest"
	StageCreateScheduler       = "create-scheduler"
	StagePersistResourceModel  = "persist-resource-model"
)

// errUnresolved is returned when a phase needs a slot an earlier phase should have filled.
var errUnresolved = errors.New("resource slot is not resolved")

const alreadyProvisioned = "already provisioned"

// DeployPhases returns the deployment pipeline. With parallel set, the
// table, topic and bucket are created concurrently; every other dependency
// stays sequential.
func DeployPhases(parallel bool) []Phase {
	phases := []Phase{
		ValidatePath(),
		CheckPrerequisites(),
		LoadResourceModel(),
	}
	if parallel {
		phases = append(phases,
			Concurrently(CreateTable(), CreateTopic(), CreateBucket()),
			GenerateRoutingConfig(),
		)
	} else {
		phases = append(phases,
			CreateTable(),
			CreateTopic(),
			GenerateRoutingConfig(),
			CreateBucket(),
		)
	}
	return append(phases,
		UploadRoutingConfig(),
		CreateJob(),
		PatchManifest(),
		CreateScheduler(),
		PersistResourceModel(),
	)
}

// --- validate-path ---

type validatePathPhase struct{}

// ValidatePath checks the configuration root and the pipeline fragment
// before anything else runs.
func ValidatePath() Phase { return validatePathPhase{} }

func (validatePathPhase) Name() string { return StageValidatePath }

func (validatePathPhase) Provision(ctx *Context) error {
	return ctx.Layout.Validate()
}

// --- check-prerequisites ---

type checkPrerequisitesPhase struct{}

// CheckPrerequisites verifies that gcloud and bq are installed.
func CheckPrerequisites() Phase { return checkPrerequisitesPhase{} }

func (checkPrerequisitesPhase) Name() string { return StageCheckPrerequisites }

func (checkPrerequisitesPhase) Provision(ctx *Context) error {
	if ctx.CheckPrerequisites == nil {
		return nil
	}
	return ctx.CheckPrerequisites()
}

// --- load-resource-model ---

type loadResourceModelPhase struct{}

// LoadResourceModel loads the configuration and the resource model, fills
// unset slots and builds the backend clients.
func LoadResourceModel() Phase { return loadResourceModelPhase{} }

func (loadResourceModelPhase) Name() string { return StageLoadResourceModel }

func (p loadResourceModelPhase) Provision(ctx *Context) error {
	if ctx.Config == nil {
		cfg, err := config.Load(ctx.Layout)
		if err != nil {
			return err
		}
		ctx.Config = cfg
	}

	model, err := resources.Load(ctx.Layout.ResourcesFile())
	if err != nil {
		return &config.PathError{Path: ctx.Layout.ResourcesFile(), Reason: "malformed resource model", Err: err}
	}
	model.FillDefaults(ctx.Config)
	ctx.Model = model

	if err := checkDeployment(ctx, p.Name()); err != nil {
		return err
	}

	if err := ctx.Layout.EnsureArtifactsDir(); err != nil {
		return err
	}
	if ctx.Journal == nil {
		ctx.Journal = resources.NewJournal()
	}
	prev, err := resources.LoadJournal(ctx.Layout.JournalFile())
	if err != nil {
		return &config.PathError{Path: ctx.Layout.JournalFile(), Reason: "malformed journal", Err: err}
	}
	ctx.Journal.SetPending(resources.CarryOver(prev, model))

	if ctx.Clients == nil {
		if ctx.NewClients == nil {
			return errors.New("no client factory configured")
		}
		clients, err := ctx.NewClients(ctx, ctx.Config, ctx.Runner, ctx.Log)
		if err != nil {
			return err
		}
		ctx.Clients = clients
	}

	ctx.Observer.Printf("Loaded resource model for %s", ctx.Config)
	return nil
}

// --- create-table ---

type createTablePhase struct{}

// CreateTable creates the dataset and the table. An empty dataset_id is
// named by the naming resolver; an empty table_id becomes table1.
func CreateTable() Phase { return createTablePhase{} }

func (createTablePhase) Name() string { return StageCreateTable }

func (createTablePhase) Skip(ctx *Context) (bool, string) {
	t, ok := ctx.Model.Table()
	return ok && t.Provisioned, alreadyProvisioned
}

func (p createTablePhase) Provision(ctx *Context) error {
	table, _ := ctx.Model.Table()
	if table.ProjectID == "" {
		table.ProjectID = ctx.Config.Project
	}

	if table.DatasetID == "" {
		ref, err := resolveDataset(ctx, table.ProjectID)
		if err != nil {
			return err
		}
		if err := ctx.RecordCreated(p.Name(), resources.KindDataset, ref.String(), ref.Project, ""); err != nil {
			return err
		}
		table.DatasetID = ref.Dataset
		if err := ctx.Model.SetTable(table); err != nil {
			return err
		}
	} else {
		ref := table.Dataset()
		adopted, err := ctx.ensure(p.Name(), resources.KindDataset, ref.String(), ref.Project, "", func() error {
			return ctx.Clients.Warehouse.CreateDataset(ctx, ref)
		})
		if err != nil {
			return err
		}
		table.DatasetAdopted = adopted
	}

	if table.TableID == "" {
		table.TableID = naming.DefaultTable
	}
	ref := table.Dataset()
	adopted, err := ctx.ensure(p.Name(), resources.KindTable, ref.TableRef(table.TableID), ref.Project, "", func() error {
		return ctx.Clients.Warehouse.CreateTable(ctx, ref, table.TableID)
	})
	if err != nil {
		return err
	}

	table.Adopted = adopted
	table.Provisioned = true
	return ctx.Model.SetTable(table)
}

func resolveDataset(ctx *Context, project string) (naming.DatasetRef, error) {
	resolver := naming.NewResolver(ctx.Clients.Warehouse, ctx.Log.WithName("naming"))
	if ctx.Timeouts != nil {
		resolver.MaxAttempts = ctx.Timeouts.NamingMaxAttempts
		resolver.Delay = ctx.Timeouts.NamingRetryDelay
	}
	if ctx.Suffix != nil {
		resolver.Suffix = ctx.Suffix
	}
	resolver.OnResolved = ctx.Metrics.ObserveNamingAttempts

	LogResourceCreating(ctx.Observer, StageCreateTable, string(resources.KindDataset), project+":"+naming.DatasetPrefix+"*")
	ref, err := resolver.Resolve(ctx, project)
	if err != nil {
		return naming.DatasetRef{}, err
	}
	LogResourceCreated(ctx.Observer, StageCreateTable, string(resources.KindDataset), ref.String(), ref.String())
	return ref, nil
}

// --- create-topic ---

type createTopicPhase struct{}

// CreateTopic creates the Pub/Sub topic Vector publishes to.
func CreateTopic() Phase { return createTopicPhase{} }

func (createTopicPhase) Name() string { return StageCreateTopic }

func (createTopicPhase) Skip(ctx *Context) (bool, string) {
	t, ok := ctx.Model.Topic()
	return ok && t.Provisioned, alreadyProvisioned
}

func (p createTopicPhase) Provision(ctx *Context) error {
	topic, _ := ctx.Model.Topic()
	if topic.TopicID == "" {
		return fmt.Errorf("topic: %w", errUnresolved)
	}
	if topic.ProjectID == "" {
		topic.ProjectID = ctx.Config.Project
	}

	l := labels.NewLabelBuilder(ctx.Config.Name).WithComponent(labels.ComponentTopic).Build()
	adopted, err := ctx.ensure(p.Name(), resources.KindTopic, topic.TopicID, topic.ProjectID, "", func() error {
		return ctx.Clients.Topics.CreateTopic(ctx, topic.ProjectID, topic.TopicID, l)
	})
	if err != nil {
		return err
	}

	topic.Adopted = adopted
	topic.Provisioned = true
	return ctx.Model.SetTopic(topic)
}

// --- generate-routing-config ---

type generateRoutingConfigPhase struct{}

// GenerateRoutingConfig writes the Vector config for the resolved topic.
// It runs on every deployment.
func GenerateRoutingConfig() Phase { return generateRoutingConfigPhase{} }

func (generateRoutingConfigPhase) Name() string { return StageGenerateRoutingConfig }

func (generateRoutingConfigPhase) Provision(ctx *Context) error {
	topic, ok := ctx.Model.Topic()
	if !ok || !topic.Provisioned {
		return fmt.Errorf("topic: %w", errUnresolved)
	}

	out := ctx.Layout.RoutingFile()
	if err := routing.GenerateFile(ctx.Layout.FragmentFile(), out, topic, ctx.Config.Project); err != nil {
		return err
	}
	ctx.Observer.Printf("Routing config written to %s", out)
	return nil
}

// --- create-bucket ---

type createBucketPhase struct{}

// CreateBucket creates the bucket that holds the routing config.
func CreateBucket() Phase { return createBucketPhase{} }

func (createBucketPhase) Name() string { return StageCreateBucket }

func (createBucketPhase) Skip(ctx *Context) (bool, string) {
	b, ok := ctx.Model.Bucket()
	return ok && b.Provisioned, alreadyProvisioned
}

func (p createBucketPhase) Provision(ctx *Context) error {
	bucket, _ := ctx.Model.Bucket()
	if bucket.BucketName == "" {
		return fmt.Errorf("bucket: %w", errUnresolved)
	}

	cfg := ctx.Config
	l := labels.NewLabelBuilder(cfg.Name).WithComponent(labels.ComponentBucket).Build()
	adopted, err := ctx.ensure(p.Name(), resources.KindBucket, bucket.BucketName, cfg.Project, cfg.Region, func() error {
		return ctx.Clients.Buckets.CreateBucket(ctx, bucket.BucketName, cfg.Region, l)
	})
	if err != nil {
		return err
	}

	bucket.Adopted = adopted
	bucket.Provisioned = true
	return ctx.Model.SetBucket(bucket)
}

// --- upload-routing-config ---

type uploadRoutingConfigPhase struct{}

// UploadRoutingConfig copies the generated routing config into the bucket.
// It runs on every deployment.
func UploadRoutingConfig() Phase { return uploadRoutingConfigPhase{} }

func (uploadRoutingConfigPhase) Name() string { return StageUploadRoutingConfig }

func (uploadRoutingConfigPhase) Provision(ctx *Context) error {
	bucket, ok := ctx.Model.Bucket()
	if !ok || !bucket.Provisioned {
		return fmt.Errorf("bucket: %w", errUnresolved)
	}

	if err := ctx.Clients.Buckets.Upload(ctx, bucket.BucketName, naming.RoutingObject, ctx.Layout.RoutingFile()); err != nil {
		return fmt.Errorf("failed to upload routing config: %w", err)
	}
	ctx.Observer.Printf("Routing config uploaded to gs://%s/%s", bucket.BucketName, naming.RoutingObject)
	return nil
}

// --- create-job ---

type createJobPhase struct{}

// CreateJob creates the Cloud Run job running Vector.
func CreateJob() Phase { return createJobPhase{} }

func (createJobPhase) Name() string { return StageCreateJob }

func (createJobPhase) Skip(ctx *Context) (bool, string) {
	j, ok := ctx.Model.Job()
	return ok && j.Provisioned, alreadyProvisioned
}

func (p createJobPhase) Provision(ctx *Context) error {
	job, _ := ctx.Model.Job()
	if job.JobName == "" {
		return fmt.Errorf("job: %w", errUnresolved)
	}

	cfg := ctx.Config
	l := labels.NewLabelBuilder(cfg.Name).WithComponent(labels.ComponentJob).Build()
	adopted, err := ctx.ensure(p.Name(), resources.KindJob, job.JobName, cfg.Project, cfg.Region, func() error {
		return ctx.Clients.Jobs.CreateJob(ctx, job.JobName, job.ImageReference, l)
	})
	if err != nil {
		return err
	}

	job.Adopted = adopted
	job.Provisioned = true
	return ctx.Model.SetJob(job)
}

// --- patch-manifest ---

type patchManifestPhase struct{}

// PatchManifest mounts the bucket into the job. The patch is idempotent and
// runs on every deployment.
func PatchManifest() Phase { return patchManifestPhase{} }

func (patchManifestPhase) Name() string { return StagePatchManifest }

func (patchManifestPhase) Provision(ctx *Context) error {
	job, ok := ctx.Model.Job()
	if !ok || !job.Provisioned {
		return fmt.Errorf("job: %w", errUnresolved)
	}
	bucket, ok := ctx.Model.Bucket()
	if !ok || !bucket.Provisioned {
		return fmt.Errorf("bucket: %w", errUnresolved)
	}

	patcher := manifest.NewPatcher(ctx.Clients.Jobs, ctx.Log.WithName("manifest"))
	return patcher.PatchAndResubmit(ctx, job.JobName, manifest.Volume{
		Name:       naming.VolumeName,
		BucketName: bucket.BucketName,
		MountPath:  naming.MountPath,
	})
}

// --- create-scheduler ---

type createSchedulerPhase struct{}

// CreateScheduler creates the trigger that runs the job periodically.
func CreateScheduler() Phase { return createSchedulerPhase{} }

func (createSchedulerPhase) Name() string { return StageCreateScheduler }

func (createSchedulerPhase) Skip(ctx *Context) (bool, string) {
	s, ok := ctx.Model.Scheduler()
	return ok && s.Provisioned, alreadyProvisioned
}

func (p createSchedulerPhase) Provision(ctx *Context) error {
	s, _ := ctx.Model.Scheduler()
	job, ok := ctx.Model.Job()
	if !ok || !job.Provisioned {
		return fmt.Errorf("job: %w", errUnresolved)
	}
	if s.Name == "" {
		return fmt.Errorf("scheduler: %w", errUnresolved)
	}
	if s.TargetJob == "" {
		s.TargetJob = job.JobName
	}

	cfg := ctx.Config
	uri := naming.RunJobURI(cfg.Region, cfg.Project, s.TargetJob)
	adopted, err := ctx.ensure(p.Name(), resources.KindScheduler, s.Name, cfg.Project, cfg.Region, func() error {
		return ctx.Clients.Schedulers.CreateScheduler(ctx, s.Name, s.ScheduleExpression, uri, cfg.ServiceAccount)
	})
	if err != nil {
		return err
	}

	s.Adopted = adopted
	s.Provisioned = true
	return ctx.Model.SetScheduler(s)
}

// --- persist-resource-model ---

type persistResourceModelPhase struct{}

// PersistResourceModel writes the resolved model back to resources.yaml.
func PersistResourceModel() Phase { return persistResourceModelPhase{} }

func (persistResourceModelPhase) Name() string { return StagePersistResourceModel }

func (persistResourceModelPhase) Provision(ctx *Context) error {
	path := ctx.Layout.ResourcesFile()
	if err := ctx.Model.Save(path); err != nil {
		return err
	}
	ctx.Observer.Printf("Resource model saved to %s", path)
	return nil
}
