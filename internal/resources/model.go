package resources

import (
	"errors"
	"fmt"
	"sync"

	"github.com/beaver-logs/beaver/internal/config"
	"github.com/beaver-logs/beaver/internal/naming"
)

// ErrResolved is returned when a provisioned slot would be changed.
var ErrResolved = errors.New("resource slot is already provisioned")

// Table locates the warehouse table that receives log records.
//
// The Adopted flags, here and on the other slots, mark resources that
// already existed when the deployment created them. Destroy leaves those in
// place.
type Table struct {
	ProjectID      string `yaml:"project_id"`
	DatasetID      string `yaml:"dataset_id"`
	TableID        string `yaml:"table_id"`
	Provisioned    bool   `yaml:"provisioned"`
	DatasetAdopted bool   `yaml:"dataset_adopted,omitempty"`
	Adopted        bool   `yaml:"adopted,omitempty"`
}

// Dataset returns the dataset reference of the table.
func (t Table) Dataset() naming.DatasetRef {
	return naming.DatasetRef{Project: t.ProjectID, Dataset: t.DatasetID}
}

// Topic is the Pub/Sub topic Vector publishes to.
type Topic struct {
	ProjectID   string `yaml:"project_id"`
	TopicID     string `yaml:"topic_id"`
	Provisioned bool   `yaml:"provisioned"`
	Adopted     bool   `yaml:"adopted,omitempty"`
}

// Bucket holds the routing config.
type Bucket struct {
	BucketName  string `yaml:"bucket_name"`
	Provisioned bool   `yaml:"provisioned"`
	Adopted     bool   `yaml:"adopted,omitempty"`
}

// Job is the Cloud Run job running Vector.
type Job struct {
	JobName        string `yaml:"job_name"`
	ImageReference string `yaml:"image_reference"`
	Provisioned    bool   `yaml:"provisioned"`
	Adopted        bool   `yaml:"adopted,omitempty"`
}

// Scheduler periodically runs the job.
type Scheduler struct {
	Name               string `yaml:"name"`
	ScheduleExpression string `yaml:"schedule_expression"`
	TargetJob          string `yaml:"target_job"`
	Provisioned        bool   `yaml:"provisioned"`
	Adopted            bool   `yaml:"adopted,omitempty"`
}

type document struct {
	BigQuery  *Table     `yaml:"bigquery,omitempty"`
	PubSub    *Topic     `yaml:"pubsub,omitempty"`
	Bucket    *Bucket    `yaml:"bucket,omitempty"`
	Job       *Job       `yaml:"job,omitempty"`
	Scheduler *Scheduler `yaml:"scheduler,omitempty"`
}

// Model is the resource model of one deployment. All access goes through
// its methods, which are safe for concurrent use.
type Model struct {
	mu  sync.RWMutex
	doc document
}

// NewModel returns an empty model.
func NewModel() *Model {
	return &Model{}
}

// Table returns a copy of the table slot and whether it is set.
func (m *Model) Table() (Table, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.doc.BigQuery == nil {
		return Table{}, false
	}
	return *m.doc.BigQuery, true
}

// SetTable replaces the table slot unless it is provisioned.
func (m *Model) SetTable(t Table) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cur := m.doc.BigQuery; cur != nil && cur.Provisioned && *cur != t {
		return fmt.Errorf("bigquery %s: %w", cur.Dataset().TableRef(cur.TableID), ErrResolved)
	}
	m.doc.BigQuery = &t
	return nil
}

// Topic returns a copy of the topic slot and whether it is set.
func (m *Model) Topic() (Topic, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.doc.PubSub == nil {
		return Topic{}, false
	}
	return *m.doc.PubSub, true
}

// SetTopic replaces the topic slot unless it is provisioned.
func (m *Model) SetTopic(t Topic) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cur := m.doc.PubSub; cur != nil && cur.Provisioned && *cur != t {
		return fmt.Errorf("pubsub %s: %w", cur.TopicID, ErrResolved)
	}
	m.doc.PubSub = &t
	return nil
}

// Bucket returns a copy of the bucket slot and whether it is set.
func (m *Model) Bucket() (Bucket, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.doc.Bucket == nil {
		return Bucket{}, false
	}
	return *m.doc.Bucket, true
}

// SetBucket replaces the bucket slot unless it is provisioned.
func (m *Model) SetBucket(b Bucket) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cur := m.doc.Bucket; cur != nil && cur.Provisioned && *cur != b {
		return fmt.Errorf("bucket %s: %w", cur.BucketName, ErrResolved)
	}
	m.doc.Bucket = &b
	return nil
}

// Job returns a copy of the job slot and whether it is set.
func (m *Model) Job() (Job, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.doc.Job == nil {
		return Job{}, false
	}
	return *m.doc.Job, true
}

// SetJob replaces the job slot unless it is provisioned.
func (m *Model) SetJob(j Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cur := m.doc.Job; cur != nil && cur.Provisioned && *cur != j {
		return fmt.Errorf("job %s: %w", cur.JobName, ErrResolved)
	}
	m.doc.Job = &j
	return nil
}

// Scheduler returns a copy of the scheduler slot and whether it is set.
func (m *Model) Scheduler() (Scheduler, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.doc.Scheduler == nil {
		return Scheduler{}, false
	}
	return *m.doc.Scheduler, true
}

// SetScheduler replaces the scheduler slot unless it is provisioned.
func (m *Model) SetScheduler(s Scheduler) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cur := m.doc.Scheduler; cur != nil && cur.Provisioned && *cur != s {
		return fmt.Errorf("scheduler %s: %w", cur.Name, ErrResolved)
	}
	m.doc.Scheduler = &s
	return nil
}

// FillDefaults completes unset slots and empty fields of unprovisioned slots
// from the configuration. Dataset and table IDs stay empty: the dataset is
// named at creation time and the table defaults there.
func (m *Model) FillDefaults(cfg *config.Config) {
	m.mu.Lock()
	defer m.mu.Unlock()

	d := &m.doc
	if d.BigQuery == nil {
		d.BigQuery = &Table{}
	}
	if !d.BigQuery.Provisioned && d.BigQuery.ProjectID == "" {
		d.BigQuery.ProjectID = cfg.Project
	}

	if d.PubSub == nil {
		d.PubSub = &Topic{}
	}
	if !d.PubSub.Provisioned {
		setIfEmpty(&d.PubSub.ProjectID, cfg.Project)
		setIfEmpty(&d.PubSub.TopicID, naming.Topic(cfg.Name))
	}

	if d.Bucket == nil {
		d.Bucket = &Bucket{}
	}
	if !d.Bucket.Provisioned {
		setIfEmpty(&d.Bucket.BucketName, naming.Bucket(cfg.Project, cfg.Name))
	}

	if d.Job == nil {
		d.Job = &Job{}
	}
	if !d.Job.Provisioned {
		setIfEmpty(&d.Job.JobName, naming.Job(cfg.Name))
		setIfEmpty(&d.Job.ImageReference, cfg.Image)
	}

	if d.Scheduler == nil {
		d.Scheduler = &Scheduler{}
	}
	if !d.Scheduler.Provisioned {
		setIfEmpty(&d.Scheduler.Name, naming.Scheduler(cfg.Name))
		setIfEmpty(&d.Scheduler.ScheduleExpression, cfg.Schedule)
		setIfEmpty(&d.Scheduler.TargetJob, d.Job.JobName)
	}
}

// Clear unsets every slot.
func (m *Model) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.doc = document{}
}

// AllProvisioned reports whether every slot is set and provisioned.
func (m *Model) AllProvisioned() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d := m.doc
	return d.BigQuery != nil && d.BigQuery.Provisioned &&
		d.PubSub != nil && d.PubSub.Provisioned &&
		d.Bucket != nil && d.Bucket.Provisioned &&
		d.Job != nil && d.Job.Provisioned &&
		d.Scheduler != nil && d.Scheduler.Provisioned
}

// Owned returns the provisioned resources the deployment created itself, in
// creation order. A table is only listed when its dataset is adopted, since
// deleting an owned dataset removes its tables.
func (m *Model) Owned() []Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d := m.doc

	var out []Entry
	if t := d.BigQuery; t != nil && t.Provisioned && t.DatasetID != "" {
		ref := t.Dataset()
		switch {
		case !t.DatasetAdopted:
			out = append(out, Entry{Kind: KindDataset, ID: ref.String(), Project: ref.Project})
		case !t.Adopted && t.TableID != "":
			out = append(out, Entry{Kind: KindTable, ID: ref.TableRef(t.TableID), Project: ref.Project})
		}
	}
	if t := d.PubSub; t != nil && t.Provisioned && !t.Adopted {
		out = append(out, Entry{Kind: KindTopic, ID: t.TopicID, Project: t.ProjectID})
	}
	if b := d.Bucket; b != nil && b.Provisioned && !b.Adopted {
		out = append(out, Entry{Kind: KindBucket, ID: b.BucketName})
	}
	if j := d.Job; j != nil && j.Provisioned && !j.Adopted {
		out = append(out, Entry{Kind: KindJob, ID: j.JobName})
	}
	if s := d.Scheduler; s != nil && s.Provisioned && !s.Adopted {
		out = append(out, Entry{Kind: KindScheduler, ID: s.Name})
	}
	return out
}

func setIfEmpty(field *string, value string) {
	if *field == "" {
		*field = value
	}
}
