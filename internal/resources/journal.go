package resources

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/beaver-logs/beaver/internal/naming"
)

// Kind names a resource type in the journal.
type Kind string

const (
	KindDataset   Kind = "bigquery_dataset"
	KindTable     Kind = "bigquery_table"
	KindTopic     Kind = "pubsub_topic"
	KindBucket    Kind = "storage_bucket"
	KindJob       Kind = "run_job"
	KindScheduler Kind = "scheduler_job"
)

// Entry records one resource created by a run.
type Entry struct {
	Stage       string    `yaml:"stage"`
	Kind        Kind      `yaml:"kind"`
	ID          string    `yaml:"id"`
	Project     string    `yaml:"project,omitempty"`
	Location    string    `yaml:"location,omitempty"`
	CompletedAt time.Time `yaml:"completed_at"`
}

func (e Entry) key() string { return string(e.Kind) + "/" + e.ID }

// Journal is the ordered record of resources created by one run. Pending
// holds resources earlier runs created whose slot never became provisioned.
type Journal struct {
	mu        sync.Mutex
	RunID     string    `yaml:"run_id"`
	StartedAt time.Time `yaml:"started_at"`
	Entries   []Entry   `yaml:"entries"`
	Pending   []Entry   `yaml:"pending,omitempty"`
}

// NewJournal starts the journal of a new run.
func NewJournal() *Journal {
	return &Journal{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC(),
		Entries:   []Entry{},
	}
}

// LoadJournal reads a journal file. A missing file yields nil and no error.
func LoadJournal(path string) (*Journal, error) {
	// #nosec G304 -- path is inside the operator's config root
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading journal: %w", err)
	}
	j := &Journal{}
	if err := yaml.Unmarshal(data, j); err != nil {
		return nil, fmt.Errorf("parsing journal %s: %w", path, err)
	}
	return j, nil
}

// Record appends an entry stamped with the current time.
func (j *Journal) Record(e Entry) {
	if e.CompletedAt.IsZero() {
		e.CompletedAt = time.Now().UTC()
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Entries = append(j.Entries, e)
}

// Snapshot returns a copy of the entries in creation order.
func (j *Journal) Snapshot() []Entry {
	if j == nil {
		return nil
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]Entry(nil), j.Entries...)
}

// SetPending replaces the carried-over entries.
func (j *Journal) SetPending(entries []Entry) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Pending = append([]Entry(nil), entries...)
}

// PendingSnapshot returns a copy of the carried-over entries.
func (j *Journal) PendingSnapshot() []Entry {
	if j == nil {
		return nil
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]Entry(nil), j.Pending...)
}

// All returns the carried-over entries followed by the run's own.
func (j *Journal) All() []Entry {
	return append(j.PendingSnapshot(), j.Snapshot()...)
}

// Owns reports whether the journal records kind/id as created by beaver.
func (j *Journal) Owns(kind Kind, id string) bool {
	want := Entry{Kind: kind, ID: id}.key()
	for _, e := range j.All() {
		if e.key() == want {
			return true
		}
	}
	return false
}

// CarryOver returns the entries of prev that m does not account for, so a
// following run keeps track of them. A table counts as accounted for when
// its dataset is owned by m.
func CarryOver(prev *Journal, m *Model) []Entry {
	owned := make(map[string]bool)
	for _, e := range m.Owned() {
		owned[e.key()] = true
	}

	var out []Entry
	for _, e := range prev.All() {
		if owned[e.key()] {
			continue
		}
		if e.Kind == KindTable {
			if ref, _, err := naming.ParseTableRef(e.ID); err == nil && owned[Entry{Kind: KindDataset, ID: ref.String()}.key()] {
				continue
			}
		}
		owned[e.key()] = true
		out = append(out, e)
	}
	return out
}

// Reversed returns the entries newest first.
func (j *Journal) Reversed() []Entry {
	entries := j.Snapshot()
	for i, k := 0, len(entries)-1; i < k; i, k = i+1, k-1 {
		entries[i], entries[k] = entries[k], entries[i]
	}
	return entries
}

// Save writes the journal to path atomically.
func (j *Journal) Save(path string) error {
	j.mu.Lock()
	data, err := yaml.Marshal(j)
	j.mu.Unlock()
	if err != nil {
		return fmt.Errorf("marshaling journal: %w", err)
	}
	return writeFileAtomic(path, data)
}
