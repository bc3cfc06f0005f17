package provisioning

import (
	"bytes"
	"sync"
	"testing"
	"time"

	"github.com/go-logr/logr/funcr"
	"github.com/stretchr/testify/assert"
)

// MockObserver is a test implementation of Observer that records events.
type MockObserver struct {
	mu       sync.Mutex
	events   []Event
	messages []string
}

func NewMockObserver() *MockObserver {
	return &MockObserver{
		events:   make([]Event, 0),
		messages: make([]string, 0),
	}
}

func (m *MockObserver) Printf(format string, _ ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, format)
}

func (m *MockObserver) Event(event Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
}

// Events returns the events of the given types, all events if none given.
func (m *MockObserver) Events(types ...EventType) []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(types) == 0 {
		return append([]Event(nil), m.events...)
	}
	var out []Event
	for _, e := range m.events {
		for _, t := range types {
			if e.Type == t {
				out = append(out, e)
			}
		}
	}
	return out
}

// bufferLogger returns a logr.Logger writing one line per entry into buf.
func bufferLogger(buf *bytes.Buffer, verbosity int) *LogObserver {
	var mu sync.Mutex
	log := funcr.New(func(prefix, args string) {
		mu.Lock()
		defer mu.Unlock()
		buf.WriteString(prefix + args + "\n")
	}, funcr.Options{Verbosity: verbosity})
	return NewLogObserver(log)
}

func TestLogObserver_Printf(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	observer := bufferLogger(&buf, 0)

	observer.Printf("test message: %s", "value")

	assert.Contains(t, buf.String(), `"msg"="test message: value"`)
}

func TestLogObserver_Event(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	observer := bufferLogger(&buf, 0)

	observer.Event(Event{
		Type:     EventResourceCreated,
		Phase:    "create-topic",
		Resource: "logs-events",
		Message:  "pubsub_topic created",
		Fields: map[string]string{
			"type": "pubsub_topic",
			"id":   "logs-events",
		},
	})

	out := buf.String()
	assert.Contains(t, out, `"event"="resource.created"`)
	assert.Contains(t, out, `"phase"="create-topic"`)
	assert.Contains(t, out, `"resource"="logs-events"`)
	assert.Less(t, bytes.Index(buf.Bytes(), []byte(`"id"`)), bytes.Index(buf.Bytes(), []byte(`"type"`)), "fields are sorted")
}

func TestLogObserver_Levels(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	observer := bufferLogger(&buf, 0)

	LogResourceCreating(observer, "create-job", "run_job", "logs-vector")
	assert.Empty(t, buf.String(), "creating events are debug output")

	LogPhaseFailed(observer, "create-job", assert.AnError)
	assert.Contains(t, buf.String(), `"error"=null`)
	assert.Contains(t, buf.String(), "failed:")
}

func TestMockObserver_Events(t *testing.T) {
	t.Parallel()
	observer := NewMockObserver()

	LogPhaseStart(observer, "create-topic")
	LogResourceCreating(observer, "create-topic", "pubsub_topic", "logs-events")
	LogResourceCreated(observer, "create-topic", "pubsub_topic", "logs-events", "logs-events")
	LogPhaseComplete(observer, "create-topic", 2*time.Second)

	events := observer.Events()
	assert.Len(t, events, 4)

	assert.Equal(t, EventPhaseStarted, events[0].Type)
	assert.Equal(t, "create-topic", events[0].Phase)

	assert.Equal(t, EventResourceCreating, events[1].Type)
	assert.Equal(t, "logs-events", events[1].Resource)

	assert.Equal(t, EventResourceCreated, events[2].Type)
	assert.Equal(t, "logs-events", events[2].Fields["id"])

	assert.Equal(t, EventPhaseCompleted, events[3].Type)
}

func TestLogHelpers(t *testing.T) {
	t.Parallel()
	observer := NewMockObserver()

	LogPhaseStart(observer, "phase1")
	LogPhaseComplete(observer, "phase1", time.Second)
	LogPhaseSkipped(observer, "phase1", "already provisioned")
	LogPhaseFailed(observer, "phase2", assert.AnError)
	LogResourceCreating(observer, "create-bucket", "storage_bucket", "b")
	LogResourceCreated(observer, "create-bucket", "storage_bucket", "b", "b")
	LogResourceExists(observer, "create-bucket", "storage_bucket", "b", "b")
	LogResourceFailed(observer, "create-bucket", "storage_bucket", "b", assert.AnError)
	LogResourceDeleting(observer, "rollback", "storage_bucket", "b")
	LogResourceDeleted(observer, "rollback", "storage_bucket", "b")
	LogValidation(observer, "load", ValidationError{Field: "image", Message: "m", Severity: "warning"})

	assert.Len(t, observer.Events(), 11)
	assert.Len(t, observer.Events(EventValidationWarning), 1)

	creating := observer.Events(EventResourceCreating)[0]
	assert.NotContains(t, creating.Fields, "id")
	assert.Equal(t, "storage_bucket", creating.Fields["type"])
}
