package provisioning

import (
	"fmt"
	"sort"
	"time"

	"github.com/go-logr/logr"
)

// Observer receives the structured events of a run and free-form phase output.
type Observer interface {
	Printf(format string, v ...interface{})
	Event(event Event)
}

// Event is one structured provisioning event.
type Event struct {
	Type     EventType
	Phase    string
	Message  string
	Resource string            // identifier of the resource, if any
	Fields   map[string]string // kind, id, validation field
}

// EventType names an event; the value is what ends up in the log.
type EventType string

// Phase lifecycle.
const (
	EventPhaseStarted   EventType = "phase.started"
	EventPhaseCompleted EventType = "phase.completed"
	EventPhaseFailed    EventType = "phase.failed"
	EventPhaseSkipped   EventType = "phase.skipped"
)

// Resource lifecycle. Exists marks an adopted resource.
const (
	EventResourceCreating EventType = "resource.creating"
	EventResourceCreated  EventType = "resource.created"
	EventResourceExists   EventType = "resource.exists"
	EventResourceFailed   EventType = "resource.failed"
	EventResourceDeleting EventType = "resource.deleting"
	EventResourceDeleted  EventType = "resource.deleted"
)

// Findings of the load phase.
const (
	EventValidationWarning EventType = "validation.warning"
	EventValidationError   EventType = "validation.error"
)

// LogObserver writes events to a logr.Logger.
type LogObserver struct {
	log logr.Logger
}

func NewLogObserver(log logr.Logger) *LogObserver {
	return &LogObserver{log: log}
}

func (o *LogObserver) Printf(format string, v ...interface{}) {
	o.log.Info(fmt.Sprintf(format, v...))
}

// Event logs failures at error level and in-flight resource operations at V(1).
func (o *LogObserver) Event(event Event) {
	kv := []interface{}{"event", string(event.Type)}
	if event.Phase != "" {
		kv = append(kv, "phase", event.Phase)
	}
	if event.Resource != "" {
		kv = append(kv, "resource", event.Resource)
	}

	keys := make([]string, 0, len(event.Fields))
	for k := range event.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		kv = append(kv, k, event.Fields[k])
	}

	switch event.Type {
	case EventPhaseFailed, EventResourceFailed, EventValidationError:
		o.log.Error(nil, event.Message, kv...)
	case EventResourceCreating, EventResourceDeleting:
		o.log.V(1).Info(event.Message, kv...)
	default:
		o.log.Info(event.Message, kv...)
	}
}

func phaseEvent(t EventType, phase, msg string) Event {
	return Event{Type: t, Phase: phase, Message: msg}
}

func LogPhaseStart(o Observer, phase string) {
	o.Event(phaseEvent(EventPhaseStarted, phase, "starting"))
}

func LogPhaseComplete(o Observer, phase string, d time.Duration) {
	o.Event(phaseEvent(EventPhaseCompleted, phase, fmt.Sprintf("completed in %v", d.Round(time.Millisecond))))
}

func LogPhaseSkipped(o Observer, phase, reason string) {
	o.Event(phaseEvent(EventPhaseSkipped, phase, "skipped: "+reason))
}

func LogPhaseFailed(o Observer, phase string, err error) {
	o.Event(phaseEvent(EventPhaseFailed, phase, fmt.Sprintf("failed: %v", err)))
}

// resourceEvent builds a resource event; id is only recorded when known.
func resourceEvent(t EventType, phase, kind, name, id, msg string) Event {
	fields := map[string]string{"type": kind}
	if id != "" {
		fields["id"] = id
	}
	return Event{Type: t, Phase: phase, Resource: name, Message: msg, Fields: fields}
}

func LogResourceCreating(o Observer, phase, kind, name string) {
	o.Event(resourceEvent(EventResourceCreating, phase, kind, name, "", "creating "+kind))
}

func LogResourceCreated(o Observer, phase, kind, name, id string) {
	o.Event(resourceEvent(EventResourceCreated, phase, kind, name, id, kind+" created"))
}

// LogResourceExists records an adopted resource. It is not journaled.
func LogResourceExists(o Observer, phase, kind, name, id string) {
	o.Event(resourceEvent(EventResourceExists, phase, kind, name, id, kind+" already exists"))
}

func LogResourceFailed(o Observer, phase, kind, name string, err error) {
	o.Event(resourceEvent(EventResourceFailed, phase, kind, name, "", fmt.Sprintf("%s failed: %v", kind, err)))
}

func LogResourceDeleting(o Observer, phase, kind, name string) {
	o.Event(resourceEvent(EventResourceDeleting, phase, kind, name, "", "deleting "+kind))
}

func LogResourceDeleted(o Observer, phase, kind, name string) {
	o.Event(resourceEvent(EventResourceDeleted, phase, kind, name, "", kind+" deleted"))
}

// LogValidation reports a load-phase finding at warning or error level.
func LogValidation(o Observer, phase string, ve ValidationError) {
	t := EventValidationWarning
	if ve.IsError() {
		t = EventValidationError
	}
	o.Event(Event{Type: t, Phase: phase, Message: ve.Message, Fields: map[string]string{"field": ve.Field}})
}
