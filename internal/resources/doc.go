// Package resources holds the persistent record of what a deployment owns.
//
// The Model is the resource model file (artifacts/resources.yaml): one slot
// per cloud resource, nil until known. A slot marked provisioned was created
// by a deployment and is never rewritten. The Journal
// (artifacts/journal.yaml) lists the resources created by the latest run,
// in creation order, and drives rollback and teardown.
package resources
