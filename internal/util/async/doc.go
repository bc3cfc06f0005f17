// Package async runs independent provisioning tasks concurrently.
//
// It is used by the orchestrator to create resources that have no dependency
// on each other (warehouse table, topic, bucket) at the same time.
package async
