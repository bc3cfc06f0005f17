// Package provisioning orchestrates a deployment of the log-ingestion pipeline.
//
// # Phases
//
// A deployment is a linear pipeline of phases:
//
//	validate-path -> check-prerequisites -> load-resource-model ->
//	create-table -> create-topic -> generate-routing-config -> create-bucket ->
//	upload-routing-config -> create-job -> patch-manifest -> create-scheduler ->
//	persist-resource-model
//
// Create phases are skipped when their resource model slot is already
// provisioned. With parallel enabled, create-table, create-topic and
// create-bucket run as one concurrent group.
//
// # Core Types
//
// Context carries the configuration, the resource model, the journal, the
// backend clients and the observer. Phase defines a step with Name() and
// Provision() methods. Deployer runs the pipeline and returns a Report; a
// failed phase surfaces as a *StageError.
//
// # Subpackages
//
//   - destroy/: journal-driven rollback and full teardown
package provisioning
