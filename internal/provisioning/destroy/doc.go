// Package destroy removes the resources of a deployment.
//
// Provisioner tears down everything recorded in the resource model and the
// last run's journal. Rollback undoes only the resources created by the
// current run and is what the deployer runs when rollback_on_failure is set.
package destroy
