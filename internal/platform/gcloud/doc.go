// Package gcloud drives BigQuery, Pub/Sub, Cloud Storage, Cloud Run and
// Cloud Scheduler through the bq and gcloud command-line tools.
//
// Every method is one command. Mutating commands log whatever they print on
// stderr; the job export treats stderr output as a failure because its
// stdout is parsed.
package gcloud
