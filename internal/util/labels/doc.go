// Package labels provides consistent labeling for provisioned Google Cloud
// resources.
//
// Google Cloud label keys must be lowercase and may only contain letters,
// digits, underscores and dashes, so keys here use a "beaver-" prefix instead
// of a domain. Labels are rendered into the comma separated form accepted by
// the gcloud --labels flag.
package labels
