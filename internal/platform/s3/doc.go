// Package s3 stores the routing config through the S3-compatible XML API
// of Cloud Storage, authenticated with HMAC keys.
//
// It is the "interop" storage backend: useful where the gcloud CLI is not
// installed for storage or where only HMAC credentials are available.
package s3
