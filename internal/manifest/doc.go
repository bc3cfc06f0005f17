// Package manifest mounts the routing config bucket into the Vector job.
//
// Cloud Run jobs cannot be created with a gcsfuse volume from the command
// line, so the job is created bare, exported, patched and replaced. The
// export is handled as an untyped object; only the fixed paths below are
// touched and everything else round-trips unchanged.
package manifest
