// Package naming derives the names of every resource a deployment owns.
//
// Topic, bucket, job and trigger names follow the pattern
// {deployment}-{suffix} and are deterministic, so a rerun finds the
// resources of the previous run. Dataset names are the exception: they are
// auto-generated as beaver_datalake_{9 chars} and resolved against the
// warehouse by Resolver, which retries on collisions.
package naming
