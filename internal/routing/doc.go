// Package routing generates the Vector configuration a deployment ships.
//
// The user writes a fragment with sources and transforms. Generate copies
// both verbatim and appends one sink that publishes the output of every
// transform to the deployment's Pub/Sub topic. The YAML node tree is used
// throughout so key order and comments of the fragment survive.
package routing
