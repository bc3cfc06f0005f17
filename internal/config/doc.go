// Package config defines the deployment configuration and the on-disk layout
// of a configuration root.
//
// A configuration root is a directory holding config.yaml and an artifacts/
// directory (resources.yaml, vector.yaml, journal.yaml). The user-authored
// pipeline fragment lives next to it, in ../beaver_config/beaver_config.yaml.
//
// [Config] is loaded from config.yaml, completed with defaults, overridden from
// BEAVER_* environment variables and validated. Operational limits that are
// not part of the deployment (command timeout, naming retry budget) come from
// the environment through [LoadTimeouts].
package config
