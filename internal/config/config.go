package config

import "fmt"

// Backend selects how a resource family is created.
type Backend string

const (
	// BackendCLI shells out to gcloud/bq.
	BackendCLI Backend = "cli"
	// BackendSDK uses the Google Cloud Go client libraries.
	BackendSDK Backend = "sdk"
	// BackendInterop uses the S3-compatible Cloud Storage XML API with HMAC keys.
	BackendInterop Backend = "interop"
)

// Defaults applied to unset fields.
const (
	DefaultName     = "beaver"
	DefaultImage    = "docker.io/timberio/vector:latest-alpine"
	DefaultSchedule = "*/15 * * * *"
	DefaultLogLevel = "info"

	DefaultInteropEndpoint = "https://storage.googleapis.com"
	DefaultInteropRegion   = "auto"
)

// Config is the deployment configuration stored in <root>/config.yaml.
type Config struct {
	// Project is the Google Cloud project every resource is created in.
	Project string `yaml:"project"`

	// Region hosts the Cloud Run job and the Scheduler trigger and is the
	// bucket location.
	Region string `yaml:"region"`

	// Name prefixes derived resource names and labels.
	Name string `yaml:"name,omitempty"`

	// Image is the container image of the Vector job.
	Image string `yaml:"image,omitempty"`

	// Schedule is the cron expression of the periodic trigger.
	Schedule string `yaml:"schedule,omitempty"`

	// ServiceAccount is the identity the trigger uses to run the job.
	ServiceAccount string `yaml:"service_account,omitempty"`

	StorageBackend Backend `yaml:"storage_backend,omitempty"`
	PubSubBackend  Backend `yaml:"pubsub_backend,omitempty"`

	// Parallel creates the table, topic and bucket concurrently.
	Parallel bool `yaml:"parallel,omitempty"`

	// RollbackOnFailure deletes resources created by a failed run.
	RollbackOnFailure bool `yaml:"rollback_on_failure,omitempty"`

	// MetricsFile is where run metrics are written, relative to the root.
	// Empty disables the export.
	MetricsFile string `yaml:"metrics_file,omitempty"`

	LogLevel string `yaml:"log_level,omitempty"`

	Interop InteropConfig `yaml:"interop,omitempty"`
}

// InteropConfig holds HMAC credentials for the S3-compatible storage API.
type InteropConfig struct {
	Endpoint  string `yaml:"endpoint,omitempty"`
	Region    string `yaml:"region,omitempty"`
	AccessKey string `yaml:"access_key,omitempty"`
	SecretKey string `yaml:"secret_key,omitempty"`
}

// ApplyDefaults fills unset optional fields.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = DefaultName
	}
	if c.Image == "" {
		c.Image = DefaultImage
	}
	if c.Schedule == "" {
		c.Schedule = DefaultSchedule
	}
	if c.StorageBackend == "" {
		c.StorageBackend = BackendCLI
	}
	if c.PubSubBackend == "" {
		c.PubSubBackend = BackendCLI
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.StorageBackend == BackendInterop {
		if c.Interop.Endpoint == "" {
			c.Interop.Endpoint = DefaultInteropEndpoint
		}
		if c.Interop.Region == "" {
			c.Interop.Region = DefaultInteropRegion
		}
	}
}

// String returns a short description for logs.
func (c *Config) String() string {
	return fmt.Sprintf("%s (project=%s, region=%s)", c.Name, c.Project, c.Region)
}
