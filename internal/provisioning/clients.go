package provisioning

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/go-logr/logr"

	"github.com/beaver-logs/beaver/internal/config"
	"github.com/beaver-logs/beaver/internal/platform/executor"
	"github.com/beaver-logs/beaver/internal/platform/gcloud"
	"github.com/beaver-logs/beaver/internal/platform/gcs"
	"github.com/beaver-logs/beaver/internal/platform/pubsub"
	"github.com/beaver-logs/beaver/internal/platform/s3"
)

// Clients groups the backends a deployment talks to.
type Clients struct {
	Warehouse  Warehouse
	Topics     Topics
	Buckets    Buckets
	Jobs       Jobs
	Schedulers Schedulers

	closers []io.Closer
}

// Close releases SDK connections. CLI-backed clients hold none.
func (c *Clients) Close() error {
	if c == nil {
		return nil
	}
	var errs []error
	for _, cl := range c.closers {
		errs = append(errs, cl.Close())
	}
	c.closers = nil
	return errors.Join(errs...)
}

// ClientFactory builds the clients for a loaded configuration.
type ClientFactory func(ctx context.Context, cfg *config.Config, runner executor.Runner, log logr.Logger) (*Clients, error)

// NewClients is the default ClientFactory. Every family starts on the
// gcloud/bq CLI; storage and Pub/Sub switch to an SDK backend when the
// configuration asks for it.
func NewClients(ctx context.Context, cfg *config.Config, runner executor.Runner, log logr.Logger) (*Clients, error) {
	cli := gcloud.NewClient(runner, cfg.Project, cfg.Region, log.WithName("gcloud"))
	c := &Clients{
		Warehouse:  cli,
		Topics:     cli,
		Buckets:    cli,
		Jobs:       cli,
		Schedulers: cli,
	}

	switch cfg.StorageBackend {
	case config.BackendSDK:
		g, err := gcs.NewClient(ctx, cfg.Project, log.WithName("gcs"))
		if err != nil {
			return nil, fmt.Errorf("failed to create storage client: %w", err)
		}
		c.Buckets = g
		c.closers = append(c.closers, g)
	case config.BackendInterop:
		s, err := s3.NewClient(ctx, cfg.Interop.Endpoint, cfg.Interop.Region,
			cfg.Interop.AccessKey, cfg.Interop.SecretKey, log.WithName("s3"))
		if err != nil {
			return nil, fmt.Errorf("failed to create interop storage client: %w", err)
		}
		c.Buckets = s
	}

	if cfg.PubSubBackend == config.BackendSDK {
		p := pubsub.NewClient(log.WithName("pubsub"))
		c.Topics = p
		c.closers = append(c.closers, p)
	}

	return c, nil
}
