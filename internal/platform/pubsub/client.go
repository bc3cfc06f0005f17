// Package pubsub manages topics with the Pub/Sub client library.
package pubsub

import (
	"context"
	"fmt"
	"sync"

	"cloud.google.com/go/pubsub"
	"github.com/go-logr/logr"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/beaver-logs/beaver/internal/platform/executor"
)

// Client creates and deletes topics. Connections are opened per project on
// first use.
type Client struct {
	opts []option.ClientOption
	log  logr.Logger

	mu      sync.Mutex
	clients map[string]*pubsub.Client
}

// NewClient creates a client. opts are passed to every connection.
func NewClient(log logr.Logger, opts ...option.ClientOption) *Client {
	return &Client{opts: opts, log: log, clients: make(map[string]*pubsub.Client)}
}

func (c *Client) forProject(ctx context.Context, project string) (*pubsub.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if pc, ok := c.clients[project]; ok {
		return pc, nil
	}
	pc, err := pubsub.NewClient(ctx, project, c.opts...)
	if err != nil {
		return nil, fmt.Errorf("pubsub client can not be created: %w", err)
	}
	c.clients[project] = pc
	return pc, nil
}

// CreateTopic creates topic in project with labels.
func (c *Client) CreateTopic(ctx context.Context, project, topic string, labels map[string]string) error {
	pc, err := c.forProject(ctx, project)
	if err != nil {
		return err
	}
	if _, err := pc.CreateTopicWithConfig(ctx, topic, &pubsub.TopicConfig{Labels: labels}); err != nil {
		return classify(fmt.Sprintf("create topic %s", topic), err)
	}
	c.log.V(1).Info("topic created", "project", project, "topic", topic)
	return nil
}

// DeleteTopic deletes topic in project.
func (c *Client) DeleteTopic(ctx context.Context, project, topic string) error {
	pc, err := c.forProject(ctx, project)
	if err != nil {
		return err
	}
	if err := pc.Topic(topic).Delete(ctx); err != nil {
		return classify(fmt.Sprintf("delete topic %s", topic), err)
	}
	return nil
}

// Close closes every open connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	var first error
	for project, pc := range c.clients {
		if err := pc.Close(); err != nil && first == nil {
			first = err
		}
		delete(c.clients, project)
	}
	return first
}

func classify(op string, err error) error {
	switch status.Code(err) {
	case codes.AlreadyExists:
		return fmt.Errorf("%s: %w: %w", op, executor.ErrAlreadyExists, err)
	case codes.NotFound:
		return fmt.Errorf("%s: %w: %w", op, executor.ErrNotFound, err)
	default:
		return fmt.Errorf("failed to %s: %w", op, err)
	}
}
