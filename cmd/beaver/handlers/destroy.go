package handlers

import (
	"context"
	"fmt"

	"github.com/beaver-logs/beaver/internal/config"
	"github.com/beaver-logs/beaver/internal/provisioning/destroy"
)

// runDestroy tears a deployment down; it can be replaced in tests.
var runDestroy = destroy.Run

// DestroyOptions are the destroy command flags.
type DestroyOptions struct {
	LogLevel string
}

// Destroy deletes every resource of the configuration root at root.
func Destroy(ctx context.Context, root string, opts DestroyOptions) error {
	layout := config.NewLayout(root)

	log, closeLog, err := openLogger(layout, opts.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = closeLog() }()

	pCtx := newProvisioningContext(ctx, layout, log)
	if err := runDestroy(pCtx); err != nil {
		return fmt.Errorf("destroy failed: %w", err)
	}

	name := layout.Root
	if pCtx.Config != nil {
		name = pCtx.Config.Name
	}
	fmt.Fprint(stdout, renderDestroySummary(name))
	return nil
}
