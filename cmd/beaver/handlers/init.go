package handlers

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mattn/go-isatty"

	"github.com/beaver-logs/beaver/internal/config"
	"github.com/beaver-logs/beaver/internal/resources"
)

// defaultMetricsFile is written into new configurations.
const defaultMetricsFile = "artifacts/metrics.prom"

// starterFragment is a minimal pipeline fragment. Deploy adds the sink.
const starterFragment = `# Vector sources and transforms. beaver appends a Pub/Sub sink that
# consumes every transform listed here.
sources:
  app_logs:
    type: file
    include:
      - /var/log/app/*.log
transforms:
  parse:
    type: remap
    inputs: [app_logs]
    source: . = parse_json!(.message)
`

// Factory function variables for init - can be replaced in tests.
var (
	// isTerminal reports whether the wizard can prompt.
	isTerminal = func() bool {
		fd := os.Stdin.Fd()
		return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
	}

	// runWizard prompts for missing fields.
	runWizard = config.RunWizard
)

// InitOptions are the init command flags.
type InitOptions struct {
	Project string
	Region  string
	Name    string
	Force   bool
}

// Init creates the configuration root at root.
func Init(ctx context.Context, root string, opts InitOptions) error {
	layout := config.NewLayout(root)

	if fileExists(layout.ConfigFile()) && !opts.Force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", layout.ConfigFile())
	}

	cfg := &config.Config{Project: opts.Project, Region: opts.Region, Name: opts.Name}
	if cfg.Project == "" || cfg.Region == "" {
		if !isTerminal() {
			return errors.New("--project and --region are required when stdin is not a terminal")
		}
		if err := runWizard(ctx, cfg); err != nil {
			return fmt.Errorf("wizard canceled: %w", err)
		}
	}

	cfg.ApplyDefaults()
	cfg.MetricsFile = defaultMetricsFile
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := config.Save(layout.ConfigFile(), cfg); err != nil {
		return err
	}
	if err := layout.EnsureArtifactsDir(); err != nil {
		return err
	}
	if !fileExists(layout.ResourcesFile()) {
		if err := resources.NewModel().Save(layout.ResourcesFile()); err != nil {
			return err
		}
	}

	fragment := layout.FragmentFile()
	wroteFragment := false
	if !fileExists(fragment) {
		if err := os.MkdirAll(filepath.Dir(fragment), 0o755); err != nil {
			return fmt.Errorf("failed to create fragment directory: %w", err)
		}
		if err := os.WriteFile(fragment, []byte(starterFragment), 0o600); err != nil {
			return fmt.Errorf("failed to write pipeline fragment: %w", err)
		}
		wroteFragment = true
	}

	fmt.Fprint(stdout, renderInitSummary(layout, cfg, wroteFragment))
	return nil
}
