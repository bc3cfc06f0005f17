package config

import (
	"context"
	"errors"
	"regexp"

	"github.com/charmbracelet/huh"
)

var (
	projectIDPattern = regexp.MustCompile(`^[a-z][a-z0-9-]{4,28}[a-z0-9]$`)
	namePattern      = regexp.MustCompile(`^[a-z][a-z0-9-]{0,30}$`)
)

// CommonRegions are offered by the init wizard.
var CommonRegions = []string{
	"europe-west1",
	"europe-west3",
	"us-central1",
	"us-east1",
	"asia-northeast1",
}

// RunWizard prompts for the fields of cfg that are still empty.
func RunWizard(ctx context.Context, cfg *Config) error {
	var groups []*huh.Group

	if cfg.Project == "" {
		groups = append(groups, huh.NewGroup(
			huh.NewInput().
				Title("Google Cloud project").
				Description("Project ID all pipeline resources are created in").
				Placeholder("my-project-123").
				Value(&cfg.Project).
				Validate(ValidateProjectID),
		))
	}

	if cfg.Region == "" {
		cfg.Region = CommonRegions[0]
		options := make([]huh.Option[string], 0, len(CommonRegions))
		for _, r := range CommonRegions {
			options = append(options, huh.NewOption(r, r))
		}
		groups = append(groups, huh.NewGroup(
			huh.NewSelect[string]().
				Title("Region").
				Description("Hosts the Vector job and its trigger").
				Options(options...).
				Value(&cfg.Region),
		))
	}

	if cfg.Name == "" {
		cfg.Name = DefaultName
		groups = append(groups, huh.NewGroup(
			huh.NewInput().
				Title("Deployment name").
				Description("Prefix for topic, bucket, job and trigger names").
				Value(&cfg.Name).
				Validate(ValidateName),
		))
	}

	if len(groups) == 0 {
		return nil
	}
	return huh.NewForm(groups...).RunWithContext(ctx)
}

// ValidateProjectID checks the Google Cloud project ID format.
func ValidateProjectID(s string) error {
	if !projectIDPattern.MatchString(s) {
		return errors.New("project ID must be 6-30 lowercase letters, digits or dashes, starting with a letter")
	}
	return nil
}

// ValidateName checks a deployment name.
func ValidateName(s string) error {
	if !namePattern.MatchString(s) {
		return errors.New("name must be lowercase letters, digits or dashes, starting with a letter")
	}
	return nil
}
