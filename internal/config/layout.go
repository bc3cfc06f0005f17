package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// File names inside a configuration root.
const (
	ConfigFileName    = "config.yaml"
	ArtifactsDirName  = "artifacts"
	ResourcesFileName = "resources.yaml"
	RoutingFileName   = "vector.yaml"
	JournalFileName   = "journal.yaml"
	FragmentDirName   = "beaver_config"
	FragmentFileName  = "beaver_config.yaml"
)

// PathError reports a missing or unusable configuration file.
type PathError struct {
	Path   string
	Reason string
	Err    error
}

func (e *PathError) Error() string {
	msg := fmt.Sprintf("config path %s: %s", e.Path, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *PathError) Unwrap() error {
	return e.Err
}

// Layout resolves the files of one configuration root.
type Layout struct {
	Root string
}

// NewLayout returns the layout rooted at root.
func NewLayout(root string) Layout {
	return Layout{Root: filepath.Clean(root)}
}

// ConfigFile is <root>/config.yaml.
func (l Layout) ConfigFile() string {
	return filepath.Join(l.Root, ConfigFileName)
}

// ArtifactsDir is <root>/artifacts.
func (l Layout) ArtifactsDir() string {
	return filepath.Join(l.Root, ArtifactsDirName)
}

// ResourcesFile is <root>/artifacts/resources.yaml.
func (l Layout) ResourcesFile() string {
	return filepath.Join(l.ArtifactsDir(), ResourcesFileName)
}

// RoutingFile is <root>/artifacts/vector.yaml.
func (l Layout) RoutingFile() string {
	return filepath.Join(l.ArtifactsDir(), RoutingFileName)
}

// JournalFile is <root>/artifacts/journal.yaml.
func (l Layout) JournalFile() string {
	return filepath.Join(l.ArtifactsDir(), JournalFileName)
}

// FragmentFile is <root>/../beaver_config/beaver_config.yaml.
func (l Layout) FragmentFile() string {
	return filepath.Join(l.Root, "..", FragmentDirName, FragmentFileName)
}

// Resolve returns p unchanged if absolute, else joined to the root.
func (l Layout) Resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(l.Root, p)
}

// Validate checks that the root is a directory and that the pipeline
// fragment exists. It touches only the local filesystem.
func (l Layout) Validate() error {
	info, err := os.Stat(l.Root)
	if err != nil {
		return &PathError{Path: l.Root, Reason: "config root does not exist", Err: err}
	}
	if !info.IsDir() {
		return &PathError{Path: l.Root, Reason: "config root is not a directory"}
	}

	fragment := l.FragmentFile()
	if _, err := os.Stat(fragment); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &PathError{Path: fragment, Reason: "pipeline fragment not found", Err: err}
		}
		return &PathError{Path: fragment, Reason: "pipeline fragment not readable", Err: err}
	}
	return nil
}

// EnsureArtifactsDir creates <root>/artifacts if needed.
func (l Layout) EnsureArtifactsDir() error {
	if err := os.MkdirAll(l.ArtifactsDir(), 0o755); err != nil {
		return fmt.Errorf("failed to create artifacts directory: %w", err)
	}
	return nil
}
