package resources

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Load reads a resource model file. A missing file yields an empty model.
func Load(path string) (*Model, error) {
	// #nosec G304 -- path is inside the operator's config root
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return NewModel(), nil
		}
		return nil, fmt.Errorf("reading resource model: %w", err)
	}

	m := NewModel()
	if err := yaml.Unmarshal(data, &m.doc); err != nil {
		return nil, fmt.Errorf("parsing resource model %s: %w", path, err)
	}
	return m, nil
}

// Marshal renders the model as YAML.
func (m *Model) Marshal() ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, err := yaml.Marshal(&m.doc)
	if err != nil {
		return nil, fmt.Errorf("marshaling resource model: %w", err)
	}
	return data, nil
}

// Save writes the model to path atomically.
func (m *Model) Save(path string) error {
	data, err := m.Marshal()
	if err != nil {
		return err
	}
	return writeFileAtomic(path, data)
}

// writeFileAtomic replaces path with data through a temp file in the same
// directory, so readers never see a partial file.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("setting mode on %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}
