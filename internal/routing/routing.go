package routing

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/beaver-logs/beaver/internal/resources"
)

// SinkName keys the generated sink.
const SinkName = "bq_writing_pubsub"

var (
	// ErrMissingMember is returned when the fragment lacks sources or transforms.
	ErrMissingMember = errors.New("fragment member missing")

	// ErrAmbiguousTransform is returned when a transform name cannot be
	// determined unambiguously.
	ErrAmbiguousTransform = errors.New("ambiguous transform entry")

	// ErrInvalidFragment is returned when the fragment is not a YAML mapping.
	ErrInvalidFragment = errors.New("fragment is not a mapping")
)

// Generate builds the routing config from a fragment. The result has exactly
// the top-level keys sources, transforms and sinks, in that order.
func Generate(fragment []byte, topic resources.Topic, projectID string) ([]byte, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(fragment, &doc); err != nil {
		return nil, fmt.Errorf("parsing fragment: %w", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		return nil, ErrInvalidFragment
	}
	root := doc.Content[0]

	sources := lookup(root, "sources")
	if sources == nil {
		return nil, fmt.Errorf("%w: sources", ErrMissingMember)
	}
	transforms := lookup(root, "transforms")
	if transforms == nil {
		return nil, fmt.Errorf("%w: transforms", ErrMissingMember)
	}

	names, err := TransformNames(transforms)
	if err != nil {
		return nil, err
	}

	out := mapping(
		str("sources"), sources,
		str("transforms"), transforms,
		str("sinks"), mapping(
			str(SinkName), sink(names, topic, projectID),
		),
	)

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{out}}); err != nil {
		return nil, fmt.Errorf("encoding routing config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encoding routing config: %w", err)
	}
	return buf.Bytes(), nil
}

// GenerateFile reads the fragment at fragmentPath and replaces outputPath
// with the generated config.
func GenerateFile(fragmentPath, outputPath string, topic resources.Topic, projectID string) error {
	// #nosec G304 -- fragment path is derived from the operator's config root
	fragment, err := os.ReadFile(fragmentPath)
	if err != nil {
		return fmt.Errorf("reading fragment: %w", err)
	}

	out, err := Generate(fragment, topic, projectID)
	if err != nil {
		return fmt.Errorf("%s: %w", fragmentPath, err)
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("creating artifacts directory: %w", err)
	}
	if err := os.WriteFile(outputPath, out, 0o644); err != nil {
		return fmt.Errorf("writing routing config: %w", err)
	}
	return nil
}

// TransformNames returns the transform names in document order.
//
// A mapping contributes its keys, and each definition must be a mapping.
// A sequence must hold single-entry mappings, each contributing its key.
func TransformNames(transforms *yaml.Node) ([]string, error) {
	names := []string{}
	switch transforms.Kind {
	case yaml.MappingNode:
		for i := 0; i+1 < len(transforms.Content); i += 2 {
			key, def := transforms.Content[i], transforms.Content[i+1]
			if resolveAlias(def).Kind != yaml.MappingNode {
				return nil, fmt.Errorf("%w: transform %q is not a mapping (line %d)", ErrAmbiguousTransform, key.Value, def.Line)
			}
			names = append(names, key.Value)
		}
	case yaml.SequenceNode:
		for i, item := range transforms.Content {
			item = resolveAlias(item)
			if item.Kind != yaml.MappingNode || len(item.Content) != 2 {
				return nil, fmt.Errorf("%w: entry %d must have exactly one name (line %d)", ErrAmbiguousTransform, i, item.Line)
			}
			names = append(names, item.Content[0].Value)
		}
	default:
		return nil, fmt.Errorf("%w: transforms must be a mapping or a sequence (line %d)", ErrAmbiguousTransform, transforms.Line)
	}
	return names, nil
}

func sink(inputs []string, topic resources.Topic, projectID string) *yaml.Node {
	seq := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
	for _, n := range inputs {
		seq.Content = append(seq.Content, str(n))
	}
	return mapping(
		str("type"), str("gcp_pubsub"),
		str("inputs"), seq,
		str("project"), str(projectID),
		str("topic"), str(topic.TopicID),
		str("encoding"), mapping(str("codec"), str("json")),
	)
}

func lookup(m *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i+1]
		}
	}
	return nil
}

func resolveAlias(n *yaml.Node) *yaml.Node {
	for n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	return n
}

func str(v string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v}
}

func mapping(kv ...*yaml.Node) *yaml.Node {
	return &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map", Content: kv}
}
