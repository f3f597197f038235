package episode

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// Library holds every loaded episode definition.
type Library struct {
	episodes map[string]EpisodeData
}

// NewLibrary returns a library seeded with the built-in episode and eps.
// Later definitions replace earlier ones with the same id.
func NewLibrary(eps ...EpisodeData) *Library {
	def := defaultEpisode()
	l := &Library{episodes: map[string]EpisodeData{def.ID: def}}
	for _, ep := range eps {
		l.episodes[ep.ID] = ep
	}
	return l
}

// LoadDir reads every .json, .yaml and .yml file under dir. Files that fail
// to parse or validate are logged and skipped. A missing dir yields only the
// built-in episode.
func LoadDir(dir string, logger *slog.Logger) (*Library, error) {
	l := NewLibrary()
	if dir == "" {
		return l, nil
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		logger.Warn("Episode directory not found, using built-in episodes", "dir", dir)
		return l, nil
	}

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if ext != ".json" && ext != ".yaml" && ext != ".yml" {
			return nil
		}
		ep, err := LoadFile(path)
		if err != nil {
			logger.Warn("Skipping episode file", "path", path, "error", err)
			return nil
		}
		if prev, ok := l.episodes[ep.ID]; ok && prev.Source != "builtin" {
			logger.Warn("Duplicate episode id, later file wins", "id", ep.ID, "path", path, "previous", prev.Source)
		}
		l.episodes[ep.ID] = *ep
		logger.Debug("Loaded episode", "id", ep.ID, "path", path, "beats", len(ep.Beats))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk episode dir: %w", err)
	}
	return l, nil
}

// LoadFile parses and validates one episode document.
func LoadFile(path string) (*EpisodeData, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if strings.ToLower(filepath.Ext(path)) != ".json" {
		data, err = yamlToJSON(data)
		if err != nil {
			return nil, err
		}
	}
	var ep EpisodeData
	if err := json.Unmarshal(data, &ep); err != nil {
		return nil, fmt.Errorf("decode episode: %w", err)
	}
	if err := ep.Validate(); err != nil {
		return nil, err
	}
	ep.Source = path
	return &ep, nil
}

// yamlToJSON lets YAML documents share the JSON decoders, including the
// action envelope and numeric beat ids.
func yamlToJSON(data []byte) ([]byte, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	v, err := fromYAML(&doc)
	if err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	if v == nil {
		return nil, fmt.Errorf("empty document")
	}
	return json.Marshal(v)
}

// fromYAML converts a node tree to JSON-ready values. Numbers keep their
// authored text, so beat 1.10 stays distinct from beat 1.1.
func fromYAML(n *yaml.Node) (any, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return fromYAML(n.Content[0])
	case yaml.AliasNode:
		return fromYAML(n.Alias)
	case yaml.MappingNode:
		out := make(map[string]any, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			var key string
			if err := n.Content[i].Decode(&key); err != nil {
				return nil, fmt.Errorf("line %d: %w", n.Content[i].Line, err)
			}
			v, err := fromYAML(n.Content[i+1])
			if err != nil {
				return nil, err
			}
			out[key] = v
		}
		return out, nil
	case yaml.SequenceNode:
		out := make([]any, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := fromYAML(c)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	case yaml.ScalarNode:
		switch n.ShortTag() {
		case "!!int", "!!float":
			if json.Valid([]byte(n.Value)) {
				return json.Number(n.Value), nil
			}
		}
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, fmt.Errorf("line %d: %w", n.Line, err)
		}
		return v, nil
	}
	return nil, nil
}

// Get returns the episode with id.
func (l *Library) Get(id string) (EpisodeData, bool) {
	ep, ok := l.episodes[id]
	return ep, ok
}

// IDs returns every episode id in sorted order.
func (l *Library) IDs() []string {
	ids := make([]string, 0, len(l.episodes))
	for id := range l.episodes {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
