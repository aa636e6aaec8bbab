// Package source loads server catalogs from the embedded default document or
// from JSON and YAML files on disk.
package source

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/lujin3/mcp-registry-server/catalog"
)

//go:embed default.json
var defaultDocument []byte

// Format identifies the encoding of a catalog document.
type Format int

const (
	FormatJSON Format = iota
	FormatYAML
)

// FormatFromPath picks a format from the file extension. Unknown extensions
// are treated as JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// DefaultDocument returns a copy of the embedded registry document.
func DefaultDocument() []byte {
	return bytes.Clone(defaultDocument)
}

// Default builds the catalog shipped with the binary.
func Default() (*catalog.Catalog, error) {
	return Parse(defaultDocument, FormatJSON)
}

// LoadFile reads and parses the catalog document at path.
func LoadFile(path string) (*catalog.Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	c, err := Parse(data, FormatFromPath(path))
	if err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	return c, nil
}

// Parse decodes a catalog document and builds a catalog from it.
func Parse(data []byte, format Format) (*catalog.Catalog, error) {
	records, err := Records(data, format)
	if err != nil {
		return nil, err
	}
	return catalog.New(records)
}

// Records decodes a catalog document into records, one per server name.
//
// Three document shapes are accepted: a registry document whose servers are
// wrapped as {"server": {...}}, an object whose servers are listed flat, and
// a bare array of servers. When a name appears more than once the greatest
// version wins; it keeps the position of the name's first occurrence.
func Records(data []byte, format Format) ([]catalog.Record, error) {
	if format == FormatYAML {
		converted, err := yamlToJSON(data)
		if err != nil {
			return nil, err
		}
		data = converted
	}

	entries, err := serverEntries(data)
	if err != nil {
		return nil, err
	}

	log := logrus.WithField("component", "source")

	records := make([]catalog.Record, 0, len(entries))
	positions := make(map[string]int, len(entries))

	for i, raw := range entries {
		var head struct {
			Name    string `json:"name"`
			Version string `json:"version"`
		}
		if err := json.Unmarshal(raw, &head); err != nil {
			return nil, fmt.Errorf("server %d: %w", i, err)
		}
		if head.Name == "" {
			return nil, fmt.Errorf("server %d: missing name", i)
		}

		r := catalog.Record{Key: head.Name, Version: head.Version, Payload: raw}

		pos, seen := positions[head.Name]
		if !seen {
			positions[head.Name] = len(records)
			records = append(records, r)
			continue
		}

		kept := records[pos].Version
		if newerVersion(head.Version, kept) {
			records[pos] = r
			kept = head.Version
		}
		log.WithFields(logrus.Fields{
			"name":    head.Name,
			"version": head.Version,
			"kept":    kept,
		}).Debug("collapsed duplicate server entry")
	}

	return records, nil
}

// serverEntries extracts the raw server objects from any accepted shape.
func serverEntries(data []byte) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty catalog document")
	}

	var list []json.RawMessage
	switch trimmed[0] {
	case '[':
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil, err
		}
	case '{':
		var doc struct {
			Servers []json.RawMessage `json:"servers"`
		}
		if err := json.Unmarshal(trimmed, &doc); err != nil {
			return nil, err
		}
		list = doc.Servers
	default:
		return nil, fmt.Errorf("catalog document must be a JSON object or array")
	}

	out := make([]json.RawMessage, 0, len(list))
	for i, entry := range list {
		var wrapped struct {
			Server json.RawMessage `json:"server"`
		}
		if err := json.Unmarshal(entry, &wrapped); err != nil {
			return nil, fmt.Errorf("server %d: %w", i, err)
		}
		if len(wrapped.Server) > 0 && wrapped.Server[0] == '{' {
			out = append(out, wrapped.Server)
		} else {
			out = append(out, entry)
		}
	}
	return out, nil
}

// newerVersion reports whether candidate should replace current. Versions
// are compared semantically when both parse, otherwise as plain strings.
func newerVersion(candidate, current string) bool {
	cv, errC := semver.NewVersion(candidate)
	kv, errK := semver.NewVersion(current)
	if errC == nil && errK == nil {
		return cv.GreaterThan(kv)
	}
	return candidate > current
}

func yamlToJSON(data []byte) ([]byte, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	keepLiteral(&root, "name", "version")

	var doc any
	if root.Kind != 0 {
		if err := root.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode yaml: %w", err)
		}
	}
	out, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("convert yaml to json: %w", err)
	}
	return out, nil
}

// keepLiteral forces scalar values of the given mapping keys to decode as
// strings, so an unquoted `version: 1.0` stays "1.0" instead of becoming
// the number 1.
func keepLiteral(n *yaml.Node, keys ...string) {
	if n.Kind == yaml.MappingNode {
		for i := 0; i+1 < len(n.Content); i += 2 {
			k, v := n.Content[i], n.Content[i+1]
			if v.Kind != yaml.ScalarNode || v.ShortTag() == "!!null" || !slices.Contains(keys, k.Value) {
				continue
			}
			v.Tag = "!!str"
			v.Style = yaml.DoubleQuotedStyle
		}
	}
	for _, c := range n.Content {
		keepLiteral(c, keys...)
	}
}
