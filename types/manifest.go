package types

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/shamaton/msgpack/v2"
	"gopkg.in/yaml.v3"
)

// Manifest describes a library and the symbols to bind from it. It is the
// on-disk form used by the command line tool and by tests.
type Manifest struct {
	Library string            `json:"library" yaml:"library" msgpack:"library"`
	Config  Config            `json:"config" yaml:"config" msgpack:"config"`
	Symbols map[string]Symbol `json:"symbols" yaml:"symbols" msgpack:"symbols"`
}

// LoadManifest reads a manifest, picking the decoder from the file extension:
// .yaml/.yml, .json, or .msgpack/.mp. A relative Library path is resolved
// against the manifest's directory.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	m, err := ParseManifest(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if m.Library != "" && !filepath.IsAbs(m.Library) && strings.ContainsRune(m.Library, filepath.Separator) {
		m.Library = filepath.Join(filepath.Dir(path), m.Library)
	}
	return m, nil
}

// ParseManifest decodes data in the format named by ext and validates it.
func ParseManifest(data []byte, ext string) (*Manifest, error) {
	var m Manifest
	var err error
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &m)
	case ".json":
		err = json.Unmarshal(data, &m)
	case ".msgpack", ".mp":
		err = msgpack.Unmarshal(data, &m)
	default:
		return nil, fmt.Errorf("unknown manifest format %q", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	if err := m.Config.Validate(); err != nil {
		return nil, err
	}
	for name, sym := range m.Symbols {
		if _, err := ParseSignature(name, sym); err != nil {
			return nil, err
		}
	}
	return &m, nil
}
