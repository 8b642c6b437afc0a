package fs

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/fwojciec/syopub"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Metadata is the per-book metadata file.
type Metadata struct {
	Title       string   `toml:"title" yaml:"title" json:"title"`
	Author      string   `toml:"author" yaml:"author" json:"author"`
	Language    string   `toml:"language" yaml:"language" json:"language"`
	Description string   `toml:"description" yaml:"description" json:"description"`
	Subject     []string `toml:"subject" yaml:"subject" json:"subject"`
}

// metadataFiles lists the accepted metadata files in lookup order. Every
// format ignores keys it does not know.
var metadataFiles = []struct {
	name   string
	decode func([]byte, *Metadata) error
}{
	{"metadata.toml", func(b []byte, m *Metadata) error { return toml.Unmarshal(b, m) }},
	{"metadata.yaml", func(b []byte, m *Metadata) error { return yaml.Unmarshal(b, m) }},
	{"metadata.yml", func(b []byte, m *Metadata) error { return yaml.Unmarshal(b, m) }},
	{"metadata.json", func(b []byte, m *Metadata) error { return json.Unmarshal(b, m) }},
}

// ReadMetadata reads the first metadata file present in dir.
func ReadMetadata(dir string) (*Metadata, error) {
	for _, f := range metadataFiles {
		path := filepath.Join(dir, f.name)
		raw, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, syopub.Errorf(syopub.ESTORAGE, "read metadata %s: %v", path, err)
		}

		var m Metadata
		if err := f.decode(raw, &m); err != nil {
			return nil, syopub.Errorf(syopub.ESTORAGE, "parse metadata %s: %v", path, err)
		}
		return &m, nil
	}
	return nil, syopub.Errorf(syopub.ESTORAGE, "no metadata file in %s", dir)
}
