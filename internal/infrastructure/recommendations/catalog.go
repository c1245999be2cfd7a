// Package recommendations holds the read-only marketing tips per segment.
package recommendations

import (
	_ "embed"
	"fmt"
	"io"
	"os"

	"github.com/groweasy/analytics/internal/domain"
	"gopkg.in/yaml.v3"
)

//go:embed recommendations.yaml
var defaultCatalog []byte

// Catalog is an immutable, ordered table of tips per segment.
// Safe for concurrent use.
type Catalog struct {
	entries []domain.Recommendation
	index   map[string]int
}

// Default returns the catalog bundled with the binary
func Default() (*Catalog, error) {
	return Parse(defaultCatalog)
}

// MustDefault is Default for process start-up
func MustDefault() *Catalog {
	c, err := Default()
	if err != nil {
		panic(err)
	}
	return c
}

// Load reads a catalog from a YAML file, falling back to the bundled one when path is empty
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open recommendations: %w", err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read recommendations: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML sequence of {segment, tips} entries
func Parse(data []byte) (*Catalog, error) {
	var entries []domain.Recommendation
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decode recommendations: %w", err)
	}

	index := make(map[string]int, len(entries))
	for i, e := range entries {
		if e.Segment == "" {
			return nil, fmt.Errorf("recommendation %d has no segment name", i)
		}
		if _, dup := index[e.Segment]; dup {
			return nil, fmt.Errorf("duplicate recommendation segment %q", e.Segment)
		}
		if e.Tips == nil {
			entries[i].Tips = []string{}
		}
		index[e.Segment] = i
	}
	return &Catalog{entries: entries, index: index}, nil
}

// All returns a copy of every entry in definition order
func (c *Catalog) All() []domain.Recommendation {
	out := make([]domain.Recommendation, len(c.entries))
	for i, e := range c.entries {
		out[i] = domain.Recommendation{Segment: e.Segment, Tips: append([]string(nil), e.Tips...)}
	}
	return out
}

// Tips returns a copy of the tips for one segment
func (c *Catalog) Tips(segment string) ([]string, bool) {
	i, ok := c.index[segment]
	if !ok {
		return nil, false
	}
	return append([]string{}, c.entries[i].Tips...), true
}
