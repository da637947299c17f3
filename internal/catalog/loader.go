package catalog

import (
	"fmt"
	"os"
	"strings"

	"github.com/felixgeelhaar/etltrainer/internal/domain"
	"gopkg.in/yaml.v3"
)

// OverlayFile is the YAML structure for extra sample snippets
//
//	patterns:
//	  - id: P1
//	    samples:
//	      - "SELECT TO_DATE(ORDER_DT, 'YYYYMMDD') FROM T_ORDERS;"
type OverlayFile struct {
	Patterns []struct {
		ID      string   `yaml:"id"`
		Samples []string `yaml:"samples"`
	} `yaml:"patterns"`
}

// LoadFile builds a catalog from the built-in patterns extended with the
// samples listed in a YAML overlay. The overlay cannot introduce patterns.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog overlay: %w", err)
	}
	return LoadBytes(data)
}

// LoadBytes is LoadFile for an in-memory overlay
func LoadBytes(data []byte) (*Catalog, error) {
	var overlay OverlayFile
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return nil, fmt.Errorf("parse catalog overlay: %w", err)
	}

	patterns := builtinPatterns()
	index := make(map[domain.PatternID]int, len(patterns))
	for i, p := range patterns {
		index[p.ID] = i
	}

	for _, entry := range overlay.Patterns {
		id := domain.PatternID(strings.TrimSpace(entry.ID))
		i, ok := index[id]
		if !ok {
			return nil, fmt.Errorf("%w: %s", domain.ErrUnknownPattern, id)
		}
		for _, sample := range entry.Samples {
			sample = strings.TrimSpace(sample)
			if sample == "" {
				continue
			}
			patterns[i].Samples = append(patterns[i].Samples, sample)
		}
	}

	return New(patterns...), nil
}
