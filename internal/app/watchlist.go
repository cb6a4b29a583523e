package app

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/samvad-hq/openoverheid/pkg/rdw"
	"gopkg.in/yaml.v3"
)

// watchlistFile is the YAML seed file listing plates to watch.
type watchlistFile struct {
	Plates []string `yaml:"plates"`
}

// LoadWatchlist reads and normalizes the plates listed in a seed file.
func LoadWatchlist(path string) ([]string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("watchlist file path is empty")
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read watchlist file: %w", err)
	}

	var file watchlistFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("decode watchlist file: %w", err)
	}

	plates := make([]string, 0, len(file.Plates))
	for i, entry := range file.Plates {
		p, err := rdw.NormalizeLicensePlate(strings.TrimSpace(entry))
		if err != nil {
			return nil, fmt.Errorf("plates[%d]: %w", i, err)
		}
		plates = append(plates, p.String())
	}
	return plates, nil
}

// mergePlates returns the union of the lists, keeping first-seen order.
func mergePlates(lists ...[]string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, list := range lists {
		for _, p := range list {
			if _, ok := seen[p]; ok {
				continue
			}
			seen[p] = struct{}{}
			out = append(out, p)
		}
	}
	return out
}
