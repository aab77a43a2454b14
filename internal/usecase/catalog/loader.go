// Package catalog loads the keyboard kit catalog from its JSON source.
package catalog

import (
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"

	domcat "github.com/kailas-cloud/kitfinder/internal/domain/catalog"
)

// Load decodes a JSON array of catalog records and normalizes prices.
// The whole load fails on the first malformed record.
func Load(r io.Reader) ([]domcat.Item, error) {
	var records []domcat.Record
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	items, err := domcat.FromRecords(records)
	if err != nil {
		return nil, fmt.Errorf("normalize catalog: %w", err)
	}
	return items, nil
}

// LoadFile opens path and loads the catalog from it.
func LoadFile(path string) ([]domcat.Item, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer func() { _ = f.Close() }()

	items, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return items, nil
}
