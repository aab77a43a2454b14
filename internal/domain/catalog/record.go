package catalog

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/kitfinder/internal/domain"
)

// Record is one raw catalog entry as stored in the catalog JSON file.
type Record struct {
	Keyboard      string   `json:"keyboard"`
	Layout        string   `json:"layout"`
	MountingStyle string   `json:"mounting style"`
	Price         RawPrice `json:"price"`
	Features      string   `json:"features"`
	Description   string   `json:"description"`
	Colors        string   `json:"colors"`
}

// FromRecord normalizes a raw record at position index. Non-price fields pass through unchanged.
func FromRecord(index int, r *Record) (Item, error) {
	price, err := ParsePrice(string(r.Price))
	if err != nil {
		return Item{}, &MalformedPriceError{Index: index, Name: r.Keyboard, Raw: string(r.Price), Err: err}
	}
	return NewItem(r.Keyboard, r.Layout, r.MountingStyle, price, r.Features, r.Description, r.Colors), nil
}

// FromRecords normalizes a whole catalog. Fails on the first malformed record
// and on duplicate names; no partial catalog is returned.
func FromRecords(records []Record) ([]Item, error) {
	items := make([]Item, 0, len(records))
	seen := make(map[string]int, len(records))

	for i := range records {
		item, err := FromRecord(i, &records[i])
		if err != nil {
			return nil, err
		}
		if name := strings.TrimSpace(item.Name()); name != "" {
			if first, dup := seen[name]; dup {
				return nil, fmt.Errorf("%w: %q at records %d and %d", domain.ErrDuplicateItem, name, first, i)
			}
			seen[name] = i
		}
		items = append(items, item)
	}

	return items, nil
}
