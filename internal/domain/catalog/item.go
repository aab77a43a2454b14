package catalog

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Item is one keyboard kit of the catalog. Immutable after construction.
type Item struct {
	name          string
	layout        string
	mountingStyle string
	price         decimal.Decimal
	features      string
	description   string
	colors        string
}

// NewItem creates a catalog item.
func NewItem(
	name, layout, mountingStyle string,
	price decimal.Decimal,
	features, description, colors string,
) Item {
	return Item{
		name:          name,
		layout:        layout,
		mountingStyle: mountingStyle,
		price:         price,
		features:      features,
		description:   description,
		colors:        colors,
	}
}

// Name returns the unique item name.
func (i Item) Name() string { return i.name }

// Layout returns the form-factor label.
func (i Item) Layout() string { return i.layout }

// MountingStyle returns the mounting label, empty if unknown.
func (i Item) MountingStyle() string { return i.mountingStyle }

// Price returns the normalized price.
func (i Item) Price() decimal.Decimal { return i.price }

// Features returns the free-text feature list.
func (i Item) Features() string { return i.features }

// Description returns the free-text description.
func (i Item) Description() string { return i.description }

// Colors returns the free-text color list.
func (i Item) Colors() string { return i.colors }

// Document returns the text embedded into the semantic index.
func (i Item) Document() string {
	return strings.Join([]string{i.name, i.description, i.layout, i.features}, " ")
}

// Entry is an item placed in the semantic index: its stable id and embedding.
type Entry struct {
	ID     string
	Item   Item
	Vector []float32
}
