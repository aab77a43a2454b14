package catalog

import (
	"encoding/binary"
	"math"

	"github.com/shopspring/decimal"

	domcat "github.com/kailas-cloud/kitfinder/internal/domain/catalog"
)

// Hash field names of an indexed item.
const (
	fieldName          = "name"
	fieldLayout        = "layout"
	fieldMountingStyle = "mounting_style"
	fieldPrice         = "price"
	fieldFeatures      = "features"
	fieldDescription   = "description"
	fieldColors        = "colors"
	fieldContent       = "__content"
	fieldVector        = "__vector"
)

// metadataFields are returned by KNN queries; the vector blob is not.
var metadataFields = []string{
	fieldName, fieldLayout, fieldMountingStyle, fieldPrice,
	fieldFeatures, fieldDescription, fieldColors,
}

// buildHashFields converts an entry into a flat map for HSET.
// An empty mounting style is omitted so the TAG index never sees it.
func buildHashFields(e *domcat.Entry) map[string]string {
	it := e.Item
	m := map[string]string{
		fieldName:        it.Name(),
		fieldLayout:      it.Layout(),
		fieldPrice:       it.Price().String(),
		fieldFeatures:    it.Features(),
		fieldDescription: it.Description(),
		fieldColors:      it.Colors(),
		fieldContent:     it.Document(),
		fieldVector:      vectorToBytes(e.Vector),
	}
	if it.MountingStyle() != "" {
		m[fieldMountingStyle] = it.MountingStyle()
	}
	return m
}

// parseHashFields rebuilds an item from hash fields. A missing or unreadable
// price reads as 0; a missing mounting style reads as "".
func parseHashFields(m map[string]string) domcat.Item {
	price, err := decimal.NewFromString(m[fieldPrice])
	if err != nil {
		price = decimal.Zero
	}
	return domcat.NewItem(
		m[fieldName],
		m[fieldLayout],
		m[fieldMountingStyle],
		price,
		m[fieldFeatures],
		m[fieldDescription],
		m[fieldColors],
	)
}

// vectorToBytes serializes []float32 to a binary string (4 bytes per float, little-endian).
func vectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}
