package catalog

import (
	"github.com/kailas-cloud/kitfinder/internal/db"
)

// catalogSchema describes the catalog FT index: item metadata as TAG/NUMERIC
// fields plus the embedding. Tags use "|" so labels containing commas stay whole.
func catalogSchema(name, prefix string, vectorDim int, cfg IndexConfig) *db.Schema {
	vector := db.VectorOptions{
		Algorithm: cfg.Algorithm,
		Dim:       vectorDim,
		Distance:  db.DistanceCosine,
	}
	if cfg.Algorithm == db.VectorHNSW {
		vector.M = cfg.M
		vector.EFConstruction = cfg.EFConstruct
	}

	return db.NewSchema(name, prefix,
		db.Tag(fieldLayout, db.TagOptions{Separator: "|"}),
		db.Tag(fieldMountingStyle, db.TagOptions{Separator: "|", CaseSensitive: true}),
		db.Numeric(fieldPrice),
		db.Vector(fieldVector, vector),
	)
}
