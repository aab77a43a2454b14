package db

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// StorageType selects what FT.CREATE indexes.
type StorageType string

// StorageHash indexes Redis hashes.
const StorageHash StorageType = "HASH"

// DistanceMetric of a vector field.
type DistanceMetric string

// Distance metrics.
const (
	DistanceL2     DistanceMetric = "L2"
	DistanceIP     DistanceMetric = "IP"
	DistanceCosine DistanceMetric = "COSINE"
)

// VectorAlgorithm of a vector field.
type VectorAlgorithm string

// Vector algorithms.
const (
	VectorHNSW VectorAlgorithm = "HNSW"
	VectorFlat VectorAlgorithm = "FLAT"
)

// FieldKind is the FT schema type of a field.
type FieldKind int

// Field kinds.
const (
	FieldTag FieldKind = iota + 1
	FieldNumeric
	FieldText
	FieldVector
)

// TagOptions tune a TAG field.
type TagOptions struct {
	Separator     string
	CaseSensitive bool
}

// VectorOptions tune a VECTOR field. Zero tuning values keep server defaults.
type VectorOptions struct {
	Algorithm      VectorAlgorithm
	Dim            int
	Distance       DistanceMetric
	M              int // HNSW
	EFConstruction int // HNSW
	BlockSize      int // FLAT
}

// Field is one entry of an index schema.
type Field struct {
	Name   string
	Kind   FieldKind
	Tag    TagOptions
	Vector VectorOptions
}

// Tag declares a TAG field.
func Tag(name string, opts TagOptions) Field {
	return Field{Name: name, Kind: FieldTag, Tag: opts}
}

// Numeric declares a NUMERIC field.
func Numeric(name string) Field {
	return Field{Name: name, Kind: FieldNumeric}
}

// Text declares a TEXT field.
func Text(name string) Field {
	return Field{Name: name, Kind: FieldText}
}

// Vector declares a FLOAT32 VECTOR field.
func Vector(name string, opts VectorOptions) Field {
	return Field{Name: name, Kind: FieldVector, Vector: opts}
}

// Schema is an FT index over hashes sharing key prefixes.
type Schema struct {
	Name     string
	Storage  StorageType
	Prefixes []string
	Fields   []Field
}

// NewSchema returns a HASH schema for the given prefix and fields.
func NewSchema(name, prefix string, fields ...Field) *Schema {
	return &Schema{Name: name, Storage: StorageHash, Prefixes: []string{prefix}, Fields: fields}
}

// Validate rejects schemas the server would refuse.
func (s *Schema) Validate() error {
	if !IsValidIdentifier(s.Name) {
		return fmt.Errorf("invalid index name %q", s.Name)
	}
	if len(s.Fields) == 0 {
		return errors.New("at least one field is required")
	}
	seen := make(map[string]bool, len(s.Fields))
	for i := range s.Fields {
		f := &s.Fields[i]
		if f.Name == "" {
			return fmt.Errorf("field %d: name is required", i)
		}
		if seen[f.Name] {
			return fmt.Errorf("duplicate field %q", f.Name)
		}
		seen[f.Name] = true
		if f.Kind == FieldVector && f.Vector.Dim <= 0 {
			return fmt.Errorf("vector field %q: dim must be positive", f.Name)
		}
	}
	return nil
}

// Args renders the FT.CREATE arguments after the command name.
func (s *Schema) Args() ([]string, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	storage := s.Storage
	if storage == "" {
		storage = StorageHash
	}
	args := []string{s.Name, "ON", string(storage)}
	if len(s.Prefixes) > 0 {
		args = append(args, "PREFIX", strconv.Itoa(len(s.Prefixes)))
		args = append(args, s.Prefixes...)
	}
	args = append(args, "SCHEMA")

	for i := range s.Fields {
		fieldArgs, err := s.Fields[i].args()
		if err != nil {
			return nil, err
		}
		args = append(args, fieldArgs...)
	}
	return args, nil
}

// String renders the full FT.CREATE command for logs.
func (s *Schema) String() string {
	args, err := s.Args()
	if err != nil {
		return "FT.CREATE " + s.Name + " <invalid: " + err.Error() + ">"
	}
	return "FT.CREATE " + strings.Join(args, " ")
}

func (f *Field) args() ([]string, error) {
	switch f.Kind {
	case FieldNumeric:
		return []string{f.Name, "NUMERIC"}, nil
	case FieldText:
		return []string{f.Name, "TEXT"}, nil
	case FieldTag:
		args := []string{f.Name, "TAG"}
		if f.Tag.Separator != "" {
			args = append(args, "SEPARATOR", f.Tag.Separator)
		}
		if f.Tag.CaseSensitive {
			args = append(args, "CASESENSITIVE")
		}
		return args, nil
	case FieldVector:
		return f.vectorArgs(), nil
	default:
		return nil, fmt.Errorf("field %q: unknown kind %d", f.Name, f.Kind)
	}
}

func (f *Field) vectorArgs() []string {
	v := f.Vector
	algo := v.Algorithm
	if algo == "" {
		algo = VectorFlat
	}
	distance := v.Distance
	if distance == "" {
		distance = DistanceCosine
	}

	attrs := []string{
		"TYPE", "FLOAT32",
		"DIM", strconv.Itoa(v.Dim),
		"DISTANCE_METRIC", string(distance),
	}
	switch algo {
	case VectorHNSW:
		if v.M > 0 {
			attrs = append(attrs, "M", strconv.Itoa(v.M))
		}
		if v.EFConstruction > 0 {
			attrs = append(attrs, "EF_CONSTRUCTION", strconv.Itoa(v.EFConstruction))
		}
	case VectorFlat:
		if v.BlockSize > 0 {
			attrs = append(attrs, "BLOCK_SIZE", strconv.Itoa(v.BlockSize))
		}
	}

	out := make([]string, 0, 4+len(attrs))
	out = append(out, f.Name, "VECTOR", string(algo), strconv.Itoa(len(attrs)))
	return append(out, attrs...)
}

// IsValidIdentifier reports whether s is a non-empty [a-zA-Z0-9_:-]+ string.
func IsValidIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '_', r == ':', r == '-':
		default:
			return false
		}
	}
	return true
}
