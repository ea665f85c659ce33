package models

import "github.com/google/uuid"

// ColumnFingerprint is a comparable signature for one column, computed from a
// bounded sample of the dataset's rows. Fingerprints are ephemeral engine
// state: they live for one detection pass unless the caller caches them
// (keyed by dataset ID plus content hash).
type ColumnFingerprint struct {
	DatasetID    uuid.UUID  `json:"dataset_id"`
	Column       string     `json:"column"`
	InferredType ColumnType `json:"inferred_type"`

	// CardinalityRatio is uniqueNonNull / sampledNonNull in [0,1]; 0 for a
	// column with no non-null sampled values. Near 1 means id-like.
	CardinalityRatio float64 `json:"cardinality_ratio"`
	NullRate         float64 `json:"null_rate"`
	SampledRows      int     `json:"sampled_rows"`
	DistinctValues   int     `json:"distinct_values"`

	// ValueSet holds the normalized sampled values. Not serialized; it can be
	// large and is only meaningful inside one engine process.
	ValueSet map[string]struct{} `json:"-"`
}

// HasValue reports whether the normalized value was seen in the sample.
func (f *ColumnFingerprint) HasValue(normalized string) bool {
	_, ok := f.ValueSet[normalized]
	return ok
}
