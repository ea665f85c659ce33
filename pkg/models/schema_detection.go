package models

import "github.com/google/uuid"

// SchemaType is the detected topology of the relationship graph.
type SchemaType string

const (
	SchemaTypeStar      SchemaType = "star"
	SchemaTypeSnowflake SchemaType = "snowflake"
	SchemaTypeFlat      SchemaType = "flat"
	SchemaTypeNone      SchemaType = "none"
)

// TableRole summarizes one dataset's role in the detected schema.
type TableRole struct {
	DatasetID   uuid.UUID `json:"dataset_id"`
	DatasetName string    `json:"dataset_name"`
	// Degree counts distinct datasets this table links to in the graph.
	Degree int `json:"degree"`
	// MatchingRows totals matching values across the table's edges; used for
	// the hub tie-break.
	MatchingRows int `json:"matching_rows"`
}

// SchemaDetectionResult is the full output of one classification pass. It is
// recomputed from scratch every run; nothing is incrementally updated.
type SchemaDetectionResult struct {
	SchemaType      SchemaType     `json:"schema_type"`
	Confidence      float64        `json:"confidence"`
	FactTables      []TableRole    `json:"fact_tables"`
	DimensionTables []TableRole    `json:"dimension_tables"`
	Relationships   []Relationship `json:"relationships"`
	Explanation     string         `json:"explanation"`
}

// SideCounts holds a per-side pair of counts (dataset 1 = the from side).
type SideCounts struct {
	Dataset1 int `json:"dataset1"`
	Dataset2 int `json:"dataset2"`
}

// ValidationResult reports how well a chosen column pair actually joins,
// computed over full data rather than fingerprint samples. Data-quality
// problems surface here as warnings and recommendations, never as errors.
type ValidationResult struct {
	IsValid           bool       `json:"is_valid"`
	MatchRate         float64    `json:"match_rate"`
	OrphanCount       SideCounts `json:"orphan_count"`
	DuplicateKeyCount SideCounts `json:"duplicate_key_count"`

	TotalRows1   int `json:"total_rows1"`
	TotalRows2   int `json:"total_rows2"`
	MatchedRows1 int `json:"matched_rows1"`
	MatchedRows2 int `json:"matched_rows2"`
	NullKeyRows1 int `json:"null_key_rows1"`
	NullKeyRows2 int `json:"null_key_rows2"`

	Warnings        []string `json:"warnings"`
	Recommendations []string `json:"recommendations"`
}

// CommonDimensionMatch records which rule surfaced a common dimension.
type CommonDimensionMatch string

const (
	// MatchKindVocabulary: the column name is a known dimension term.
	MatchKindVocabulary CommonDimensionMatch = "vocabulary"
	// MatchKindOverlap: near-named low-cardinality columns share values.
	MatchKindOverlap CommonDimensionMatch = "overlap"
)

// CommonDimension is an exploratory signal: a column shared by multiple
// datasets that could group them, independent of any confirmed relationship.
type CommonDimension struct {
	Dimension string               `json:"dimension"`
	Datasets  []string             `json:"datasets"`
	MatchKind CommonDimensionMatch `json:"match_kind"`
}
