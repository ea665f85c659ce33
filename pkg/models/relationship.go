package models

import "github.com/google/uuid"

// RelationshipType describes the multiplicity of a relationship between two
// columns, inferred from their cardinality ratios.
type RelationshipType string

const (
	OneToOne   RelationshipType = "one-to-one"
	OneToMany  RelationshipType = "one-to-many"
	ManyToMany RelationshipType = "many-to-many"
)

// Relationship is a candidate or confirmed link between a column of one
// dataset and a column of another. Candidates come out of detection ranked by
// match score; promotion to confirmed (and schema tagging) is the caller's
// decision. Values are immutable once produced.
type Relationship struct {
	FromDataset     uuid.UUID        `json:"from_dataset"`
	ToDataset       uuid.UUID        `json:"to_dataset"`
	FromDatasetName string           `json:"from_dataset_name"`
	ToDatasetName   string           `json:"to_dataset_name"`
	FromColumn      string           `json:"from_column"`
	ToColumn        string           `json:"to_column"`
	Type            RelationshipType `json:"type"`

	// MatchScore is |A ∩ B| / min(|A|, |B|) over normalized value sets, so a
	// small dimension key fully contained in a large fact column scores 1.0.
	MatchScore     float64 `json:"match_score"`
	Confidence     float64 `json:"confidence"`
	MatchingValues int     `json:"matching_values"`
	NameSimilarity float64 `json:"name_similarity"`

	AutoJoinRecommended bool `json:"auto_join_recommended"`

	// Set by schema classification on the copies it returns; empty on raw
	// detector candidates. These describe the FROM side's role.
	SchemaType       string `json:"schema_type,omitempty"`
	IsFactTable      bool   `json:"is_fact_table,omitempty"`
	IsDimensionTable bool   `json:"is_dimension_table,omitempty"`
}
