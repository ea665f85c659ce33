package models

import (
	"fmt"

	"github.com/fuseline-io/fuseline-engine/pkg/apperrors"
)

// JoinType selects the join semantics for merging two datasets.
type JoinType string

const (
	JoinInner JoinType = "inner"
	JoinLeft  JoinType = "left"
	JoinRight JoinType = "right"
	JoinFull  JoinType = "full"
)

// ParseJoinType validates a wire-format join type. Unknown values are a
// caller bug and fail loudly.
func ParseJoinType(s string) (JoinType, error) {
	switch JoinType(s) {
	case JoinInner, JoinLeft, JoinRight, JoinFull:
		return JoinType(s), nil
	}
	return "", fmt.Errorf("%w: %q", apperrors.ErrUnknownJoinType, s)
}

// CompositeView is a materialized join of two datasets. Ownership transfers
// to the caller; the engine holds no reference after returning it.
type CompositeView struct {
	// Data holds merged rows, from-side order preserved. One-to-many matches
	// expand to one output row per match, so len(Data) can exceed either
	// input's row count.
	Data []Row `json:"data"`
	// Columns is the output manifest: the from side's columns in order, then
	// any to-side columns not already present by name.
	Columns []ColumnInfo `json:"columns"`
}
