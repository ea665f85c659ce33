package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/fuseline-io/fuseline-engine/pkg/apperrors"
	"github.com/fuseline-io/fuseline-engine/pkg/models"
)

// MergeEngine materializes a join between two datasets into a composite view.
type MergeEngine interface {
	// JoinDatasets joins from and to on fromCol = toCol. One-to-many matches
	// expand to one output row per matching pair; the caller reads the
	// resulting row count to see the expansion. Inputs are never mutated.
	JoinDatasets(ctx context.Context, from, to *models.Dataset, fromCol, toCol string, joinType models.JoinType) (*models.CompositeView, error)
}

type mergeEngine struct {
	logger *zap.Logger
}

var _ MergeEngine = (*mergeEngine)(nil)

// NewMergeEngine creates a merge engine.
func NewMergeEngine(logger *zap.Logger) MergeEngine {
	return &mergeEngine{logger: logger.Named("merge_engine")}
}

func (m *mergeEngine) JoinDatasets(ctx context.Context, from, to *models.Dataset, fromCol, toCol string, joinType models.JoinType) (*models.CompositeView, error) {
	if !from.HasColumn(fromCol) {
		return nil, fmt.Errorf("%w: %q in dataset %q", apperrors.ErrInvalidColumnReference, fromCol, from.Name)
	}
	if !to.HasColumn(toCol) {
		return nil, fmt.Errorf("%w: %q in dataset %q", apperrors.ErrInvalidColumnReference, toCol, to.Name)
	}

	// The manifest and the collision winner are fixed in the caller's frame
	// before any side swapping: from-columns then to-columns, with the
	// caller's to side taking the last word on shared names.
	manifest := mergedColumns(from, to)

	// A right join is the mirror image: swap sides and run left semantics,
	// remembering the swap so merged rows still resolve collisions in the
	// caller's favor of the original to side.
	swapped := false
	if joinType == models.JoinRight {
		joinType = models.JoinLeft
		from, to = to, from
		fromCol, toCol = toCol, fromCol
		swapped = true
	}

	// Lookup: normalized key → to-side rows in first-seen order. Multiple
	// rows per key are retained; collapsing them would silently break
	// one-to-many expansion. Null keys never participate.
	lookup := make(map[string][]models.Row)
	for _, row := range to.Rows {
		v, ok := row[toCol]
		if !ok || v.IsNull() {
			continue
		}
		key := v.Normalized()
		lookup[key] = append(lookup[key], row)
	}

	var out []models.Row
	matchedToRows := make(map[string]bool)

	for _, fromRow := range from.Rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var partners []models.Row
		if v, ok := fromRow[fromCol]; ok && !v.IsNull() {
			key := v.Normalized()
			partners = lookup[key]
			if len(partners) > 0 {
				matchedToRows[key] = true
			}
		}

		switch {
		case len(partners) > 0:
			for _, toRow := range partners {
				first, second := fromRow, toRow
				if swapped {
					first, second = toRow, fromRow
				}
				out = append(out, mergeRows(first, second, manifest))
			}
		case joinType == models.JoinLeft || joinType == models.JoinFull:
			out = append(out, mergeRows(fromRow, nil, manifest))
		}
	}

	// Full join: append to-side orphans exactly once each, preserving the
	// to side's row order.
	if joinType == models.JoinFull {
		for _, toRow := range to.Rows {
			v, ok := toRow[toCol]
			if !ok || v.IsNull() || !matchedToRows[v.Normalized()] {
				out = append(out, mergeRows(nil, toRow, manifest))
			}
		}
	}

	if out == nil {
		out = []models.Row{}
	}

	m.logger.Debug("datasets joined",
		zap.String("from", from.Name), zap.String("to", to.Name),
		zap.String("join_type", string(joinType)),
		zap.Int("rows", len(out)))

	return &models.CompositeView{Data: out, Columns: manifest}, nil
}

// mergedColumns builds the output manifest: from columns in order, then to
// columns not already present by name. A shared column name produces a single
// output column whose value comes from the to side on matched rows
// (last-write-wins collision policy).
func mergedColumns(from, to *models.Dataset) []models.ColumnInfo {
	manifest := make([]models.ColumnInfo, 0, len(from.Columns)+len(to.Columns))
	seen := make(map[string]int, len(from.Columns))
	for _, c := range from.Columns {
		seen[c.Name] = len(manifest)
		manifest = append(manifest, c)
	}
	for _, c := range to.Columns {
		if i, dup := seen[c.Name]; dup {
			// Keep the to side's type info on collision, mirroring the value
			// overwrite in mergeRows.
			manifest[i] = c
			continue
		}
		manifest = append(manifest, c)
	}
	return manifest
}

// mergeRows combines one row from each side. Either side may be nil (outer
// join orphan); its columns come out null. second is written last and wins
// shared column names.
func mergeRows(first, second models.Row, manifest []models.ColumnInfo) models.Row {
	merged := make(models.Row, len(manifest))
	for _, c := range manifest {
		merged[c.Name] = models.NullValue()
	}
	for name, v := range first {
		merged[name] = v
	}
	for name, v := range second {
		merged[name] = v
	}
	return merged
}
