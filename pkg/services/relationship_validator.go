package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/fuseline-io/fuseline-engine/pkg/apperrors"
	"github.com/fuseline-io/fuseline-engine/pkg/models"
)

const (
	// DefaultValidationChunkSize bounds how many rows are processed between
	// cancellation checks and progress callbacks.
	DefaultValidationChunkSize = 5000
	// MinAcceptableMatchRate is the match rate floor for IsValid.
	MinAcceptableMatchRate = 0.50
	// highOrphanFraction triggers the high-orphan warning.
	highOrphanFraction = 0.50
	// catastrophicDuplicateFraction: a declared one-to-one side duplicating
	// more than this fraction of its rows signals cartesian-explosion risk.
	catastrophicDuplicateFraction = 0.50
)

// ProgressFunc receives (rows processed, total rows) between chunks.
type ProgressFunc func(done, total int)

// RelationshipValidator recomputes match quality for one chosen column pair
// over FULL data, not fingerprint samples. Work is chunked: cancellation via
// ctx and progress callbacks both take effect between chunks, so a host UI
// stays responsive on large datasets.
type RelationshipValidator interface {
	ValidateRelationship(ctx context.Context, ds1, ds2 *models.Dataset, col1, col2 string, declaredType models.RelationshipType, progress ProgressFunc) (*models.ValidationResult, error)
}

type relationshipValidator struct {
	chunkSize int
	logger    *zap.Logger
}

var _ RelationshipValidator = (*relationshipValidator)(nil)

// NewRelationshipValidator creates a validator. chunkSize <= 0 falls back to
// DefaultValidationChunkSize.
func NewRelationshipValidator(chunkSize int, logger *zap.Logger) RelationshipValidator {
	if chunkSize <= 0 {
		chunkSize = DefaultValidationChunkSize
	}
	return &relationshipValidator{chunkSize: chunkSize, logger: logger.Named("relationship_validator")}
}

func (v *relationshipValidator) ValidateRelationship(ctx context.Context, ds1, ds2 *models.Dataset, col1, col2 string, declaredType models.RelationshipType, progress ProgressFunc) (*models.ValidationResult, error) {
	if !ds1.HasColumn(col1) {
		return nil, fmt.Errorf("%w: %q in dataset %q", apperrors.ErrInvalidColumnReference, col1, ds1.Name)
	}
	if !ds2.HasColumn(col2) {
		return nil, fmt.Errorf("%w: %q in dataset %q", apperrors.ErrInvalidColumnReference, col2, ds2.Name)
	}

	total := len(ds1.Rows) + len(ds2.Rows)
	done := 0

	keys1, nulls1, err := v.countKeys(ctx, ds1.Rows, col1, total, &done, progress)
	if err != nil {
		return nil, err
	}
	keys2, nulls2, err := v.countKeys(ctx, ds2.Rows, col2, total, &done, progress)
	if err != nil {
		return nil, err
	}

	result := &models.ValidationResult{
		TotalRows1:   len(ds1.Rows),
		TotalRows2:   len(ds2.Rows),
		NullKeyRows1: nulls1,
		NullKeyRows2: nulls2,
	}

	for key, count := range keys1 {
		if _, ok := keys2[key]; ok {
			result.MatchedRows1 += count
		} else {
			result.OrphanCount.Dataset1 += count
		}
		if count > 1 {
			result.DuplicateKeyCount.Dataset1 += count
		}
	}
	for key, count := range keys2 {
		if _, ok := keys1[key]; ok {
			result.MatchedRows2 += count
		} else {
			result.OrphanCount.Dataset2 += count
		}
		if count > 1 {
			result.DuplicateKeyCount.Dataset2 += count
		}
	}

	// Direction: ds1 is the "from" side. An all-null key column yields match
	// rate 0 and a fully orphaned side; that is a data finding, not an error.
	if len(ds1.Rows) > 0 {
		result.MatchRate = float64(result.MatchedRows1) / float64(len(ds1.Rows))
	}

	v.appendFindings(result, ds1.Name, ds2.Name, declaredType)

	v.logger.Debug("relationship validated",
		zap.String("ds1", ds1.Name), zap.String("ds2", ds2.Name),
		zap.String("col1", col1), zap.String("col2", col2),
		zap.Float64("match_rate", result.MatchRate))
	return result, nil
}

// countKeys tallies normalized non-null key occurrences for one side,
// checking cancellation between chunks.
func (v *relationshipValidator) countKeys(ctx context.Context, rows []models.Row, col string, total int, done *int, progress ProgressFunc) (map[string]int, int, error) {
	keys := make(map[string]int)
	nulls := 0

	for start := 0; start < len(rows); start += v.chunkSize {
		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}
		end := start + v.chunkSize
		if end > len(rows) {
			end = len(rows)
		}
		for _, row := range rows[start:end] {
			val, ok := row[col]
			if !ok || val.IsNull() {
				nulls++
				continue
			}
			keys[val.Normalized()]++
		}
		*done += end - start
		if progress != nil {
			progress(*done, total)
		}
	}
	return keys, nulls, nil
}

func (v *relationshipValidator) appendFindings(r *models.ValidationResult, name1, name2 string, declaredType models.RelationshipType) {
	r.Warnings = []string{}
	r.Recommendations = []string{}

	catastrophic := false
	if declaredType == models.OneToOne {
		half1 := r.TotalRows1 > 0 && float64(r.DuplicateKeyCount.Dataset1) > float64(r.TotalRows1)*catastrophicDuplicateFraction
		half2 := r.TotalRows2 > 0 && float64(r.DuplicateKeyCount.Dataset2) > float64(r.TotalRows2)*catastrophicDuplicateFraction
		catastrophic = half1 || half2
	}
	r.IsValid = r.MatchRate >= MinAcceptableMatchRate && !catastrophic

	if r.MatchRate < MinAcceptableMatchRate {
		r.Warnings = append(r.Warnings,
			fmt.Sprintf("Low match rate: only %.0f%% of rows in %s find a match in %s.", r.MatchRate*100, name1, name2))
		r.Recommendations = append(r.Recommendations,
			"Verify the chosen columns really are a key pair, or filter unmatched rows before joining.")
	}
	if r.TotalRows1 > 0 && float64(r.OrphanCount.Dataset1) > float64(r.TotalRows1)*highOrphanFraction {
		r.Warnings = append(r.Warnings,
			fmt.Sprintf("High orphan count: %d of %d rows in %s have no counterpart.", r.OrphanCount.Dataset1, r.TotalRows1, name1))
		r.Recommendations = append(r.Recommendations,
			fmt.Sprintf("Consider a left join to retain unmatched %s rows.", name1))
	}
	if r.TotalRows2 > 0 && float64(r.OrphanCount.Dataset2) > float64(r.TotalRows2)*highOrphanFraction {
		r.Warnings = append(r.Warnings,
			fmt.Sprintf("High orphan count: %d of %d rows in %s have no counterpart.", r.OrphanCount.Dataset2, r.TotalRows2, name2))
	}
	if declaredType == models.OneToOne && (r.DuplicateKeyCount.Dataset1 > 0 || r.DuplicateKeyCount.Dataset2 > 0) {
		r.Warnings = append(r.Warnings,
			fmt.Sprintf("Duplicate keys found (%d in %s, %d in %s) but the relationship was declared one-to-one.",
				r.DuplicateKeyCount.Dataset1, name1, r.DuplicateKeyCount.Dataset2, name2))
		r.Recommendations = append(r.Recommendations,
			"Deduplicate the key column before a one-to-one join, or treat the relationship as one-to-many.")
	}
}
