package services

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/fuseline-io/fuseline-engine/pkg/models"
)

// Detection configuration constants
const (
	// DefaultMatchThreshold is the value overlap required for an auto-join
	// recommendation.
	DefaultMatchThreshold = 0.70
	// NearUniqueRatio: a column at or above this cardinality ratio is treated
	// as a key ("one" side).
	NearUniqueRatio = 0.90
	// LowCardinalityRatio: at or below this a column looks like a foreign key
	// or category column.
	LowCardinalityRatio = 0.20
	// MinMatchingValues guards auto-join recommendations against tiny-sample
	// false positives.
	MinMatchingValues = 2
	// NamePrefilterFloor: column pairs scoring below this on name similarity
	// are skipped unless one side is id-style.
	NamePrefilterFloor = 0.30
	// MaxCandidatesPerPair caps how many ranked candidates each dataset pair
	// contributes.
	MaxCandidatesPerPair = 3
)

// Confidence blends the evidence sources: value overlap dominates, name
// similarity supports, exact type agreement adds a small bonus.
const (
	confidenceMatchWeight = 0.7
	confidenceNameWeight  = 0.2
	confidenceTypeBonus   = 0.1
)

// RelationshipDetector proposes ranked relationship candidates across all
// pairs of datasets. Proposals are advisory: the engine never guarantees a
// candidate is semantically correct, it guarantees the ranking reflects the
// observed value and name evidence.
type RelationshipDetector interface {
	// DetectRelationships compares every column pair of every unordered
	// dataset pair. Fewer than two datasets yields an empty slice, nil error.
	DetectRelationships(ctx context.Context, datasets []*models.Dataset) ([]models.Relationship, error)
}

type relationshipDetector struct {
	fingerprinter Fingerprinter
	topN          int
	logger        *zap.Logger
}

var _ RelationshipDetector = (*relationshipDetector)(nil)

// NewRelationshipDetector creates a detector. topN <= 0 falls back to
// MaxCandidatesPerPair.
func NewRelationshipDetector(fingerprinter Fingerprinter, topN int, logger *zap.Logger) RelationshipDetector {
	if topN <= 0 {
		topN = MaxCandidatesPerPair
	}
	return &relationshipDetector{
		fingerprinter: fingerprinter,
		topN:          topN,
		logger:        logger.Named("relationship_detector"),
	}
}

func (d *relationshipDetector) DetectRelationships(ctx context.Context, datasets []*models.Dataset) ([]models.Relationship, error) {
	if len(datasets) < 2 {
		// Expected steady state while the analyst is still uploading.
		return []models.Relationship{}, nil
	}

	fingerprints, err := d.fingerprinter.FingerprintAll(ctx, datasets)
	if err != nil {
		return nil, fmt.Errorf("fingerprint datasets: %w", err)
	}

	var all []models.Relationship
	for i := 0; i < len(datasets); i++ {
		for j := i + 1; j < len(datasets); j++ {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			pair := d.detectPair(datasets[i], datasets[j], fingerprints[datasets[i].ID], fingerprints[datasets[j].ID])
			all = append(all, pair...)
		}
	}

	d.logger.Info("relationship detection completed",
		zap.Int("datasets", len(datasets)),
		zap.Int("candidates", len(all)))
	return all, nil
}

// detectPair scores every column combination between two datasets and keeps
// the top N candidates.
func (d *relationshipDetector) detectPair(a, b *models.Dataset, fpsA, fpsB []models.ColumnFingerprint) []models.Relationship {
	var candidates []models.Relationship

	for ai := range fpsA {
		for bi := range fpsB {
			fpA := &fpsA[ai]
			fpB := &fpsB[bi]

			nameSim := columnNameSimilarity(fpA.Column, fpB.Column)
			if nameSim < NamePrefilterFloor && !isIDStyleColumn(fpA.Column) && !isIDStyleColumn(fpB.Column) {
				continue
			}
			if !typesCompatible(fpA.InferredType, fpB.InferredType) {
				continue
			}
			if len(fpA.ValueSet) == 0 || len(fpB.ValueSet) == 0 {
				// Empty dataset or all-null column: no match possible.
				continue
			}

			matching := countOverlap(fpA.ValueSet, fpB.ValueSet)
			if matching == 0 {
				continue
			}

			smaller := len(fpA.ValueSet)
			if len(fpB.ValueSet) < smaller {
				smaller = len(fpB.ValueSet)
			}
			matchScore := float64(matching) / float64(smaller)

			rel := d.buildCandidate(a, b, fpA, fpB, matchScore, matching, nameSim)
			candidates = append(candidates, rel)
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].MatchScore != candidates[j].MatchScore {
			return candidates[i].MatchScore > candidates[j].MatchScore
		}
		if candidates[i].MatchingValues != candidates[j].MatchingValues {
			return candidates[i].MatchingValues > candidates[j].MatchingValues
		}
		return candidates[i].NameSimilarity > candidates[j].NameSimilarity
	})

	if len(candidates) > d.topN {
		candidates = candidates[:d.topN]
	}
	return candidates
}

// buildCandidate orients the relationship so the near-unique ("one") side is
// the TO side, matching how a foreign key references a primary key.
func (d *relationshipDetector) buildCandidate(a, b *models.Dataset, fpA, fpB *models.ColumnFingerprint, matchScore float64, matching int, nameSim float64) models.Relationship {
	relType, swap := inferCardinality(fpA.CardinalityRatio, fpB.CardinalityRatio)

	from, to := a, b
	fromCol, toCol := fpA.Column, fpB.Column
	fromType, toType := fpA.InferredType, fpB.InferredType
	if swap {
		from, to = b, a
		fromCol, toCol = fpB.Column, fpA.Column
		fromType, toType = fpB.InferredType, fpA.InferredType
	}

	confidence := matchScore*confidenceMatchWeight + nameSim*confidenceNameWeight
	if fromType == toType {
		confidence += confidenceTypeBonus
	}
	if confidence > 1.0 {
		confidence = 1.0
	}

	return models.Relationship{
		FromDataset:         from.ID,
		ToDataset:           to.ID,
		FromDatasetName:     from.Name,
		ToDatasetName:       to.Name,
		FromColumn:          fromCol,
		ToColumn:            toCol,
		Type:                relType,
		MatchScore:          matchScore,
		Confidence:          confidence,
		MatchingValues:      matching,
		NameSimilarity:      nameSim,
		AutoJoinRecommended: matchScore >= DefaultMatchThreshold && matching >= MinMatchingValues,
	}
}

// inferCardinality maps the two cardinality ratios to a relationship type.
// swap reports that side B should become the FROM (referencing) side: when
// only A is near-unique, A is the "one" side being referenced, so the
// relationship runs B→A.
func inferCardinality(ratioA, ratioB float64) (models.RelationshipType, bool) {
	aUnique := ratioA >= NearUniqueRatio
	bUnique := ratioB >= NearUniqueRatio

	switch {
	case aUnique && bUnique:
		return models.OneToOne, false
	case aUnique:
		return models.OneToMany, true
	case bUnique:
		return models.OneToMany, false
	default:
		return models.ManyToMany, false
	}
}

// typesCompatible rejects value comparison across incompatible inferred
// types. String is the universal type: a string column may hold ids or dates
// that upstream inference could not pin down.
func typesCompatible(a, b models.ColumnType) bool {
	if a == b {
		return true
	}
	return a == models.ColumnTypeString || b == models.ColumnTypeString
}

func countOverlap(a, b map[string]struct{}) int {
	// Iterate the smaller set.
	if len(b) < len(a) {
		a, b = b, a
	}
	count := 0
	for v := range a {
		if _, ok := b[v]; ok {
			count++
		}
	}
	return count
}
