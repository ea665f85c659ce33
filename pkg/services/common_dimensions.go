package services

import (
	"context"
	"fmt"
	"os"
	"sort"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/fuseline-io/fuseline-engine/pkg/models"
)

const (
	// minDatasetsForVocabulary: a vocabulary-named dimension is worth
	// surfacing as soon as two datasets share it.
	minDatasetsForVocabulary = 2
	// minDatasetsForOverlap: the overlap rule has no name evidence to lean
	// on, so it needs a wider spread before surfacing anything.
	minDatasetsForOverlap = 3
	// dimensionNameSimilarity is the floor for treating two column names as
	// the same dimension under the overlap rule.
	dimensionNameSimilarity = 0.70
	// dimensionOverlapFloor is the minimum pairwise value overlap for the
	// overlap rule.
	dimensionOverlapFloor = 0.30
	// maxDistinctForDimension: columns with more distinct sampled values than
	// this are not category-like.
	maxDistinctForDimension = 50
)

// defaultDimensionVocabulary is the compiled-in controlled vocabulary of
// likely dimension column names. A YAML file can replace it at startup.
var defaultDimensionVocabulary = []string{
	"region", "country", "state", "province", "city", "location", "area",
	"category", "subcategory", "type", "status", "segment", "channel",
	"department", "division", "team", "brand", "product", "gender",
	"year", "quarter", "month", "week", "date", "day",
}

// dimensionVocabularyFile is the YAML shape of a vocabulary override file.
type dimensionVocabularyFile struct {
	Terms []string `yaml:"terms"`
}

// LoadDimensionVocabulary reads the controlled vocabulary from a YAML file.
// An empty path returns the compiled-in default.
func LoadDimensionVocabulary(path string) ([]string, error) {
	if path == "" {
		return defaultDimensionVocabulary, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dimension vocabulary: %w", err)
	}
	var f dimensionVocabularyFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse dimension vocabulary: %w", err)
	}
	if len(f.Terms) == 0 {
		return defaultDimensionVocabulary, nil
	}
	return f.Terms, nil
}

// CommonDimensionFinder surfaces columns shared across multiple
// datasets, with or without a confirmed relationship. It is a softer,
// exploratory signal than detection: the analyst uses it to spot grouping
// columns ("region", "category") and create relationships manually.
type CommonDimensionFinder interface {
	FindCommonDimensions(ctx context.Context, datasets []*models.Dataset) ([]models.CommonDimension, error)
}

type commonDimensionFinder struct {
	fingerprinter Fingerprinter
	vocabulary    map[string]struct{}
	logger        *zap.Logger
}

var _ CommonDimensionFinder = (*commonDimensionFinder)(nil)

// NewCommonDimensionFinder creates a finder. A nil or empty vocabulary falls
// back to the compiled-in default.
func NewCommonDimensionFinder(fingerprinter Fingerprinter, vocabulary []string, logger *zap.Logger) CommonDimensionFinder {
	if len(vocabulary) == 0 {
		vocabulary = defaultDimensionVocabulary
	}
	vocab := make(map[string]struct{}, len(vocabulary))
	for _, term := range vocabulary {
		vocab[normalizeColumnName(term)] = struct{}{}
	}
	return &commonDimensionFinder{
		fingerprinter: fingerprinter,
		vocabulary:    vocab,
		logger:        logger.Named("common_dimensions"),
	}
}

// columnSighting is one column occurrence across the dataset set.
type columnSighting struct {
	datasetName string
	fp          *models.ColumnFingerprint
}

func (f *commonDimensionFinder) FindCommonDimensions(ctx context.Context, datasets []*models.Dataset) ([]models.CommonDimension, error) {
	if len(datasets) < 2 {
		return []models.CommonDimension{}, nil
	}

	fingerprints, err := f.fingerprinter.FingerprintAll(ctx, datasets)
	if err != nil {
		return nil, fmt.Errorf("fingerprint datasets: %w", err)
	}

	// Group columns by canonical name. Tokenized names within similarity
	// reach of an existing group fold into it, so "cust_region" joins
	// "region" when the names are close enough.
	groups := make(map[string][]columnSighting)
	for _, ds := range datasets {
		fps := fingerprints[ds.ID]
		for i := range fps {
			canonical := f.canonicalGroup(groups, fps[i].Column)
			groups[canonical] = append(groups[canonical], columnSighting{datasetName: ds.Name, fp: &fps[i]})
		}
	}

	var result []models.CommonDimension
	for canonical, sightings := range groups {
		dim, ok := f.qualify(canonical, sightings)
		if !ok {
			continue
		}
		result = append(result, dim)
	}

	sort.Slice(result, func(i, j int) bool {
		if len(result[i].Datasets) != len(result[j].Datasets) {
			return len(result[i].Datasets) > len(result[j].Datasets)
		}
		return result[i].Dimension < result[j].Dimension
	})

	f.logger.Debug("common dimension scan completed",
		zap.Int("datasets", len(datasets)),
		zap.Int("dimensions", len(result)))
	if result == nil {
		result = []models.CommonDimension{}
	}
	return result, nil
}

// canonicalGroup finds an existing group whose name is near the column's
// normalized name, or starts a new group under the column's own name.
func (f *commonDimensionFinder) canonicalGroup(groups map[string][]columnSighting, column string) string {
	normalized := normalizeColumnName(column)
	if _, ok := groups[normalized]; ok {
		return normalized
	}
	// Sorted scan keeps group assignment deterministic across runs.
	existing := make([]string, 0, len(groups))
	for name := range groups {
		existing = append(existing, name)
	}
	sort.Strings(existing)
	for _, name := range existing {
		if columnNameSimilarity(name, normalized) >= dimensionNameSimilarity {
			return name
		}
	}
	return normalized
}

// qualify applies the two rules from the design: a vocabulary name shared by
// two or more datasets qualifies outright; otherwise the group must span
// three datasets and be category-like (low cardinality) with value overlap.
func (f *commonDimensionFinder) qualify(canonical string, sightings []columnSighting) (models.CommonDimension, bool) {
	datasetNames := distinctDatasets(sightings)
	if len(datasetNames) < minDatasetsForVocabulary {
		return models.CommonDimension{}, false
	}

	if f.inVocabulary(canonical) {
		return models.CommonDimension{
			Dimension: canonical,
			Datasets:  datasetNames,
			MatchKind: models.MatchKindVocabulary,
		}, true
	}

	// Overlap rule: needs a wider spread than the vocabulary rule, every
	// sighting must look category-like, and each dataset must share values
	// with at least one other.
	if len(datasetNames) < minDatasetsForOverlap {
		return models.CommonDimension{}, false
	}
	for _, s := range sightings {
		if s.fp.CardinalityRatio > LowCardinalityRatio && s.fp.DistinctValues > maxDistinctForDimension {
			return models.CommonDimension{}, false
		}
	}
	connected := make(map[string]bool)
	for i := range sightings {
		for j := i + 1; j < len(sightings); j++ {
			if sightings[i].datasetName == sightings[j].datasetName {
				continue
			}
			if valueOverlapScore(sightings[i].fp, sightings[j].fp) >= dimensionOverlapFloor {
				connected[sightings[i].datasetName] = true
				connected[sightings[j].datasetName] = true
			}
		}
	}
	for _, name := range datasetNames {
		if !connected[name] {
			return models.CommonDimension{}, false
		}
	}

	return models.CommonDimension{
		Dimension: canonical,
		Datasets:  datasetNames,
		MatchKind: models.MatchKindOverlap,
	}, true
}

func (f *commonDimensionFinder) inVocabulary(canonical string) bool {
	if _, ok := f.vocabulary[canonical]; ok {
		return true
	}
	// Token match: "customer_region" carries the vocabulary term "region".
	for _, token := range splitNameTokens(canonical) {
		if _, ok := f.vocabulary[token]; ok {
			return true
		}
	}
	return false
}

func valueOverlapScore(a, b *models.ColumnFingerprint) float64 {
	if len(a.ValueSet) == 0 || len(b.ValueSet) == 0 {
		return 0
	}
	matching := countOverlap(a.ValueSet, b.ValueSet)
	smaller := len(a.ValueSet)
	if len(b.ValueSet) < smaller {
		smaller = len(b.ValueSet)
	}
	return float64(matching) / float64(smaller)
}

func distinctDatasets(sightings []columnSighting) []string {
	seen := make(map[string]struct{})
	var names []string
	for _, s := range sightings {
		if _, ok := seen[s.datasetName]; !ok {
			seen[s.datasetName] = struct{}{}
			names = append(names, s.datasetName)
		}
	}
	sort.Strings(names)
	return names
}
