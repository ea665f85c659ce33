package services

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/fuseline-io/fuseline-engine/pkg/models"
)

// DefaultSampleLimit caps how many rows fingerprinting scans per dataset.
// Larger datasets are sampled with a uniform stride so the sample stays
// representative without walking every row.
const DefaultSampleLimit = 2000

// FingerprintCache lets callers reuse fingerprints across detection passes.
// The engine stays cache-agnostic: it only consults the cache when one is
// provided, keyed by dataset identity plus content hash so stale entries
// never match re-uploaded data.
type FingerprintCache interface {
	Get(datasetID uuid.UUID, contentHash uint64) ([]models.ColumnFingerprint, bool)
	Put(datasetID uuid.UUID, contentHash uint64, fps []models.ColumnFingerprint)
}

// Fingerprinter computes column fingerprints for datasets.
type Fingerprinter interface {
	// FingerprintDataset fingerprints every column of one dataset.
	FingerprintDataset(ctx context.Context, ds *models.Dataset) []models.ColumnFingerprint

	// FingerprintAll fingerprints each dataset, running datasets in parallel
	// (they share no state). The result maps dataset ID to its fingerprints.
	FingerprintAll(ctx context.Context, datasets []*models.Dataset) (map[uuid.UUID][]models.ColumnFingerprint, error)
}

type fingerprinter struct {
	sampleLimit int
	cache       FingerprintCache
	logger      *zap.Logger
}

var _ Fingerprinter = (*fingerprinter)(nil)

// NewFingerprinter creates a fingerprinter. cache may be nil; sampleLimit <= 0
// falls back to DefaultSampleLimit.
func NewFingerprinter(sampleLimit int, cache FingerprintCache, logger *zap.Logger) Fingerprinter {
	if sampleLimit <= 0 {
		sampleLimit = DefaultSampleLimit
	}
	return &fingerprinter{
		sampleLimit: sampleLimit,
		cache:       cache,
		logger:      logger.Named("fingerprinter"),
	}
}

func (f *fingerprinter) FingerprintDataset(ctx context.Context, ds *models.Dataset) []models.ColumnFingerprint {
	var hash uint64
	if f.cache != nil {
		hash = ds.ContentHash()
		if fps, ok := f.cache.Get(ds.ID, hash); ok {
			return fps
		}
	}

	sample := sampleRows(ds.Rows, f.sampleLimit)
	fps := make([]models.ColumnFingerprint, len(ds.Columns))

	for i, col := range ds.Columns {
		valueSet := make(map[string]struct{})
		nulls := 0
		nonNull := 0

		for _, row := range sample {
			v, ok := row[col.Name]
			if !ok || v.IsNull() {
				nulls++
				continue
			}
			nonNull++
			valueSet[v.Normalized()] = struct{}{}
		}

		fp := models.ColumnFingerprint{
			DatasetID:      ds.ID,
			Column:         col.Name,
			InferredType:   col.InferredType,
			SampledRows:    len(sample),
			DistinctValues: len(valueSet),
			ValueSet:       valueSet,
		}
		if nonNull > 0 {
			fp.CardinalityRatio = float64(len(valueSet)) / float64(nonNull)
		}
		if len(sample) > 0 {
			fp.NullRate = float64(nulls) / float64(len(sample))
		}
		fps[i] = fp
	}

	f.logger.Debug("fingerprinted dataset",
		zap.String("dataset", ds.Name),
		zap.Int("columns", len(fps)),
		zap.Int("sampled_rows", len(sample)))

	if f.cache != nil {
		f.cache.Put(ds.ID, hash, fps)
	}
	return fps
}

func (f *fingerprinter) FingerprintAll(ctx context.Context, datasets []*models.Dataset) (map[uuid.UUID][]models.ColumnFingerprint, error) {
	results := make([]([]models.ColumnFingerprint), len(datasets))

	g, gctx := errgroup.WithContext(ctx)
	for i, ds := range datasets {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = f.FingerprintDataset(gctx, ds)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[uuid.UUID][]models.ColumnFingerprint, len(datasets))
	for i, ds := range datasets {
		out[ds.ID] = results[i]
	}
	return out, nil
}

// sampleRows returns up to limit rows. Small datasets are used whole; larger
// ones are walked with a uniform stride so every region contributes. The
// selection is deterministic: the same dataset always yields the same sample.
func sampleRows(rows []models.Row, limit int) []models.Row {
	if len(rows) <= limit {
		return rows
	}
	stride := (len(rows) + limit - 1) / limit
	sample := make([]models.Row, 0, limit)
	for i := 0; i < len(rows) && len(sample) < limit; i += stride {
		sample = append(sample, rows[i])
	}
	return sample
}
