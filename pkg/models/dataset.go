package models

import (
	"encoding/binary"
	"hash/fnv"

	"github.com/google/uuid"
)

// Column types inferred for dataset columns.
type ColumnType string

const (
	ColumnTypeString  ColumnType = "string"
	ColumnTypeNumber  ColumnType = "number"
	ColumnTypeDate    ColumnType = "date"
	ColumnTypeBoolean ColumnType = "boolean"
)

// ColumnSampleSize is how many distinct sample values ColumnInfo retains.
const ColumnSampleSize = 5

// Row is a single record keyed by column name. Keys absent from the row are
// treated as null cells; column order lives in the dataset's column manifest.
type Row map[string]Value

// ColumnInfo describes one column of a dataset.
type ColumnInfo struct {
	Name         string     `json:"name"`
	InferredType ColumnType `json:"inferred_type"`
	NullCount    int        `json:"null_count"`
	UniqueCount  int        `json:"unique_count"`
	SampleValues []string   `json:"sample_values,omitempty"`
}

// Dataset is an in-memory table. The engine never mutates a dataset after
// construction; analyses compute over it as an immutable snapshot.
type Dataset struct {
	ID      uuid.UUID    `json:"id"`
	Name    string       `json:"name"`
	Columns []ColumnInfo `json:"columns"`
	Rows    []Row        `json:"rows"`
}

// NewDataset builds a dataset and computes per-column statistics in a single
// pass over the rows. It is the only sanctioned constructor: handlers and
// loaders go through it so ColumnInfo is never stale. A zero-row dataset is
// valid and yields zeroed statistics.
func NewDataset(name string, columnNames []string, rows []Row) *Dataset {
	columns := make([]ColumnInfo, len(columnNames))
	type colStats struct {
		votes  map[ColumnType]int
		seen   map[string]struct{}
		sample []string
		nulls  int
	}
	stats := make([]colStats, len(columnNames))
	for i := range stats {
		stats[i] = colStats{
			votes: make(map[ColumnType]int),
			seen:  make(map[string]struct{}),
		}
	}

	for _, row := range rows {
		for i, col := range columnNames {
			v, ok := row[col]
			if !ok || v.IsNull() {
				stats[i].nulls++
				continue
			}
			if t, voted := v.ColumnTypeOf(); voted {
				stats[i].votes[t]++
			}
			norm := v.Normalized()
			if _, dup := stats[i].seen[norm]; !dup {
				stats[i].seen[norm] = struct{}{}
				if len(stats[i].sample) < ColumnSampleSize {
					stats[i].sample = append(stats[i].sample, norm)
				}
			}
		}
	}

	for i, col := range columnNames {
		columns[i] = ColumnInfo{
			Name:         col,
			InferredType: majorityType(stats[i].votes),
			NullCount:    stats[i].nulls,
			UniqueCount:  len(stats[i].seen),
			SampleValues: stats[i].sample,
		}
	}

	return &Dataset{
		ID:      uuid.New(),
		Name:    name,
		Columns: columns,
		Rows:    rows,
	}
}

// majorityType picks the column type with the most votes. Ties and columns
// with no typed values fall back to string, the type every value satisfies.
func majorityType(votes map[ColumnType]int) ColumnType {
	best := ColumnTypeString
	bestCount := 0
	// Fixed iteration order keeps inference deterministic on ties.
	for _, t := range []ColumnType{ColumnTypeString, ColumnTypeNumber, ColumnTypeDate, ColumnTypeBoolean} {
		if votes[t] > bestCount {
			best = t
			bestCount = votes[t]
		}
	}
	return best
}

// ColumnNames returns the column manifest in order.
func (d *Dataset) ColumnNames() []string {
	names := make([]string, len(d.Columns))
	for i, c := range d.Columns {
		names[i] = c.Name
	}
	return names
}

// Column returns the ColumnInfo for the given name.
func (d *Dataset) Column(name string) (ColumnInfo, bool) {
	for _, c := range d.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return ColumnInfo{}, false
}

// HasColumn reports whether the column exists in the manifest.
func (d *Dataset) HasColumn(name string) bool {
	_, ok := d.Column(name)
	return ok
}

// RowCount returns the number of rows.
func (d *Dataset) RowCount() int {
	return len(d.Rows)
}

// ContentHash computes an FNV-1a hash over the dataset name, column manifest
// and every normalized cell in row order. Fingerprint caching keys on
// (dataset ID, content hash): re-registering changed data changes the hash,
// which is how callers invalidate cached fingerprints.
func (d *Dataset) ContentHash() uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(d.Name))
	for _, c := range d.Columns {
		_, _ = h.Write([]byte{0})
		_, _ = h.Write([]byte(c.Name))
	}
	var count [8]byte
	binary.LittleEndian.PutUint64(count[:], uint64(len(d.Rows)))
	_, _ = h.Write(count[:])
	for _, row := range d.Rows {
		for _, c := range d.Columns {
			_, _ = h.Write([]byte{0})
			if v, ok := row[c.Name]; ok {
				_, _ = h.Write([]byte(v.Normalized()))
			}
		}
	}
	return h.Sum64()
}
