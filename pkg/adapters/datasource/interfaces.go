// Package datasource defines the contracts for loading tabular data from
// external SQL databases into datasets the inference engine can analyze.
// Concrete adapters live in subpackages and register themselves behind build
// tags so the core engine builds with zero database drivers.
package datasource

import (
	"context"

	"github.com/fuseline-io/fuseline-engine/pkg/models"
)

// ConnectionTester tests database connectivity.
// Each implementation owns its connection and must be closed when done.
type ConnectionTester interface {
	// TestConnection verifies the database is reachable with valid credentials.
	// Returns nil if connection is healthy, error otherwise.
	TestConnection(ctx context.Context) error

	// Close releases the database connection.
	Close() error
}

// TableRef identifies a table within a database.
type TableRef struct {
	Schema string `json:"schema"`
	Name   string `json:"name"`
}

// TableLoader loads tables from a SQL source as datasets.
// Each implementation owns its connection and must be closed when done.
type TableLoader interface {
	ConnectionTester

	// ListTables returns the user tables visible to the connection,
	// excluding system schemas.
	ListTables(ctx context.Context) ([]TableRef, error)

	// LoadTable reads up to limit rows of a table into a dataset named
	// after the table. A limit of 0 applies the adapter's default cap.
	LoadTable(ctx context.Context, schema, table string, limit int) (*models.Dataset, error)
}

// FilteredTableLoader is implemented by loaders that support an equality
// row filter on load. The filter value is bound as a query parameter, never
// interpolated; values carrying SQL injection patterns are rejected before
// the query runs.
type FilteredTableLoader interface {
	TableLoader

	// LoadTableWhere behaves like LoadTable restricted to rows where
	// column equals value.
	LoadTableWhere(ctx context.Context, schema, table, column, value string, limit int) (*models.Dataset, error)
}
