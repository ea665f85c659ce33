//go:build mssql || all_adapters

package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"go.uber.org/zap"

	_ "github.com/microsoft/go-mssqldb" // SQL Server driver

	"github.com/fuseline-io/fuseline-engine/pkg/adapters/datasource"
	"github.com/fuseline-io/fuseline-engine/pkg/logging"
	"github.com/fuseline-io/fuseline-engine/pkg/retry"
	sqlcheck "github.com/fuseline-io/fuseline-engine/pkg/sql"

	"github.com/fuseline-io/fuseline-engine/pkg/models"
)

// Loader loads SQL Server tables as datasets.
type Loader struct {
	config *Config
	db     *sql.DB
	logger *zap.Logger
}

var _ datasource.FilteredTableLoader = (*Loader)(nil)

// NewLoader connects to SQL Server and returns a table loader. Connecting
// retries with backoff on transient failures. If logger is nil, a no-op
// logger is used.
func NewLoader(ctx context.Context, cfg *Config, logger *zap.Logger) (*Loader, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	connStr := buildConnectionString(cfg)

	db, err := retry.DoWithResult(ctx, retry.DefaultConfig(), func() (*sql.DB, error) {
		db, err := sql.Open("sqlserver", connStr)
		if err != nil {
			return nil, fmt.Errorf("open sqlserver connection: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("ping sqlserver: %w", err)
		}
		return db, nil
	})
	if err != nil {
		logger.Error("SQL Server connection failed",
			zap.String("target", logging.SanitizeConnectionString(connStr)),
			zap.String("error", logging.SanitizeError(err)))
		return nil, err
	}

	return &Loader{config: cfg, db: db, logger: logger.Named("mssql_loader")}, nil
}

// newLoaderWithDB wires a loader over an existing handle, used by tests.
func newLoaderWithDB(cfg *Config, db *sql.DB, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{config: cfg, db: db, logger: logger}
}

// TestConnection verifies the database is reachable and that the connection
// landed on the configured database.
func (l *Loader) TestConnection(ctx context.Context) error {
	if err := l.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping failed: %w", err)
	}

	var currentDB string
	if err := l.db.QueryRowContext(ctx, "SELECT DB_NAME()").Scan(&currentDB); err != nil {
		return fmt.Errorf("failed to get current database name: %w", err)
	}
	if !strings.EqualFold(currentDB, l.config.Database) {
		return fmt.Errorf("connected to wrong database: expected %q but connected to %q", l.config.Database, currentDB)
	}
	return nil
}

// Close releases the database handle.
func (l *Loader) Close() error {
	if l.db != nil {
		return l.db.Close()
	}
	return nil
}

// ListTables returns the user tables, excluding system schemas.
func (l *Loader) ListTables(ctx context.Context) ([]datasource.TableRef, error) {
	query := `
		SELECT t.TABLE_SCHEMA, t.TABLE_NAME
		FROM INFORMATION_SCHEMA.TABLES t
		WHERE t.TABLE_TYPE = 'BASE TABLE'
		  AND t.TABLE_SCHEMA NOT IN ('sys', 'INFORMATION_SCHEMA')
		ORDER BY t.TABLE_SCHEMA, t.TABLE_NAME`

	rows, err := l.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()

	var tables []datasource.TableRef
	for rows.Next() {
		var ref datasource.TableRef
		if err := rows.Scan(&ref.Schema, &ref.Name); err != nil {
			return nil, fmt.Errorf("scan table row: %w", err)
		}
		tables = append(tables, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tables: %w", err)
	}
	return tables, nil
}

// LoadTable reads up to limit rows of a table into a dataset.
func (l *Loader) LoadTable(ctx context.Context, schema, table string, limit int) (*models.Dataset, error) {
	return l.load(ctx, schema, table, "", "", limit)
}

// LoadTableWhere loads rows where column equals value. The value is bound as
// a query parameter after screening for SQL injection patterns.
func (l *Loader) LoadTableWhere(ctx context.Context, schema, table, column, value string, limit int) (*models.Dataset, error) {
	if result := sqlcheck.CheckParameterForInjection(column, value); result != nil {
		l.logger.Warn("Rejected filter value with injection pattern",
			zap.String("column", column),
			zap.String("fingerprint", result.Fingerprint))
		return nil, fmt.Errorf("filter value for column %q rejected: injection pattern detected", column)
	}
	return l.load(ctx, schema, table, column, value, limit)
}

func (l *Loader) load(ctx context.Context, schema, table, filterCol, filterVal string, limit int) (*models.Dataset, error) {
	if limit <= 0 || limit > l.config.RowLimit {
		limit = l.config.RowLimit
	}

	query := fmt.Sprintf("SELECT TOP %d * FROM %s", limit, qualifiedTableName(schema, table))
	args := []any{}
	if filterCol != "" {
		query += fmt.Sprintf(" WHERE %s = @p1", quoteName(filterCol))
		args = append(args, filterVal)
	}

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("load table %s: %w", table, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns of %s: %w", table, err)
	}

	var cells [][]any
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row from %s: %w", table, err)
		}
		cells = append(cells, values)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows of %s: %w", table, err)
	}

	l.logger.Debug("Loaded table",
		zap.String("schema", schema),
		zap.String("table", table),
		zap.Int("rows", len(cells)),
		zap.Int("columns", len(columns)))

	return datasource.RowsToDataset(table, columns, cells), nil
}
