//go:build postgres || all_adapters

package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/fuseline-io/fuseline-engine/pkg/adapters/datasource"
	"github.com/fuseline-io/fuseline-engine/pkg/logging"
	"github.com/fuseline-io/fuseline-engine/pkg/models"
	"github.com/fuseline-io/fuseline-engine/pkg/retry"
	sqlcheck "github.com/fuseline-io/fuseline-engine/pkg/sql"
)

// qualifiedTableName returns a properly quoted table reference.
// If schemaName is empty, returns just the quoted table name.
func qualifiedTableName(schemaName, tableName string) string {
	quotedTable := pgx.Identifier{tableName}.Sanitize()
	if schemaName == "" {
		return quotedTable
	}
	quotedSchema := pgx.Identifier{schemaName}.Sanitize()
	return quotedSchema + "." + quotedTable
}

// Loader loads PostgreSQL tables as datasets.
type Loader struct {
	config *Config
	pool   *pgxpool.Pool
	logger *zap.Logger
}

var _ datasource.FilteredTableLoader = (*Loader)(nil)

// NewLoader connects to PostgreSQL and returns a table loader.
// Connecting retries with backoff on transient failures; the connection
// string is never logged unsanitized. If logger is nil, a no-op logger is
// used.
func NewLoader(ctx context.Context, cfg *Config, logger *zap.Logger) (*Loader, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	connStr := buildConnectionString(cfg)

	pool, err := retry.DoWithResult(ctx, retry.DefaultConfig(), func() (*pgxpool.Pool, error) {
		pool, err := pgxpool.New(ctx, connStr)
		if err != nil {
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("ping postgres: %w", err)
		}
		return pool, nil
	})
	if err != nil {
		logger.Error("PostgreSQL connection failed",
			zap.String("target", logging.SanitizeConnectionString(connStr)),
			zap.String("error", logging.SanitizeError(err)))
		return nil, err
	}

	return &Loader{config: cfg, pool: pool, logger: logger.Named("postgres_loader")}, nil
}

// TestConnection verifies the database is reachable and that the connection
// landed on the configured database rather than a default one.
func (l *Loader) TestConnection(ctx context.Context) error {
	if err := l.pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping failed: %w", err)
	}

	var currentDB string
	if err := l.pool.QueryRow(ctx, "SELECT current_database()").Scan(&currentDB); err != nil {
		return fmt.Errorf("failed to get current database name: %w", err)
	}
	if !strings.EqualFold(currentDB, l.config.Database) {
		return fmt.Errorf("connected to wrong database: expected %q but connected to %q", l.config.Database, currentDB)
	}
	return nil
}

// Close releases the connection pool.
func (l *Loader) Close() error {
	if l.pool != nil {
		l.pool.Close()
	}
	return nil
}

// ListTables returns the user tables, excluding system schemas.
func (l *Loader) ListTables(ctx context.Context) ([]datasource.TableRef, error) {
	query := `
		SELECT t.table_schema, t.table_name
		FROM information_schema.tables t
		WHERE t.table_type = 'BASE TABLE'
		  AND t.table_schema NOT IN ('pg_catalog', 'information_schema', 'pg_toast')
		ORDER BY t.table_schema, t.table_name`

	rows, err := l.pool.Query(ctx, query)
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
// a query parameter; values carrying SQL injection patterns are rejected
// before the query runs so they never reach error messages or logs.
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

	query := fmt.Sprintf("SELECT * FROM %s", qualifiedTableName(schema, table))
	args := []any{}
	if filterCol != "" {
		query += fmt.Sprintf(" WHERE %s = $1", pgx.Identifier{filterCol}.Sanitize())
		args = append(args, filterVal)
	}
	query += fmt.Sprintf(" LIMIT %d", limit)

	rows, err := l.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("load table %s: %w", table, err)
	}
	defer rows.Close()

	descs := rows.FieldDescriptions()
	columns := make([]string, len(descs))
	for i, d := range descs {
		columns[i] = d.Name
	}

	var cells [][]any
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
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
