package mssql

import (
	"fmt"
	"strings"
)

// quoteName returns a bracket-quoted SQL Server identifier with ] escaped
// as ]].
func quoteName(identifier string) string {
	escaped := strings.ReplaceAll(identifier, "]", "]]")
	return fmt.Sprintf("[%s]", escaped)
}

// qualifiedTableName builds [schema].[table]. An empty schema defaults to
// dbo.
func qualifiedTableName(schema, table string) string {
	if schema == "" {
		schema = "dbo"
	}
	return quoteName(schema) + "." + quoteName(table)
}
