package util

import "fmt"

// BuildPostgresConstraintName builds the name PostgreSQL itself would pick for an
// implicit object of a column ("users_id_seq", "posts_user_id_fkey").
// Names longer than 63 bytes (NAMEDATALEN - 1) are truncated the way PostgreSQL does it:
// the column part is cut down to 28 bytes first and the rest of the overflow is
// taken from the table part.
func BuildPostgresConstraintName(tableName, columnName, suffix string) string {
	fullName := fmt.Sprintf("%s_%s_%s", tableName, columnName, suffix)
	if len(fullName) <= 63 {
		return fullName
	}

	overflow := len(fullName) - 63
	tableRemove := overflow
	columnRemove := 0
	if columnLen := len(columnName); columnLen > 28 {
		columnRemove = min(overflow, columnLen-28)
		tableRemove = overflow - columnRemove
	}

	truncatedTable := tableName[:len(tableName)-tableRemove]
	truncatedColumn := columnName[:len(columnName)-columnRemove]
	return fmt.Sprintf("%s_%s_%s", truncatedTable, truncatedColumn, suffix)
}
