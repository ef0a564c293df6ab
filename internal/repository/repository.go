// Package repository contains the sqlx persistence layer. Repositories return
// raw sql.ErrNoRows for missing rows; services translate to API errors.
package repository

import "strings"

// prefixColumns qualifies a comma-separated column list with a table alias.
func prefixColumns(alias, columns string) string {
	parts := strings.Split(columns, ",")
	for i, p := range parts {
		parts[i] = alias + "." + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}
