// Package repository contains the raw-SQL data access layer. Each
// repository wraps *sql.DB and returns sentinel errors so handlers can
// map failure kinds to HTTP statuses without inspecting driver errors.
// Uniqueness and referential integrity are ultimately enforced by the
// MySQL schema; repositories translate constraint violations into the
// sentinels instead of relying on in-process locks, because several
// server instances may share one database.
package repository

import "strings"

// isDuplicateKey reports whether err is a MySQL duplicate-entry error
// (error 1062), raised when a UNIQUE constraint is violated.
func isDuplicateKey(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "1062")
}
