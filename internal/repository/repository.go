// Package repository holds the sqlx data access layer. Write methods
// that must land inside the ingestion transaction take an
// sqlx.ExtContext so they run against either the db or an open tx.
package repository

import (
	"database/sql"
	"errors"
)

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
