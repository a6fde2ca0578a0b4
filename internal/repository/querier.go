package repository

import (
	"context"
	"database/sql"
	"errors"
)

// ErrNotFound is returned when a subject-scoped lookup matches no row
var ErrNotFound = errors.New("record not found")

// Querier is the subset of sqlx shared by *sqlx.DB and *sqlx.Tx. Repositories built on a
// transaction take part in it.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	Rebind(query string) string
}

// maxInArgs bounds the ids bound into one IN (...) clause
const maxInArgs = 500

func chunkIDs(ids []int64, size int) [][]int64 {
	var chunks [][]int64
	for len(ids) > size {
		chunks = append(chunks, ids[:size])
		ids = ids[size:]
	}
	if len(ids) > 0 {
		chunks = append(chunks, ids)
	}
	return chunks
}
