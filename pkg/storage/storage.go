package storage

import "context"

// Provider is the storage contract used for every artifact the pipeline reads
// or writes: raw pages, templates, locale dictionaries and the rendered tree.
// Operations are named strings so alternative backends can route them.
type Provider interface {
	Query(ctx context.Context, query string, args ...any) (Rows, error)
	Exec(ctx context.Context, query string, args ...any) (Result, error)
	Transaction(ctx context.Context, fn func(tx Transaction) error) error
}

// Rows iterates query results.
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Close() error
}

// Result reports the outcome of an Exec call.
type Result interface {
	RowsAffected() (int64, error)
	LastInsertId() (int64, error)
}

// Transaction groups operations; filesystem providers apply them eagerly.
type Transaction interface {
	Provider
	Commit() error
	Rollback() error
}
