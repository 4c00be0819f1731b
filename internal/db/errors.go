package db

import "errors"

// Sentinel errors returned by Store implementations.
var (
	ErrKeyNotFound   = errors.New("db: key not found")
	ErrIndexNotFound = errors.New("db: index not found")
	ErrIndexExists   = errors.New("db: index already exists")
	ErrNoTerms       = errors.New("db: query has no searchable terms")
	// ErrSearchUnavailable means the server answers but has no query engine (FT.* commands).
	ErrSearchUnavailable = errors.New("db: search commands unavailable")
)

// Operation names attached to Error, matching the Redis command that failed.
const (
	OpPing        = "PING"
	OpListIndexes = "FT._LIST"
	OpCreateIndex = "FT.CREATE"
	OpDropIndex   = "FT.DROPINDEX"
	OpIndexInfo   = "FT.INFO"
	OpSearch      = "FT.SEARCH"
	OpJSONSet     = "JSON.SET"
	OpGet         = "GET"
	OpSet         = "SET"
)

// Error records which store operation failed.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return "db " + e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }
