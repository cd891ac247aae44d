package memory

import "database/sql"

// SwapExecHook replaces the statement execution path for tests and
// returns a restore func.
func (s *Store) SwapExecHook(fn func(query string, args ...any) (sql.Result, error)) (restore func()) {
	prev := s.hooks.exec
	s.hooks.exec = func(db execer, query string, args ...any) (sql.Result, error) {
		return fn(query, args...)
	}
	return func() { s.hooks.exec = prev }
}

// SwapQueryHook replaces the row query path for tests and returns a
// restore func.
func (s *Store) SwapQueryHook(fn func(query string, args ...any) (*sql.Rows, error)) (restore func()) {
	prev := s.hooks.query
	s.hooks.query = func(db queryer, query string, args ...any) (*sql.Rows, error) {
		return fn(query, args...)
	}
	return func() { s.hooks.query = prev }
}

// SanitizeFTS exposes the FTS5 query sanitizer for tests.
var SanitizeFTS = sanitizeFTS
