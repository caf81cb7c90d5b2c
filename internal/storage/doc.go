package storage

// Package storage persists player ratings across restarts.
//
// Drivers:
//   - file: one JSON document, atomic rewrite on save
//   - sqlite: single-table database (build with -tags sqlite)
