// Package session persists wizard sessions in SQLite and exposes helpers for
// driving their lifecycle.
//
// A Session is the aggregate root of the content wizard: the submitted
// website URL, the business analysis, the chosen customer scenario, the
// candidate topics, the generated article, and the draft/exported post state.
// The Store manages database connections, schema initialization, stats
// queries, and the status transitions that mirror the public workflow enum.
//
// The database is treated as working storage for in-flight wizard runs rather
// than a long-term archive; finished posts are copied into the library
// collections. Schema changes bump the version in schema.go; users clear the
// database to adopt the new schema.
//
// Treat this package as the single source of truth for wizard semantics; when
// you add new statuses or fields, update schema.sql and bump schemaVersion.
package session
