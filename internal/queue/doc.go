// Package queue persists bookmark save requests in SQLite and exposes the
// lifecycle operations the sync worker drives.
//
// The Store is the only component that mutates item records. Items move
// through queued -> sending -> done/error; "sending" is a transient lease
// held by one in-progress delivery pass, and a lease older than the
// configured timeout is evidence of a crashed pass and becomes eligible
// again on the next scan.
//
// Treat this package as the single source of truth for queue semantics; when
// you add new statuses or fields, update schema.sql and bump schemaVersion.
package queue
