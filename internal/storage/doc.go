// Package storage is the durable record of which events have already
// been announced.
//
// Existence of a row IS the "already notified" marker: rows are only ever
// added, never updated or deleted, and inserts are idempotent. That makes
// abrupt shutdown safe by construction.
package storage
