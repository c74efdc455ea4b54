// Package notifier is the announcement pipeline: poll the CTFtime feed,
// keep events starting within the next week that were not announced
// before, and broadcast each one to the configured chat with a fixed
// pacing delay between sends.
//
// Cycles never overlap and events inside a cycle are strictly
// sequential; a single event's failure never aborts the rest of the
// cycle.
package notifier
