// Package debug captures correlated request/response pairs for offline inspection.
// Each debug-enabled call produces a Record keyed by a strictly increasing
// sequence number; the write destination is abstracted behind the Sink interface.
package debug
