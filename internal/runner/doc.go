// Package runner drives a full synchronization pass: single-instance lock,
// config load, optional dumps, and sequential reconciliation of every
// declared collection, one library at a time. Per-collection failures never
// stop the run; the Summary carries everything needed for reporting and the
// process exit status.
package runner
