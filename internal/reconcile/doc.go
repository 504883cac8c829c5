// Package reconcile converges remote collection state to declared specs.
//
// Each collection is handled independently: resolve references, create the
// collection if absent, diff membership into minimal add/remove calls,
// reissue custom ordering after membership settles, and update attributes
// that differ. A remote failure abandons that collection's remaining steps
// and is reported in its Result; the run moves on. Everything is idempotent,
// so rerunning after a partial failure converges.
package reconcile
