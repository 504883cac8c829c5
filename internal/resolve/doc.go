// Package resolve maps user-written item references onto catalog items.
//
// A reference is one of three forms: a plain title (optionally year-hinted),
// a title with an external-database suffix such as "Alien {tmdb-348}", or an
// internal plex:// guid. Each form gets its own lookup strategy; guid forms
// never fall back to title search, and a title matching several items
// without a year hint is an ambiguity error rather than a silent pick.
//
// Resolution failures are per-item values, not run-fatal errors. The
// optional sqlite cache short-circuits remote searches for references that
// resolved on earlier runs against the same server.
package resolve
