// Package plex is the HTTP client for the media server's library API.
//
// It speaks the JSON MediaContainer protocol: section listing, item search
// and guid lookup, collection fetch, membership edits, ordering moves,
// attribute and preference updates, and poster/art upload. Requests carry
// the X-Plex-Token and client-identifier headers; 401 responses map to
// ErrUnauthorized and missing resources to ErrNotFound so callers can branch
// without string matching.
//
// The Client is deliberately thin: it owns wire shapes and endpoints, not
// policy. Resolution strategy and reconciliation order live with the
// callers.
package plex
