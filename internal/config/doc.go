// Package config loads, normalizes, and validates curator configuration.
//
// Application settings live in a TOML file with repository defaults and
// tilde-expanded paths. Media-server credentials are deliberately separate:
// they come from the process environment (with .env support) so tokens never
// end up in the settings file. Obtain settings through Load and credentials
// through LoadCredentials so downstream code receives sanitized paths and
// clear validation errors.
package config
