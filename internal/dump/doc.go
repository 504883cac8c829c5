// Package dump exports remote collections and library catalogs to YAML in
// the collection-file schema, for backup or as seed input for future runs.
package dump
