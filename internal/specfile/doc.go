// Package specfile parses and serializes the user-facing YAML formats: the
// root config enumerating libraries and their collection files, and the
// collection-definition files themselves.
//
// Multiple collection files per library merge with first-file-wins
// semantics; discarded duplicates surface as warnings, never errors. The
// encode side emits the exact same schema the loader accepts, which is what
// makes dumps reusable as input.
package specfile
