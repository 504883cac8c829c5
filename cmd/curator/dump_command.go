package main

import (
	"github.com/spf13/cobra"

	"curator/internal/runner"
)

// newDumpCommand is the read-only shorthand: dump without touching the
// server, equivalent to sync --dump-collections --exclude-edit.
func newDumpCommand(ctx *commandContext) *cobra.Command {
	var libraries bool
	var allFields bool

	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Export server collections to reusable YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := runner.Options{
				DumpCollections: !libraries,
				DumpLibraries:   libraries,
				AllFields:       allFields,
				ExcludeEdit:     true,
			}
			return runSync(ctx, cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&libraries, "libraries", false, "Dump full library catalogs instead of collections")
	cmd.Flags().BoolVar(&allFields, "all-fields", false, "Include every metadata field in library dumps")
	return cmd
}
