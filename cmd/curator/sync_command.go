package main

import (
	"errors"

	"github.com/spf13/cobra"

	"curator/internal/runner"
)

// errRunFailed marks a run that completed but left collections unconverged,
// so main can exit with a distinct status.
var errRunFailed = errors.New("run completed with failures")

func newSyncCommand(ctx *commandContext) *cobra.Command {
	var opts runner.Options

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Synchronize declared collections with the server",
		Long: "Sync loads the root configuration, resolves every declared item\n" +
			"reference, and converges the server's collections to the declared\n" +
			"state: creating missing collections, adding and removing members,\n" +
			"reordering custom-sorted collections, and updating attributes.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(ctx, cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.DumpCollections, "dump-collections", false, "Dump each library's collections to YAML before editing")
	cmd.Flags().BoolVar(&opts.DumpLibraries, "dump-libraries", false, "Dump each library's full catalog to YAML before editing")
	cmd.Flags().BoolVar(&opts.AllFields, "all-fields", false, "Include every metadata field in library dumps")
	cmd.Flags().BoolVar(&opts.ExcludeEdit, "exclude-edit", false, "Skip all server edits; only connect and dump")
	return cmd
}

func runSync(ctx *commandContext, cmd *cobra.Command, opts runner.Options) error {
	sess, err := ctx.openSession(cmd.Context())
	if err != nil {
		return err
	}
	defer sess.Close()

	r := runner.New(sess.cfg, sess.client, sess.identity.MachineIdentifier, sess.resolveCache(), sess.logger)
	summary, err := r.Run(cmd.Context(), opts)
	if err != nil {
		return err
	}

	renderSummary(cmd.OutOrStdout(), summary)
	return summaryError(summary)
}

func summaryError(summary *runner.Summary) error {
	if summary.Failed() {
		return errRunFailed
	}
	return nil
}
