package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newLibrariesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "libraries",
		Short: "List libraries on the connected server",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := ctx.openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer sess.Close()

			libraries, err := sess.client.Libraries(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (%s)\n", sess.identity.FriendlyName, sess.client.BaseURL())

			headers := []string{"Key", "Title", "Type"}
			rows := make([][]string, 0, len(libraries))
			for _, library := range libraries {
				rows = append(rows, []string{library.Key, library.Title, library.Type})
			}
			fmt.Fprintln(out, renderTable(headers, rows, 1))
			fmt.Fprintf(out, "%s libraries\n", strconv.Itoa(len(libraries)))
			return nil
		},
	}
}
