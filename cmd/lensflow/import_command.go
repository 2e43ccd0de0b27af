package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newImportCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "import FILE...",
		Short: "Add image files to the collection",
		Long: "Uploads the named files to the running daemon. Each image is " +
			"analyzed before it appears in the collection; files that cannot be " +
			"read or are not images are excluded without failing the batch.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}

			result, err := client.Upload(cmd.Context(), args)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOut {
				return printJSON(out, result)
			}
			fmt.Fprintf(out, "Added %d photo(s)\n", len(result.Added))
			if result.Excluded > 0 {
				fmt.Fprintf(out, "Excluded %d file(s)\n", result.Excluded)
			}
			if len(result.Added) > 0 {
				writePhotoTable(out, result.Added)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON instead of a table")
	return cmd
}
