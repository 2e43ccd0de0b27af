package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newListCommand(ctx *commandContext) *cobra.Command {
	var category string
	var query string
	var timeline bool
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List photos in the collection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if timeline {
				groups, err := client.Timeline(cmd.Context(), category, query)
				if err != nil {
					return err
				}
				if jsonOut {
					return printJSON(out, groups)
				}
				if len(groups) == 0 {
					fmt.Fprintln(out, "No photos found")
					return nil
				}
				for _, group := range groups {
					fmt.Fprintf(out, "%s (%d)\n", group.Label, len(group.Photos))
					writePhotoTable(out, group.Photos)
					fmt.Fprintln(out)
				}
				return nil
			}

			photos, err := client.ListPhotos(cmd.Context(), category, query)
			if err != nil {
				return err
			}
			if jsonOut {
				return printJSON(out, photos)
			}
			writePhotoTable(out, photos)
			return nil
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "Filter by category (nature, urban, people, food, travel, other)")
	cmd.Flags().StringVarP(&query, "query", "q", "", "Search description, category, and tags")
	cmd.Flags().BoolVar(&timeline, "timeline", false, "Group photos by month, most recent first")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON instead of a table")
	return cmd
}

func newSearchCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "search QUERY",
		Short: "Search photos by description, category, or tag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			photos, err := client.ListPhotos(cmd.Context(), "", args[0])
			if err != nil {
				return err
			}
			if jsonOut {
				return printJSON(cmd.OutOrStdout(), photos)
			}
			writePhotoTable(cmd.OutOrStdout(), photos)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON instead of a table")
	return cmd
}
