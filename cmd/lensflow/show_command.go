package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "show ID",
		Short: "Show one photo's details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			view, err := client.GetPhoto(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOut {
				return printJSON(out, view)
			}

			fmt.Fprintf(out, "ID:        %s\n", view.ID)
			fmt.Fprintf(out, "Title:     %s\n", view.Description)
			fmt.Fprintf(out, "File:      %s (%s)\n", view.Name, view.MimeType)
			fmt.Fprintf(out, "Category:  %s\n", categoryLabel(view.Category))
			fmt.Fprintf(out, "Date:      %s\n", formatTimestamp(view.Timestamp))
			fmt.Fprintf(out, "Tags:      %s\n", formatTags(view.Tags))
			fmt.Fprintf(out, "Video:     %s\n", formatVideo(view))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON instead of text")
	return cmd
}

func newAnimateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "animate ID",
		Short: "Generate a short video clip from a photo",
		Long: "Starts the asynchronous animation job for the photo. Track its " +
			"progress with `lensflow show ID`; the video reference appears when " +
			"the job completes.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			ack, err := client.Animate(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Animation %s for photo %s\n", ack.Status, ack.ID)
			return nil
		},
	}
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			status, err := client.Status(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOut {
				return printJSON(out, status)
			}
			fmt.Fprintf(out, "Running:              %t\n", status.Running)
			fmt.Fprintf(out, "PID:                  %d\n", status.PID)
			fmt.Fprintf(out, "Photos:               %d\n", status.Photos)
			fmt.Fprintf(out, "Animations in flight: %d\n", status.AnimationsInFlight)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON instead of text")
	return cmd
}
