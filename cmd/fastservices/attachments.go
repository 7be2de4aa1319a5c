package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var attachmentsCmd = &cobra.Command{
	Use:   "attachments",
	Short: "Upload request images",
}

var attachmentsUploadCmd = &cobra.Command{
	Use:   "upload [file...]",
	Short: "Resize and upload images",
	Long:  `Upload images and print the payload to reference them from a request.`,
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		pipe, err := a.pipeline(ctx)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if err := uploadAll(ctx, pipe, args, out); err != nil {
			return err
		}
		for _, att := range pipe.ToPayload() {
			fmt.Fprintf(out, "%d\t%s\t%s\n", att.SortOrder, att.S3Key, att.PublicURL)
		}
		return nil
	},
}

func init() {
	attachmentsCmd.AddCommand(attachmentsUploadCmd)
}
