package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// downloadCmd represents the download command
var downloadCmd = &cobra.Command{
	Use:   "download <resource-id> <file>",
	Short: "Download an opportunity attachment",
	Long: `Download an opportunity attachment by its resource ID and save it to
the given file, replacing the file if it exists. If sam.gov does not
return the file nothing is written.`,
	Args: cobra.ExactArgs(2),
	RunE: runDownload,
}

func runDownload(cmd *cobra.Command, args []string) error {
	resourceID, fileName := args[0], args[1]

	written, err := samClient.DownloadResource(cmd.Context(), resourceID, fileName)
	if err != nil {
		return err
	}

	if !written {
		return fmt.Errorf("resource %s was not downloaded, %s left untouched", resourceID, fileName)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ Saved %s to %s\n", resourceID, fileName)
	return nil
}
