package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/s0up4200/samscraper/sam"
)

var (
	opportunityID string
	pirKey        string
	pirValue      string
)

// detailsCmd represents the details command
var detailsCmd = &cobra.Command{
	Use:   "details",
	Short: "Show opportunity and exclusion details as JSON",
	Long: `Look up an opportunity with its attachments (--id) and/or an exclusion
record (--pir-key with --pir-value). Only the lookups requested appear in
the output. If the attachment lookup fails the opportunity is still shown
and "resources" is null.`,
	Example: `  samscraper details --id 0123456789abcdef
  samscraper details --pir-key ueiSAM --pir-value ABC123DEF456`,
	RunE: runDetails,
}

func init() {
	detailsCmd.Flags().StringVar(&opportunityID, "id", "", "opportunity ID")
	detailsCmd.Flags().StringVar(&pirKey, "pir-key", "", "exclusion PIR key")
	detailsCmd.Flags().StringVar(&pirValue, "pir-value", "", "exclusion PIR value")
}

func runDetails(cmd *cobra.Command, args []string) error {
	req := sam.DetailsRequest{
		ID:       opportunityID,
		PirKey:   pirKey,
		PirValue: pirValue,
	}

	if (req.PirKey == "") != (req.PirValue == "") {
		logger.Warn().Msg("Exclusion lookup needs both --pir-key and --pir-value, skipping it")
	}

	details, err := samClient.GetDetails(cmd.Context(), req)
	if err != nil {
		return err
	}

	if details.IsEmpty() {
		logger.Warn().Msg("Nothing to look up, pass --id or --pir-key with --pir-value")
	}

	output, err := json.MarshalIndent(details, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode details: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), string(output))
	return nil
}
