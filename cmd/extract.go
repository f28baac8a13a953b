package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/aob-scanner/book-scanner/internal/config"
	"github.com/aob-scanner/book-scanner/internal/intake"
	"github.com/spf13/cobra"
)

func newExtractCmd() *cobra.Command {
	var scanType string

	cmd := &cobra.Command{
		Use:   "extract IMAGE [IMAGE2]",
		Short: "Extract metadata from local image files",
		Long: `Runs the extraction pipeline on one or two image files and prints the
same JSON envelope the API returns.`,
		Example: `  bookscanner extract cover.jpg
  bookscanner extract cover.jpg back.jpg --scan-type barcode`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(nil)
			if err != nil {
				return err
			}

			req, err := intake.FromFiles(args, scanType)
			if err != nil {
				return err
			}

			c := buildComponents(cmd.Context(), cfg)
			defer c.Close()

			env, err := c.Pipeline.Process(cmd.Context(), req)
			if err != nil {
				return fmt.Errorf("failed to process images: %w", err)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(env)
		},
	}

	cmd.Flags().StringVar(&scanType, "scan-type", "", "Hint about the photo (cover, barcode)")

	return cmd
}
