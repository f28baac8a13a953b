package cmd

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	var logLevel, logFormat string

	cmd := &cobra.Command{
		Use:   "bookscanner",
		Short: "Book metadata extraction from photos",
		Long: `Bookscanner turns one or two photos of a book into bibliographic metadata.

A multimodal model reads the photos, an ISBN lookup fills in authoritative
values, and the images are archived to a blob store. The same pipeline backs
the HTTP API, a one-shot CLI and an offline accuracy evaluation.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
			return setupLogging(os.Stderr, logLevel, logFormat)
		},
	}

	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log format (text, json)")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newExtractCmd())
	cmd.AddCommand(newEvalCmd())

	return cmd
}
