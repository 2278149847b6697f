package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/areaoforigin/narrator/internal/observability"
)

var grammarCmd = &cobra.Command{
	Use:   "grammar",
	Short: "Correct grammar, punctuation and clarity of a passage",
	Long: `Correct a passage the same way POST /grammar-check does.

Pass --text, or --text - to read the passage from stdin.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		text, err := cmd.Flags().GetString("text")
		if err != nil {
			return err
		}
		if text == "-" {
			data, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("read stdin: %w", err)
			}
			text = string(data)
		}
		if strings.TrimSpace(text) == "" {
			return fmt.Errorf("text is required")
		}

		app, err := bootstrap(ctx, observability.CLILogger)
		if err != nil {
			return err
		}

		res, err := app.service.CorrectGrammar(ctx, text)
		if err != nil {
			return err
		}

		return emit(cmd, resultTable("Corrected", res), res.Text)
	},
}

func init() {
	rootCmd.AddCommand(grammarCmd)

	grammarCmd.Flags().String("text", "", "Passage to correct, or - for stdin (required)")
	_ = grammarCmd.MarkFlagRequired("text")
	addOutputFlags(grammarCmd, formatText)
}
