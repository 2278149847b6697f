package cmd

import (
	"github.com/spf13/cobra"

	"github.com/areaoforigin/narrator/internal/narrator"
	"github.com/areaoforigin/narrator/internal/observability"
)

var summarizeCmd = &cobra.Command{
	Use:   "summarize",
	Short: "Summarize a batch of scene images",
	Long: `Summarize images referenced by object key or by URL, the same way
POST /generate-summary does. Keys and URLs cannot be combined.`,
	Example: `  narrator summarize --key uploads/a.jpg --key uploads/b.jpg
  narrator summarize --url https://example.com/scene.png --prompt "List visible hazards"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		keys, err := cmd.Flags().GetStringArray("key")
		if err != nil {
			return err
		}
		urls, err := cmd.Flags().GetStringArray("url")
		if err != nil {
			return err
		}
		promptText, err := cmd.Flags().GetString("prompt")
		if err != nil {
			return err
		}

		app, err := bootstrap(ctx, observability.CLILogger)
		if err != nil {
			return err
		}

		res, err := app.service.Summarize(ctx, narrator.SummaryRequest{
			ImageURLs: urls,
			ImageKeys: keys,
			Prompt:    promptText,
		})
		if err != nil {
			return err
		}

		return emit(cmd, resultTable("Summary", res), res.Text)
	},
}

func init() {
	rootCmd.AddCommand(summarizeCmd)

	summarizeCmd.Flags().StringArray("key", nil, "Image object key (repeatable)")
	summarizeCmd.Flags().StringArray("url", nil, "Image URL (repeatable)")
	summarizeCmd.Flags().String("prompt", "", "Summary prompt (defaults to the built-in summary prompt)")
	summarizeCmd.MarkFlagsMutuallyExclusive("key", "url")
	summarizeCmd.MarkFlagsOneRequired("key", "url")
	addOutputFlags(summarizeCmd, formatText)
}
