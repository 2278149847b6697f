package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/areaoforigin/narrator/internal/ailink/driver/bedrock"
	"github.com/areaoforigin/narrator/internal/output"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List Bedrock foundation models available in the configured region",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		provider, err := cmd.Flags().GetString("provider")
		if err != nil {
			return err
		}

		cfg, err := loadConfig(ctx)
		if err != nil {
			return err
		}
		awsCfg, err := loadAWSConfig(ctx, cfg.AWS)
		if err != nil {
			return err
		}

		models, err := bedrock.ListModels(ctx, bedrock.NewCatalogFromConfig(awsCfg), provider)
		if err != nil {
			return err
		}

		table := &output.Table{
			Title:  "Foundation models (" + cfg.AWS.Region + ")",
			Header: []string{"Model ID", "Name", "Provider", "Images", "Streaming"},
		}
		for _, m := range models {
			table.Rows = append(table.Rows, []string{
				m.ID,
				m.Name,
				m.Provider,
				yesNo(m.AcceptsImage),
				yesNo(m.Streaming),
			})
		}
		table.Footer = fmt.Sprintf("%d models", len(models))

		return emit(cmd, table, "")
	},
}

func init() {
	rootCmd.AddCommand(modelsCmd)
	modelsCmd.Flags().String("provider", "", "Only list models from this provider (e.g. anthropic)")
	addOutputFlags(modelsCmd, "table")
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
