package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/areaoforigin/narrator/internal/ailink/prompt"
	"github.com/areaoforigin/narrator/internal/output"
)

var promptsCmd = &cobra.Command{
	Use:   "prompts",
	Short: "List the prompts in effect",
	Long:  "List the built-in prompts merged with any overrides from ailink.prompts_dir.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd.Context())
		if err != nil {
			return err
		}

		registry, err := prompt.LoadWithOverrides(cfg.AILink.PromptsDir)
		if err != nil {
			return fmt.Errorf("load prompts: %w", err)
		}

		table := &output.Table{
			Title:  "Prompts",
			Header: []string{"Slug", "Version", "Images", "Max Tokens", "Model", "Source"},
		}
		for _, p := range registry.List() {
			images := "-"
			if p.Config.Input.AcceptsImages {
				images = "yes"
				if p.Config.Input.MaxImages > 0 {
					images = "up to " + strconv.Itoa(p.Config.Input.MaxImages)
				}
			}
			maxTokens := "-"
			if p.Config.MaxTokens > 0 {
				maxTokens = strconv.Itoa(p.Config.MaxTokens)
			}
			table.Rows = append(table.Rows, []string{
				p.Config.Slug,
				valueOrDash(p.Config.Version),
				images,
				maxTokens,
				valueOrDash(p.PreferredModel()),
				promptSource(p),
			})
		}
		table.Footer = fmt.Sprintf("%d prompts", len(table.Rows))

		return emit(cmd, table, "")
	},
}

func init() {
	rootCmd.AddCommand(promptsCmd)
	addOutputFlags(promptsCmd, "table")
}

func promptSource(p *prompt.Prompt) string {
	if p.Overrides == "" {
		return p.Source
	}
	return p.Source + " (replaces " + p.Overrides + ")"
}
