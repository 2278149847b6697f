package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/areaoforigin/narrator/internal/imagesource"
	"github.com/areaoforigin/narrator/internal/narrator"
	"github.com/areaoforigin/narrator/internal/observability"
	"github.com/areaoforigin/narrator/internal/output"
)

var narrateCmd = &cobra.Command{
	Use:   "narrate",
	Short: "Generate a narrative from a prompt and optional image",
	Long: `Generate a fire-scene narrative the same way POST /generate-narrative does.

The image may be a local file, an object key in the image bucket or a URL.`,
	Example: `  narrator narrate --prompt "Describe the burn patterns" --image scene.jpg
  narrator narrate --prompt "Describe the room" --key uploads/abc.jpg -o json`,
	RunE: runNarrate,
}

func init() {
	rootCmd.AddCommand(narrateCmd)

	narrateCmd.Flags().String("prompt", "", "Narrative prompt (required)")
	narrateCmd.Flags().String("image", "", "Local image file")
	narrateCmd.Flags().String("key", "", "Image object key in the bucket")
	narrateCmd.Flags().String("url", "", "Image URL")
	narrateCmd.MarkFlagsMutuallyExclusive("image", "key", "url")
	_ = narrateCmd.MarkFlagRequired("prompt")
	addOutputFlags(narrateCmd, formatText)
}

func runNarrate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	promptText, err := cmd.Flags().GetString("prompt")
	if err != nil {
		return err
	}
	imagePath, err := cmd.Flags().GetString("image")
	if err != nil {
		return err
	}
	key, err := cmd.Flags().GetString("key")
	if err != nil {
		return err
	}
	imageURL, err := cmd.Flags().GetString("url")
	if err != nil {
		return err
	}

	req := narrator.NarrativeRequest{Prompt: promptText}
	switch {
	case strings.TrimSpace(imagePath) != "":
		data, err := os.ReadFile(imagePath)
		if err != nil {
			return fmt.Errorf("read image: %w", err)
		}
		src := imagesource.Inline(data, "")
		req.Image = &src
	case strings.TrimSpace(key) != "":
		src := imagesource.StorageKey(key)
		req.Image = &src
	case strings.TrimSpace(imageURL) != "":
		src := imagesource.RemoteURL(imageURL)
		req.Image = &src
	}

	app, err := bootstrap(ctx, observability.CLILogger)
	if err != nil {
		return err
	}

	res, err := app.service.Narrate(ctx, req)
	if err != nil {
		return err
	}

	return emit(cmd, resultTable("Narrative", res), res.Text)
}

// resultTable lays a model answer out as a two-row table.
func resultTable(title string, res *narrator.Result) *output.Table {
	return &output.Table{
		Title:  title,
		Header: []string{"Model", "Result"},
		Rows:   [][]string{{res.Model, res.Text}},
	}
}
