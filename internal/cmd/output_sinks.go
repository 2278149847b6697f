package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/areaoforigin/narrator/internal/output"
)

// formatText prints the bare model text, for piping into other tools.
const formatText = "text"

type outputSink struct {
	writer io.Writer
	close  func() error
	path   string
}

// addOutputFlags registers --output and --out. defaultFormat is "text" for
// commands that return a single model answer.
func addOutputFlags(cmd *cobra.Command, defaultFormat string) {
	usage := "Output format: table, json, markdown"
	if defaultFormat == formatText {
		usage = "Output format: text, table, json, markdown"
	}
	cmd.Flags().StringP("output", "o", defaultFormat, usage)
	cmd.Flags().String("out", "", "Write output to this file instead of stdout")
}

func openSink(cmd *cobra.Command, path string) (*outputSink, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" || trimmed == "-" {
		return &outputSink{writer: cmd.OutOrStdout(), close: func() error { return nil }, path: "-"}, nil
	}

	if err := os.MkdirAll(filepath.Dir(trimmed), 0755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	file, err := os.Create(trimmed)
	if err != nil {
		return nil, err
	}
	return &outputSink{writer: file, close: file.Close, path: trimmed}, nil
}

// emit renders t, or plain when the text format is selected, to the sink
// chosen by --out.
func emit(cmd *cobra.Command, t *output.Table, plain string) (err error) {
	formatValue, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	outPath, err := cmd.Flags().GetString("out")
	if err != nil {
		return err
	}

	var rendered string
	if strings.EqualFold(strings.TrimSpace(formatValue), formatText) {
		rendered = plain
	} else {
		rendered, err = output.Render(formatValue, t)
		if err != nil {
			return err
		}
	}

	sink, err := openSink(cmd, outPath)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := sink.close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	if !strings.HasSuffix(rendered, "\n") {
		rendered += "\n"
	}
	_, err = io.WriteString(sink.writer, rendered)
	return err
}
