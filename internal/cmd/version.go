package cmd

import (
	"fmt"
	"runtime"

	"github.com/fulmenhq/gofulmen/crucible"
	"github.com/spf13/cobra"

	"github.com/areaoforigin/narrator/internal/output"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  "Print the binary version. --extended adds the commit, build date and runtime library versions.",
	RunE: func(cmd *cobra.Command, args []string) error {
		extended, err := cmd.Flags().GetBool("extended")
		if err != nil {
			return err
		}
		name := GetAppIdentity().BinaryName
		plain := fmt.Sprintf("%s %s", name, versionInfo.Version)
		return emit(cmd, versionTable(name, extended), plain)
	},
}

func versionTable(name string, extended bool) *output.Table {
	t := &output.Table{
		Title:  name,
		Header: []string{"Component", "Version"},
		Rows:   [][]string{{name, versionInfo.Version}},
	}
	if !extended {
		return t
	}

	libs := crucible.GetVersion()
	t.Rows = append(t.Rows,
		[]string{"commit", versionInfo.Commit},
		[]string{"built", versionInfo.BuildDate},
		[]string{"go", runtime.Version()},
		[]string{"gofulmen", libs.Gofulmen},
		[]string{"crucible", libs.Crucible},
	)
	return t
}

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().BoolP("extended", "e", false, "show commit, build date and library versions")
	addOutputFlags(versionCmd, formatText)
}
