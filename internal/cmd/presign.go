package cmd

import (
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/areaoforigin/narrator/internal/observability"
	"github.com/areaoforigin/narrator/internal/output"
)

var presignCmd = &cobra.Command{
	Use:   "presign",
	Short: "Issue upload and download credentials for the image bucket",
}

var presignUploadCmd = &cobra.Command{
	Use:   "upload",
	Short: "Issue a credential for uploading one image",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		contentType, err := cmd.Flags().GetString("content-type")
		if err != nil {
			return err
		}

		app, err := bootstrap(ctx, observability.CLILogger)
		if err != nil {
			return err
		}

		grant, err := app.service.IssueUploadGrant(ctx, contentType)
		if err != nil {
			return err
		}

		rows := [][]string{
			{"method", grant.Method},
			{"upload_url", grant.URL},
			{"key", grant.Key},
			{"file_url", grant.FileURL},
			{"content_type", grant.ContentType},
			{"expires_in", strconv.FormatInt(int64(grant.ExpiresIn.Seconds()), 10)},
		}
		fieldNames := make([]string, 0, len(grant.Fields))
		for name := range grant.Fields {
			fieldNames = append(fieldNames, name)
		}
		sort.Strings(fieldNames)
		for _, name := range fieldNames {
			rows = append(rows, []string{"fields." + name, grant.Fields[name]})
		}

		return emit(cmd, &output.Table{
			Title:  "Upload credential",
			Header: []string{"Field", "Value"},
			Rows:   rows,
		}, grant.URL)
	},
}

var presignDownloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Issue a time-limited URL for reading one object",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		key, err := cmd.Flags().GetString("key")
		if err != nil {
			return err
		}

		app, err := bootstrap(ctx, observability.CLILogger)
		if err != nil {
			return err
		}

		dl, err := app.service.IssueDownloadURL(ctx, key)
		if err != nil {
			return err
		}

		return emit(cmd, &output.Table{
			Title:  "Download URL",
			Header: []string{"Field", "Value"},
			Rows: [][]string{
				{"presigned_url", dl.URL},
				{"expires_in", strconv.FormatInt(int64(dl.ExpiresIn.Seconds()), 10)},
			},
		}, dl.URL)
	},
}

func init() {
	rootCmd.AddCommand(presignCmd)
	presignCmd.AddCommand(presignUploadCmd)
	presignCmd.AddCommand(presignDownloadCmd)

	presignUploadCmd.Flags().String("content-type", "", "Content type of the upload (default image/jpeg)")
	addOutputFlags(presignUploadCmd, "table")

	presignDownloadCmd.Flags().String("key", "", "Object key (required)")
	_ = presignDownloadCmd.MarkFlagRequired("key")
	addOutputFlags(presignDownloadCmd, "table")
}
