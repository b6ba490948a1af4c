package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dataforgoodfr/bechdelai/internal/report"
)

func newPublishCommand(ctx *commandContext) *cobra.Command {
	var key string

	cmd := &cobra.Command{
		Use:   "publish <file>...",
		Short: "Upload reports to the configured S3-compatible bucket",
		Long: `Upload report files to storage.bucket under storage.prefix. Objects carry
their content type and a sha256 metadata entry.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if key != "" && len(args) > 1 {
				return fmt.Errorf("--key only applies to a single file")
			}
			publisher, err := report.NewPublisher(cmd.Context(), cfg.Storage, ctx.loggerValue())
			if err != nil {
				return err
			}
			keys := make([]string, 0, len(args))
			for _, path := range args {
				name := key
				if name == "" {
					name = filepath.Base(path)
				}
				uploaded, err := publisher.Upload(cmd.Context(), name, path)
				if err != nil {
					return err
				}
				keys = append(keys, uploaded)
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, keys)
			}
			for _, k := range keys {
				fmt.Fprintf(cmd.OutOrStdout(), "s3://%s/%s\n", cfg.Storage.Bucket, k)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&key, "key", "", "Object name under the prefix (default: file name)")
	return cmd
}
