// Package main is a local driver for the document translation worker.
//
// It runs the same pipeline as the Lambda against real buckets, and exposes
// the normalization and output-key rules for inspecting documents offline.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/pricofy/doc-translation-worker/internal/config"
	"github.com/pricofy/doc-translation-worker/internal/document"
	"github.com/pricofy/doc-translation-worker/internal/event"
	"github.com/pricofy/doc-translation-worker/internal/handler"
	"github.com/pricofy/doc-translation-worker/internal/lambdaboot"
	"github.com/pricofy/doc-translation-worker/internal/logging"
	"github.com/pricofy/doc-translation-worker/internal/outputkey"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "doctranslate",
		Short: "Translate JSON documents stored in S3",
		Long: `doctranslate runs the document translation worker outside Lambda.

Configuration comes from the same environment variables the Lambda reads
(OUTPUT_BUCKET, TRANSLATION_PROVIDER, FAILURE_POLICY, ...).

Examples:
  doctranslate process --bucket uploads --key input/hello.json
  doctranslate normalize ./batch.json
  doctranslate derive-key input/hello.json report`,
		SilenceUsage: true,
	}

	root.AddCommand(newProcessCommand(), newNormalizeCommand(), newDeriveKeyCommand())
	return root
}

func newProcessCommand() *cobra.Command {
	var bucket, key, outputBucket string

	cmd := &cobra.Command{
		Use:   "process",
		Short: "Translate one object, exactly as the Lambda would",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if outputBucket != "" {
				cfg.OutputBucket = outputBucket
			}
			logging.Init(cfg.LogLevel, "console")

			ctx := context.Background()
			clients, err := lambdaboot.InitAWS(ctx)
			if err != nil {
				return err
			}
			h, err := lambdaboot.NewHandler(cfg, clients, handler.WithMetricsOutput(io.Discard))
			if err != nil {
				return err
			}

			raw, err := json.Marshal(event.NewS3Event(bucket, key))
			if err != nil {
				return err
			}
			resp := h.Handle(ctx, raw)
			if err := writeJSON(cmd.OutOrStdout(), resp); err != nil {
				return err
			}
			if resp.StatusCode != 200 {
				return fmt.Errorf("translation failed with status %d", resp.StatusCode)
			}
			log.Debug().Msg("Done")
			return nil
		},
	}

	cmd.Flags().StringVarP(&bucket, "bucket", "b", "", "Source bucket")
	cmd.Flags().StringVarP(&key, "key", "k", "", "Source object key")
	cmd.Flags().StringVarP(&outputBucket, "output-bucket", "o", "", "Output bucket (overrides OUTPUT_BUCKET)")
	_ = cmd.MarkFlagRequired("bucket")
	_ = cmd.MarkFlagRequired("key")
	return cmd
}

func newNormalizeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "normalize FILE",
		Short: "Print the translation items a document yields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			doc, err := document.Normalize(data)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), map[string]interface{}{
				"items":   doc.Items,
				"dropped": doc.Dropped,
				"total":   doc.Total,
			})
		},
	}
}

func newDeriveKeyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "derive-key KEY...",
		Short: "Print the output key for each source key",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, key := range args {
				fmt.Fprintln(cmd.OutOrStdout(), outputkey.Derive(key))
			}
			return nil
		},
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
