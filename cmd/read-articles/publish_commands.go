package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"read-articles/internal/publish"
)

func newConvertCommand(ctx *commandContext) *cobra.Command {
	var voice string

	cmd := &cobra.Command{
		Use:   "convert <url>",
		Short: "Narrate an article and publish it as a new episode",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pub, err := ctx.publisher(true)
			if err != nil {
				return err
			}

			runCtx, stop := signalContext(cmd.Context())
			defer stop()

			ep, err := pub.Convert(runCtx, args[0], voice)
			if err != nil && !errors.Is(err, publish.ErrPartialPublish) {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Recorded %q read by %s\n", ep.Title, ep.Voice)
			fmt.Fprintf(out, "  audio: %s\n", ep.AudioURL)
			return err
		},
	}

	cmd.Flags().StringVar(&voice, "voice", "", "Kokoro voice ID (defaults to the configured voice)")
	return cmd
}

func newRegenerateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "regenerate",
		Short: "Rebuild the feed and the episode page from the ledger",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pub, err := ctx.publisher(false)
			if err != nil {
				return err
			}

			runCtx, stop := signalContext(cmd.Context())
			defer stop()

			summary, err := pub.Regenerate(runCtx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Regenerated %d episodes\n", summary.Episodes)
			if summary.Missing > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "  %d episodes have no audio file\n", summary.Missing)
			}
			if summary.Estimated > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "  %d durations were estimated from file size\n", summary.Estimated)
			}
			return nil
		},
	}
}

func newImportCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "import <dir>",
		Short: "Publish loose MP3 files from a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pub, err := ctx.publisher(false)
			if err != nil {
				return err
			}

			runCtx, stop := signalContext(cmd.Context())
			defer stop()

			imported, err := pub.Import(runCtx, args[0])
			for _, ep := range imported {
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %q (%s)\n", ep.Title, ep.Voice)
			}
			if err != nil {
				return err
			}
			if len(imported) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing new to import")
			}
			return nil
		},
	}
}

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}
