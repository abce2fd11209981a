package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"read-articles/internal/tts"
)

func newFetchModelsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "fetch-models",
		Short: "Download the Kokoro model files if they are missing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, settings, err := ctx.ensure()
			if err != nil {
				return err
			}

			runCtx, stop := signalContext(cmd.Context())
			defer stop()

			client := &http.Client{Timeout: 30 * time.Minute}
			assets := tts.KokoroAssets(settings.TTS.ModelDir, settings.TTS.ModelBaseURL)
			if err := tts.EnsureAssets(runCtx, client, assets, ctx.logger); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Models ready in %s\n", settings.TTS.ModelDir)
			return nil
		},
	}
}
