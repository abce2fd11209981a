package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var rootFlag string

	ctx := newCommandContext(&rootFlag)

	rootCmd := &cobra.Command{
		Use:           "read-articles",
		Short:         "Turn web articles into a narrated podcast",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&rootFlag, "root", "", "Workspace directory (defaults to READARTICLES_ROOT or the working directory)")

	rootCmd.AddCommand(newConvertCommand(ctx))
	rootCmd.AddCommand(newRegenerateCommand(ctx))
	rootCmd.AddCommand(newImportCommand(ctx))
	rootCmd.AddCommand(newEpisodesCommand(ctx))
	rootCmd.AddCommand(newServeCommand(ctx))
	rootCmd.AddCommand(newWatchCommand(ctx))
	rootCmd.AddCommand(newFetchModelsCommand(ctx))

	return rootCmd
}
