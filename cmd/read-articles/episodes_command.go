package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"read-articles/internal/publish"
	"read-articles/internal/site"
)

func newEpisodesCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "episodes",
		Short: "List published episodes, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pub, err := ctx.publisher(false)
			if err != nil {
				return err
			}
			listings, err := pub.ListEpisodes()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				if listings == nil {
					listings = []publish.Listing{}
				}
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(listings)
			}
			if len(listings) == 0 {
				fmt.Fprintln(out, "No episodes yet")
				return nil
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Added", "Title", "Voice", "Duration", "Size"},
				episodeRows(listings),
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight},
				isTerminal(out),
			))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the catalog as JSON")
	return cmd
}

func episodeRows(listings []publish.Listing) [][]string {
	rows := make([][]string, 0, len(listings))
	for _, l := range listings {
		duration := site.FormatDuration(l.DurationSeconds)
		size := humanize.Bytes(uint64(l.SizeBytes))
		switch {
		case l.Missing:
			duration, size = "-", "missing"
		case l.Estimated:
			duration = "~" + duration
		}
		rows = append(rows, []string{
			humanize.Time(l.DateAdded),
			truncateTitle(l.Title, 60),
			l.Voice,
			duration,
			size,
		})
	}
	return rows
}

func truncateTitle(title string, limit int) string {
	runes := []rune(strings.TrimSpace(title))
	if len(runes) <= limit {
		return string(runes)
	}
	return string(runes[:limit-1]) + "…"
}
