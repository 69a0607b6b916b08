// Package cmd implements the command-line interface for aurras.
package cmd

import (
	"fmt"
	"strings"

	"github.com/aurras-cli/aurras/color"
	"github.com/aurras-cli/aurras/history"
	"github.com/aurras-cli/aurras/icon"
	"github.com/aurras-cli/aurras/style"
	"github.com/aurras-cli/aurras/util"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().IntP("limit", "n", 20, "Maximum number of entries to display")
}

// historyCmd lists the most recently played songs.
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Display the localized playback history",
	Run: func(cmd *cobra.Command, args []string) {
		limit := lo.Must(cmd.Flags().GetInt("limit"))

		records, err := history.Recent(limit)
		handleErr(err)

		// Most recent first.
		printRecords(lo.Reverse(records))
	},
}

func init() {
	historyCmd.AddCommand(historySearchCmd)
}

// historySearchCmd fuzzy-searches the playback history by song name.
var historySearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Fuzzy-search the playback history by song name",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		records, err := history.Search(strings.Join(args, " "))
		handleErr(err)

		printRecords(records)
	},
}

func printRecords(records []*history.Record) {
	if len(records) == 0 {
		fmt.Printf("%s history is empty\n", icon.Get(icon.History))
		return
	}

	theme := style.Active()
	for _, record := range records {
		fmt.Printf(
			"%s %s %s %s, last played %s\n",
			icon.Get(icon.Note),
			style.Bold(record.SongName),
			style.Tag(theme.Primary, theme.Dim)(string(record.Category())),
			style.Faint(util.Quantify(record.PlayCount, "play", "plays")),
			style.Fg(color.Yellow)(record.PlayedAt.Format("Jan 2 2006 15:04")),
		)
	}
}
