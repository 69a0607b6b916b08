// Package cmd implements the command-line interface for aurras.
package cmd

import (
	"errors"
	"fmt"

	"github.com/AlecAivazis/survey/v2"
	"github.com/aurras-cli/aurras/history"
	"github.com/aurras-cli/aurras/key"
	"github.com/aurras-cli/aurras/util"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.AddCommand(continueCmd)

	continueCmd.Flags().IntP("limit", "n", 10, "Maximum number of recent entries to offer")
	continueCmd.Flags().BoolP("last", "l", false, "Replay the most recent entry without prompting")
}

// continueCmd resumes playback from a recent history entry.
var continueCmd = &cobra.Command{
	Use:     "continue",
	Aliases: []string{"c"},
	Short:   "Resume playback from a recent history entry",
	Long:    `Pick one of the recently played songs from the localized playback history and play it again.`,
	Run: func(cmd *cobra.Command, args []string) {
		limit := lo.Must(cmd.Flags().GetInt("limit"))

		records, err := history.Recent(limit)
		handleErr(err)

		// History entries merged from older sessions may carry a placeholder
		// source, which cannot be replayed.
		records = lo.Filter(records, func(r *history.Record, _ int) bool {
			return r.Source != "" && r.Source != history.PlaceholderSource
		})

		if len(records) == 0 {
			handleErr(errors.New("no playable history entries"))
		}

		// Most recent first.
		records = lo.Reverse(records)

		selected := records[0]
		if !lo.Must(cmd.Flags().GetBool("last")) {
			options := lo.Map(records, func(r *history.Record, _ int) string {
				return fmt.Sprintf("%s (%s, played %s)", r.SongName, r.Category(), r.PlayedAt.Format("Jan 2 15:04"))
			})

			var choice int
			prompt := &survey.Select{
				Message: "Resume which song?",
				Options: options,
			}
			handleErr(survey.AskOne(prompt, &choice))
			selected = records[choice]
		}

		volume := util.Clamp(viper.GetInt(key.PlaybackVolume), 0, viper.GetInt(key.PlaybackMaxVolume))
		runPlayback(
			[]string{selected.Source},
			[]string{selected.SongName},
			viper.GetBool(key.LyricsEnable),
			volume,
			0,
		)
	},
}
