// Package cmd implements the command-line interface for aurras.
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/aurras-cli/aurras/color"
	"github.com/aurras-cli/aurras/constant"
	"github.com/aurras-cli/aurras/engine"
	"github.com/aurras-cli/aurras/filesystem"
	"github.com/aurras-cli/aurras/history"
	"github.com/aurras-cli/aurras/icon"
	"github.com/aurras-cli/aurras/key"
	"github.com/aurras-cli/aurras/log"
	"github.com/aurras-cli/aurras/lyrics"
	"github.com/aurras-cli/aurras/player"
	"github.com/aurras-cli/aurras/style"
	"github.com/aurras-cli/aurras/ui"
	"github.com/aurras-cli/aurras/util"
	"github.com/aurras-cli/aurras/version"
	"github.com/aurras-cli/aurras/where"
	cc "github.com/ivanpirog/coloredcobra"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.Flags().BoolP("version", "v", false, "Print the application version")

	rootCmd.PersistentFlags().StringP("icons", "I", "", "Set the visual icon variant (e.g., nerd, emoji, plain)")
	lo.Must0(rootCmd.RegisterFlagCompletionFunc("icons", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return icon.AvailableVariants(), cobra.ShellCompDirectiveDefault
	}))
	lo.Must0(viper.BindPFlag(key.IconsVariant, rootCmd.PersistentFlags().Lookup("icons")))

	rootCmd.Flags().IntP("start-index", "i", 0, "Index of the queued song to start playback at")
	rootCmd.Flags().BoolP("no-lyrics", "L", false, "Disable the background lyric lookup for this session")
	rootCmd.Flags().IntP("volume", "V", 0, "Initial playback volume level")
	rootCmd.Flags().BoolP("no-history", "H", false, "Skip merging recent history entries into the queue")

	helpFunc := rootCmd.HelpFunc()
	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		helpFunc(cmd, args)
		version.Notify()
	})
}

// rootCmd defines the entry point for the aurras application.
var rootCmd = &cobra.Command{
	Use:   constant.Aurras + " <file-or-url>...",
	Short: "A minimalist command-line music player for the terminal",
	Long: constant.AsciiArtLogo + "\n" +
		style.New().Italic(true).Foreground(color.HiRed).Render("    - A minimalist command-line music player for the terminal"),
	Args: cobra.ArbitraryArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if cmd.Flags().Changed("version") {
			versionCmd.Run(versionCmd, args)
			return
		}

		if len(args) == 0 {
			handleErr(cmd.Help())
			return
		}

		urls := args
		names := lo.Map(args, func(arg string, _ int) string {
			// Remote URLs keep their full form as the display name; local
			// files show their stem.
			if strings.Contains(arg, "://") {
				return arg
			}
			return util.FileStem(arg)
		})

		startIndex := lo.Must(cmd.Flags().GetInt("start-index"))
		if startIndex < 0 || startIndex >= len(urls) {
			handleErr(fmt.Errorf("start index %d out of range for %s", startIndex, util.Quantify(len(urls), "song", "songs")))
		}

		if !lo.Must(cmd.Flags().GetBool("no-history")) {
			var offset int
			urls, names, offset = history.Integrate(urls, names, viper.GetInt(key.HistoryMaxQueueSize))
			startIndex += offset
		}

		volume := viper.GetInt(key.PlaybackVolume)
		if cmd.Flags().Changed("volume") {
			volume = lo.Must(cmd.Flags().GetInt("volume"))
		}
		volume = util.Clamp(volume, 0, viper.GetInt(key.PlaybackMaxVolume))

		showLyrics := viper.GetBool(key.LyricsEnable) && !lo.Must(cmd.Flags().GetBool("no-lyrics"))
		runPlayback(urls, names, showLyrics, volume, startIndex)
	},
}

// runPlayback wires the engine, renderer and lyric fetcher together, plays
// the queue, and exits the process with the playback result code.
func runPlayback(urls, names []string, showLyrics bool, volume, startIndex int) {
	mpv := engine.New()
	handleErr(mpv.Start(engine.Options{
		Volume:      volume,
		LogLevel:    viper.GetString(key.PlaybackEngineLogLevel),
		RemoteMedia: viper.GetBool(key.PlaybackRemoteMedia),
	}))
	publishEngineSocket(mpv.Socket())

	var fetcher player.LyricsFetcher
	if showLyrics {
		fetcher = lyrics.New()
	}

	controller, err := player.New(player.Options{
		Engine:   mpv,
		Renderer: ui.NewFrame(os.Stdout),
		Fetcher:  fetcher,
		Volume:   volume,
	})
	if err != nil {
		util.Ignore(mpv.Terminate)
		retractEngineSocket()
		handleErr(err)
	}

	result := controller.Play(urls, names, showLyrics, startIndex)
	retractEngineSocket()
	os.Exit(result)
}

// publishEngineSocket advertises the IPC socket of the playback engine so a
// sibling process (the info command) can inspect the session.
func publishEngineSocket(socketPath string) {
	if err := filesystem.API().WriteFile(where.EngineSocket(), []byte(socketPath), os.ModePerm); err != nil {
		log.Warnf("publishing engine socket: %v", err)
	}
}

func retractEngineSocket() {
	_ = filesystem.API().Remove(where.EngineSocket())
}

// Execute initializes child command routing and processes the CLI entry point.
func Execute() {
	if viper.GetBool(key.CliColored) {
		cc.Init(&cc.Config{
			RootCmd:       rootCmd,
			Headings:      cc.HiCyan + cc.Bold + cc.Underline,
			Commands:      cc.HiYellow + cc.Bold,
			Example:       cc.Italic,
			ExecName:      cc.Bold,
			Flags:         cc.Bold,
			FlagsDataType: cc.Italic + cc.HiBlue,
		})
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func handleErr(err error) {
	if err != nil {
		log.Error(err)
		_, _ = fmt.Fprintf(os.Stderr, "%s %s\n", icon.Get(icon.Error), strings.Trim(err.Error(), " \n"))
		os.Exit(1)
	}
}
