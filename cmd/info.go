// Package cmd implements the command-line interface for aurras.
package cmd

import (
	"encoding/json"
	"errors"
	"os"
	"strings"

	"github.com/aurras-cli/aurras/engine"
	"github.com/aurras-cli/aurras/filesystem"
	"github.com/aurras-cli/aurras/player"
	"github.com/aurras-cli/aurras/where"
	"github.com/invopop/jsonschema"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(infoCmd)

	infoCmd.Flags().BoolP("schema", "s", false, "Generate the JSON Schema for the playback snapshot object")
	infoCmd.SetOut(os.Stdout)
}

// infoCmd prints a one-shot JSON snapshot of the active playback session.
var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Display a JSON snapshot of the currently playing session",
	Long: `Probe the playback engine of a running player instance and print its
current state as a JSON object. Fails when no playback session is active.`,
	Run: func(cmd *cobra.Command, args []string) {
		encoder := json.NewEncoder(cmd.OutOrStdout())

		if lo.Must(cmd.Flags().GetBool("schema")) {
			reflector := new(jsonschema.Reflector)
			reflector.Anonymous = true
			handleErr(encoder.Encode(reflector.Reflect(&player.PlaybackInfo{})))
			return
		}

		raw, err := filesystem.API().ReadFile(where.EngineSocket())
		if err != nil {
			handleErr(errors.New("no active playback session"))
		}

		socketPath := strings.TrimSpace(string(raw))
		mpv := engine.Attach(socketPath)
		if _, err := mpv.GetProperty("pid"); err != nil {
			// Stale pointer file left behind by a crashed session.
			handleErr(errors.New("no active playback session"))
		}

		handleErr(encoder.Encode(player.Probe(mpv)))
	},
}
