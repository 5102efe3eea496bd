package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

func main() {
	if err := buildRoot().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// GlobalFlags holds persistent flags shared by all commands.
type GlobalFlags struct {
	ConfigPath string
	APIUrl     string
	APITimeout time.Duration
}

func buildRoot() *cobra.Command {
	globalFlags := &GlobalFlags{}

	root := &cobra.Command{
		Use:   "pitcrew",
		Short: "Control panel for a DonkeyCar reinforcement learning rig",
		Long: `Pitcrew supervises the simulator, training, driving, and tooling
processes of a DonkeyCar reinforcement learning setup.

Examples:
  pitcrew serve                        # Start the daemon
  pitcrew start simulator              # Launch the simulator
  pitcrew start training               # Launch RL training
  pitcrew status                       # Show all process states
  pitcrew highscores                   # Show fastest laps
  pitcrew config get training.algo     # Read a config value`,
	}

	root.PersistentFlags().StringVar(&globalFlags.ConfigPath, "config", "", "path to YAML config file (optional)")
	root.PersistentFlags().StringVar(&globalFlags.APIUrl, "api-url", "", "daemon URL (default http://127.0.0.1:8080/api)")
	root.PersistentFlags().DurationVar(&globalFlags.APITimeout, "api-timeout", 10*time.Second, "request timeout")

	root.AddCommand(
		createServeCommand(globalFlags),
		createStartCommand(globalFlags),
		createStopCommand(globalFlags),
		createStopAllCommand(globalFlags),
		createStatusCommand(globalFlags),
		createHighscoresCommand(globalFlags),
		createCheckpointsCommand(globalFlags),
		createHistoryCommand(globalFlags),
		createConfigCommand(globalFlags),
	)

	return root
}
