package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/driveops/pitcrew/internal/cli/ui"
	"github.com/driveops/pitcrew/internal/launch"
)

func apiClient(flags *GlobalFlags) *APIClient {
	return NewAPIClient(flags.APIUrl, flags.APITimeout)
}

func createStartCommand(flags *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "start <name>",
		Short: "Start a process from the inventory",
		Long: fmt.Sprintf(`Start one of the known processes via the daemon.

Known names: %s`, strings.Join(launch.InventoryNames(), ", ")),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := apiClient(flags).StartProcess(args[0]); err != nil {
				return err
			}
			ui.Success("started %s", args[0])
			return nil
		},
	}
}

func createStopCommand(flags *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "stop <name>",
		Short: "Stop a running process",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := apiClient(flags).StopProcess(args[0]); err != nil {
				return err
			}
			ui.Success("stopped %s", args[0])
			return nil
		},
	}
}

func createStopAllCommand(flags *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "stop-all",
		Short: "Stop every running process",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := apiClient(flags).StopAll(); err != nil {
				return err
			}
			ui.Success("stopped all processes")
			return nil
		},
	}
}

func createStatusCommand(flags *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "status [name]",
		Short: "Show process states",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) > 0 {
				name = args[0]
			}
			sts, err := apiClient(flags).GetStatus(name)
			if err != nil {
				return err
			}
			if len(sts) == 0 {
				ui.Warning("no processes registered")
				return nil
			}
			tbl := ui.NewTable("NAME", "STATE", "PID", "UPTIME", "EXIT")
			for _, st := range sts {
				exit := "-"
				if !st.Running && !st.StoppedAt.IsZero() {
					exit = fmt.Sprintf("%d", st.ExitCode)
				}
				pid := "-"
				if st.Running {
					pid = fmt.Sprintf("%d", st.PID)
				}
				uptime := "-"
				if st.Running {
					uptime = ui.FormatSince(st.StartedAt)
				}
				tbl.AddRow(st.Name, ui.StateText(st.State.String(), st.Running), pid, uptime, exit)
			}
			tbl.Print()
			return nil
		},
	}
}

func createHighscoresCommand(flags *GlobalFlags) *cobra.Command {
	var env string
	cmd := &cobra.Command{
		Use:   "highscores",
		Short: "Show fastest lap times",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			laps, err := apiClient(flags).GetHighscores(env)
			if err != nil {
				return err
			}
			if len(laps) == 0 {
				ui.Warning("no lap times recorded")
				return nil
			}
			tbl := ui.NewTable("TIME", "RUN", "DATE")
			for _, lap := range laps {
				tbl.AddRow(fmt.Sprintf("%.2f", lap.Time), lap.Run, lap.Date)
			}
			tbl.Print()
			return nil
		},
	}
	cmd.Flags().StringVar(&env, "env", "", "environment name (defaults to configured one)")
	return cmd
}

func createCheckpointsCommand(flags *GlobalFlags) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "checkpoints",
		Short: "Show saved model checkpoints, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cps, err := apiClient(flags).GetCheckpoints(limit)
			if err != nil {
				return err
			}
			if len(cps) == 0 {
				ui.Warning("no checkpoints found")
				return nil
			}
			tbl := ui.NewTable("FILE", "STEPS", "SAVED")
			for _, cp := range cps {
				tbl.AddRow(cp.File, cp.Steps, ui.FormatSince(cp.ModTime)+" ago")
			}
			tbl.Print()
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum checkpoints to list")
	return cmd
}

func createHistoryCommand(flags *GlobalFlags) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history <name>",
		Short: "Show past runs of a process",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			recs, err := apiClient(flags).GetHistory(args[0], limit)
			if err != nil {
				return err
			}
			if len(recs) == 0 {
				ui.Warning("no runs recorded for %s", args[0])
				return nil
			}
			tbl := ui.NewTable("STARTED", "STOPPED", "PID", "EXIT", "STATE")
			for _, rec := range recs {
				stopped := "-"
				if !rec.StoppedAt.IsZero() {
					stopped = rec.StoppedAt.Local().Format("2006-01-02 15:04:05")
				}
				tbl.AddRow(
					rec.StartedAt.Local().Format("2006-01-02 15:04:05"),
					stopped,
					rec.PID,
					rec.ExitCode,
					rec.FinalState,
				)
			}
			tbl.Print()
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum runs to list")
	return cmd
}

func createConfigCommand(flags *GlobalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Read or change daemon configuration",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "get <key>",
			Short: "Read a config value by dotted key",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				val, err := apiClient(flags).GetConfig(args[0])
				if err != nil {
					return err
				}
				fmt.Printf("%s = %v\n", args[0], val)
				return nil
			},
		},
		&cobra.Command{
			Use:   "set <key> <value>",
			Short: "Change a config value by dotted key",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := apiClient(flags).SetConfig(args[0], args[1]); err != nil {
					return err
				}
				ui.Success("%s = %s", args[0], args[1])
				return nil
			},
		},
	)
	return cmd
}
