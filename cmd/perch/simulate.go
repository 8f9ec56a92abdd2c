package main

import (
	"fmt"
	"io"
	"os"

	"github.com/1broseidon/perch/internal/sim"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate <scenario.yaml>",
	Short: "Replay a drag scenario against an in-memory desktop",
	Args:  cobra.ExactArgs(1),
	RunE:  runSimulate,
}

func init() {
	rootCmd.AddCommand(simulateCmd)
	simulateCmd.Flags().String("format", "", "Output format: table or yaml (default: table on a terminal)")
}

func runSimulate(cmd *cobra.Command, args []string) error {
	res, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(cmd, res.Config)

	sc, err := sim.Load(args[0])
	if err != nil {
		return err
	}
	runner, err := sim.NewRunner(sc, res.Config, logger)
	if err != nil {
		return err
	}
	trace, err := runner.Run(cmd.Context())
	if err != nil {
		return err
	}

	format, _ := cmd.Flags().GetString("format")
	if format == "" {
		format = "yaml"
		if interactive() {
			format = "table"
		}
	}
	switch format {
	case "table":
		printTrace(os.Stdout, sc.Name, trace)
		return nil
	case "yaml":
		return yaml.NewEncoder(os.Stdout).Encode(trace)
	default:
		return fmt.Errorf("unsupported format: %s (use table or yaml)", format)
	}
}

func printTrace(w io.Writer, name string, trace []sim.TraceEntry) {
	if name != "" {
		fmt.Fprintf(w, "# %s\n", name)
	}
	fmt.Fprintf(w, "%-4s %-7s %-8s %-8s %-20s %-6s %-6s %s\n", "STEP", "TIME", "PHASE", "TARGET", "HOST", "QUADS", "MOVES", "LABEL")
	for _, e := range trace {
		quads := e.OtherQuads
		if e.TargetQuad {
			quads++
		}
		target := "-"
		if e.Target != 0 {
			target = fmt.Sprintf("%d", e.Target)
			if e.Taskbar {
				target += "*"
			}
		}
		fmt.Fprintf(w, "%-4d %-7.3f %-8s %-8s %-20s %-6d %-6d %s\n",
			e.Step, e.Time, e.Phase, target, e.Host.String(), quads, e.Moves, e.Label)
	}
}
