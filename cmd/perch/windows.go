package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/1broseidon/perch/internal/directory"
	"github.com/1broseidon/perch/internal/geom"
	"github.com/1broseidon/perch/internal/platform"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// windowRow is one line of `perch windows`.
type windowRow struct {
	ID      platform.WindowID `yaml:"id"`
	Class   string            `yaml:"class"`
	Title   string            `yaml:"title"`
	Rect    string            `yaml:"rect"`
	Verdict string            `yaml:"verdict"`
}

var windowsCmd = &cobra.Command{
	Use:   "windows",
	Short: "List the windows the character could sit on",
	Long: "Enumerate top-level windows front-to-back and show how the window directory classifies them.\n" +
		"Output is a table on a terminal and YAML otherwise.",
	Args: cobra.NoArgs,
	RunE: runWindows,
}

func init() {
	rootCmd.AddCommand(windowsCmd)
	windowsCmd.Flags().Bool("all", false, "Include excluded windows")
	windowsCmd.Flags().String("format", "", "Output format: table or yaml (default: table on a terminal)")
}

func runWindows(cmd *cobra.Command, args []string) error {
	res, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(cmd, res.Config)

	backend, closeBackend, err := openBackend(0)
	if err != nil {
		return err
	}
	defer closeBackend()

	all, _ := cmd.Flags().GetBool("all")
	dir := directory.New(backend, res.Config.Directory, logger)
	rows, err := listWindows(backend, dir, all)
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
		if monitors, err := backend.Monitors(); err == nil && len(monitors) > 0 {
			fmt.Printf("# virtual screen %s (%d monitors)\n", geom.VirtualScreen(monitors), len(monitors))
		}
		printWindowTable(os.Stdout, rows)
		return nil
	case "yaml":
		return yaml.NewEncoder(os.Stdout).Encode(rows)
	default:
		return fmt.Errorf("unsupported format: %s (use table or yaml)", format)
	}
}

func listWindows(backend platform.Backend, dir *directory.Directory, all bool) ([]windowRow, error) {
	snap, err := dir.Refresh(time.Now())
	if err != nil {
		return nil, err
	}
	if !all {
		rows := make([]windowRow, 0, len(snap.Records))
		for _, r := range snap.Records {
			verdict := directory.Eligible.String()
			if r.IsTaskbar {
				verdict = directory.Taskbar.String()
			}
			rows = append(rows, windowRow{ID: r.ID, Class: r.Class, Title: r.Title, Rect: r.Rect.String(), Verdict: verdict})
		}
		return rows, nil
	}

	ids, err := backend.Windows()
	if err != nil {
		return nil, err
	}
	var rows []windowRow
	for _, id := range ids {
		info, err := backend.Info(id)
		if err != nil {
			continue
		}
		state, _ := backend.State(id)
		verdict := dir.Classifier().Classify(info, state).String()
		if _, ok := snap.Find(id); !ok && verdict != directory.Excluded.String() {
			verdict = directory.Excluded.String()
		}
		rows = append(rows, windowRow{ID: id, Class: info.Class, Title: info.Title, Rect: info.Bounds.String(), Verdict: verdict})
	}
	return rows, nil
}

func printWindowTable(w io.Writer, rows []windowRow) {
	fmt.Fprintf(w, "%-12s %-9s %-22s %-24s %s\n", "ID", "VERDICT", "RECT", "CLASS", "TITLE")
	for _, r := range rows {
		fmt.Fprintf(w, "%-12d %-9s %-22s %-24s %s\n", r.ID, r.Verdict, r.Rect, truncate(r.Class, 24), truncate(r.Title, 60))
	}
}

func truncate(s string, n int) string {
	rs := []rune(s)
	if len(rs) <= n {
		return s
	}
	return string(rs[:n-1]) + "…"
}
