package main

import (
	"fmt"
	"time"

	"github.com/1broseidon/perch/internal/ipc"
	"github.com/1broseidon/perch/internal/runtimepath"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the running daemon's dock state",
	Args:  cobra.NoArgs,
	RunE: controlRunE(func(c *ipc.Client) (*ipc.StatusData, error) {
		return c.GetStatus()
	}),
}

var enableCmd = &cobra.Command{
	Use:   "enable",
	Short: "Turn window sitting on",
	Args:  cobra.NoArgs,
	RunE: controlRunE(func(c *ipc.Client) (*ipc.StatusData, error) {
		return c.SetEnabled(true)
	}),
}

var disableCmd = &cobra.Command{
	Use:   "disable",
	Short: "Turn window sitting off and release any binding",
	Args:  cobra.NoArgs,
	RunE: controlRunE(func(c *ipc.Client) (*ipc.StatusData, error) {
		return c.SetEnabled(false)
	}),
}

var releaseCmd = &cobra.Command{
	Use:   "release",
	Short: "Release the current window binding",
	Args:  cobra.NoArgs,
	RunE: controlRunE(func(c *ipc.Client) (*ipc.StatusData, error) {
		return c.Release()
	}),
}

var reloadCmd = &cobra.Command{
	Use:   "reload",
	Short: "Re-read the daemon's config file",
	Args:  cobra.NoArgs,
	RunE: controlRunE(func(c *ipc.Client) (*ipc.StatusData, error) {
		return c.Reload()
	}),
}

func init() {
	rootCmd.AddCommand(statusCmd, enableCmd, disableCmd, releaseCmd, reloadCmd)
}

func controlRunE(call func(*ipc.Client) (*ipc.StatusData, error)) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		socket, err := runtimepath.SocketPath()
		if err != nil {
			return err
		}
		st, err := call(ipc.NewClient(socket))
		if err != nil {
			return err
		}
		printStatus(st, time.Now())
		return nil
	}
}

func printStatus(st *ipc.StatusData, now time.Time) {
	fmt.Printf("instance: %s\n", st.Instance)
	fmt.Printf("host: %d\n", st.Host)
	fmt.Printf("enabled: %v\n", st.Enabled)
	fmt.Printf("phase: %s\n", st.Phase)
	fmt.Printf("window_sit: %v\n", st.WindowSit)
	if st.WindowSit {
		fmt.Printf("target: %d\n", st.Target)
		fmt.Printf("taskbar: %v\n", st.Taskbar)
		fmt.Printf("variant: %d\n", st.Variant)
	}
	started := now.Add(-time.Duration(st.UptimeSeconds) * time.Second)
	fmt.Printf("started: %s\n", humanize.RelTime(started, now, "ago", "from now"))
}
