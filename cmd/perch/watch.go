package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/1broseidon/perch/internal/directory"
	"github.com/1broseidon/perch/internal/platform"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Log window directory changes until interrupted",
	Args:  cobra.NoArgs,
	RunE:  runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().Bool("active", false, "Poll at the active rate instead of the idle rate")
}

func runWatch(cmd *cobra.Command, args []string) error {
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

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	active, _ := cmd.Flags().GetBool("active")
	dir := directory.New(backend, res.Config.Directory, logger)
	ticker := time.NewTicker(dir.Interval(active))
	defer ticker.Stop()

	logger.Info("watching windows", "interval", dir.Interval(active))
	known := map[platform.WindowID]directory.Record{}
	for {
		if snap, refreshed := dir.Poll(time.Now(), active); refreshed {
			known = diffSnapshot(ctx, logger.With("component", "watch"), known, snap)
		}
		select {
		case <-ctx.Done():
			logger.Info("watch stopped")
			return nil
		case <-ticker.C:
		}
	}
}
