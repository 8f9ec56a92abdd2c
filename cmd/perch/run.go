package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/1broseidon/perch/internal/daemon"
	"github.com/1broseidon/perch/internal/hotkeys"
	"github.com/1broseidon/perch/internal/ipc"
	"github.com/1broseidon/perch/internal/platform"
	"github.com/1broseidon/perch/internal/rig"
	"github.com/1broseidon/perch/internal/runtimepath"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run --host <window-id>",
	Short: "Drive a host window as the character (foreground)",
	Long: "Run the docking loop against the live desktop. The host window plays the character:\n" +
		"drag it onto another window's top edge and hold to sit; perch then keeps it there.\n" +
		"Window ids accept decimal or 0x-prefixed hex.",
	Args: cobra.NoArgs,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().String("host", "", "Host window id (required)")
	runCmd.Flags().Int("fps", 60, "Frames per second")
	runCmd.Flags().Float64("height", 1.6, "Character height in world units")
	runCmd.Flags().Uint64("seed", 0, "Sit pose seed (0 is random)")
	_ = runCmd.MarkFlagRequired("host")
}

func parseWindowID(s string) (platform.WindowID, error) {
	v, err := strconv.ParseUint(s, 0, 64)
	if err != nil || v == 0 {
		return 0, fmt.Errorf("invalid window id %q", s)
	}
	return platform.WindowID(v), nil
}

func runRun(cmd *cobra.Command, args []string) error {
	res, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(cmd, res.Config)

	hostFlag, _ := cmd.Flags().GetString("host")
	host, err := parseWindowID(hostFlag)
	if err != nil {
		return err
	}
	fps, _ := cmd.Flags().GetInt("fps")
	height, _ := cmd.Flags().GetFloat64("height")
	seed, _ := cmd.Flags().GetUint64("seed")
	if height <= 0 {
		return fmt.Errorf("--height must be positive")
	}

	backend, closeBackend, err := openBackend(host)
	if err != nil {
		return err
	}
	defer closeBackend()

	d := daemon.New(daemon.Options{
		Config:     res.Config,
		ConfigPath: res.File,
		Backend:    backend,
		Rig:        rig.Humanoid(height),
		FrameHz:    fps,
		Logger:     logger,
		Seed:       seed,
	})

	socket, err := runtimepath.SocketPath()
	if err != nil {
		return fmt.Errorf("failed to resolve IPC socket path: %w", err)
	}
	srv := ipc.NewServer(socket, d, logger)
	if err := srv.Start(); err != nil {
		return err
	}
	defer srv.Stop()

	keys, err := hotkeys.NewHandler(backend, logger)
	switch {
	case errors.Is(err, hotkeys.ErrUnsupported):
		logger.Debug("global hotkeys unavailable", "error", err)
	case err != nil:
		logger.Warn("global hotkeys disabled", "error", err)
	default:
		bindings := hotkeys.Bindings(res.Config.Hotkeys, hotkeys.Actions{
			Toggle:  func() { d.Toggle() },
			Release: func() { d.Release() },
		})
		if keys.Register(bindings) > 0 {
			go keys.Run()
			defer keys.Stop()
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return d.Run(ctx)
}
