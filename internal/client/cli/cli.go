// Package cli provides the command-line interface of the savesync client.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/edmarkov/savesync/internal/client/config"
	"github.com/edmarkov/savesync/internal/client/launch"
	"github.com/edmarkov/savesync/internal/client/remote"
	"github.com/edmarkov/savesync/internal/client/store"
	"github.com/edmarkov/savesync/internal/client/syncer"
	"github.com/edmarkov/savesync/internal/logging"
)

var (
	// Version is the current version of the application.
	Version = "dev"
	// BuildDate is the date and time of the build.
	BuildDate = "unknown"
)

// Run executes the CLI application with the given context and arguments.
func Run(ctx context.Context, args []string) error {
	app := &cli.Command{
		Name:    "savesync",
		Usage:   "Synchronize game saves across devices",
		Version: Version,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug output",
			},
			&cli.BoolFlag{
				Name:  "no-color",
				Usage: "Disable colored output",
			},
			// read by the config loader straight from os.Args; declared
			// here so the command parser accepts them
			&cli.StringFlag{
				Name:  "a",
				Usage: "Base URL of the save library server",
			},
			&cli.StringFlag{
				Name:  "d",
				Usage: "Path of the local state database",
			},
			&cli.StringFlag{
				Name:  "r",
				Usage: "Save root directory",
			},
			&cli.IntFlag{
				Name:  "i",
				Usage: "Online check interval (seconds)",
			},
			&cli.StringFlag{
				Name:    "c",
				Aliases: []string{"config"},
				Usage:   "Path to a JSON config file",
			},
		},
		Commands: []*cli.Command{
			statusCommand(),
			syncCommand(),
			conflictsCommand(),
			queueCommand(),
			settingsCommand(),
			deviceCommand(),
			runCommand(),
			watchCommand(),
		},
	}
	return app.Run(ctx, args)
}

// env bundles everything a command action needs.
type env struct {
	cfg   *config.Config
	st    *store.Store
	rc    *remote.HTTPClient
	orch  *syncer.Orchestrator
	svc   *syncer.Service
	gate  *launch.Gate
	log   logging.Logger
	close func()
}

// setup opens the store and wires the engine. Every command goes through
// here so flags and config behave identically across commands.
func setup(ctx context.Context, cmd *cli.Command) (*env, error) {
	if cmd.Bool("no-color") {
		disableColors()
	}

	level := slog.LevelWarn
	if cmd.Bool("debug") {
		level = slog.LevelDebug
	}
	log := logging.NewTextLogger(os.Stderr, level)

	cfg := config.LoadConfig()

	st, err := store.Open(ctx, cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("open local state: %w", err)
	}

	rc := remote.NewHTTPClient(cfg.ServerEndpointAddr)

	exec := syncer.NewExecutor(rc, st.Saves, st.Queue, log, cfg.SaveRoot, "")
	orch := syncer.NewOrchestrator(st, rc, exec, log)
	svc := syncer.NewService(st, rc, orch, log)

	// resolve the device identity and authenticate the remote client
	device, err := svc.EnsureDeviceRegistered(ctx)
	if err != nil {
		_ = st.Close()
		return nil, err
	}
	exec.SetDeviceID(device.ID)
	if device.Token != "" {
		rc.SetToken(device.Token)
	}

	tracker := launch.NewSessionTracker(st.Playtime, log)
	gate := launch.NewGate(svc, tracker, log)

	return &env{
		cfg:  cfg,
		st:   st,
		rc:   rc,
		orch: orch,
		svc:  svc,
		gate: gate,
		log:  log,
		close: func() {
			_ = rc.Close()
			_ = st.Close()
		},
	}, nil
}
