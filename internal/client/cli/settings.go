package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/edmarkov/savesync/internal/client/models"
)

func settingsCommand() *cli.Command {
	return &cli.Command{
		Name:  "settings",
		Usage: "Show or change sync settings",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "conflict-mode",
				Usage: "Set conflict mode: ask_me, newest_wins, always_upload, always_download",
			},
			&cli.StringFlag{
				Name:  "enabled",
				Usage: "Enable or disable sync: true or false",
			},
			&cli.StringFlag{
				Name:  "sync-before-launch",
				Usage: "Run a sync pass before launching: true or false",
			},
			&cli.StringFlag{
				Name:  "sync-after-exit",
				Usage: "Run a sync pass after exit: true or false",
			},
			&cli.DurationFlag{
				Name:  "clock-skew",
				Usage: "Clock skew tolerance for change detection (e.g. 60s)",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			e, err := setup(ctx, cmd)
			if err != nil {
				return err
			}
			defer e.close()

			cfg, err := e.svc.GetSettings(ctx)
			if err != nil {
				return err
			}

			changed := false
			if v := cmd.String("conflict-mode"); v != "" {
				mode, perr := models.ParseConflictMode(v)
				if perr != nil {
					return perr
				}
				cfg.ConflictMode = mode
				changed = true
			}
			if v := cmd.String("enabled"); v != "" {
				cfg.Enabled = v == "true"
				changed = true
			}
			if v := cmd.String("sync-before-launch"); v != "" {
				cfg.SyncBeforeLaunch = v == "true"
				changed = true
			}
			if v := cmd.String("sync-after-exit"); v != "" {
				cfg.SyncAfterExit = v == "true"
				changed = true
			}
			if v := cmd.Duration("clock-skew"); v != 0 {
				cfg.ClockSkewTolerance = v
				changed = true
			}

			if changed {
				if err := e.svc.UpdateSettings(ctx, cfg); err != nil {
					return err
				}
				fmt.Println(green("settings updated, effective next pass"))
			}

			printSettings(cfg)
			return nil
		},
	}
}

func printSettings(cfg *models.SaveSyncSettings) {
	fmt.Printf("%s %v\n", bold("enabled:"), cfg.Enabled)
	fmt.Printf("%s %s\n", bold("conflict mode:"), cfg.ConflictMode)
	fmt.Printf("%s %v\n", bold("sync before launch:"), cfg.SyncBeforeLaunch)
	fmt.Printf("%s %v\n", bold("sync after exit:"), cfg.SyncAfterExit)
	fmt.Printf("%s %s\n", bold("clock skew tolerance:"), cfg.ClockSkewTolerance.Round(time.Second))
}
