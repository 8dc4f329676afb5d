package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/edmarkov/savesync/internal/client/watch"
)

func watchCommand() *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "Watch the save root and sync games as their files change",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			e, err := setup(ctx, cmd)
			if err != nil {
				return err
			}
			defer e.close()

			w := watch.NewWatcher(e.orch, e.log, e.cfg.SaveRoot, e.cfg.WatchDebounce)
			fmt.Printf("watching %s\n", bold(e.cfg.SaveRoot))

			// drain the offline queue when the server comes back
			cw := watch.NewConnectivityWatcher(e.rc, e.svc, e.log, e.cfg.OnlineCheckInterval)
			go func() { _ = cw.Run(ctx) }()

			err = w.Run(ctx)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
}
