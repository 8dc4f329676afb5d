package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/edmarkov/savesync/internal/client/syncer"
)

func queueCommand() *cli.Command {
	return &cli.Command{
		Name:  "queue",
		Usage: "Inspect and drive the offline retry queue",
		Commands: []*cli.Command{
			queueListCommand(),
			queueRetryCommand(),
			queueClearCommand(),
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return listQueue(ctx, cmd)
		},
	}
}

func queueListCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List transfers waiting for connectivity",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return listQueue(ctx, cmd)
		},
	}
}

func listQueue(ctx context.Context, cmd *cli.Command) error {
	e, err := setup(ctx, cmd)
	if err != nil {
		return err
	}
	defer e.close()

	items, err := e.svc.GetOfflineQueue(ctx)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		fmt.Println(green("offline queue is empty"))
		return nil
	}
	for _, it := range items {
		fmt.Printf("%s game %d %s (%s, failed %s)\n",
			yellow(string(it.Op)), it.GameID, bold(it.Filename),
			it.Reason, dim(it.FailedAt.Format(time.RFC3339)))
	}
	return nil
}

func queueRetryCommand() *cli.Command {
	return &cli.Command{
		Name:      "retry",
		Usage:     "Retry queued transfers now, the whole queue or a single file",
		UsageText: "savesync queue retry [<game-id> <filename>]",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			e, err := setup(ctx, cmd)
			if err != nil {
				return err
			}
			defer e.close()

			switch args := cmd.Args(); args.Len() {
			case 0:
				err = e.svc.RetryFailed(ctx)
			case 2:
				var gameID int64
				gameID, err = strconv.ParseInt(args.Get(0), 10, 64)
				if err != nil {
					return fmt.Errorf("invalid game id %q", args.Get(0))
				}
				err = e.svc.RetryFailedSync(ctx, gameID, args.Get(1))
			default:
				return fmt.Errorf("expected no arguments or: <game-id> <filename>")
			}
			if errors.Is(err, syncer.ErrOffline) {
				fmt.Println(yellow("server still unreachable, queue unchanged"))
				return nil
			}
			if err != nil {
				return err
			}

			left, err := e.svc.GetOfflineQueue(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("%s %d item(s) remaining\n", green("retry finished:"), len(left))
			return nil
		},
	}
}

func queueClearCommand() *cli.Command {
	return &cli.Command{
		Name:  "clear",
		Usage: "Drop every queued transfer without retrying",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			e, err := setup(ctx, cmd)
			if err != nil {
				return err
			}
			defer e.close()

			if err := e.svc.ClearOfflineQueue(ctx); err != nil {
				return err
			}
			fmt.Println(green("offline queue cleared"))
			return nil
		},
	}
}
