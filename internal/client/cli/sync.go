package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/urfave/cli/v3"

	"github.com/edmarkov/savesync/internal/client/models"
	"github.com/edmarkov/savesync/internal/client/syncer"
)

func syncCommand() *cli.Command {
	return &cli.Command{
		Name:      "sync",
		Usage:     "Run a sync pass for one game, or all games",
		UsageText: "savesync sync [game-id]",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "all",
				Aliases: []string{"A"},
				Usage:   "Sync every known game",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			e, err := setup(ctx, cmd)
			if err != nil {
				return err
			}
			defer e.close()

			var sum *models.Summary
			if cmd.Bool("all") || cmd.Args().Len() == 0 {
				sum, err = e.orch.SyncAll(ctx)
			} else {
				var gameID int64
				gameID, err = strconv.ParseInt(cmd.Args().Get(0), 10, 64)
				if err != nil {
					return fmt.Errorf("invalid game id %q", cmd.Args().Get(0))
				}
				sum, err = e.orch.SyncOne(ctx, gameID)
			}

			switch {
			case errors.Is(err, syncer.ErrOffline):
				fmt.Println(yellow("server unreachable, nothing synced"))
				return nil
			case errors.Is(err, syncer.ErrSyncInProgress):
				fmt.Println(yellow("a sync is already running for this game"))
				return nil
			case err != nil:
				return err
			}

			printSummary(sum)
			return nil
		},
	}
}

func printSummary(sum *models.Summary) {
	fmt.Printf("%s %d synced, %d conflict(s), %d skipped\n",
		green("done:"), sum.Synced, sum.Conflicts, sum.Skipped)
	for _, fe := range sum.Errors {
		fmt.Printf("  %s game %d %s: %s\n", red("failed"), fe.GameID, fe.Filename, fe.Err)
	}
	if sum.Conflicts > 0 {
		fmt.Println(dim("run 'savesync conflicts' to review"))
	}
}
