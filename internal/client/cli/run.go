package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/edmarkov/savesync/internal/client/launch"
)

func runCommand() *cli.Command {
	return &cli.Command{
		Name:      "run",
		Usage:     "Launch a game wrapped in sync and playtime tracking",
		UsageText: "savesync run [--force] <game-id> <binary> [args...]",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "force",
				Usage: "Launch even with unresolved conflicts",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			args := cmd.Args()
			if args.Len() < 2 {
				return fmt.Errorf("expected: <game-id> <binary> [args...]")
			}
			gameID, err := strconv.ParseInt(args.Get(0), 10, 64)
			if err != nil {
				return fmt.Errorf("invalid game id %q", args.Get(0))
			}

			e, err := setup(ctx, cmd)
			if err != nil {
				return err
			}
			defer e.close()

			pt, err := e.gate.Run(ctx, gameID, cmd.Bool("force"), args.Get(1), args.Slice()[2:]...)
			if errors.Is(err, launch.ErrConflictsPending) {
				fmt.Println(red("launch blocked: unresolved save conflicts"))
				fmt.Println(dim("resolve them first, or pass --force to play anyway"))
				return err
			}
			if pt != nil {
				fmt.Printf("%s %s this session, %s total over %d session(s)\n",
					green("played"),
					time.Duration(pt.LastSessionDuration)*time.Second,
					time.Duration(pt.TotalSeconds)*time.Second,
					pt.SessionCount)
			}
			return err
		},
	}
}
