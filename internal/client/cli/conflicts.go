package cli

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/edmarkov/savesync/internal/client/models"
)

func conflictsCommand() *cli.Command {
	return &cli.Command{
		Name:  "conflicts",
		Usage: "List and resolve pending save conflicts",
		Commands: []*cli.Command{
			conflictsListCommand(),
			conflictsResolveCommand(),
		},
		// bare "savesync conflicts" lists
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return listConflicts(ctx, cmd)
		},
	}
}

func conflictsListCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List pending conflicts",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return listConflicts(ctx, cmd)
		},
	}
}

func listConflicts(ctx context.Context, cmd *cli.Command) error {
	e, err := setup(ctx, cmd)
	if err != nil {
		return err
	}
	defer e.close()

	conflicts, err := e.svc.GetPendingConflicts(ctx)
	if err != nil {
		return err
	}
	if len(conflicts) == 0 {
		fmt.Println(green("no pending conflicts"))
		return nil
	}

	for _, c := range conflicts {
		fmt.Printf("%s game %d %s\n", red("conflict"), c.GameID, bold(c.Filename))
		fmt.Printf("    local:  modified %s (%d bytes)\n", c.LocalMTime.Format(time.RFC3339), c.LocalSize)
		fmt.Printf("    server: modified %s (%d bytes)\n", c.ServerUpdatedAt.Format(time.RFC3339), c.ServerSize)
		fmt.Printf("    detected %s\n", dim(c.DetectedAt.Format(time.RFC3339)))
	}
	fmt.Println(dim("resolve with: savesync conflicts resolve <game-id> <filename> <upload|download|skip>"))
	return nil
}

func conflictsResolveCommand() *cli.Command {
	return &cli.Command{
		Name:      "resolve",
		Usage:     "Resolve one conflict",
		UsageText: "savesync conflicts resolve <game-id> <filename> <upload|download|skip>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			args := cmd.Args()
			if args.Len() != 3 {
				return fmt.Errorf("expected: <game-id> <filename> <upload|download|skip>")
			}
			gameID, err := strconv.ParseInt(args.Get(0), 10, 64)
			if err != nil {
				return fmt.Errorf("invalid game id %q", args.Get(0))
			}
			res, ok := models.ParseResolution(args.Get(2))
			if !ok {
				return fmt.Errorf("invalid resolution %q, want upload, download or skip", args.Get(2))
			}

			e, err := setup(ctx, cmd)
			if err != nil {
				return err
			}
			defer e.close()

			if err := e.svc.ResolveConflict(ctx, gameID, args.Get(1), res); err != nil {
				return err
			}
			fmt.Printf("%s %s resolved with %s\n", green("✓"), args.Get(1), res)
			return nil
		},
	}
}
