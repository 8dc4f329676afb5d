package cli

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/edmarkov/savesync/internal/client/models"
)

func statusCommand() *cli.Command {
	return &cli.Command{
		Name:      "status",
		Usage:     "Show sync state for a game",
		UsageText: "savesync status <game-id>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			gameID, err := gameIDArg(cmd)
			if err != nil {
				return err
			}

			e, err := setup(ctx, cmd)
			if err != nil {
				return err
			}
			defer e.close()

			st, err := e.svc.GetSaveStatus(ctx, gameID)
			if err != nil {
				return err
			}

			fmt.Printf("%s %d\n", bold("Game"), st.GameID)
			fmt.Printf("%s %s\n", bold("Device"), st.DeviceID)
			if !st.LastSyncCheckAt.IsZero() {
				fmt.Printf("%s %s\n", bold("Last check"), st.LastSyncCheckAt.Format(time.RFC3339))
			}
			if st.Playtime.SessionCount > 0 {
				fmt.Printf("%s %s over %d session(s)\n", bold("Playtime"),
					(time.Duration(st.Playtime.TotalSeconds) * time.Second).String(),
					st.Playtime.SessionCount)
			}

			if len(st.Files) == 0 {
				fmt.Println(dim("no tracked files"))
				return nil
			}
			for _, f := range st.Files {
				fmt.Printf("  %-30s %s\n", f.Filename, statusLabel(f.Status))
			}
			return nil
		},
	}
}

func statusLabel(s models.SyncStatus) string {
	switch s {
	case models.StatusSynced:
		return green(string(s))
	case models.StatusConflict:
		return red(string(s))
	case models.StatusUpload, models.StatusDownload:
		return cyan(string(s))
	default:
		return dim(string(s))
	}
}

func gameIDArg(cmd *cli.Command) (int64, error) {
	args := cmd.Args()
	if args.Len() != 1 {
		return 0, fmt.Errorf("expected exactly one argument: <game-id>")
	}
	id, err := strconv.ParseInt(args.Get(0), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid game id %q", args.Get(0))
	}
	return id, nil
}
