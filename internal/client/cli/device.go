package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"
)

func deviceCommand() *cli.Command {
	return &cli.Command{
		Name:  "device",
		Usage: "Show this device's identity and registration state",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			e, err := setup(ctx, cmd)
			if err != nil {
				return err
			}
			defer e.close()

			dev, err := e.svc.EnsureDeviceRegistered(ctx)
			if err != nil {
				return err
			}

			fmt.Printf("%s %s\n", bold("id:"), dev.ID)
			fmt.Printf("%s %s\n", bold("name:"), dev.Name)
			fmt.Printf("%s %s\n", bold("created:"), dev.RegisteredAt.Format(time.RFC3339))
			if dev.Token != "" {
				fmt.Printf("%s %s\n", bold("registration:"), green("registered"))
			} else {
				fmt.Printf("%s %s\n", bold("registration:"), yellow("pending (server unreachable)"))
			}
			return nil
		},
	}
}
