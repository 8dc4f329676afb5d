package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/edmarkov/savesync/internal/buildinfo"
	"github.com/edmarkov/savesync/internal/client/cli"
)

func main() {
	buildinfo.PrintBuildData(os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cli.Run(ctx, os.Args); err != nil {
		log.Fatalf("%v", err)
	}
}
