// Package main runs the character sheet developer CLI.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	sheetcmd "github.com/louisbranch/traitsheet/internal/cmd/sheet"
	"github.com/louisbranch/traitsheet/internal/platform/config"
)

func main() {
	cfg, err := sheetcmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("parse flags: %v", err)
	}
	log.SetPrefix("[SHEET] ")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := sheetcmd.Run(ctx, cfg, os.Stdout); err != nil {
		if errors.Is(err, sheetcmd.ErrUsage) {
			stop()
			os.Exit(2)
		}
		log.Fatalf("sheet: %v", err)
	}
}
