package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	frontofficecmd "github.com/pitchside/frontoffice/internal/cmd/frontoffice"
)

func main() {
	cfg, err := frontofficecmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("parse flags: %v", err)
	}
	log.SetPrefix("[FRONTOFFICE] ")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := frontofficecmd.Run(ctx, cfg); err != nil {
		log.Fatalf("simulation failed: %v", err)
	}
}
