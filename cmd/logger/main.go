// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/relabs-tech/altitude_logger/internal/app"
	"github.com/relabs-tech/altitude_logger/internal/config"
)

func main() {
	configPath := flag.String("config", "./altitude_logger.yaml", "path to configuration file")
	mode := flag.String("mode", "", "flight mode profile, overrides the config file")
	erase := flag.Bool("erase", false, "erase storage before arming")
	flag.Parse()

	log.Println("starting altitude logger")

	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	cfg := config.Get()
	if *mode != "" {
		cfg.Mode = *mode
	}
	if *erase {
		cfg.Storage.Erase = true
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.RunLogger(ctx, cfg); err != nil {
		log.Fatalf("fatal: %v", err)
	}
	log.Println("altitude logger stopped")
}
