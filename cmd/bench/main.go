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
	replay := flag.String("replay", "", "replay pressures from this file instead of the mock flight")
	csvPath := flag.String("csv", "", "write the decoded trace to this CSV file")
	realtime := flag.Bool("realtime", false, "pace samples with the profile cadence")
	monitorAddr := flag.String("monitor", "", "serve the websocket monitor on this address, e.g. :8080")
	flag.Parse()

	log.Println("starting altitude logger bench")

	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	cfg := config.Get()
	if *mode != "" {
		cfg.Mode = *mode
	}
	if *replay != "" {
		cfg.Bench.Source = "replay"
		cfg.Bench.ReplayPath = *replay
	}
	if *realtime {
		cfg.Bench.Realtime = true
	}
	if *monitorAddr != "" {
		cfg.Bench.MonitorAddr = *monitorAddr
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rep, err := app.RunBench(ctx, cfg, app.BenchOptions{CSVPath: *csvPath})
	if err != nil {
		log.Fatalf("fatal: %v", err)
	}
	log.Printf("bench: %s, %d records in %d/%d bytes, image %016x",
		rep.Outcome, rep.Records, rep.Bytes, rep.Capacity, rep.Fingerprint)
}
