// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"flag"
	"log"

	"github.com/relabs-tech/altitude_logger/internal/app"
	"github.com/relabs-tech/altitude_logger/internal/config"
)

func main() {
	configPath := flag.String("config", "./altitude_logger.yaml", "path to configuration file")
	mode := flag.String("mode", "", "flight mode the image was recorded with")
	in := flag.String("in", "-", "storage image to decode, - for stdin")
	out := flag.String("out", "-", "CSV output, - for stdout")
	keep := flag.Bool("keep-erased", false, "decode trailing 0xFF bytes too; required for a dump of a full store")
	flag.Parse()

	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	cfg := config.Get()
	if *mode != "" {
		cfg.Mode = *mode
	}

	if err := app.RunDecode(cfg, app.DecodeOptions{Input: *in, Output: *out, Keep: *keep}); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
