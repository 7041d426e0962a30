// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/relabs-tech/altitude_logger/internal/config"
	"github.com/relabs-tech/altitude_logger/internal/decode"
)

// DecodeOptions select the dump to decode.
type DecodeOptions struct {
	Input  string // image file, "-" for stdin
	Output string // CSV file, "" or "-" for stdout
	// Keep decodes the erased tail too. A dump of a full store must be
	// decoded with Keep: its last byte may be a real 0xFF climb pair.
	Keep bool
}

// RunDecode turns a dumped image into a CSV trace using the profile of the
// configured mode.
func RunDecode(cfg *config.Config, opts DecodeOptions) error {
	if cfg == nil {
		return errors.New("decode: no configuration")
	}
	prof, err := cfg.Effective()
	if err != nil {
		return fmt.Errorf("decode: %w", err)
	}

	image, err := readInput(opts.Input)
	if err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	if !opts.Keep {
		image = decode.Trim(image)
	}

	r := prof.Range()
	deltas := decode.Merge(decode.Nibbles(image, r), r)
	pts := decode.Trace(deltas, prof.Cadence())
	log.Printf("decode: %d bytes, %d samples, fingerprint %016x", len(image), len(deltas), decode.Fingerprint(image))

	if opts.Output == "" || opts.Output == "-" {
		return decode.WriteCSV(os.Stdout, pts, prof.IntervalPa)
	}
	return writeTraceCSV(opts.Output, pts, prof.IntervalPa)
}

func readInput(path string) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}
