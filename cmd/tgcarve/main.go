/*************************************************************************
 * Copyright 2024 dfir-oss. All rights reserved.
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

// Command tgcarve recovers Telegram Desktop instant-messaging artifacts
// from a directory of raw process memory dumps.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/dfir-oss/tgcarve/carvelog"
	"github.com/dfir-oss/tgcarve/engine"
	"github.com/dfir-oss/tgcarve/offsets"
	"github.com/dfir-oss/tgcarve/report"
)

const productTelegramDesktop = "TELEGRAM_DESKTOP"

var (
	outPath    = flag.String("f", "", "Path to write the JSON report (default: <memory_data_path>.json)")
	stageDir   = flag.String("t", "", "Stage dump files into this directory before carving (must not already exist)")
	verbose    = flag.Bool("v", false, "Verbose logging (equivalent to -log-level DEBUG)")
	logFile    = flag.String("log-file", "", "Path to a log file (default: stderr)")
	logLevel   = flag.String("log-level", "INFO", "Log level: OFF, DEBUG, INFO, WARN, ERROR")
	offsetFile = flag.String("offsets", "", "Path to a gcfg offset-override file")
)

func main() {
	os.Exit(run())
}

// run carries the body of main as a function returning an exit code,
// rather than calling os.Exit inline at each error site, so that a
// deferred cleanup of a staged dump directory always runs: os.Exit skips
// every pending defer, so it must never be called once staging succeeds.
func run() int {
	flag.Parse()
	args := flag.Args()
	if len(args) != 2 {
		fmt.Fprintf(os.Stderr, "usage: %s <memory_data_path> %s [flags]\n", os.Args[0], productTelegramDesktop)
		flag.PrintDefaults()
		return 1
	}
	dumpPath, product := args[0], args[1]
	if strings.ToUpper(product) != productTelegramDesktop {
		fmt.Fprintf(os.Stderr, "unsupported product %q: only %s is implemented\n", product, productTelegramDesktop)
		return 1
	}

	lvl, err := carvelog.LevelFromString(*logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid -log-level %q: %v\n", *logLevel, err)
		return 1
	}
	if *verbose {
		lvl = carvelog.DEBUG
	}
	log, err := openLogger(*logFile, lvl)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open log file: %v\n", err)
		return 1
	}
	defer log.Close()

	if fi, err := os.Stat(dumpPath); err != nil {
		fmt.Fprintf(os.Stderr, "%s does not exist\n", dumpPath)
		return 1
	} else if !fi.IsDir() {
		fmt.Fprintf(os.Stderr, "%s is not a directory\n", dumpPath)
		return 1
	}

	tbl := offsets.Default
	if *offsetFile != "" {
		tbl, err = offsets.LoadOverrides(*offsetFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to load offset overrides: %v\n", err)
			return 1
		}
	}

	runDir := dumpPath
	if *stageDir != "" {
		if err := stageDumps(dumpPath, *stageDir); err != nil {
			fmt.Fprintf(os.Stderr, "failed to stage dump files: %v\n", err)
			return 1
		}
		defer func() {
			if err := os.RemoveAll(*stageDir); err != nil {
				log.Error("failed to remove staging directory %s: %v", *stageDir, err)
			}
		}()
		runDir = *stageDir
	}

	runID := uuid.New()
	log.Info("starting carving run %s over %s", runID, runDir)

	eng := engine.New(log)
	acc, err := eng.Run(runDir, tbl)
	if err != nil {
		log.Error("carving run %s failed: %v", runID, err)
		fmt.Fprintf(os.Stderr, "carving failed: %v\n", err)
		return 1
	}

	out := *outPath
	if out == "" {
		out = strings.TrimRight(dumpPath, "/\\") + ".json"
	}
	if err := report.Write(out, runID.String(), acc); err != nil {
		log.Error("run %s: failed to write report: %v", runID, err)
		fmt.Fprintf(os.Stderr, "failed to write report: %v\n", err)
		return 1
	}

	log.Info("run %s wrote report to %s", runID, out)
	return 0
}

func openLogger(path string, lvl carvelog.Level) (*carvelog.Logger, error) {
	if path == "" {
		return carvelog.NewStderr(lvl), nil
	}
	return carvelog.NewFile(path, lvl)
}
