/*
NAME
  exlog.go

DESCRIPTION
  exlog provides an example logging.Logger backed by a size- and
  age-rotated file, for callers (and tests) that need a real sink rather
  than an in-memory mock (spec §7's logging requirement). Grounded on
  cmd/looper/main.go's fileLog/logging.New pairing in the teacher.

AUTHOR
  tscore contributors

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package exlog is a reference logging.Logger implementation for tscore's
// core packages: a rotating file sink built on lumberjack.v2, the same
// way the teacher's command-line tools log to disk.
package exlog

import (
	"github.com/ausocean/utils/logging"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Rotation defaults, matching cmd/looper/main.go's constants scaled down
// for a library-level default (the original's 500MB/28-day retention
// assumes a long-lived device process; this package is also used by
// short-lived test processes).
const (
	MaxSizeMB  = 10
	MaxBackups = 3
	MaxAgeDays = 7
)

// New returns a logging.Logger that writes to a rotated file at path, and
// the lumberjack.Logger backing it so the caller can Close it when done
// (lumberjack.Logger.Close just closes the currently open file; rotation
// itself is automatic on write).
func New(path string) (logging.Logger, *lumberjack.Logger) {
	fileLog := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    MaxSizeMB,
		MaxBackups: MaxBackups,
		MaxAge:     MaxAgeDays,
	}
	return logging.New(logging.Debug, fileLog, false), fileLog
}
