// Package telemetry provides optional logging and metrics decorators
// for code built on top of the crdt package. None of it is required to
// use a CRDT; it exists for callers who want structured observability
// around merge traffic without the core itself ever logging, allocating
// for telemetry, or depending on an output sink.
package telemetry

import (
	"os"
	"strings"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
)

// NewLogger builds a go-kit JSON logger writing to stdout, filtered to
// loglevel ("debug", "info", "warn", or "error"; anything else behaves
// like "debug"). Every record carries a UTC timestamp and the calling
// source line.
func NewLogger(loglevel string) log.Logger {
	logger := log.NewJSONLogger(log.NewSyncWriter(os.Stdout))
	logger = log.With(logger,
		"ts", log.DefaultTimestampUTC,
		"caller", log.DefaultCaller,
	)

	switch strings.ToLower(loglevel) {
	case "info":
		logger = level.NewFilter(logger, level.AllowInfo())
	case "warn":
		logger = level.NewFilter(logger, level.AllowWarn())
	case "error":
		logger = level.NewFilter(logger, level.AllowError())
	default:
		logger = level.NewFilter(logger, level.AllowDebug())
	}

	return logger
}

// LogMerge records the outcome of a single merge call: debug on
// success, warn on failure. crdtType and node identify the replica and
// CRDT kind being merged, matching the field names a caller would grep
// for across replicas.
func LogMerge(logger log.Logger, crdtType string, node uint16, err error) {
	l := log.With(logger, "crdt", crdtType, "node", node, "op", "merge")

	if err != nil {
		level.Warn(l).Log("msg", "merge failed", "err", err)
		return
	}
	level.Debug(l).Log("msg", "merge applied")
}

// LogMutation records the outcome of a local mutation (increment, set,
// insert, remove): debug on success, info on failure.
func LogMutation(logger log.Logger, crdtType, op string, node uint16, err error) {
	l := log.With(logger, "crdt", crdtType, "node", node, "op", op)

	if err != nil {
		level.Info(l).Log("msg", "operation failed", "err", err)
		return
	}
	level.Debug(l).Log("msg", "operation applied")
}
