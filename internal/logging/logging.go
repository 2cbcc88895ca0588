// Package logging configures a process-wide logrus logger: leveled,
// bracket-tagged lines for component logs ("[tick] ...", "[orch]
// ..."), and a JSON access-log formatter for the
// HTTP request middleware's one-line-per-request output.
//
// Grounded on inference-sim-inference-sim's cmd/root.go
// (logrus.ParseLevel driven by a flag/env var, bracket-tagged
// Infof/Warnf messages) and sim/cluster/cluster.go's component
// logging style.
package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

// New builds a logger from a textual level name (debug/info/warn/
// error), defaulting to info on an unrecognized value rather than
// failing startup.
func New(levelName string) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stdout)

	level, err := logrus.ParseLevel(levelName)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return log
}

// NewAccessLogger builds a separate logger instance whose formatter
// emits one JSON object per line, matching spec §6's log format
// exactly: {"evt":"api_req","req_id":...,"method":...,"path":...,
// "status":...,"latency_ms":...}.
func NewAccessLogger(levelName string) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stdout)

	level, err := logrus.ParseLevel(levelName)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	log.SetFormatter(&logrus.JSONFormatter{})
	return log
}
