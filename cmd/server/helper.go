package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/yourorg/locker-metrics/internal/config"
	"github.com/yourorg/locker-metrics/internal/model"
)

// setupLogging configures the global logger from cfg. A LogFile is rotated
// and mirrored to stdout.
func setupLogging(cfg config.Config) error {
	switch strings.ToLower(cfg.LogFormat) {
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{})
	case "text", "":
		logrus.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	default:
		return fmt.Errorf("invalid log format '%s'", cfg.LogFormat)
	}

	level, err := logrus.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil {
		logrus.Warnf("Invalid log level %q, using info", cfg.LogLevel)
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)

	if cfg.LogFile != "" {
		logrus.SetOutput(io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    100,
			MaxBackups: 5,
			MaxAge:     28,
			Compress:   true,
		}))
	}

	logrus.WithFields(logrus.Fields{
		"level":  level.String(),
		"format": cfg.LogFormat,
		"file":   cfg.LogFile,
	}).Info("Logging configured")
	return nil
}

func writeJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.WithError(err).Warn("Failed to encode response")
	}
}

// queryPair reads ?a=&b=. Both or neither must be given.
func queryPair(r *http.Request) (model.Pair, error) {
	q := r.URL.Query()
	p := model.Pair{A: q.Get("a"), B: q.Get("b")}
	if (p.A == "") != (p.B == "") {
		return model.Pair{}, fmt.Errorf("query parameters a and b must be given together")
	}
	if !p.IsZero() && p.A == p.B {
		return model.Pair{}, fmt.Errorf("query parameters a and b must differ")
	}
	return p, nil
}

func queryBool(raw string) bool {
	b, err := strconv.ParseBool(raw)
	return err == nil && b
}
