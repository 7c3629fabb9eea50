// Package logger builds the zerolog logger of a client from its
// configuration.
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/frankli0324/go-fetch/internal/config"
	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// New creates a logger writing to every writer cfg names. without any
// writer it logs to the console.
func New(cfg config.Log) (*zerolog.Logger, error) {
	level := zerolog.InfoLevel
	if cfg.Level != "" {
		l, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
		if err != nil {
			return nil, err
		}
		level = l
	}

	outputs := make([]io.Writer, 0, len(cfg.Writers))
	for _, w := range cfg.Writers {
		switch w {
		case "console":
			outputs = append(outputs, zerolog.ConsoleWriter{Out: os.Stderr})
		case "file":
			outputs = append(outputs, &lumberjack.Logger{
				Filename:   cfg.File.Path,
				MaxSize:    cfg.File.MaxSizeMB,
				MaxBackups: cfg.File.MaxBackups,
				MaxAge:     cfg.File.MaxAgeDays,
				Compress:   cfg.File.Compress,
			})
		}
	}
	if len(outputs) == 0 {
		outputs = append(outputs, zerolog.ConsoleWriter{Out: os.Stderr})
	}

	l := zerolog.New(zerolog.MultiLevelWriter(outputs...)).
		Level(level).
		With().Timestamp().Str("component", "fetch").Logger()
	return &l, nil
}
