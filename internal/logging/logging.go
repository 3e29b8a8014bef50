package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gilcleber/Controle-Premios-sub000/internal/config"
	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Setup configures the standard logrus logger from cfg.
// The returned closer releases the rotating file, if any.
func Setup(cfg config.LoggingConfig) (io.Closer, error) {
	level, errLevel := log.ParseLevel(strings.TrimSpace(defaultString(cfg.Level, "info")))
	if errLevel != nil {
		return nil, fmt.Errorf("logging: %w", errLevel)
	}
	log.SetLevel(level)

	switch strings.ToLower(strings.TrimSpace(cfg.Format)) {
	case "json":
		log.SetFormatter(&log.JSONFormatter{TimestampFormat: "2006-01-02T15:04:05.000Z07:00"})
	case "", "text":
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true, TimestampFormat: "2006-01-02 15:04:05"})
	default:
		return nil, fmt.Errorf("logging: unknown format %q", cfg.Format)
	}

	out, closer := Writer(cfg)
	log.SetOutput(out)
	return closer, nil
}

// Writer builds the log destination: stdout, a rotating file, or both.
func Writer(cfg config.LoggingConfig) (io.Writer, io.Closer) {
	file := strings.TrimSpace(cfg.File)
	if file == "" {
		return os.Stdout, nopCloser{}
	}
	rotator := &lumberjack.Logger{
		Filename:   file,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   true,
	}
	if cfg.Stdout {
		return io.MultiWriter(os.Stdout, rotator), rotator
	}
	return rotator, rotator
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func defaultString(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}
