package app

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	logFileMaxSizeMB  = 10
	logFileMaxBackups = 3
	logFileMaxAgeDays = 28
)

// NewLogger creates a logger from the process configuration.
// LOG_OUTPUT may be stderr, stdout, discard or a file path. Files are rotated.
func NewLogger(config *Config) zerolog.Logger {
	level := parseLevel(config.LogLevel)
	output := logOutput(config.LogOutput)

	var writer io.Writer = output
	if logFormat(config.LogFormat, output) == "console" {
		writer = zerolog.ConsoleWriter{Out: output, TimeFormat: time.Kitchen, NoColor: os.Getenv("NO_COLOR") != ""}
	}

	logger := zerolog.New(writer).
		Level(level).
		With().
		Timestamp().
		Logger()
	if level <= zerolog.DebugLevel {
		logger = logger.With().Caller().Logger()
	}
	return logger
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "", "info":
		return zerolog.InfoLevel
	case "warning":
		return zerolog.WarnLevel
	case "none", "off":
		return zerolog.Disabled
	}
	if l, err := zerolog.ParseLevel(strings.ToLower(level)); err == nil {
		return l
	}
	fmt.Fprintf(os.Stderr, "Warning: invalid log level %q, using %q\n", level, "info")
	return zerolog.InfoLevel
}

func logOutput(output string) io.Writer {
	switch strings.ToLower(output) {
	case "", "stderr":
		return os.Stderr
	case "stdout":
		return os.Stdout
	case "discard", "none":
		return io.Discard
	}
	return &lumberjack.Logger{
		Filename:   output,
		MaxSize:    logFileMaxSizeMB,
		MaxBackups: logFileMaxBackups,
		MaxAge:     logFileMaxAgeDays,
	}
}

// logFormat resolves "auto" to console for a terminal and json otherwise.
func logFormat(format string, output io.Writer) string {
	switch strings.ToLower(format) {
	case "console", "pretty":
		return "console"
	case "json":
		return "json"
	}
	if f, ok := output.(*os.File); ok {
		if info, err := f.Stat(); err == nil && info.Mode()&os.ModeCharDevice != 0 {
			return "console"
		}
	}
	return "json"
}
