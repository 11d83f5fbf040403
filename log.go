package orrery

import (
	"log/slog"
	"os"
)

var logger = defaultLogger()

func defaultLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})).
		With("lib", "orrery")
}

// SetLogger replaces the package logger used for warnings and debug output.
// Passing nil restores the default stderr logger (Warn and above).
func SetLogger(l *slog.Logger) {
	if l == nil {
		logger = defaultLogger()
		return
	}
	logger = l
}

// Logger returns the package logger.
func Logger() *slog.Logger {
	return logger
}
