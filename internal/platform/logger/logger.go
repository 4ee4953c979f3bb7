package logger

import (
	"io"
	"log/slog"
	"os"
)

// New returns a JSON logger writing to stdout, tagged with the app and environment.
func New(app, env string, level slog.Level) *slog.Logger {
	return NewWithWriter(os.Stdout, app, env, level)
}

func NewWithWriter(w io.Writer, app, env string, level slog.Level) *slog.Logger {
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	})

	return slog.New(h).With(
		slog.String("app", app),
		slog.String("env", env),
	)
}

// Discard is a logger for tests.
func Discard() *slog.Logger {
	return NewWithWriter(io.Discard, "test", "test", slog.LevelInfo)
}
