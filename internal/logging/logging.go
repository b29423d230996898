// Package logging configures the global slog logger for the reclip binary.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/pwntr/tinter"
)

// IsTTY reports whether w is a terminal.
func IsTTY(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return false
}

// Setup configures the global slog logger. Call once after flag/viper
// parsing.
//
// format is "auto", "text", or "json"; auto picks tinter on a terminal and
// JSON otherwise. level is a slog level name; when empty, interactive runs
// default to debug and background runs to info.
func Setup(format, level string, interactive bool) {
	w := os.Stderr

	var l slog.Level
	if level == "" {
		l = slog.LevelInfo
		if interactive {
			l = slog.LevelDebug
		}
	} else if err := l.UnmarshalText([]byte(level)); err != nil {
		l = slog.LevelInfo
	}

	var h slog.Handler
	if useTint(format, w) {
		h = tinter.NewHandler(w, &tinter.Options{
			Level:      l,
			TimeFormat: "15:04:05.000",
		})
	} else {
		h = slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level: l,
		})
	}
	slog.SetDefault(slog.New(h))
}

func useTint(format string, w io.Writer) bool {
	switch strings.ToLower(format) {
	case "text", "tint", "human":
		return true
	case "json":
		return false
	default:
		return IsTTY(w)
	}
}
