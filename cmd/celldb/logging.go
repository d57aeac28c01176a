package main

import (
	"io"
	"log/slog"
	"os"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// newLogHandler returns a tint handler writing to w. Colour is only used when
// w is a terminal.
func newLogHandler(w io.Writer, level slog.Level) slog.Handler {
	color := isTerminal(w)
	if f, ok := w.(*os.File); ok && color {
		w = colorable.NewColorable(f)
	}
	return tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: "15:04:05.000",
		NoColor:    !color,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Value.Kind() == slog.KindString && a.Value.String() == "" && len(groups) == 0 && a.Key != slog.MessageKey {
				return slog.Attr{}
			}
			return a
		},
	})
}
