package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the CineBrain banner to w, coloured for the detected profile.
func PrintBanner(w io.Writer) {
	out := termenv.NewOutput(w)
	lines := []struct{ text, color string }{
		{"   ___ _            ___           _      ", "#f59e0b"},
		{"  / __(_)_ _  ___  | _ )_ _ __ _ (_)_ _  ", "#f97316"},
		{" | (__| | ' \\/ -_) | _ \\ '_/ _` || | ' \\ ", "#ef4444"},
		{"  \\___|_|_||_\\___| |___/_| \\__,_||_|_||_|", "#e11d48"},
	}
	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, out.String(l.text).Foreground(out.Color(l.color)))
	}
	fmt.Fprintln(w, out.String("  film research, planning and media").Faint())
	fmt.Fprintln(w)
}

// System styles a meta-message for the terminal.
func System(w io.Writer, msg string) string {
	out := termenv.NewOutput(w)
	return out.String(">>> " + msg).Foreground(out.Color("#818cf8")).String()
}
