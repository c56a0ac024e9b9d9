package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

var bannerLines = []struct {
	text  string
	color string
}{
	{" _   _       _             ", "#818cf8"},
	{"| |_(_)_ __ | |_ ___   ___ ", "#a78bfa"},
	{"| __| | '_ \\| __/ _ \\ / _ \\", "#c084fc"},
	{"| |_| | |_) | || (_) |  __/", "#e879f9"},
	{" \\__|_| .__/ \\__\\___/ \\___|", "#f472b6"},
	{"      |_|                  ", "#fb7185"},
}

// PrintBanner writes the startup banner to w, colored when w is a terminal.
func PrintBanner(w io.Writer, version string) {
	out := termenv.NewOutput(w)

	fmt.Fprintln(w)
	for _, line := range bannerLines {
		fmt.Fprintln(w, out.String(line.text).Foreground(out.Color(line.color)))
	}
	fmt.Fprintln(w, out.String("  version "+version).Faint())
	fmt.Fprintln(w)
}
