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
	{`                          _    _             _ _ `, "#f59e0b"},
	{`  ___ _ __ _   _ _ __ ___ | |__ | |_ _ __ __ _(_) |`, "#f97316"},
	{` / __| '__| | | | '_ ' _ \| '_ \| __| '__/ _' | | |`, "#ef4444"},
	{`| (__| |  | |_| | | | | | | |_) | |_| | | (_| | | |`, "#e11d48"},
	{` \___|_|   \__,_|_| |_| |_|_.__/ \__|_|  \__,_|_|_|`, "#be123c"},
}

// PrintBanner writes the crumbtrail banner to w, colored when w is a terminal
// that supports it.
func PrintBanner(w io.Writer) {
	out := termenv.NewOutput(w)
	p := out.EnvColorProfile()

	fmt.Fprintln(w)
	for _, l := range bannerLines {
		fmt.Fprintln(w, out.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)
}
