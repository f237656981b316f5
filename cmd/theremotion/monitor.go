package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/cwbudde/theremotion/ui"
)

const monitorInterval = 100 * time.Millisecond

// runMonitor owns m and prints its status until ctx is done: a single
// rewritten line on a terminal, one line per second otherwise.
func runMonitor(ctx context.Context, m *ui.Model, w io.Writer) {
	fd := -1
	if f, ok := w.(*os.File); ok {
		fd = int(f.Fd())
	}
	tty := fd >= 0 && term.IsTerminal(fd)
	interval := monitorInterval
	if !tty {
		interval = time.Second
	}
	tick := time.NewTicker(interval)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			if tty {
				fmt.Fprintln(w)
			}
			return
		case <-tick.C:
		}
		m.Refresh()
		v, ok := m.View()
		if !ok {
			continue
		}
		if !tty {
			fmt.Fprintln(w, statusLine(v, 0))
			continue
		}
		width, _, err := term.GetSize(fd)
		if err != nil {
			width = 80
		}
		fmt.Fprintf(w, "\r\033[K%s", statusLine(v, width))
	}
}

// statusLine condenses the view into one line cut to width runes; width 0
// does not cut.
func statusLine(v ui.View, width int) string {
	parts := []string{
		fmt.Sprintf("%s %.2f", v.NoteName, v.Note),
		fmt.Sprintf("%.1fdB", v.Volume),
	}
	if v.Mute {
		parts = append(parts, "mute")
	}
	chord := make([]string, 0, len(v.Voices))
	for _, voice := range v.Voices {
		name := voice.Name
		if voice.Plucked {
			name += "*"
		}
		chord = append(chord, name)
	}
	if len(chord) > 0 {
		parts = append(parts, "["+strings.Join(chord, " ")+"]")
	}
	switch {
	case v.Error != "":
		parts = append(parts, "error: "+v.Error)
	case v.Warning != "":
		parts = append(parts, v.Warning)
	}
	line := strings.Join(parts, " | ")
	if r := []rune(line); width > 0 && len(r) > width {
		line = string(r[:width])
	}
	return line
}
