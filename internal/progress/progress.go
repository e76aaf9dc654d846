// Package progress draws progress bars and spinners on a terminal. Both are
// silent unless their writer is a terminal.
package progress

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
)

// DisableEnv turns all progress output off when set to 1.
const DisableEnv = "SHEETSIGHT_NO_PROGRESS"

const clearLine = "\r\033[K"

var frames = []rune("⠋⠙⠹⠸⠼⠴⠦⠧⠇⠏")

// Interactive reports whether progress should be drawn on w.
func Interactive(w io.Writer) bool {
	if os.Getenv(DisableEnv) == "1" {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Bar counts finished steps out of a known total.
type Bar struct {
	Total   int
	Current int
	Label   string
	Width   int
	Enabled bool

	out   io.Writer
	start time.Time
	mu    sync.Mutex
}

// New creates a bar for total steps drawing on out.
func New(out io.Writer, label string, total int) *Bar {
	return &Bar{
		Total:   total,
		Label:   label,
		Width:   30,
		Enabled: Interactive(out),
		out:     out,
		start:   time.Now(),
	}
}

// Increment marks one more step done and redraws with status.
func (b *Bar) Increment(status string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.Current < b.Total {
		b.Current++
	}
	if !b.Enabled {
		return
	}
	filled, pct := 0, 100
	if b.Total > 0 {
		filled = b.Current * b.Width / b.Total
		pct = b.Current * 100 / b.Total
	}
	fmt.Fprintf(b.out, "%s%s [%s%s] %d/%d %3d%%  %s", clearLine, b.Label,
		strings.Repeat("#", filled), strings.Repeat(".", b.Width-filled),
		b.Current, b.Total, pct, status)
}

// Finish replaces the bar with summary and the elapsed time.
func (b *Bar) Finish(summary string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.Enabled {
		fmt.Fprintf(b.out, "%s✓ %s (%s)\n", clearLine, summary, time.Since(b.start).Round(time.Millisecond))
	}
}

// Spinner animates a label while a call of unknown length runs.
type Spinner struct {
	Enabled bool

	out   io.Writer
	mu    sync.Mutex
	label string
	stop  chan struct{}
	done  chan struct{}
}

// NewSpinner creates a stopped spinner drawing on out.
func NewSpinner(out io.Writer, label string) *Spinner {
	return &Spinner{Enabled: Interactive(out), out: out, label: label}
}

// Start begins the animation. Calling Start on a running spinner is a no-op.
func (s *Spinner) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.Enabled || s.stop != nil {
		return
	}
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	go s.spin(s.stop, s.done)
}

func (s *Spinner) spin(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(80 * time.Millisecond)
	defer ticker.Stop()

	for i := 0; ; i++ {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.mu.Lock()
			fmt.Fprintf(s.out, "%s%c %s", clearLine, frames[i%len(frames)], s.label)
			s.mu.Unlock()
		}
	}
}

// Stop ends the animation and waits for it to exit. A non-empty result is
// printed as a completion line; otherwise the line is cleared.
func (s *Spinner) Stop(result string) {
	s.mu.Lock()
	stop, done := s.stop, s.done
	s.stop, s.done = nil, nil
	s.mu.Unlock()

	if stop == nil {
		return
	}
	close(stop)
	<-done

	s.mu.Lock()
	defer s.mu.Unlock()
	if result == "" {
		fmt.Fprint(s.out, clearLine)
		return
	}
	fmt.Fprintf(s.out, "%s✓ %s\n", clearLine, result)
}

// Update changes the label of a running spinner.
func (s *Spinner) Update(label string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.label = label
}
