package cli

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/ppiankov/srtctl/internal/task"
)

const barWidth = 30

// progressPrinter draws a single-line progress bar from orchestrator updates.
type progressPrinter struct {
	mu   sync.Mutex
	out  io.Writer
	last string
}

func newProgressPrinter(out io.Writer) *progressPrinter {
	return &progressPrinter{out: out}
}

// Observe implements task.Observer.
func (p *progressPrinter) Observe(u task.Update) {
	p.mu.Lock()
	defer p.mu.Unlock()

	label := u.State.String()
	if u.Status != "" && u.State == task.Polling {
		label = string(u.Status)
	}
	filled := u.Progress * barWidth / 100
	line := fmt.Sprintf("  [%s%s] %3d%% %s",
		strings.Repeat("█", filled), strings.Repeat("░", barWidth-filled), u.Progress, label)
	if line == p.last {
		return
	}
	p.last = line
	fmt.Fprintf(p.out, "\r%-60s", line)
}

// Done ends the progress line.
func (p *progressPrinter) Done() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.last != "" {
		fmt.Fprintln(p.out)
		p.last = ""
	}
}
