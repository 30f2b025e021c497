package logging

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/gosuri/uilive"
	"github.com/mattn/go-isatty"

	"gridrl/internal/env"
)

// Interactive reports whether f is a terminal that can take live output.
func Interactive(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Progress redraws one status line per evaluation worker, plus a total line,
// at a fixed frequency.
type Progress struct {
	frequency time.Duration
	doneCh    chan struct{}
	stopOnce  sync.Once

	mu     sync.Mutex
	status []string
	done   int
	total  int

	writer  *uilive.Writer
	header  io.Writer
	workers []io.Writer
}

// NewProgress prepares a display for the given worker count, writing to out.
func NewProgress(out io.Writer, workers, total int, frequency time.Duration) *Progress {
	w := uilive.New()
	w.Out = out
	p := &Progress{
		frequency: frequency,
		doneCh:    make(chan struct{}),
		status:    make([]string, workers),
		total:     total,
		writer:    w,
		header:    w,
	}
	for i := 0; i < workers; i++ {
		p.status[i] = "idle"
		p.workers = append(p.workers, w.Newline())
	}
	return p
}

// Update records a finished episode. Its signature matches eval.EpisodeFunc.
func (p *Progress) Update(worker, done, total int, s env.EpisodeStats) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if worker < 0 || worker >= len(p.status) {
		return
	}
	p.done = max(p.done, done)
	p.total = total
	p.status[worker] = fmt.Sprintf("seed %d: %s in %d steps, reward %.3f (norm %.3f)",
		s.Seed, s.Outcome, s.Length, s.Reward, s.NormalizedReward)
}

// Start redraws until Stop is called or ctx is done.
func (p *Progress) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case <-p.doneCh:
				return
			case <-ctx.Done():
				return
			case <-time.After(p.frequency):
				p.print()
			}
		}
	}()
}

// Stop halts redrawing and draws the final state.
func (p *Progress) Stop() {
	p.stopOnce.Do(func() {
		close(p.doneCh)
		p.print()
	})
}

func (p *Progress) print() {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.header, "episodes %d/%d\n", p.done, p.total)
	for i, s := range p.status {
		fmt.Fprintf(p.workers[i], "  worker %d: %s\n", i, s)
	}
	p.writer.Flush()
}
