package console

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/bubbles/progress"
)

// Progress draws a single-line progress bar that is redrawn in place.
type Progress struct {
	mu    sync.Mutex
	w     io.Writer
	label string
	bar   progress.Model
}

// NewProgress returns a bar labelled label writing to w.
func NewProgress(w io.Writer, label string) *Progress {
	return &Progress{
		w:     w,
		label: label,
		bar:   progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
	}
}

// Update redraws the bar; it matches the evaluation.Pipeline progress callback.
func (p *Progress) Update(done, total int) {
	if total <= 0 {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.w, "\r%s %s %d/%d", p.label, p.bar.ViewAs(float64(done)/float64(total)), done, total)
	if done >= total {
		fmt.Fprintln(p.w)
	}
}
