package ui

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/mattn/go-isatty"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

// ProgressManager reports archive download progress: a live bar on a
// TTY, a single status line otherwise.
type ProgressManager struct {
	mu       sync.Mutex
	w        io.Writer
	isTTY    bool
	progress *mpb.Progress
	bars     map[string]*mpb.Bar
}

// NewProgressManager creates a progress manager writing to w.
func NewProgressManager(w io.Writer) *ProgressManager {
	isTTY := isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())

	pm := &ProgressManager{
		w:     w,
		isTTY: isTTY,
		bars:  make(map[string]*mpb.Bar),
	}
	if isTTY {
		pm.progress = mpb.New(mpb.WithOutput(w), mpb.WithWidth(40))
	}
	return pm
}

// Wait blocks until all in-flight bars have finished rendering.
func (pm *ProgressManager) Wait() {
	if pm.progress != nil {
		pm.progress.Wait()
	}
}

// StartDownload begins tracking a download for the given tool/version,
// keyed by name so SetProgress/Complete/Fail can reference it later.
func (pm *ProgressManager) StartDownload(name, label string) {
	style := NewStyle()

	pm.mu.Lock()
	defer pm.mu.Unlock()

	if pm.isTTY {
		pm.bars[name] = pm.progress.AddBar(0,
			mpb.BarFillerClearOnComplete(),
			mpb.PrependDecorators(
				decor.Name(fmt.Sprintf("  %s %s ", style.SuccessMark, style.Path.Sprint(label)), decor.WC{W: 30, C: decor.DindentRight}),
			),
			mpb.AppendDecorators(
				decor.CountersKibiByte("% .1f / % .1f"),
				decor.OnComplete(decor.Name(""), " done"),
			),
		)
	} else {
		fmt.Fprintf(pm.w, "  %s downloading %s\n", style.SuccessMark, label)
	}
}

// SetProgress updates a download's current/total byte counts.
func (pm *ProgressManager) SetProgress(name string, current, total int64) {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	bar, ok := pm.bars[name]
	if !ok {
		return
	}
	if total > 0 {
		bar.SetTotal(total, false)
	}
	bar.SetCurrent(current)
}

// Complete marks a download as finished.
func (pm *ProgressManager) Complete(name string) {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	if bar, ok := pm.bars[name]; ok {
		bar.SetTotal(bar.Current(), true)
		delete(pm.bars, name)
	}
}

// Fail aborts a download's bar and prints the failure.
func (pm *ProgressManager) Fail(name string, err error) {
	style := NewStyle()

	pm.mu.Lock()
	defer pm.mu.Unlock()

	if bar, ok := pm.bars[name]; ok {
		bar.Abort(true)
		delete(pm.bars, name)
	}
	fmt.Fprintf(pm.w, "  %s %s failed: %v\n", style.FailMark, name, err)
}

// ProgressFunc is a callback signature for downloaded/total byte counts.
// Distro downloads report through ProgressManager instead.
type ProgressFunc func(downloaded, total int64)
