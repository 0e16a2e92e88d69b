package ui

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/mattn/go-isatty"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"github.com/felixaihub/snailer-dist/internal/installer/download"
)

// ProgressManager renders the progress of a single archive install.
// On a terminal the download is drawn as a bar; otherwise each stage is a line.
type ProgressManager struct {
	mu        sync.Mutex
	w         io.Writer
	isTTY     bool
	style     *Style
	progress  *mpb.Progress
	bar       *mpb.Bar
	name      string
	lastStage string
}

// NewProgressManager creates a new progress manager drawing to w.
// The bar is only used when w itself is a terminal.
func NewProgressManager(w io.Writer) *ProgressManager {
	isTTY := isTerminal(w)

	pm := &ProgressManager{
		w:     w,
		isTTY: isTTY,
		style: NewStyle(),
	}

	if isTTY {
		pm.progress = mpb.New(mpb.WithOutput(w), mpb.WithWidth(40))
	}

	return pm
}

// isTerminal reports whether w is backed by a terminal file descriptor.
func isTerminal(w io.Writer) bool {
	f, ok := w.(interface{ Fd() uintptr })
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Context attaches the progress and stage callbacks for the named archive to ctx.
func (pm *ProgressManager) Context(ctx context.Context, name string) context.Context {
	pm.mu.Lock()
	pm.name = name
	pm.mu.Unlock()

	ctx = download.WithCallback(ctx, pm.Progress())
	return download.WithCallback(ctx, pm.Stage())
}

// Progress returns a callback that feeds download byte counts to the bar.
func (pm *ProgressManager) Progress() download.ProgressCallback {
	return func(downloaded, total int64) {
		if !pm.isTTY {
			return
		}

		pm.mu.Lock()
		bar := pm.ensureBar()
		pm.mu.Unlock()

		if total > 0 {
			bar.SetTotal(total, false)
		}
		bar.SetCurrent(downloaded)
	}
}

// Stage returns a callback that reports installer steps.
func (pm *ProgressManager) Stage() download.StageCallback {
	return func(stage string) {
		pm.mu.Lock()
		defer pm.mu.Unlock()

		if stage == pm.lastStage {
			return
		}
		pm.lastStage = stage

		if pm.isTTY {
			return
		}
		fmt.Fprintf(pm.w, "  %s %s %s\n", pm.style.Step.Sprint("→"), stage, pm.style.Path.Sprint(pm.name))
	}
}

// Complete marks the download bar as finished.
func (pm *ProgressManager) Complete() {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	if pm.bar != nil {
		pm.bar.SetTotal(-1, true)
		return
	}
	if !pm.isTTY && pm.lastStage != "" {
		fmt.Fprintf(pm.w, "  %s %s\n", pm.style.SuccessMark, pm.name)
	}
}

// Abort removes the bar after a failure.
func (pm *ProgressManager) Abort() {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	if pm.bar != nil {
		pm.bar.Abort(true)
		return
	}
	if !pm.isTTY && pm.lastStage != "" {
		fmt.Fprintf(pm.w, "  %s %s failed during %s\n", pm.style.FailMark, pm.name, pm.lastStage)
	}
}

// Wait waits for all progress to complete.
func (pm *ProgressManager) Wait() {
	if pm.progress != nil {
		pm.progress.Wait()
	}
}

// ensureBar lazily adds the download bar. Caller must hold pm.mu.
func (pm *ProgressManager) ensureBar() *mpb.Bar {
	if pm.bar != nil {
		return pm.bar
	}

	pm.bar = pm.progress.AddBar(0,
		mpb.BarFillerClearOnComplete(),
		mpb.PrependDecorators(
			decor.Name(fmt.Sprintf("  %s %s ", pm.style.Step.Sprint("↓"), pm.style.Path.Sprint(pm.name)),
				decor.WC{W: 30, C: decor.DindentRight}),
		),
		mpb.AppendDecorators(
			decor.CountersKibiByte("% .1f / % .1f"),
			decor.OnComplete(decor.Name(""), " done"),
		),
	)
	return pm.bar
}
