package main

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"ffloom/internal/pipeline"
	"ffloom/internal/progress"
)

const (
	progressPoll  = 250 * time.Millisecond
	progressScale = 1000
)

// progressView renders a job's progress state on a terminal.
type progressView struct {
	bar  *progressbar.ProgressBar
	done chan struct{}
	wg   sync.WaitGroup
}

func (c *commandContext) startProgress(cmd *cobra.Command, label string, job pipeline.Job) *progressView {
	w := cmd.ErrOrStderr()
	if c.quiet() || !shouldColorize(w) {
		return &progressView{}
	}

	bar := progressbar.NewOptions64(progressScale,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(label),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "▐",
			BarEnd:        "▌",
		}),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetRenderBlankState(true),
	)
	view := &progressView{bar: bar, done: make(chan struct{})}
	view.wg.Add(1)
	go func() {
		defer view.wg.Done()
		ticker := time.NewTicker(progressPoll)
		defer ticker.Stop()
		for {
			select {
			case <-view.done:
				return
			case <-ticker.C:
				snap := job.Progress.Snapshot()
				_ = bar.Set64(int64(snap.Percent / 100 * progressScale))
				bar.Describe(describeProgress(label, snap))
			}
		}
	}()
	return view
}

func (v *progressView) stop(finished bool) {
	if v == nil || v.bar == nil {
		return
	}
	close(v.done)
	v.wg.Wait()
	if finished {
		_ = v.bar.Finish()
		return
	}
	_ = v.bar.Clear()
}

// describeProgress renders the text shown next to the bar.
func describeProgress(label string, snap progress.Snapshot) string {
	text := fmt.Sprintf("%s %5.1f%%", label, snap.Percent)
	if snap.BytesPerSecond > 0 {
		text += " " + humanize.IBytes(uint64(snap.BytesPerSecond)) + "/s"
	}
	if snap.SpeedFactor > 0 {
		text += fmt.Sprintf(" %.2fx", snap.SpeedFactor)
	}
	if snap.ETA > 0 {
		text += " eta " + snap.ETA.Round(time.Second).String()
	}
	return text
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
