package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/schollz/progressbar/v3"

	"image_to_pdf/internal/converter"
)

// progressBar renders converter progress percentages on a terminal.
type progressBar struct {
	bar     *progressbar.ProgressBar
	started time.Time
}

func newProgressBar(w io.Writer, description string) *progressBar {
	bar := progressbar.NewOptions(100,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "│",
			BarEnd:        "│",
		}),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(w, "\n")
		}),
		progressbar.OptionSetRenderBlankState(true),
	)
	return &progressBar{bar: bar, started: time.Now()}
}

// Set moves the bar to percent and updates the status text. It matches converter.ProgressFunc.
func (p *progressBar) Set(percent int) {
	status := converter.StatusMessage(percent)
	if remaining, ok := converter.EstimateRemaining(time.Since(p.started), percent); ok {
		status += " " + converter.FormatRemaining(remaining, percent)
	}
	p.bar.Describe(status)
	_ = p.bar.Set(percent)
}

// Finish completes the bar.
func (p *progressBar) Finish() {
	_ = p.bar.Finish()
}
