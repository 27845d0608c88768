package main

import (
	"io"

	"github.com/schollz/progressbar/v3"

	"chapterize/internal/library"
)

// progressRenderer draws one bar per file as transcription advances.
type progressRenderer struct {
	out     io.Writer
	current string
	bar     *progressbar.ProgressBar
}

func newProgressRenderer(out io.Writer) *progressRenderer {
	return &progressRenderer{out: out}
}

func (p *progressRenderer) update(file library.AudioFile, completed, total float64) {
	if p.current != file.Path {
		p.finish()
		p.current = file.Path
		max := int64(total)
		if max < 1 {
			max = 1
		}
		p.bar = progressbar.NewOptions64(max,
			progressbar.OptionSetDescription(file.Base),
			progressbar.OptionSetWriter(p.out),
			progressbar.OptionSetWidth(30),
			progressbar.OptionShowCount(),
			progressbar.OptionSetPredictTime(false),
			progressbar.OptionClearOnFinish(),
		)
	}
	if completed < 0 {
		completed = 0
	}
	if completed > total {
		completed = total
	}
	_ = p.bar.Set64(int64(completed))
}

func (p *progressRenderer) finish() {
	if p.bar != nil {
		_ = p.bar.Finish()
		p.bar = nil
	}
	p.current = ""
}
