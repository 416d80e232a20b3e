package main

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// dumpWaveform renders the given interleaved-stereo float32 samples (as
// drained from Core.DrainAudio) to a PNG at path, one line per channel. It
// is wired to the --waveform-dump flag for debugging APU channel output
// without an audio device.
func dumpWaveform(path string, samples []float32) error {
	frames := len(samples) / 2
	if frames == 0 {
		return fmt.Errorf("waveform: no samples to plot")
	}

	left := make(plotter.XYs, frames)
	right := make(plotter.XYs, frames)
	for i := 0; i < frames; i++ {
		left[i].X = float64(i)
		left[i].Y = float64(samples[i*2])
		right[i].X = float64(i)
		right[i].Y = float64(samples[i*2+1])
	}

	p := plot.New()
	p.Title.Text = "audio output"
	p.X.Label.Text = "sample"
	p.Y.Label.Text = "amplitude"

	leftLine, err := plotter.NewLine(left)
	if err != nil {
		return err
	}
	leftLine.Color = plotter.DefaultLineStyle.Color

	rightLine, err := plotter.NewLine(right)
	if err != nil {
		return err
	}

	p.Add(leftLine, rightLine)
	p.Legend.Add("left", leftLine)
	p.Legend.Add("right", rightLine)

	return p.Save(8*vg.Inch, 3*vg.Inch, path)
}
