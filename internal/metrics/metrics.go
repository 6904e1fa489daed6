// Package metrics observes conserved and diagnostic quantities of a
// running simulation and renders their histories as terminal charts.
package metrics

import (
	"github.com/guptarohit/asciigraph"
	"voxelsim/internal/body"
)

// Observer samples one scalar quantity from the body store.
type Observer interface {
	Name() string
	Observe(s *body.Store, t float64)
	// Value returns the most recent sample.
	Value() float64
	// History returns all samples since the last reset.
	History() []float64
	Reset()
}

// Recorder drives a set of observers once per frame.
type Recorder struct {
	observers []Observer
}

// NewRecorder builds a recorder over the given observers.
func NewRecorder(observers ...Observer) *Recorder {
	return &Recorder{observers: observers}
}

// Sample lets every observer record the current state.
func (r *Recorder) Sample(s *body.Store, t float64) {
	for _, o := range r.observers {
		o.Observe(s, t)
	}
}

// Observers returns the recorder's observers in registration order.
func (r *Recorder) Observers() []Observer { return r.observers }

// Reset clears all histories.
func (r *Recorder) Reset() {
	for _, o := range r.observers {
		o.Reset()
	}
}

// Chart renders an observer's history as an ASCII plot.
func Chart(o Observer, height, width int) string {
	return ChartSeries(o.Name(), o.History(), height, width)
}

// ChartSeries renders a captioned sample series, such as one reloaded from
// a saved run, as an ASCII plot.
func ChartSeries(name string, samples []float64, height, width int) string {
	if len(samples) < 2 {
		return ""
	}
	return asciigraph.Plot(samples,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(name))
}

// series is the shared sample buffer behind the concrete observers.
type series struct {
	name    string
	samples []float64
}

func (s *series) Name() string { return s.name }

func (s *series) Value() float64 {
	if len(s.samples) == 0 {
		return 0
	}
	return s.samples[len(s.samples)-1]
}

func (s *series) History() []float64 { return s.samples }

func (s *series) Reset() { s.samples = s.samples[:0] }

func (s *series) record(v float64) { s.samples = append(s.samples, v) }
