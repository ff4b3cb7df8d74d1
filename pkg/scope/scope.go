// Package scope provides a fyne widget that plots the reported mean over
// time together with the actuation tier boundaries.
package scope

import (
	"image/color"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"

	"github.com/itohio/rtlab/pkg/actuate"
	"github.com/itohio/rtlab/pkg/report"
)

const (
	// DefaultWindow is the time span shown by the scope.
	DefaultWindow = 60 * time.Second
	// DefaultMaxPoints limits the retained and rendered points.
	DefaultMaxPoints = 1000
)

// ScopeWidget is a custom Fyne widget that displays the reported mean in an
// oscilloscope style.
type ScopeWidget struct {
	widget.BaseWidget

	window     time.Duration
	thresholds []float32

	// Data (protected by mu)
	mu      sync.RWMutex
	trace   *Trace
	display []Point

	// Auto-scaling
	yMin, yMax float32
	xMin, xMax time.Time

	maxDisplayPoints int
}

// New creates a new ScopeWidget. table may be nil when actuation is off.
func New(table *actuate.Table, window time.Duration) *ScopeWidget {
	if window <= 0 {
		window = DefaultWindow
	}

	s := &ScopeWidget{
		window:           window,
		trace:            NewTrace(window, DefaultMaxPoints),
		display:          make([]Point, 0, DefaultMaxPoints),
		maxDisplayPoints: DefaultMaxPoints,
	}
	s.thresholds = thresholdsOf(table)

	s.ExtendBaseWidget(s)
	s.updateAutoScale()
	s.Refresh()
	return s
}

// SetTable replaces the tier threshold lines, e.g. after the mapper settings
// changed. A nil table removes them.
func (s *ScopeWidget) SetTable(table *actuate.Table) {
	s.mu.Lock()
	s.thresholds = thresholdsOf(table)
	s.updateAutoScale()
	s.mu.Unlock()

	s.Refresh()
}

// Thresholds returns the threshold lines currently drawn.
func (s *ScopeWidget) Thresholds() []float32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]float32(nil), s.thresholds...)
}

func thresholdsOf(table *actuate.Table) []float32 {
	if table == nil {
		return nil
	}
	out := make([]float32, 0, len(table.Thresholds))
	for _, th := range table.Thresholds {
		out = append(out, float32(th))
	}
	return out
}

// Add appends one report to the trace.
// This should be called from the reporter callback using fyne.Do().
func (s *ScopeWidget) Add(rec report.Record) {
	s.mu.Lock()
	s.trace.Add(PointFrom(rec))
	s.display = Downsample(s.display, s.trace.Points(), s.maxDisplayPoints)
	s.updateAutoScale()
	s.mu.Unlock()

	// Refresh outside the lock; the renderer takes a read lock.
	s.Refresh()
}

// Reset clears the trace.
func (s *ScopeWidget) Reset() {
	s.mu.Lock()
	s.trace.Reset()
	s.display = s.display[:0]
	s.updateAutoScale()
	s.mu.Unlock()

	s.Refresh()
}

// updateAutoScale recalculates axis ranges. Caller holds mu.
func (s *ScopeWidget) updateAutoScale() {
	s.yMin, s.yMax = Bounds(s.display, s.thresholds)

	if len(s.display) == 0 {
		s.xMin = time.Now()
		s.xMax = s.xMin.Add(s.window)
		return
	}

	s.xMin = s.display[0].Time
	s.xMax = s.display[len(s.display)-1].Time
	if s.xMax.Sub(s.xMin) < s.window {
		s.xMax = s.xMin.Add(s.window)
	}
}

// CreateRenderer creates the widget renderer.
func (s *ScopeWidget) CreateRenderer() fyne.WidgetRenderer {
	grid := canvas.NewRectangle(color.RGBA{R: 20, G: 20, B: 20, A: 255}) // Dark background
	return &scopeRenderer{
		scope:   s,
		grid:    grid,
		objects: []fyne.CanvasObject{grid},
	}
}
