package scope

import (
	"time"

	"github.com/chewxy/math32"

	"github.com/itohio/rtlab/pkg/report"
)

// Point is one reported mean on the scope.
type Point struct {
	Time     time.Time
	Mean     float32
	Tier     int
	Duty     float32
	Actuated bool
}

// PointFrom converts a report record into a Point.
func PointFrom(rec report.Record) Point {
	p := Point{
		Time:     rec.Time,
		Mean:     float32(rec.Aggregate.Value()),
		Actuated: rec.Actuated,
	}
	if rec.Actuated {
		p.Tier = rec.Actuation.Tier
		p.Duty = rec.Actuation.Fraction
	}
	return p
}

// Trace keeps the points reported within a time window, oldest first.
type Trace struct {
	window    time.Duration
	maxPoints int
	points    []Point
}

// NewTrace creates a Trace. A zero window keeps points by count only.
func NewTrace(window time.Duration, maxPoints int) *Trace {
	if maxPoints <= 0 {
		maxPoints = DefaultMaxPoints
	}
	return &Trace{
		window:    window,
		maxPoints: maxPoints,
		points:    make([]Point, 0, maxPoints),
	}
}

// Add appends p and evicts points older than the window or beyond capacity.
func (t *Trace) Add(p Point) {
	t.points = append(t.points, p)

	drop := 0
	if t.window > 0 {
		cutoff := p.Time.Add(-t.window)
		for drop < len(t.points)-1 && t.points[drop].Time.Before(cutoff) {
			drop++
		}
	}
	if over := len(t.points) - drop - t.maxPoints; over > 0 {
		drop += over
	}
	if drop > 0 {
		n := copy(t.points, t.points[drop:])
		t.points = t.points[:n]
	}
}

// Points returns the retained points. The slice is owned by the Trace.
func (t *Trace) Points() []Point {
	return t.points
}

// Last returns the newest point.
func (t *Trace) Last() (Point, bool) {
	if len(t.points) == 0 {
		return Point{}, false
	}
	return t.points[len(t.points)-1], true
}

// Reset drops all points.
func (t *Trace) Reset() {
	t.points = t.points[:0]
}

// Bounds returns a Y range covering the points and the threshold lines with
// a 10% margin.
func Bounds(points []Point, thresholds []float32) (yMin, yMax float32) {
	yMin, yMax = math32.Inf(1), math32.Inf(-1)
	for _, p := range points {
		yMin = math32.Min(yMin, p.Mean)
		yMax = math32.Max(yMax, p.Mean)
	}
	for _, th := range thresholds {
		yMin = math32.Min(yMin, th)
		yMax = math32.Max(yMax, th)
	}

	if math32.IsInf(yMin, 1) {
		return 0, 1
	}

	span := yMax - yMin
	if span == 0 {
		span = math32.Max(math32.Abs(yMax), 1)
	}
	margin := span * 0.1
	return yMin - margin, yMax + margin
}
