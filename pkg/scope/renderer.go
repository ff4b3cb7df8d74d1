package scope

import (
	"image/color"
	"strconv"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"github.com/chewxy/math32"
)

var (
	gridColor      = color.RGBA{R: 40, G: 40, B: 40, A: 255}
	labelColor     = color.RGBA{R: 150, G: 150, B: 150, A: 255}
	meanColor      = color.RGBA{R: 255, G: 165, B: 0, A: 255}   // Orange
	thresholdColor = color.RGBA{R: 0, G: 100, B: 200, A: 255}   // Dark blue
	statusColor    = color.RGBA{R: 200, G: 200, B: 200, A: 255} // Light gray
)

// scopeRenderer renders the scope widget.
type scopeRenderer struct {
	scope *ScopeWidget

	// Background
	grid *canvas.Rectangle

	// Objects list for Fyne
	objects []fyne.CanvasObject

	// Track last size to detect changes
	lastSize fyne.Size
}

// plotArea is the rectangle inside the axis margins.
type plotArea struct {
	x, y, w, h float32
	yMin, yMax float32
	xMin, xMax time.Time
}

func (a plotArea) xOf(t time.Time) float32 {
	span := a.xMax.Sub(a.xMin).Seconds()
	if span <= 0 {
		return a.x
	}
	return a.x + float32(t.Sub(a.xMin).Seconds()/span)*a.w
}

func (a plotArea) yOf(v float32) float32 {
	return a.y + a.h - (v-a.yMin)/(a.yMax-a.yMin)*a.h
}

// MinSize returns the minimum size of the widget.
func (r *scopeRenderer) MinSize() fyne.Size {
	return fyne.NewSize(400, 300)
}

// Layout arranges the widget components.
func (r *scopeRenderer) Layout(size fyne.Size) {
	r.grid.Resize(size)

	if r.lastSize != size {
		r.lastSize = size
		r.scope.BaseWidget.Refresh()
	}
}

// Refresh rebuilds the canvas objects from the current trace.
func (r *scopeRenderer) Refresh() {
	r.scope.mu.RLock()
	points := make([]Point, len(r.scope.display))
	copy(points, r.scope.display)
	area := plotArea{
		yMin: r.scope.yMin,
		yMax: r.scope.yMax,
		xMin: r.scope.xMin,
		xMax: r.scope.xMax,
	}
	thresholds := r.scope.thresholds
	r.scope.mu.RUnlock()

	size := r.scope.Size()
	if size.Width == 0 || size.Height == 0 {
		return
	}

	r.objects = []fyne.CanvasObject{r.grid}

	const (
		marginLeft   = 60
		marginRight  = 20
		marginTop    = 20
		marginBottom = 40
	)
	area.x = marginLeft
	area.y = marginTop
	area.w = size.Width - marginLeft - marginRight
	area.h = size.Height - marginTop - marginBottom

	r.drawGrid(area)
	r.drawThresholds(area, thresholds)
	r.drawMean(area, points)
	if last := len(points) - 1; last >= 0 {
		r.drawStatus(area, points[last])
	}
}

// drawGrid draws the oscilloscope-style grid.
func (r *scopeRenderer) drawGrid(a plotArea) {
	const numHLines = 8
	for i := range numHLines + 1 {
		y := a.y + float32(i)*a.h/numHLines
		r.addLine(gridColor, 1, fyne.NewPos(a.x, y), fyne.NewPos(a.x+a.w, y))

		value := a.yMax - float32(i)*(a.yMax-a.yMin)/numHLines
		r.addText(formatValue(value), labelColor, 10, fyne.TextAlignTrailing, fyne.NewPos(a.x-5, y-6))
	}

	const numVLines = 10
	span := a.xMax.Sub(a.xMin)
	for i := range numVLines + 1 {
		x := a.x + float32(i)*a.w/numVLines
		r.addLine(gridColor, 1, fyne.NewPos(x, a.y), fyne.NewPos(x, a.y+a.h))

		offset := span * time.Duration(i) / numVLines
		r.addText(formatTime(offset), labelColor, 10, fyne.TextAlignCenter, fyne.NewPos(x-20, a.y+a.h+5))
	}
}

// drawThresholds draws one horizontal line per tier boundary.
func (r *scopeRenderer) drawThresholds(a plotArea, thresholds []float32) {
	for _, th := range thresholds {
		y := a.yOf(th)
		if y < a.y || y > a.y+a.h {
			continue
		}
		r.addLine(thresholdColor, 1, fyne.NewPos(a.x, y), fyne.NewPos(a.x+a.w, y))
	}
}

// drawMean draws the reported mean curve.
func (r *scopeRenderer) drawMean(a plotArea, points []Point) {
	for i := 1; i < len(points); i++ {
		p0 := fyne.NewPos(a.xOf(points[i-1].Time), a.yOf(points[i-1].Mean))
		p1 := fyne.NewPos(a.xOf(points[i].Time), a.yOf(points[i].Mean))
		r.addLine(meanColor, 1.5, p0, p1)
	}
}

// drawStatus prints the latest mean, tier and duty in the top-left corner.
func (r *scopeRenderer) drawStatus(a plotArea, last Point) {
	r.addText(formatStatus(last), statusColor, 11, fyne.TextAlignLeading, fyne.NewPos(a.x+10, a.y+10))
}

func (r *scopeRenderer) addLine(c color.Color, width float32, p1, p2 fyne.Position) {
	line := canvas.NewLine(c)
	line.Position1 = p1
	line.Position2 = p2
	line.StrokeWidth = width
	r.objects = append(r.objects, line)
}

func (r *scopeRenderer) addText(s string, c color.Color, size float32, align fyne.TextAlign, pos fyne.Position) {
	text := canvas.NewText(s, c)
	text.TextSize = size
	text.Alignment = align
	text.Move(pos)
	r.objects = append(r.objects, text)
}

// Objects returns all canvas objects for rendering.
func (r *scopeRenderer) Objects() []fyne.CanvasObject {
	return r.objects
}

// Destroy cleans up resources.
func (r *scopeRenderer) Destroy() {}

func formatValue(v float32) string {
	if math32.Abs(v) >= 100 {
		return strconv.FormatFloat(float64(math32.Round(v)), 'f', 0, 32)
	}
	return strconv.FormatFloat(float64(v), 'f', 1, 32)
}

func formatTime(d time.Duration) string {
	if d < time.Second {
		return strconv.FormatFloat(d.Seconds(), 'f', 2, 64) + "s"
	}
	return strconv.FormatFloat(d.Seconds(), 'f', 1, 64) + "s"
}

func formatStatus(p Point) string {
	s := "mean " + formatValue(p.Mean)
	if p.Actuated {
		s += "  tier " + strconv.Itoa(p.Tier) +
			"  duty " + strconv.FormatFloat(float64(math32.Round(p.Duty*1000)/10), 'f', 1, 32) + "%"
	}
	return s
}
