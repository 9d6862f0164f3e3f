// Package svg draws the dashboard's sales-vs-target chart as standalone SVG.
package svg

import (
	"errors"
	"fmt"
	"html/template"
	"math"
	"strings"
)

// Defaults for the trend chart.
const (
	DefaultWidth   = 720
	DefaultHeight  = 260
	DefaultPadding = 32.0
	DefaultTicks   = 5
)

// ErrNoPoints is returned when there is nothing to draw.
var ErrNoPoints = errors.New("svg: no points")

// Point is one period of the chart.
type Point struct {
	Label  string
	Sales  float64
	Target float64
}

// Options customises the rendering. Zero values fall back to defaults.
type Options struct {
	Width       int
	Height      int
	Padding     float64
	Ticks       int
	Title       string
	Description string
	SalesColor  string
	TargetColor string
	AxisColor   string
	GridColor   string
}

func (o Options) withDefaults() Options {
	if o.Width <= 0 {
		o.Width = DefaultWidth
	}
	if o.Height <= 0 {
		o.Height = DefaultHeight
	}
	if o.Padding <= 0 {
		o.Padding = DefaultPadding
	}
	if o.Ticks <= 0 {
		o.Ticks = DefaultTicks
	}
	o.Title = orDefault(o.Title, "Sales vs Target")
	o.Description = orDefault(o.Description, "Sales per period against the effective target")
	o.SalesColor = orDefault(o.SalesColor, "#0ea5e9")
	o.TargetColor = orDefault(o.TargetColor, "#f97316")
	o.AxisColor = orDefault(o.AxisColor, "#475569")
	o.GridColor = orDefault(o.GridColor, "#cbd5e1")
	return o
}

// plot maps values onto the drawing area.
type plot struct {
	left, top, width, height float64
	max                      float64
}

func (p plot) y(v float64) float64 {
	if v < 0 {
		v = 0
	}
	return p.top + p.height - v/p.max*p.height
}

func (p plot) bottom() float64 { return p.top + p.height }

// Trend renders sales as bars with the target as a line across the same
// periods.
func Trend(points []Point, opts Options) (template.HTML, error) {
	if len(points) == 0 {
		return "", ErrNoPoints
	}
	opts = opts.withDefaults()
	p := plot{
		left:   opts.Padding,
		top:    opts.Padding,
		width:  float64(opts.Width) - 2*opts.Padding,
		height: float64(opts.Height) - 2*opts.Padding,
	}
	if p.width <= 0 || p.height <= 0 {
		return "", fmt.Errorf("svg: viewport %dx%d too small", opts.Width, opts.Height)
	}
	for _, pt := range points {
		p.max = math.Max(p.max, math.Max(pt.Sales, pt.Target))
	}
	if p.max <= 0 {
		p.max = 1
	}

	id := slug(opts.Title)
	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %d %d" role="img" aria-labelledby="%s-title %s-desc">`,
		opts.Width, opts.Height, id, id)
	fmt.Fprintf(&b, `<title id="%s-title">%s</title>`, id, template.HTMLEscapeString(opts.Title))
	fmt.Fprintf(&b, `<desc id="%s-desc">%s</desc>`, id, template.HTMLEscapeString(opts.Description))

	for i := 0; i <= opts.Ticks; i++ {
		v := p.max * float64(i) / float64(opts.Ticks)
		y := p.y(v)
		fmt.Fprintf(&b, `<line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke="%s" stroke-width="0.5" stroke-dasharray="2,4" aria-hidden="true"></line>`,
			p.left, y, p.left+p.width, y, opts.GridColor)
		fmt.Fprintf(&b, `<text x="%.2f" y="%.2f" fill="%s" font-size="10" text-anchor="end">%s</text>`,
			p.left-6, y+4, opts.AxisColor, compact(v))
	}
	fmt.Fprintf(&b, `<line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke="%s"></line>`,
		p.left, p.bottom(), p.left+p.width, p.bottom(), opts.AxisColor)

	slot := p.width / float64(len(points))
	barWidth := slot * 0.6
	line := make([]string, 0, len(points))
	for i, pt := range points {
		x := p.left + float64(i)*slot
		center := x + slot/2
		top := p.y(pt.Sales)
		fmt.Fprintf(&b, `<rect x="%.2f" y="%.2f" width="%.2f" height="%.2f" fill="%s"><title>%s: %s</title></rect>`,
			center-barWidth/2, top, barWidth, p.bottom()-top, opts.SalesColor,
			template.HTMLEscapeString(pt.Label), compact(pt.Sales))
		fmt.Fprintf(&b, `<text x="%.2f" y="%.2f" fill="%s" font-size="10" text-anchor="middle">%s</text>`,
			center, p.bottom()+14, opts.AxisColor, template.HTMLEscapeString(pt.Label))
		line = append(line, fmt.Sprintf("%.2f,%.2f", center, p.y(pt.Target)))
	}
	fmt.Fprintf(&b, `<polyline points="%s" fill="none" stroke="%s" stroke-width="2" stroke-linejoin="round"></polyline>`,
		strings.Join(line, " "), opts.TargetColor)

	legendY := math.Max(p.top-12, 12)
	fmt.Fprintf(&b, `<rect x="%.2f" y="%.2f" width="10" height="10" fill="%s"></rect>`, p.left, legendY-8, opts.SalesColor)
	fmt.Fprintf(&b, `<text x="%.2f" y="%.2f" fill="%s" font-size="10">Sales</text>`, p.left+14, legendY, opts.AxisColor)
	fmt.Fprintf(&b, `<rect x="%.2f" y="%.2f" width="10" height="10" fill="%s"></rect>`, p.left+70, legendY-8, opts.TargetColor)
	fmt.Fprintf(&b, `<text x="%.2f" y="%.2f" fill="%s" font-size="10">Target</text>`, p.left+84, legendY, opts.AxisColor)

	b.WriteString("</svg>")
	return template.HTML(b.String()), nil
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

func slug(s string) string {
	out := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		}
		return '-'
	}, strings.ToLower(strings.TrimSpace(s)))
	out = strings.Trim(out, "-")
	if out == "" {
		return "chart"
	}
	return out
}

// compact prints axis values as 1.2k, 3.4M and so on.
func compact(v float64) string {
	abs := math.Abs(v)
	switch {
	case abs >= 1e9:
		return fmt.Sprintf("%.1fB", v/1e9)
	case abs >= 1e6:
		return fmt.Sprintf("%.1fM", v/1e6)
	case abs >= 1e3:
		return fmt.Sprintf("%.1fk", v/1e3)
	case v == math.Trunc(v):
		return fmt.Sprintf("%.0f", v)
	}
	return fmt.Sprintf("%.2f", v)
}
