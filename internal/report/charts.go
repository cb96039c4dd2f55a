package report

import (
	"fmt"
	"image/color"
	"math"
	"os"
	"strings"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/ecochat-research/analysis/internal/config"
	"github.com/ecochat-research/analysis/internal/models"
)

// Charts renders PNG figures under the output manager's plots/ tree.
// All cosmetics come from the styling value given at construction; a
// Charts never reads package state, so two runs with different styles
// can render side by side.
type Charts struct {
	style *config.Styling
	out   *Output
}

// NewCharts binds a styling configuration to an output manager.
func NewCharts(style *config.Styling, out *Output) *Charts {
	return &Charts{style: style, out: out}
}

// ParseHexColor decodes a #RRGGBB string. Unparsable values fall back
// to the scientific blue used across the original figures.
func ParseHexColor(s string) color.Color {
	var r, g, b uint8
	if _, err := fmt.Sscanf(strings.TrimSpace(s), "#%02x%02x%02x", &r, &g, &b); err != nil {
		return color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff}
	}
	return color.RGBA{R: r, G: g, B: b, A: 0xff}
}

func (c *Charts) paletteColor(palette []string, i int) color.Color {
	if len(palette) == 0 {
		return ParseHexColor(c.style.Colors.Fallback)
	}
	return ParseHexColor(palette[i%len(palette)])
}

// ModeColor returns the palette color for the i-th mode in fixed order.
func (c *Charts) ModeColor(i int) color.Color {
	return c.paletteColor(c.style.Colors.Modes, i)
}

func (c *Charts) serif() bool {
	return strings.Contains(strings.ToLower(c.style.Font.Family), "serif")
}

// NewPlot returns an empty plot with the configured fonts applied.
func (c *Charts) NewPlot(title, xlabel, ylabel string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xlabel
	p.Y.Label.Text = ylabel

	s := c.style.Font.Sizes
	p.Title.TextStyle.Font.Size = vg.Points(s.Title)
	p.Title.Padding = vg.Points(s.Title / 2)
	p.X.Label.TextStyle.Font.Size = vg.Points(s.AxisLabel)
	p.Y.Label.TextStyle.Font.Size = vg.Points(s.AxisLabel)
	p.X.Tick.Label.Font.Size = vg.Points(s.TickLabel)
	p.Y.Tick.Label.Font.Size = vg.Points(s.TickLabel)
	p.Legend.TextStyle.Font.Size = vg.Points(s.Legend)
	if c.serif() {
		p.Title.TextStyle.Font.Variant = "Serif"
		p.X.Label.TextStyle.Font.Variant = "Serif"
		p.Y.Label.TextStyle.Font.Variant = "Serif"
		p.X.Tick.Label.Font.Variant = "Serif"
		p.Y.Tick.Label.Font.Variant = "Serif"
		p.Legend.TextStyle.Font.Variant = "Serif"
	}
	return p
}

// Save renders one plot to a PNG under plots/ and tracks the artifact.
func (c *Charts) Save(p *plot.Plot, size config.FigureSize, subpath, description string) error {
	return c.render([][]*plot.Plot{{p}}, size, subpath, description)
}

// SaveGrid renders a panel grid (row-major; nil panels stay blank) to a
// single PNG under plots/ and tracks the artifact.
func (c *Charts) SaveGrid(plots [][]*plot.Plot, size config.FigureSize, subpath, description string) error {
	return c.render(plots, size, subpath, description)
}

func (c *Charts) render(plots [][]*plot.Plot, size config.FigureSize, subpath, description string) error {
	rows := len(plots)
	if rows == 0 {
		return fmt.Errorf("no panels to render for %s", subpath)
	}
	cols := 0
	for _, row := range plots {
		if len(row) > cols {
			cols = len(row)
		}
	}

	w := vg.Length(size.Width) * vg.Inch
	h := vg.Length(size.Height) * vg.Inch
	img := vgimg.NewWith(
		vgimg.UseWH(w, h),
		vgimg.UseDPI(c.style.Output.DPI),
		vgimg.UseBackgroundColor(ParseHexColor(c.style.Output.Background)),
	)
	dc := draw.New(img)
	tiles := draw.Tiles{
		Rows: rows, Cols: cols,
		PadX: vg.Inch / 2, PadY: vg.Inch / 2,
		PadTop: vg.Inch / 4, PadBottom: vg.Inch / 4,
		PadLeft: vg.Inch / 4, PadRight: vg.Inch / 4,
	}
	canvases := plot.Align(plots, tiles, dc)
	for r := range plots {
		for col := range plots[r] {
			if plots[r][col] != nil {
				plots[r][col].Draw(canvases[r][col])
			}
		}
	}

	path, err := c.out.PlotPath(subpath)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", subpath, err)
	}
	defer f.Close()
	png := vgimg.PngCanvas{Canvas: img}
	if _, err := png.WriteTo(f); err != nil {
		return fmt.Errorf("failed to encode %s: %w", subpath, err)
	}
	c.out.Track(path, "plot", description)
	return nil
}

// BarsOptions adjusts a bar panel. ValueLabels, when set, must match the
// series length; otherwise ValueFormat (a fmt verb for the bar value)
// produces the labels, and an empty format suppresses them.
type BarsOptions struct {
	Horizontal  bool
	Colors      []string
	ValueFormat string
	ValueLabels []string
}

// Bars builds a bar panel from a labeled series. One bar chart is added
// per bar so each can carry its own palette color.
func (c *Charts) Bars(title, xlabel, ylabel string, s models.Series, opt BarsOptions) (*plot.Plot, error) {
	p := c.NewPlot(title, xlabel, ylabel)
	maxVal := 0.0
	for i, v := range s.Values {
		if math.IsNaN(v) {
			v = 0
		}
		if v > maxVal {
			maxVal = v
		}
		vals := make(plotter.Values, len(s.Values))
		vals[i] = v
		b, err := plotter.NewBarChart(vals, vg.Points(40))
		if err != nil {
			return nil, fmt.Errorf("bar chart %q: %w", title, err)
		}
		b.Color = c.paletteColor(opt.Colors, i)
		b.LineStyle.Width = 0
		b.Horizontal = opt.Horizontal
		p.Add(b)
	}
	if opt.Horizontal {
		p.NominalY(s.Labels...)
	} else {
		p.NominalX(s.Labels...)
	}

	labels := opt.ValueLabels
	if labels == nil && opt.ValueFormat != "" {
		labels = make([]string, len(s.Values))
		for i, v := range s.Values {
			labels[i] = fmt.Sprintf(opt.ValueFormat, v)
		}
	}
	if labels != nil {
		if err := c.addValueLabels(p, s.Values, labels, maxVal, opt.Horizontal); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (c *Charts) addValueLabels(p *plot.Plot, values []float64, labels []string, maxVal float64, horizontal bool) error {
	offset := maxVal * c.style.Output.BarValueLabelOffset / 100
	xys := make(plotter.XYs, len(values))
	for i, v := range values {
		if math.IsNaN(v) {
			v = 0
		}
		if horizontal {
			xys[i].X = v + offset
			xys[i].Y = float64(i)
		} else {
			xys[i].X = float64(i)
			xys[i].Y = v + offset
		}
	}
	l, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: labels})
	if err != nil {
		return fmt.Errorf("value labels: %w", err)
	}
	for i := range l.TextStyle {
		l.TextStyle[i].Font.Size = vg.Points(c.style.Font.Sizes.Value)
		if c.serif() {
			l.TextStyle[i].Font.Variant = "Serif"
		}
		if !horizontal {
			l.TextStyle[i].XAlign = draw.XCenter
		}
	}
	p.Add(l)
	return nil
}

// ScatterSeries is one named point cloud. Sizes, when set, scale each
// glyph radius (bubble charts).
type ScatterSeries struct {
	Name  string
	XYs   plotter.XYs
	Hex   string
	Sizes []float64
}

// ScatterOptions toggles the panel extras.
type ScatterOptions struct {
	Identity bool // dashed y=x reference
	Trend    bool // least-squares line over all points
}

// Scatter builds a multi-series scatter panel.
func (c *Charts) Scatter(title, xlabel, ylabel string, series []ScatterSeries, opt ScatterOptions) (*plot.Plot, error) {
	p := c.NewPlot(title, xlabel, ylabel)
	var all plotter.XYs
	for _, s := range series {
		s := s
		sc, err := plotter.NewScatter(s.XYs)
		if err != nil {
			return nil, fmt.Errorf("scatter %q: %w", title, err)
		}
		sc.GlyphStyle.Color = ParseHexColor(s.Hex)
		sc.GlyphStyle.Radius = vg.Points(6)
		sc.GlyphStyle.Shape = draw.CircleGlyph{}
		if s.Sizes != nil {
			base := sc.GlyphStyle
			sizes := s.Sizes
			sc.GlyphStyleFunc = func(i int) draw.GlyphStyle {
				g := base
				if i < len(sizes) && !math.IsNaN(sizes[i]) {
					g.Radius = vg.Points(4 + 10*sizes[i])
				}
				return g
			}
		}
		p.Add(sc)
		if s.Name != "" {
			p.Legend.Add(s.Name, sc)
		}
		all = append(all, s.XYs...)
	}
	if opt.Identity {
		if err := addIdentityLine(p, all); err != nil {
			return nil, err
		}
	}
	if opt.Trend {
		if err := addTrendLine(p, all); err != nil {
			return nil, err
		}
	}
	p.Legend.Top = true
	return p, nil
}

func addIdentityLine(p *plot.Plot, pts plotter.XYs) error {
	if len(pts) == 0 {
		return nil
	}
	lo, hi := pts[0].X, pts[0].X
	for _, pt := range pts {
		lo = math.Min(lo, math.Min(pt.X, pt.Y))
		hi = math.Max(hi, math.Max(pt.X, pt.Y))
	}
	l, err := plotter.NewLine(plotter.XYs{{X: lo, Y: lo}, {X: hi, Y: hi}})
	if err != nil {
		return fmt.Errorf("identity line: %w", err)
	}
	l.LineStyle.Color = color.Gray{Y: 0x60}
	l.LineStyle.Width = vg.Points(2)
	l.LineStyle.Dashes = []vg.Length{vg.Points(8), vg.Points(6)}
	p.Add(l)
	p.Legend.Add("y = x", l)
	return nil
}

func addTrendLine(p *plot.Plot, pts plotter.XYs) error {
	xs := make([]float64, 0, len(pts))
	ys := make([]float64, 0, len(pts))
	for _, pt := range pts {
		if math.IsNaN(pt.X) || math.IsNaN(pt.Y) {
			continue
		}
		xs = append(xs, pt.X)
		ys = append(ys, pt.Y)
	}
	if len(xs) < 2 {
		return nil
	}
	alpha, beta := stat.LinearRegression(xs, ys, nil, false)
	lo, hi := xs[0], xs[0]
	for _, x := range xs {
		lo = math.Min(lo, x)
		hi = math.Max(hi, x)
	}
	l, err := plotter.NewLine(plotter.XYs{
		{X: lo, Y: alpha + beta*lo},
		{X: hi, Y: alpha + beta*hi},
	})
	if err != nil {
		return fmt.Errorf("trend line: %w", err)
	}
	l.LineStyle.Color = color.RGBA{R: 0xdc, G: 0x14, B: 0x3c, A: 0xff}
	l.LineStyle.Width = vg.Points(2)
	l.LineStyle.Dashes = []vg.Length{vg.Points(10), vg.Points(6)}
	p.Add(l)
	return nil
}

// LineSeries is one named line over shared x positions.
type LineSeries struct {
	Name string
	XYs  plotter.XYs
	Hex  string
}

// Lines builds a multi-line panel.
func (c *Charts) Lines(title, xlabel, ylabel string, series []LineSeries) (*plot.Plot, error) {
	p := c.NewPlot(title, xlabel, ylabel)
	for _, s := range series {
		l, err := plotter.NewLine(s.XYs)
		if err != nil {
			return nil, fmt.Errorf("line %q: %w", title, err)
		}
		l.LineStyle.Color = ParseHexColor(s.Hex)
		l.LineStyle.Width = vg.Points(3)
		p.Add(l)
		if s.Name != "" {
			p.Legend.Add(s.Name, l)
		}
	}
	p.Legend.Top = true
	return p, nil
}

// Histogram builds a frequency panel over the defined values; NaN is
// skipped. An empty sample yields an empty panel rather than an error.
func (c *Charts) Histogram(title, xlabel string, vals []float64, bins int, hex string) (*plot.Plot, error) {
	p := c.NewPlot(title, xlabel, "Frequency")
	clean := make(plotter.Values, 0, len(vals))
	for _, v := range vals {
		if !math.IsNaN(v) {
			clean = append(clean, v)
		}
	}
	if len(clean) == 0 {
		return p, nil
	}
	h, err := plotter.NewHist(clean, bins)
	if err != nil {
		return nil, fmt.Errorf("histogram %q: %w", title, err)
	}
	h.FillColor = ParseHexColor(hex)
	p.Add(h)
	return p, nil
}

// Boxes builds one box plot per labeled group, NaN excluded. Groups
// without defined values render no box.
func (c *Charts) Boxes(title, ylabel string, labels []string, groups [][]float64, colors []string) (*plot.Plot, error) {
	p := c.NewPlot(title, "", ylabel)
	for i, vals := range groups {
		clean := make(plotter.Values, 0, len(vals))
		for _, v := range vals {
			if !math.IsNaN(v) {
				clean = append(clean, v)
			}
		}
		if len(clean) == 0 {
			continue
		}
		b, err := plotter.NewBoxPlot(vg.Points(60), float64(i), clean)
		if err != nil {
			return nil, fmt.Errorf("box plot %q: %w", title, err)
		}
		b.FillColor = c.paletteColor(colors, i)
		p.Add(b)
	}
	p.NominalX(labels...)
	return p, nil
}

// StackedOptions adjusts a stacked-bar panel. ShowPct labels every
// segment at or above the styling threshold with its percentage.
type StackedOptions struct {
	Horizontal bool
	Colors     []string
	ShowPct    bool
}

// Stacked builds a stacked-bar panel. cats name the axis positions;
// segs[k][i] is segment k's value at category i. Segment names feed the
// legend.
func (c *Charts) Stacked(title, xlabel, ylabel string, cats, segNames []string, segs [][]float64, opt StackedOptions) (*plot.Plot, error) {
	p := c.NewPlot(title, xlabel, ylabel)
	var prev *plotter.BarChart
	for k, seg := range segs {
		vals := make(plotter.Values, len(cats))
		for i := range cats {
			if i < len(seg) && !math.IsNaN(seg[i]) {
				vals[i] = seg[i]
			}
		}
		b, err := plotter.NewBarChart(vals, vg.Points(40))
		if err != nil {
			return nil, fmt.Errorf("stacked bars %q: %w", title, err)
		}
		b.Color = c.paletteColor(opt.Colors, k)
		b.LineStyle.Width = 0
		b.Horizontal = opt.Horizontal
		if prev != nil {
			b.StackOn(prev)
		}
		p.Add(b)
		if k < len(segNames) {
			p.Legend.Add(segNames[k], b)
		}
		prev = b
	}
	if opt.Horizontal {
		p.NominalY(cats...)
	} else {
		p.NominalX(cats...)
	}
	if opt.ShowPct {
		if err := c.addSegmentLabels(p, segs, opt.Horizontal); err != nil {
			return nil, err
		}
	}
	p.Legend.Top = true
	return p, nil
}

func (c *Charts) addSegmentLabels(p *plot.Plot, segs [][]float64, horizontal bool) error {
	minPct := c.style.Output.StackedLabelMinPct
	var xys plotter.XYs
	var labels []string
	cats := 0
	for _, seg := range segs {
		if len(seg) > cats {
			cats = len(seg)
		}
	}
	for i := 0; i < cats; i++ {
		cum := 0.0
		for _, seg := range segs {
			v := 0.0
			if i < len(seg) && !math.IsNaN(seg[i]) {
				v = seg[i]
			}
			mid := cum + v/2
			cum += v
			if v < minPct {
				continue
			}
			pt := plotter.XY{X: float64(i), Y: mid}
			if horizontal {
				pt = plotter.XY{X: mid, Y: float64(i)}
			}
			xys = append(xys, pt)
			labels = append(labels, fmt.Sprintf("%.1f%%", v))
		}
	}
	if len(labels) == 0 {
		return nil
	}
	l, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: labels})
	if err != nil {
		return fmt.Errorf("segment labels: %w", err)
	}
	for i := range l.TextStyle {
		l.TextStyle[i].Font.Size = vg.Points(c.style.Font.Sizes.Value)
		l.TextStyle[i].Color = color.White
		l.TextStyle[i].XAlign = draw.XCenter
		l.TextStyle[i].YAlign = draw.YCenter
	}
	p.Add(l)
	return nil
}

// Grouped builds a grouped-bar panel: one bar per segment side by side
// within each category.
func (c *Charts) Grouped(title, xlabel, ylabel string, cats, segNames []string, segs [][]float64, colors []string) (*plot.Plot, error) {
	p := c.NewPlot(title, xlabel, ylabel)
	w := vg.Points(25)
	n := len(segs)
	for k, seg := range segs {
		vals := make(plotter.Values, len(cats))
		for i := range cats {
			if i < len(seg) && !math.IsNaN(seg[i]) {
				vals[i] = seg[i]
			}
		}
		b, err := plotter.NewBarChart(vals, w)
		if err != nil {
			return nil, fmt.Errorf("grouped bars %q: %w", title, err)
		}
		b.Color = c.paletteColor(colors, k)
		b.LineStyle.Width = 0
		b.Offset = w * vg.Length(float64(k)-float64(n-1)/2)
		p.Add(b)
		if k < len(segNames) {
			p.Legend.Add(segNames[k], b)
		}
	}
	p.NominalX(cats...)
	p.Legend.Top = true
	return p, nil
}

type corrGrid struct {
	names  []string
	matrix [][]float64
}

func (g corrGrid) Dims() (int, int)    { return len(g.names), len(g.names) }
func (g corrGrid) X(c int) float64     { return float64(c) }
func (g corrGrid) Y(r int) float64     { return float64(r) }
func (g corrGrid) Z(c, r int) float64 {
	v := g.matrix[r][c]
	if math.IsNaN(v) {
		return 0
	}
	return v
}

// Heatmap builds a correlation heat map on the moreland diverging
// palette fixed to [-1, 1], with the coefficient printed in each cell.
func (c *Charts) Heatmap(title string, names []string, matrix [][]float64) (*plot.Plot, error) {
	p := c.NewPlot(title, "", "")
	cm := moreland.SmoothBlueRed()
	cm.SetMin(-1)
	cm.SetMax(1)
	h := plotter.NewHeatMap(corrGrid{names: names, matrix: matrix}, cm.Palette(256))
	h.Min, h.Max = -1, 1
	p.Add(h)
	p.NominalX(names...)
	p.NominalY(names...)

	var xys plotter.XYs
	var labels []string
	for r := range matrix {
		for col := range matrix[r] {
			if math.IsNaN(matrix[r][col]) {
				continue
			}
			xys = append(xys, plotter.XY{X: float64(col), Y: float64(r)})
			labels = append(labels, fmt.Sprintf("%.2f", matrix[r][col]))
		}
	}
	if len(labels) > 0 {
		l, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: labels})
		if err != nil {
			return nil, fmt.Errorf("heat map labels: %w", err)
		}
		for i := range l.TextStyle {
			l.TextStyle[i].Font.Size = vg.Points(c.style.Font.Sizes.Value)
			l.TextStyle[i].XAlign = draw.XCenter
			l.TextStyle[i].YAlign = draw.YCenter
		}
		p.Add(l)
	}
	return p, nil
}
