package export

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"sync"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"github.com/hypervision/hypervision/pkg/models"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
)

const (
	// Rendered nodes without measured dimensions use the canvas defaults.
	defaultNodeWidth  = 200.0
	defaultNodeHeight = 100.0

	defaultNodeColor = "#64748B"
	noteColor        = "#FEF3C7"
	edgeColor        = "#94A3B8"
	fontSize         = 12.0
	minFontPixels    = 1.0
	arrowSize        = 8.0

	// MaxRasterSide caps either image dimension in pixels; the scale is
	// lowered to fit.
	MaxRasterSide = 8192
	// MaxFlowExtent is the widest span of nodes, in canvas units, that can be drawn.
	MaxFlowExtent = 1_000_000.0
)

var monoFont = sync.OnceValues(func() (*truetype.Font, error) {
	return truetype.Parse(gomono.TTF)
})

// RasterOptions controls how a flow is drawn.
type RasterOptions struct {
	// Scale multiplies canvas units into pixels.
	Scale float64
	// Padding is added around the bounds of all nodes, in canvas units.
	Padding float64
	// Background fills the image before drawing.
	Background color.Color
}

// DefaultRasterOptions matches the resolution used for PDF export.
var DefaultRasterOptions = RasterOptions{Scale: 2, Padding: 40, Background: color.White}

type bounds struct {
	minX, minY, maxX, maxY float64
}

// Rasterize draws the whole flow, fitted to the bounds of its nodes.
func Rasterize(f *models.Flow, opts RasterOptions) (image.Image, error) {
	if len(f.Nodes) == 0 {
		return nil, ErrEmptyFlow
	}

	if opts.Scale <= 0 {
		opts.Scale = DefaultRasterOptions.Scale
	}

	if opts.Background == nil {
		opts.Background = color.White
	}

	b := flowBounds(f, opts.Padding)
	if err := b.check(); err != nil {
		return nil, err
	}

	opts.Scale = b.fit(opts.Scale, MaxRasterSide, MaxRasterSide)
	width := min(MaxRasterSide, max(1, int(math.Ceil(b.width()*opts.Scale))))
	height := min(MaxRasterSide, max(1, int(math.Ceil(b.height()*opts.Scale))))

	ttf, err := monoFont()
	if err != nil {
		return nil, fmt.Errorf("failed to parse font: %w", err)
	}

	dc := gg.NewContext(width, height)
	dc.SetColor(opts.Background)
	dc.Clear()

	dc.SetFontFace(truetype.NewFace(ttf, &truetype.Options{
		Size:    math.Max(fontSize*opts.Scale, minFontPixels),
		DPI:     72,
		Hinting: font.HintingFull,
	}))

	// Canvas units from here on.
	dc.Scale(opts.Scale, opts.Scale)
	dc.Translate(-b.minX, -b.minY)

	// Edges first so they appear behind nodes.
	for _, edge := range f.Edges {
		source, target := f.NodeByID(edge.Source), f.NodeByID(edge.Target)
		if source == nil || target == nil {
			continue
		}

		drawEdge(dc, source, target)
	}

	for _, node := range f.Nodes {
		drawNode(dc, ttf, node, f.ViewMode, opts.Scale)
	}

	return dc.Image(), nil
}

func nodeSize(n *models.Node) (float64, float64) {
	width, height := defaultNodeWidth, defaultNodeHeight
	if n.Width != nil && *n.Width > 0 {
		width = *n.Width
	}

	if n.Height != nil && *n.Height > 0 {
		height = *n.Height
	}

	return width, height
}

func flowBounds(f *models.Flow, padding float64) bounds {
	b := bounds{minX: math.Inf(1), minY: math.Inf(1), maxX: math.Inf(-1), maxY: math.Inf(-1)}

	for _, node := range f.Nodes {
		width, height := nodeSize(node)
		b.minX = math.Min(b.minX, node.Position.X)
		b.minY = math.Min(b.minY, node.Position.Y)
		b.maxX = math.Max(b.maxX, node.Position.X+width)
		b.maxY = math.Max(b.maxY, node.Position.Y+height)
	}

	b.minX -= padding
	b.minY -= padding
	b.maxX += padding
	b.maxY += padding

	return b
}

func (b bounds) width() float64  { return b.maxX - b.minX }
func (b bounds) height() float64 { return b.maxY - b.minY }

// check rejects flows whose nodes are spread too far apart to draw.
func (b bounds) check() error {
	w, h := b.width(), b.height()
	if math.IsNaN(w) || math.IsNaN(h) || w > MaxFlowExtent || h > MaxFlowExtent {
		return fmt.Errorf("%w: nodes span %.0f x %.0f canvas units", ErrFlowTooLarge, w, h)
	}

	return nil
}

// fit lowers scale until the bounds fit in maxWidth x maxHeight pixels.
// Non-positive limits are ignored.
func (b bounds) fit(scale float64, maxWidth, maxHeight int) float64 {
	if maxWidth > 0 && b.width() > 0 {
		scale = math.Min(scale, float64(maxWidth)/b.width())
	}

	if maxHeight > 0 && b.height() > 0 {
		scale = math.Min(scale, float64(maxHeight)/b.height())
	}

	return scale
}

func drawEdge(dc *gg.Context, source, target *models.Node) {
	sw, sh := nodeSize(source)
	tw, _ := nodeSize(target)

	fromX, fromY := source.Position.X+sw/2, source.Position.Y+sh
	toX, toY := target.Position.X+tw/2, target.Position.Y

	dc.SetHexColor(edgeColor)
	dc.SetLineWidth(2)
	dc.DrawLine(fromX, fromY, toX, toY)
	dc.Stroke()

	drawArrow(dc, fromX, fromY, toX, toY)
}

func drawArrow(dc *gg.Context, fromX, fromY, toX, toY float64) {
	dx, dy := toX-fromX, toY-fromY

	length := math.Hypot(dx, dy)
	if length < 0.1 {
		return
	}

	dx /= length
	dy /= length

	const spread = 0.5

	dc.MoveTo(toX, toY)
	dc.LineTo(toX-arrowSize*dx+arrowSize*dy*spread, toY-arrowSize*dy-arrowSize*dx*spread)
	dc.LineTo(toX-arrowSize*dx-arrowSize*dy*spread, toY-arrowSize*dy+arrowSize*dx*spread)
	dc.ClosePath()
	dc.Fill()
}

func drawNode(dc *gg.Context, ttf *truetype.Font, n *models.Node, mode models.ViewMode, scale float64) {
	width, height := nodeSize(n)
	x, y := n.Position.X, n.Position.Y
	fill, textColor := nodeColors(n)

	dc.SetHexColor(fill)

	switch n.Type {
	case models.NodeTypeCondition:
		dc.MoveTo(x+width/2, y)
		dc.LineTo(x+width, y+height/2)
		dc.LineTo(x+width/2, y+height)
		dc.LineTo(x, y+height/2)
		dc.ClosePath()
	case models.NodeTypeStart, models.NodeTypeEndStatus:
		dc.DrawRoundedRectangle(x, y, width, height, height/2)
	default:
		dc.DrawRoundedRectangle(x, y, width, height, 8)
	}

	dc.Fill()

	lines := []string{captionWithIcon(ttf, n)}
	if detail := techDetail(n); mode == models.ViewModeTech && detail != "" {
		lines = append(lines, detail)
	}

	dc.SetColor(textColor)

	lineHeight := fontSize * 1.4
	top := y + height/2 - lineHeight*float64(len(lines)-1)/2

	for i, line := range lines {
		drawLabel(dc, fitText(dc, line, (width-16)*scale), x+width/2, top+float64(i)*lineHeight)
	}
}

// drawLabel centres text on a point given in canvas units. Glyphs are already
// sized in pixels, so the text is drawn without the canvas transform.
func drawLabel(dc *gg.Context, text string, cx, cy float64) {
	px, py := dc.TransformPoint(cx, cy)

	dc.Push()
	dc.Identity()
	dc.DrawStringAnchored(text, px, py, 0.5, 0.5)
	dc.Pop()
}

func nodeColors(n *models.Node) (string, color.Color) {
	if n.Type == models.NodeTypeNote {
		return noteColor, color.Black
	}

	fill := defaultNodeColor

	switch data := n.Data.(type) {
	case *models.ModuleData:
		fill = orDefault(data.Color, fill)
	case *models.APIModuleData:
		fill = orDefault(data.Color, fill)
	case *models.ConditionData:
		fill = orDefault(data.Color, fill)
	case *models.EndStatusData:
		fill = orDefault(data.Color, fill)
	case *models.StartData:
		fill = orDefault(data.Color, fill)
	}

	return fill, color.White
}

func captionWithIcon(ttf *truetype.Font, n *models.Node) string {
	icon := ""

	switch data := n.Data.(type) {
	case *models.ModuleData:
		icon = data.Icon
	case *models.APIModuleData:
		icon = data.Icon
	case *models.ConditionData:
		icon = data.Icon
	}

	// Icons without a glyph in the face would render as boxes.
	for _, r := range icon {
		if ttf.Index(r) == 0 {
			return n.Label()
		}
	}

	if icon == "" {
		return n.Label()
	}

	return icon + " " + n.Label()
}

// techDetail is the technical metadata shown in tech view.
func techDetail(n *models.Node) string {
	switch data := n.Data.(type) {
	case *models.ModuleData:
		return data.ModuleType
	case *models.APIModuleData:
		return data.Endpoint
	case *models.ConditionData:
		return data.Condition
	case *models.EndStatusData:
		return string(data.Status)
	default:
		return ""
	}
}

// fitText truncates text to maxWidth pixels.
func fitText(dc *gg.Context, text string, maxWidth float64) string {
	if w, _ := dc.MeasureString(text); w <= maxWidth {
		return text
	}

	runes := []rune(text)
	for len(runes) > 0 {
		runes = runes[:len(runes)-1]

		candidate := string(runes) + "…"
		if w, _ := dc.MeasureString(candidate); w <= maxWidth {
			return candidate
		}
	}

	return ""
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}

	return value
}
