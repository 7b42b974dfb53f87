package ghostpath

import (
	"image"
	"image/color"
	"io"
	"math"

	"github.com/cj123/ini"
	"github.com/fogleman/gg"

	"justapengu.in/ghostrace/internal/race"
)

func init() {
	ini.PrettyEqual = false
	ini.PrettyFormat = false
}

// TrackMapRenderer draws a ghost path, and optionally a second path to compare it with, as a top down PNG.
type TrackMapRenderer struct {
	ghost, compare race.GhostPath
	finish         *race.FinishLine

	offsetX, offsetZ float64
	bounds           image.Rectangle
}

func NewTrackMapRenderer(ghost, compare race.GhostPath, finish *race.FinishLine) *TrackMapRenderer {
	return &TrackMapRenderer{
		ghost:   ghost,
		compare: compare,
		finish:  finish,
	}
}

var (
	ghostPathColor       = color.White
	ghostPathBorderColor = color.RGBA{R: 40, G: 40, B: 40, A: 255}
	comparePathColor     = color.RGBA{R: 242, G: 203, B: 10, A: 255}
	startPointColor      = color.RGBA{R: 10, G: 242, B: 87, A: 255}
	finishLineColor      = color.RGBA{R: 203, G: 10, B: 242, A: 255}
)

const (
	padding    = 40
	pathWidth  = 8
	pointSize  = 6
	finishSize = 3
)

func (t *TrackMapRenderer) point(frame race.RecordedFrame) (float64, float64) {
	return frame.X + t.offsetX + padding, frame.Z + t.offsetZ + padding
}

func (t *TrackMapRenderer) drawPath(ctx *gg.Context, path race.GhostPath, width float64, pathColor color.Color) {
	if len(path) == 0 {
		return
	}

	ctx.Push()
	for _, frame := range path {
		ctx.LineTo(t.point(frame))
	}
	ctx.SetColor(ghostPathBorderColor)
	ctx.SetLineWidth(width + 4)
	ctx.StrokePreserve()
	ctx.SetColor(pathColor)
	ctx.SetLineWidth(width)
	ctx.Stroke()
	ctx.Pop()
}

func (t *TrackMapRenderer) drawStartAndFinish(ctx *gg.Context) {
	if len(t.ghost) > 0 {
		x, y := t.point(t.ghost[0])

		ctx.Push()
		ctx.DrawCircle(x, y, pointSize)
		ctx.SetColor(startPointColor)
		ctx.Fill()
		ctx.Pop()
	}

	if t.finish == nil {
		return
	}

	x, y := t.point(race.RecordedFrame{X: t.finish.X, Z: t.finish.Z})

	ctx.Push()
	ctx.DrawCircle(x, y, t.finish.Tolerance)
	ctx.SetColor(finishLineColor)
	ctx.SetLineWidth(finishSize)
	ctx.Stroke()
	ctx.Pop()
}

func (t *TrackMapRenderer) Render(w io.Writer) (*TrackMapData, error) {
	t.bounds, t.offsetX, t.offsetZ = t.Rect()
	img := image.NewRGBA(t.bounds)
	ctx := gg.NewContextForRGBA(img)

	t.drawPath(ctx, t.ghost, pathWidth, ghostPathColor)
	t.drawPath(ctx, t.compare, pathWidth/2, comparePathColor)
	t.drawStartAndFinish(ctx)

	data := &TrackMapData{
		Width:       float64(t.bounds.Dx()),
		Height:      float64(t.bounds.Dy()),
		Margin:      padding,
		ScaleFactor: 1,
		OffsetX:     t.offsetX,
		OffsetZ:     t.offsetZ,
		Frames:      len(t.ghost),
		Length:      math.Round(Length(t.ghost)),
	}

	return data, ctx.EncodePNG(w)
}

// Rect is the image size needed to fit every path and the finish line, plus the offsets that move the smallest
// coordinates onto the padding.
func (t *TrackMapRenderer) Rect() (rect image.Rectangle, offsetX, offsetZ float64) {
	minX, minZ, maxX, maxZ := Bounds(t.ghost)

	if len(t.compare) > 0 {
		compareMinX, compareMinZ, compareMaxX, compareMaxZ := Bounds(t.compare)

		if len(t.ghost) == 0 {
			minX, minZ, maxX, maxZ = compareMinX, compareMinZ, compareMaxX, compareMaxZ
		} else {
			minX, minZ = math.Min(minX, compareMinX), math.Min(minZ, compareMinZ)
			maxX, maxZ = math.Max(maxX, compareMaxX), math.Max(maxZ, compareMaxZ)
		}
	}

	if t.finish != nil {
		minX = math.Min(minX, t.finish.X-t.finish.Tolerance)
		minZ = math.Min(minZ, t.finish.Z-t.finish.Tolerance)
		maxX = math.Max(maxX, t.finish.X+t.finish.Tolerance)
		maxZ = math.Max(maxZ, t.finish.Z+t.finish.Tolerance)
	}

	offsetX, offsetZ = -minX, -minZ

	width := int(math.Ceil(maxX-minX)) + padding*2
	height := int(math.Ceil(maxZ-minZ)) + padding*2

	return image.Rect(0, 0, width, height), offsetX, offsetZ
}

type TrackMapData struct {
	Width       float64 `ini:"WIDTH" json:"width"`
	Height      float64 `ini:"HEIGHT" json:"height"`
	Margin      float64 `ini:"MARGIN" json:"margin"`
	ScaleFactor float64 `ini:"SCALE_FACTOR" json:"scale_factor"`
	OffsetX     float64 `ini:"X_OFFSET" json:"offset_x"`
	OffsetZ     float64 `ini:"Z_OFFSET" json:"offset_z"`
	Frames      int     `ini:"FRAMES" json:"frames"`
	Length      float64 `ini:"LENGTH" json:"length"`
}

func (tmd *TrackMapData) Save(path string) error {
	i := ini.Empty()

	sec, err := i.NewSection("PARAMETERS")

	if err != nil {
		return err
	}

	if err := sec.ReflectFrom(tmd); err != nil {
		return err
	}

	return i.SaveTo(path)
}
