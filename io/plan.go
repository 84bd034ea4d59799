package io

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"os"

	"github.com/HugoSmits86/nativewebp"
	"github.com/chewxy/math32"
	"golang.org/x/image/draw"

	"gallery-engine/core"
	"gallery-engine/exhibit"
	"gallery-engine/math"
)

var ErrEmptyPlan = errors.New("plan: room has no floor extent")

// maxPlanSide caps either image dimension; the scale shrinks to fit.
const maxPlanSide = 4096

// PlanOptions styles the floor plan. X maps to the image's horizontal axis
// and Z to its vertical axis, so -Z is up.
type PlanOptions struct {
	PixelsPerMeter float32
	Margin         int
	// FacingLength is the length of the tick showing where a frame faces.
	FacingLength float32

	Background core.Color
	Floor      core.Color
	Wall       core.Color
	Frame      core.Color
	Facing     core.Color
}

func DefaultPlanOptions() PlanOptions {
	return PlanOptions{
		PixelsPerMeter: 20,
		Margin:         16,
		FacingLength:   0.4,
		Background:     core.Color{R: 0.12, G: 0.12, B: 0.13, A: 1},
		Floor:          core.Color{R: 0.85, G: 0.83, B: 0.78, A: 1},
		Wall:           core.Color{R: 0.3, G: 0.3, B: 0.32, A: 1},
		Frame:          core.Color{R: 0.7, G: 0.45, B: 0.1, A: 1},
		Facing:         core.Color{R: 0.8, G: 0.1, B: 0.1, A: 1},
	}
}

type plan struct {
	img    *image.RGBA
	ppm    float32
	minX   float32
	minZ   float32
	margin int
}

func (p *plan) pixel(v math.Vec3) (int, int) {
	x := int(math32.Floor((v.X-p.minX)*p.ppm)) + p.margin
	y := int(math32.Floor((v.Z-p.minZ)*p.ppm)) + p.margin
	return x, y
}

// RenderPlan draws the room footprint, every frame as a segment of its outer
// width and a tick in the direction it faces.
func RenderPlan(ex *exhibit.Exhibit, opts PlanOptions) (*image.RGBA, error) {
	if ex.Room == nil || ex.Room.Bounds.IsEmpty() {
		return nil, ErrEmptyPlan
	}
	b := ex.Room.Bounds
	sizeX, sizeZ := b.Max.X-b.Min.X, b.Max.Z-b.Min.Z
	if sizeX <= 0 || sizeZ <= 0 {
		return nil, ErrEmptyPlan
	}

	ppm := opts.PixelsPerMeter
	if ppm <= 0 {
		ppm = DefaultPlanOptions().PixelsPerMeter
	}
	if longest := math32.Max(sizeX, sizeZ) * ppm; longest > maxPlanSide {
		ppm *= maxPlanSide / longest
	}
	margin := max(opts.Margin, 0)

	p := &plan{ppm: ppm, minX: b.Min.X, minZ: b.Min.Z, margin: margin}
	w := int(math32.Ceil(sizeX*ppm)) + 2*margin
	h := int(math32.Ceil(sizeZ*ppm)) + 2*margin
	p.img = image.NewRGBA(image.Rect(0, 0, w, h))

	draw.Draw(p.img, p.img.Bounds(), image.NewUniform(toRGBA(opts.Background)), image.Point{}, draw.Src)

	x0, y0 := p.pixel(b.Min)
	x1, y1 := p.pixel(b.Max)
	floor := image.Rect(x0, y0, x1+1, y1+1)
	draw.Draw(p.img, floor, image.NewUniform(toRGBA(opts.Floor)), image.Point{}, draw.Src)
	p.outline(floor, toRGBA(opts.Wall))

	frame, facing := toRGBA(opts.Frame), toRGBA(opts.Facing)
	for _, it := range ex.Items {
		pos := it.Placement.Position
		rot := it.Placement.Rotation
		half := flatten(rot.RotateVector(math.Vec3Right)).Mul(it.Fit.OuterWidth / 2)
		front := flatten(rot.RotateVector(math.Vec3Front)).Mul(opts.FacingLength)

		p.line(pos.Sub(half), pos.Add(half), frame)
		p.line(pos, pos.Add(front), facing)
	}
	return p.img, nil
}

// ExportPlan renders the floor plan and writes it as a lossless WebP file.
func ExportPlan(path string, ex *exhibit.Exhibit, opts PlanOptions) error {
	img, err := RenderPlan(ex, opts)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create plan %q: %w", path, err)
	}
	if err := nativewebp.Encode(f, img, nil); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode plan %q: %w", path, err)
	}
	return f.Close()
}

// flatten projects v onto the XZ plane and renormalizes it.
func flatten(v math.Vec3) math.Vec3 {
	v.Y = 0
	return v.Normalize()
}

func (p *plan) outline(r image.Rectangle, c color.RGBA) {
	for x := r.Min.X; x < r.Max.X; x++ {
		p.stamp(x, r.Min.Y, c)
		p.stamp(x, r.Max.Y-1, c)
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		p.stamp(r.Min.X, y, c)
		p.stamp(r.Max.X-1, y, c)
	}
}

// line walks the longer axis one pixel at a time.
func (p *plan) line(a, b math.Vec3, c color.RGBA) {
	ax, ay := p.pixel(a)
	bx, by := p.pixel(b)
	dx, dy := bx-ax, by-ay
	steps := max(absInt(dx), absInt(dy))
	if steps == 0 {
		p.stamp(ax, ay, c)
		return
	}
	for i := 0; i <= steps; i++ {
		x := ax + dx*i/steps
		y := ay + dy*i/steps
		p.stamp(x, y, c)
	}
}

// stamp paints a 3x3 pixel block centred on (x, y).
func (p *plan) stamp(x, y int, c color.RGBA) {
	for oy := -1; oy <= 1; oy++ {
		for ox := -1; ox <= 1; ox++ {
			pt := image.Pt(x+ox, y+oy)
			if pt.In(p.img.Rect) {
				p.img.SetRGBA(pt.X, pt.Y, c)
			}
		}
	}
}

func toRGBA(c core.Color) color.RGBA {
	ch := colorRGBA(c)
	return color.RGBA{R: ch[0], G: ch[1], B: ch[2], A: ch[3]}
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
