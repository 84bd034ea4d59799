package framefit

import (
	"github.com/chewxy/math32"

	"gallery-engine/config"
	"gallery-engine/math"
)

// Fit is the resolved size of one framed artwork, centred on the frame's
// origin with the image facing +Z.
type Fit struct {
	// FrameScale stretches the native frame asset to the outer size.
	FrameScale  math.Vec3
	OuterWidth  float32
	OuterHeight float32
	Depth       float32
	ImageWidth  float32
	ImageHeight float32
	// ImageZ is the image plane's offset along the depth axis.
	ImageZ float32
}

// HalfDepth is the distance from the frame centre to its back.
func (f Fit) HalfDepth() float32 {
	return f.Depth / 2
}

// SanitizeAspect replaces unusable aspect ratios with 1 and clamps the rest
// to the configured range.
func SanitizeAspect(aspect float32, cfg config.FrameConfig) float32 {
	if !math.Finite(aspect) || aspect <= 0 {
		return 1
	}
	return math.Clamp(aspect, cfg.MinAspect, cfg.MaxAspect)
}

// AnchorFrameSize sizes a frame from the artwork alone: the art is
// ArtTargetH tall, the border surrounds it, and the outer width is clamped.
// A clamped width shrinks or grows the art at its own aspect ratio.
func AnchorFrameSize(aspect float32, meta Metadata, cfg config.FrameConfig) Fit {
	aspect = SanitizeAspect(aspect, cfg)
	border := cfg.Border

	artH := cfg.ArtTargetH
	artW := artH * aspect
	outerW := artW + 2*border
	outerH := artH + 2*border

	if clamped := math.Clamp(outerW, cfg.MinOuterW, cfg.MaxOuterW); clamped != outerW {
		outerW = clamped
		artW = outerW - 2*border
		artH = artW / aspect
		outerH = artH + 2*border
	}

	fit := Fit{
		OuterWidth:  outerW,
		OuterHeight: outerH,
		Depth:       cfg.AnchorDepth,
		ImageWidth:  math32.Max(artW, cfg.MinDimension),
		ImageHeight: math32.Max(artH, cfg.MinDimension),
	}
	fit.FrameScale = scaleTo(meta, fit.OuterWidth, fit.OuterHeight, fit.Depth)
	fit.ImageZ = imageZ(fit.Depth, cfg)
	return fit
}

// WallFit stretches the frame to the fixed wall envelope and contain-fits
// the image inside the scaled opening, inset so its edges stay under the lip.
func WallFit(aspect float32, meta Metadata, opening Opening, cfg config.FrameConfig) Fit {
	aspect = SanitizeAspect(aspect, cfg)

	fit := Fit{
		OuterWidth:  cfg.WallWidth,
		OuterHeight: cfg.WallHeight,
		Depth:       cfg.WallDepth,
	}
	fit.FrameScale = scaleTo(meta, fit.OuterWidth, fit.OuterHeight, fit.Depth)

	openW := math32.Max(opening.Width*fit.FrameScale.X, cfg.MinDimension)
	openH := math32.Max(opening.Height*fit.FrameScale.Y, cfg.MinDimension)

	if aspect > openW/openH {
		fit.ImageWidth = openW * cfg.ImageInset
		fit.ImageHeight = fit.ImageWidth / aspect
	} else {
		fit.ImageHeight = openH * cfg.ImageInset
		fit.ImageWidth = fit.ImageHeight * aspect
	}
	fit.ImageWidth = math32.Max(fit.ImageWidth, cfg.MinDimension)
	fit.ImageHeight = math32.Max(fit.ImageHeight, cfg.MinDimension)
	fit.ImageZ = imageZ(fit.Depth, cfg)
	return fit
}

func scaleTo(meta Metadata, w, h, d float32) math.Vec3 {
	return math.Vec3{
		X: w / math32.Max(meta.NativeWidth, 1e-6),
		Y: h / math32.Max(meta.NativeHeight, 1e-6),
		Z: d / math32.Max(meta.NativeDepth, 1e-6),
	}
}

// imageZ recesses the image behind the frame front, never past its back.
func imageZ(depth float32, cfg config.FrameConfig) float32 {
	half := depth / 2
	return math.Clamp(half-cfg.Recess, -half, half)
}
