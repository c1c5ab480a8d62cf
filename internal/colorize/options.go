package colorize

import (
	"fmt"
	"runtime"
)

// WhitePoint selects how normalized XYZ is scaled by the reference white.
type WhitePoint int

const (
	// WhitePointD65 multiplies by the D65 tristimulus values.
	WhitePointD65 WhitePoint = iota
	// WhitePointLegacy reproduces the unscaled output of earlier builds.
	WhitePointLegacy
)

// GrayTransform selects how the lightness source is reduced to one 8-bit channel.
type GrayTransform int

const (
	// GrayPerceptual stores CIE L* of the relative luminance, scaled to 0..255.
	GrayPerceptual GrayTransform = iota
	// GrayLuma stores gamma-encoded Rec.601 luma, like a device-gray bitmap context.
	GrayLuma
)

// Options tunes reconstruction. The zero value is valid.
type Options struct {
	WhitePoint    WhitePoint
	GrayTransform GrayTransform
	// Workers caps reconstruction goroutines; 0 means GOMAXPROCS.
	Workers int
}

func (o Options) workers() int {
	if o.Workers > 0 {
		return o.Workers
	}
	return runtime.GOMAXPROCS(0)
}

// ParseWhitePoint maps a config value ("d65", "legacy") to a WhitePoint.
func ParseWhitePoint(s string) (WhitePoint, error) {
	switch s {
	case "", "d65":
		return WhitePointD65, nil
	case "legacy":
		return WhitePointLegacy, nil
	default:
		return 0, fmt.Errorf("unknown white point %q", s)
	}
}

// ParseGrayTransform maps a config value ("perceptual", "luma") to a GrayTransform.
func ParseGrayTransform(s string) (GrayTransform, error) {
	switch s {
	case "", "perceptual":
		return GrayPerceptual, nil
	case "luma":
		return GrayLuma, nil
	default:
		return 0, fmt.Errorf("unknown gray transform %q", s)
	}
}

func (w WhitePoint) String() string {
	if w == WhitePointLegacy {
		return "legacy"
	}
	return "d65"
}

func (g GrayTransform) String() string {
	if g == GrayLuma {
		return "luma"
	}
	return "perceptual"
}
