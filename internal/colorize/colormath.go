package colorize

import "math"

// D65, 2 degree observer, on the Y=1 scale.
const (
	whiteX = 0.95047
	whiteY = 1.0
	whiteZ = 1.08883
)

const (
	labEpsilon = 0.008856
	labKappa   = 7.787
	labOffset  = 16.0 / 116.0
)

const chromaLimit = 100

func clampChroma(v float32) float32 {
	if math.IsNaN(float64(v)) {
		return 0
	}
	if v < -chromaLimit {
		return -chromaLimit
	}
	if v > chromaLimit {
		return chromaLimit
	}
	return v
}

// labInverse is the inverse of the CIE f(t) companding.
func labInverse(f float64) float64 {
	if f3 := f * f * f; f3 > labEpsilon {
		return f3
	}
	return (f - labOffset) / labKappa
}

func labForward(t float64) float64 {
	if t > labEpsilon {
		return math.Cbrt(t)
	}
	return labKappa*t + labOffset
}

// labToXYZ converts L*a*b* to XYZ. With legacy set the white point scaling is skipped.
func labToXYZ(l, a, b float64, legacy bool) (x, y, z float64) {
	fy := (l + 16) / 116
	fx := a/500 + fy
	fz := fy - b/200
	x, y, z = labInverse(fx), labInverse(fy), labInverse(fz)
	if !legacy {
		x, y, z = x*whiteX, y*whiteY, z*whiteZ
	}
	return x, y, z
}

func xyzToLinearSRGB(x, y, z float64) (r, g, b float64) {
	return 3.2406*x - 1.5372*y - 0.4986*z,
		-0.9689*x + 1.8758*y + 0.0415*z,
		0.0557*x - 0.2040*y + 1.0570*z
}

func srgbOetf(v float64) float64 {
	if v > 0.0031308 {
		return 1.055*math.Pow(v, 1.0/2.4) - 0.055
	}
	return 12.92 * v
}

func srgbInvOetf(v float64) float64 {
	if v <= 0.04045 {
		return v / 12.92
	}
	return math.Pow((v+0.055)/1.055, 2.4)
}

// quantize maps a display-encoded value to 8 bits, clamping to [0,1] first.
func quantize(v float64) uint8 {
	if math.IsNaN(v) || v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return clampToByte(math.Round(v * 255))
}

// clampToByte is a saturating float to uint8 narrow.
func clampToByte(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v + 0.5)
}

// labToRGB8 runs one pixel through Lab -> XYZ -> linear sRGB -> gamma -> 8 bit.
func labToRGB8(l, a, b float64, legacy bool) (r8, g8, b8 uint8) {
	x, y, z := labToXYZ(l, a, b, legacy)
	r, g, bl := xyzToLinearSRGB(x, y, z)
	return quantize(srgbOetf(r)), quantize(srgbOetf(g)), quantize(srgbOetf(bl))
}
