package projection

import (
	"fmt"
	"math"
)

// Raw is an unscaled projection from radians to a plane with y pointing north.
type Raw interface {
	Project(lambda, phi float64) (x, y float64)
}

// RawFunc adapts a plain function to Raw.
type RawFunc func(lambda, phi float64) (x, y float64)

// Project calls f.
func (f RawFunc) Project(lambda, phi float64) (x, y float64) { return f(lambda, phi) }

// maxMercatorLat keeps Mercator y finite at the poles.
const maxMercatorLat = 85.05112878 * math.Pi / 180

// Winkel3 is the Winkel tripel projection: the mean of the Aitoff projection
// and the equirectangular projection with standard parallel acos(2/π).
var Winkel3 RawFunc = func(lambda, phi float64) (float64, float64) {
	ax, ay := aitoff(lambda, phi)
	return (ax + lambda/(math.Pi/2)) / 2, (ay + phi) / 2
}

// Equirectangular is the plate carrée projection.
var Equirectangular RawFunc = func(lambda, phi float64) (float64, float64) {
	return lambda, phi
}

// Mercator is the spherical Mercator projection, clamped near the poles.
var Mercator RawFunc = func(lambda, phi float64) (float64, float64) {
	phi = math.Max(-maxMercatorLat, math.Min(maxMercatorLat, phi))
	return lambda, math.Log(math.Tan(math.Pi/4 + phi/2))
}

func aitoff(lambda, phi float64) (float64, float64) {
	cosPhi := math.Cos(phi)
	half := lambda / 2
	sinci := sinc1(math.Acos(cosPhi * math.Cos(half)))
	return 2 * cosPhi * math.Sin(half) * sinci, math.Sin(phi) * sinci
}

// sinc1 returns x/sin(x), 1 at zero.
func sinc1(x float64) float64 {
	if x == 0 {
		return 1
	}
	return x / math.Sin(x)
}

// ByName returns the raw projection configured under name.
func ByName(name string) (Raw, error) {
	switch name {
	case "winkel3", "":
		return Winkel3, nil
	case "equirectangular":
		return Equirectangular, nil
	case "mercator":
		return Mercator, nil
	default:
		return nil, fmt.Errorf("unknown projection %q", name)
	}
}
