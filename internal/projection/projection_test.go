package projection

import (
	"errors"
	"math"
	"testing"

	"github.com/couchcryptid/seismic-map/internal/scene"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var worldExtent = orb.Bound{Min: orb.Point{-180, -90}, Max: orb.Point{180, 90}}

func TestProject_CenterOfWorldExtent(t *testing.T) {
	for _, name := range []string{"winkel3", "equirectangular", "mercator"} {
		t.Run(name, func(t *testing.T) {
			raw, err := ByName(name)
			require.NoError(t, err)

			p := New(raw)
			require.NoError(t, p.Fit(worldExtent, 800, 480))

			got, err := p.Project(orb.Point{0, 0})
			require.NoError(t, err)
			assert.InDelta(t, 400, got.X, 1e-9)
			assert.InDelta(t, 240, got.Y, 1e-9)
		})
	}
}

func TestProject_BeforeFit(t *testing.T) {
	p := New(Winkel3)

	_, err := p.Project(orb.Point{10, 10})
	require.Error(t, err)

	var nf *NotFittedError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "project", nf.Op)

	_, err = p.Path(orb.Point{10, 10})
	require.True(t, errors.As(err, &nf))
	assert.False(t, p.Fitted())
}

func TestFit_OnlyOnce(t *testing.T) {
	p := New(Winkel3)
	require.NoError(t, p.Fit(worldExtent, 800, 480))

	err := p.Fit(orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{10, 10}}, 100, 100)
	assert.ErrorIs(t, err, ErrAlreadyFitted)

	got, err := p.Project(orb.Point{0, 0})
	require.NoError(t, err)
	assert.InDelta(t, 400, got.X, 1e-9, "second fit must not change the parameters")
}

func TestFit_InvalidInput(t *testing.T) {
	assert.Error(t, New(Winkel3).Fit(worldExtent, 0, 480))
	assert.Error(t, New(Winkel3).Fit(orb.Collection{}, 800, 480))
	assert.Error(t, New(Winkel3).Fit(orb.Point{3, 4}, 800, 480))
}

func TestFit_EquirectangularFillsWidth(t *testing.T) {
	p := New(Equirectangular)
	require.NoError(t, p.Fit(worldExtent, 800, 480))

	east, err := p.Project(orb.Point{180, 0})
	require.NoError(t, err)
	assert.InDelta(t, 800, east.X, 1e-9)

	// k = 800/2π, so the poles sit k·π/2 = 200px from the centre line.
	north, err := p.Project(orb.Point{-180, 90})
	require.NoError(t, err)
	assert.InDelta(t, 0, north.X, 1e-9)
	assert.InDelta(t, 40, north.Y, 1e-9)
}

func TestFit_ExtentFillsBox(t *testing.T) {
	p := New(Winkel3)
	require.NoError(t, p.Fit(worldExtent, 800, 480))

	path, err := p.Path(worldExtent)
	require.NoError(t, err)
	require.Len(t, path, 1)

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, pt := range path[0] {
		minX, maxX = math.Min(minX, pt.X), math.Max(maxX, pt.X)
		minY, maxY = math.Min(minY, pt.Y), math.Max(maxY, pt.Y)
	}

	// One dimension touches the box edges, the other is centred inside it.
	touchesWidth := math.Abs(minX) < 1e-6 && math.Abs(maxX-800) < 1e-6
	touchesHeight := math.Abs(minY) < 1e-6 && math.Abs(maxY-480) < 1e-6
	assert.True(t, touchesWidth || touchesHeight)
	assert.InDelta(t, 400, (minX+maxX)/2, 1e-6)
	assert.InDelta(t, 240, (minY+maxY)/2, 1e-6)
}

func TestWinkel3_ReferenceValues(t *testing.T) {
	x, y := Winkel3.Project(0, 0)
	assert.Equal(t, 0.0, x)
	assert.Equal(t, 0.0, y)

	// λ = 90°, φ = 0: Aitoff gives π/2, equirectangular term gives 1.
	x, y = Winkel3.Project(math.Pi/2, 0)
	assert.InDelta(t, (math.Pi/2+1)/2, x, 1e-12)
	assert.InDelta(t, 0, y, 1e-12)

	// North pole: both terms give π/2 for y.
	_, y = Winkel3.Project(0, math.Pi/2)
	assert.InDelta(t, math.Pi/2, y, 1e-12)
}

func TestMercator_ClampsPoles(t *testing.T) {
	_, y := Mercator.Project(0, math.Pi/2)
	assert.False(t, math.IsInf(y, 0))
	assert.InDelta(t, math.Pi, y, 1e-6)
}

func TestPath_Polygon(t *testing.T) {
	p := New(Equirectangular)
	require.NoError(t, p.Fit(worldExtent, 800, 480))

	poly := orb.Polygon{
		{{0, 0}, {10, 0}, {10, 10}, {0, 0}},
		{{2, 2}, {3, 2}, {3, 3}, {2, 2}},
	}
	path, err := p.Path(orb.MultiPolygon{poly})
	require.NoError(t, err)
	require.Len(t, path, 2)
	assert.Len(t, path[0], 4)
	assert.Equal(t, scene.Point{X: 400, Y: 240}, path[0][0])
}

func TestByName_Unknown(t *testing.T) {
	_, err := ByName("gnomonic")
	assert.Error(t, err)
}
