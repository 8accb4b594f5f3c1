package scene

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroup_AppendRemove(t *testing.T) {
	g := NewGroup("earthquakes")
	assert.True(t, g.Display)
	assert.Equal(t, 1.0, g.Opacity)

	g.Append(&Element{Key: "b"})
	g.Append(&Element{Key: "a"})
	g.Append(&Element{Key: "c"})
	g.Append(&Element{Key: "a", Radius: 3})

	assert.Equal(t, 3, g.Len())
	assert.Equal(t, []string{"a", "b", "c"}, g.Keys())

	order := make([]string, 0, 3)
	for _, el := range g.Elements() {
		order = append(order, el.Key)
	}
	assert.Equal(t, []string{"b", "a", "c"}, order)

	el, ok := g.Element("a")
	require.True(t, ok)
	assert.Equal(t, 3.0, el.Radius)

	assert.True(t, g.Remove("a"))
	assert.False(t, g.Remove("a"))
	assert.Equal(t, []string{"b", "c"}, g.Keys())
	_, ok = g.Element("a")
	assert.False(t, ok)
}

func TestScene_Groups(t *testing.T) {
	s := New("Seismic Map", 800, 480)
	s.AddGroup("continents")
	s.AddGroup("earthquakes")

	g, ok := s.Group("earthquakes")
	require.True(t, ok)
	assert.Equal(t, "earthquakes", g.ID)

	_, ok = s.Group("volcanoes")
	assert.False(t, ok)

	ids := []string{}
	for _, g := range s.Groups() {
		ids = append(ids, g.ID)
	}
	assert.Equal(t, []string{"continents", "earthquakes"}, ids)
}

func TestSnapshot_IsDetached(t *testing.T) {
	s := New("Seismic Map", 800, 480)
	g := s.AddGroup("earthquakes")
	el := &Element{Key: "a", Shape: ShapeCircle, Center: Point{X: 1, Y: 2}, Radius: 2, Opacity: 0.1}
	g.Append(el)

	snap := s.Snapshot()
	el.Radius = 9
	g.Opacity = 0

	require.Len(t, snap.Groups, 1)
	assert.Equal(t, 1.0, snap.Groups[0].Opacity)
	require.Len(t, snap.Groups[0].Elements, 1)
	assert.Equal(t, 2.0, snap.Groups[0].Elements[0].Radius)

	raw, err := json.Marshal(snap)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"r":2`)
	assert.NotContains(t, string(raw), "TargetRadius")
}
