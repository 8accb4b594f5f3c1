package scene

// Snapshot is a detached copy of the render tree, safe to serialize.
type Snapshot struct {
	Title  string          `json:"title"`
	Width  float64         `json:"width"`
	Height float64         `json:"height"`
	Groups []GroupSnapshot `json:"groups"`
}

// GroupSnapshot is a detached copy of a group.
type GroupSnapshot struct {
	ID       string    `json:"id"`
	Display  bool      `json:"display"`
	Opacity  float64   `json:"opacity"`
	Elements []Element `json:"elements"`
}

// Snapshot copies the current state of the scene.
func (s *Scene) Snapshot() Snapshot {
	snap := Snapshot{
		Title:  s.Title,
		Width:  s.Width,
		Height: s.Height,
		Groups: make([]GroupSnapshot, 0, len(s.groups)),
	}
	for _, g := range s.groups {
		gs := GroupSnapshot{
			ID:       g.ID,
			Display:  g.Display,
			Opacity:  g.Opacity,
			Elements: make([]Element, 0, g.Len()),
		}
		for _, el := range g.Elements() {
			gs.Elements = append(gs.Elements, *el)
		}
		snap.Groups = append(snap.Groups, gs)
	}
	return snap
}
