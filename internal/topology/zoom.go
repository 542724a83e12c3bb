package topology

const (
	MinScale = 0.5
	MaxScale = 3
)

// Transform maps layout coordinates to screen coordinates: screen = p*K + (X,Y).
type Transform struct {
	K float64 `json:"k"`
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

var Identity = Transform{K: 1}

func (t Transform) Apply(p Point) Point {
	return Point{X: p.X*t.K + t.X, Y: p.Y*t.K + t.Y}
}

func (t Transform) Invert(p Point) Point {
	return Point{X: (p.X - t.X) / t.K, Y: (p.Y - t.Y) / t.K}
}

// ScaleAt zooms by factor keeping the layout point under pointer fixed.
// The resulting scale is clamped to [MinScale, MaxScale].
func (t Transform) ScaleAt(pointer Point, factor float64) Transform {
	anchor := t.Invert(pointer)
	k := clampScale(t.K * factor)
	return Transform{K: k, X: pointer.X - anchor.X*k, Y: pointer.Y - anchor.Y*k}
}

func (t Transform) Translate(dx, dy float64) Transform {
	return Transform{K: t.K, X: t.X + dx, Y: t.Y + dy}
}

// Normalize clamps K, treating a non-positive scale as identity scale.
func (t Transform) Normalize() Transform {
	if t.K <= 0 {
		t.K = 1
	}
	t.K = clampScale(t.K)
	return t
}

func clampScale(k float64) float64 {
	switch {
	case k < MinScale:
		return MinScale
	case k > MaxScale:
		return MaxScale
	}
	return k
}
