package transform

import (
	"math"

	"textile-studio/models"
)

// Slider ranges used by the studio controls
const (
	MinScalePercent     = 1
	MaxScalePercent     = 300
	MaxTextScalePercent = 140
)

// ScaleFromPercent converts a scale slider value (1–300%) into a scale factor
func ScaleFromPercent(percent float64) float64 {
	return percent / 100
}

// RotationFromSlider maps the 0–360 rotation slider onto -180..180
func RotationFromSlider(v float64) float64 {
	if v > 180 {
		return v - 360
	}
	return v
}

// Gesture adapts pointer and touch input onto a Store.
// It only ever mutates the store through Update.
type Gesture struct {
	store *Store
	side  models.Side
	kind  models.ElementKind

	startPos      models.Position
	startScale    float64
	startRotation float64
}

// Begin captures the transform at the start of a gesture
func Begin(store *Store, side models.Side, kind models.ElementKind) *Gesture {
	t := store.Current(side, kind)
	return &Gesture{
		store:         store,
		side:          side,
		kind:          kind,
		startPos:      t.Position,
		startScale:    t.Scale,
		startRotation: t.Rotation,
	}
}

// Drag moves the element by the pointer delta since Begin.
// stageScale is the display scale of the stage, so a drag on a zoomed preview
// moves the element by the same stage distance.
func (g *Gesture) Drag(dx, dy, stageScale float64) error {
	if stageScale <= 0 {
		stageScale = 1
	}
	return g.store.Update(g.side, g.kind, PropertyPosition, models.Position{
		X: g.startPos.X + dx/stageScale,
		Y: g.startPos.Y + dy/stageScale,
	})
}

// Pinch scales the element by the ratio of finger distances
func (g *Gesture) Pinch(startDistance, currentDistance float64) error {
	if startDistance <= 0 {
		return nil
	}
	return g.store.Update(g.side, g.kind, PropertyScale, g.startScale*currentDistance/startDistance)
}

// Twist rotates the element by the angle between the two finger vectors
func (g *Gesture) Twist(startAngle, currentAngle float64) error {
	delta := (currentAngle - startAngle) * 180 / math.Pi
	return g.store.Update(g.side, g.kind, PropertyRotation, g.startRotation+delta)
}

// FingerAngle returns the angle in radians of the vector between two touches
func FingerAngle(x1, y1, x2, y2 float64) float64 {
	return math.Atan2(y2-y1, x2-x1)
}

// FingerDistance returns the distance between two touches
func FingerDistance(x1, y1, x2, y2 float64) float64 {
	return math.Hypot(x2-x1, y2-y1)
}
