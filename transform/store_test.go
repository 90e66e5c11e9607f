package transform

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"textile-studio/models"
)

func TestUpdateReplacesExactlyOneField(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Update(models.SideFront, models.ElementDesign, PropertyPosition, models.Position{X: 10, Y: -5}))
	require.NoError(t, s.Update(models.SideFront, models.ElementDesign, PropertyScale, 1.2))
	require.NoError(t, s.Update(models.SideFront, models.ElementDesign, PropertyRotation, 15))

	got := s.Current(models.SideFront, models.ElementDesign)
	assert.Equal(t, models.Transform{Position: models.Position{X: 10, Y: -5}, Scale: 1.2, Rotation: 15}, got)

	require.NoError(t, s.Update(models.SideFront, models.ElementDesign, PropertyScale, 2.0))
	got = s.Current(models.SideFront, models.ElementDesign)
	assert.Equal(t, models.Position{X: 10, Y: -5}, got.Position)
	assert.Equal(t, 2.0, got.Scale)
	assert.Equal(t, 15.0, got.Rotation)
}

func TestSidesAndKindsAreIndependent(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Update(models.SideFront, models.ElementDesign, PropertyScale, 3.0))
	require.NoError(t, s.Update(models.SideBack, models.ElementText, PropertyRotation, 90.0))

	assert.Equal(t, models.DefaultTransform(), s.Current(models.SideBack, models.ElementDesign))
	assert.Equal(t, models.DefaultTransform(), s.Current(models.SideFront, models.ElementText))

	back := s.GetCurrent(models.SideBack)
	assert.Equal(t, 90.0, back.Text.Rotation)
	assert.Equal(t, 1.0, back.Design.Scale)
}

func TestUpdateDoesNotClamp(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Update(models.SideFront, models.ElementText, PropertyRotation, 725.0))
	assert.Equal(t, 725.0, s.Current(models.SideFront, models.ElementText).Rotation)
}

func TestUpdateErrors(t *testing.T) {
	s := NewStore()
	assert.ErrorIs(t, s.Update(models.SideFront, models.ElementDesign, "skew", 1.0), ErrUnknownProperty)
	assert.ErrorIs(t, s.Update(models.SideFront, models.ElementDesign, PropertyScale, "big"), ErrValueType)
	assert.ErrorIs(t, s.Update(models.SideFront, models.ElementDesign, PropertyPosition, 3.0), ErrValueType)
}

func TestLoadAndApply(t *testing.T) {
	rec := &models.CustomizationRecord{
		FrontDesign: &models.DesignSelection{DesignURL: "https://x/a.png", Transform: models.Transform{Scale: 2, Rotation: 10}},
		BackText:    &models.TextSelection{Content: "hi", Color: "#000", Transform: models.Transform{Scale: 1}},
	}
	s := NewStore()
	s.Load(rec)
	assert.Equal(t, 2.0, s.Current(models.SideFront, models.ElementDesign).Scale)

	require.NoError(t, s.Update(models.SideBack, models.ElementText, PropertyPosition, models.Position{X: 4, Y: 8}))
	s.Apply(rec)
	assert.Equal(t, models.Position{X: 4, Y: 8}, rec.BackText.Transform.Position)
	assert.Nil(t, rec.BackDesign)
}

func TestGestures(t *testing.T) {
	s := NewStore()
	s.Set(models.SideFront, models.ElementDesign, models.Transform{Position: models.Position{X: 5, Y: 5}, Scale: 1, Rotation: 10})

	g := Begin(s, models.SideFront, models.ElementDesign)
	require.NoError(t, g.Drag(20, -10, 2))
	require.NoError(t, g.Pinch(100, 150))
	require.NoError(t, g.Twist(0, math.Pi/2))

	got := s.Current(models.SideFront, models.ElementDesign)
	assert.Equal(t, models.Position{X: 15, Y: 0}, got.Position)
	assert.InDelta(t, 1.5, got.Scale, 1e-9)
	assert.InDelta(t, 100, got.Rotation, 1e-9)
}

func TestSliderHelpers(t *testing.T) {
	assert.Equal(t, 1.4, ScaleFromPercent(140))
	assert.Equal(t, -90.0, RotationFromSlider(270))
	assert.Equal(t, 180.0, RotationFromSlider(180))
	assert.InDelta(t, math.Pi/4, FingerAngle(0, 0, 1, 1), 1e-9)
	assert.Equal(t, 5.0, FingerDistance(0, 0, 3, 4))
}
