package capture

import (
	"fmt"
	"time"

	"textile-studio/composition"
	"textile-studio/models"
)

// Stage is a step of one side/tier capture
type Stage string

const (
	StageIdle           Stage = "IDLE"
	StageWaitingForDOM  Stage = "WAITING_FOR_DOM"
	StageDOMReady       Stage = "DOM_READY"
	StageDOMTimeout     Stage = "DOM_TIMEOUT"
	StageRasterizing    Stage = "RASTERIZING"
	StageRasterized     Stage = "RASTERIZED"
	StageRasterizeError Stage = "RASTERIZE_ERROR"
	StageUploading      Stage = "UPLOADING"
	StageUploaded       Stage = "UPLOADED"
	StageUploadError    Stage = "UPLOAD_ERROR"
)

// Terminal reports whether no further stage follows
func (s Stage) Terminal() bool {
	switch s {
	case StageDOMTimeout, StageRasterizeError, StageUploaded, StageUploadError:
		return true
	}
	return false
}

// Failed reports whether the stage ends a capture without a url
func (s Stage) Failed() bool {
	return s == StageDOMTimeout || s == StageRasterizeError || s == StageUploadError
}

// Tier is an output resolution of the pipeline
type Tier struct {
	Name          string
	Size          int  // output edge in pixels, square
	WithProduct   bool // garment photo included
	UploadTimeout time.Duration
	FilePrefix    string
	targetSuffix  string
}

var (
	// PreviewTier is the cart thumbnail: small, on the garment
	PreviewTier = Tier{
		Name:          "preview",
		Size:          600,
		WithProduct:   true,
		UploadTimeout: 15 * time.Second,
		FilePrefix:    "preview",
		targetSuffix:  "complete",
	}
	// ProductionTier is the print file: 4000px square, no garment
	ProductionTier = Tier{
		Name:          "production",
		Size:          4000,
		WithProduct:   false,
		UploadTimeout: 60 * time.Second,
		FilePrefix:    "production-hd",
		targetSuffix:  "only",
	}
)

// TargetName is the un-namespaced id of the tier's mirror for side,
// e.g. preview-front-complete or production-back-only
func (t Tier) TargetName(side models.Side) string {
	return fmt.Sprintf("%s-%s-%s", t.Name, side, t.targetSuffix)
}

// ScaleFactor converts the base stage to the tier's output size
func (t Tier) ScaleFactor() float64 {
	return float64(t.Size) / composition.StageSize
}

// Mode is the composition mode the tier renders with
func (t Tier) Mode() composition.Mode {
	if t.WithProduct {
		return composition.WithBackground
	}
	return composition.ProductionExport
}

// Filename names an uploaded capture
func (t Tier) Filename(elementID string, at time.Time) string {
	return fmt.Sprintf("%s-%s-%d.png", t.FilePrefix, elementID, at.UnixMilli())
}
