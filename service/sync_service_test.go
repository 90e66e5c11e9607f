package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"textile-studio/models"
	"textile-studio/svgasset"
)

const rawLion = `<?xml version="1.0"?>
<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 64 64">
  <script>alert(1)</script>
  <path fill="#222222" d="M0 0h64v64H0z" onclick="steal()"/>
</svg>`

func TestSyncDesigns(t *testing.T) {
	drive := &fakeDrive{
		files: []models.DriveDesignFile{
			{DriveFileID: "f1", FileName: "ANI-roaring_lion.svg", MimeType: "image/svg+xml", Name: "Roaring Lion", Category: "Animals"},
			{DriveFileID: "f2", FileName: "NAT-pine.png", MimeType: "image/png", ImageURL: "https://drive.example.com/f2", Name: "Pine", Category: "Nature"},
			{DriveFileID: "f3", FileName: "TYP-hello.png", MimeType: "image/png", Name: "Hello"},
			{DriveFileID: "f4", FileName: "ANI-ghost.svg", MimeType: "image/svg+xml", Name: "Ghost"},
		},
		contents: map[string]string{"f1": rawLion},
	}
	catalog := newFakeCatalog(models.Design{ID: "drive-f3", DriveFileID: "f3", IsActive: true})
	svc := NewSyncService(drive, catalog, svgasset.NewResolver(nil))

	report, err := svc.SyncDesigns(context.Background(), "designs-folder")
	require.NoError(t, err)
	assert.Equal(t, 4, report.Total)
	assert.Equal(t, 2, report.Inserted)
	assert.Equal(t, 1, report.Skipped)
	require.Len(t, report.Errors, 1)
	assert.Contains(t, report.Errors[0], "ANI-ghost.svg")

	lion := catalog.designs["drive-f1"]
	require.NotNil(t, lion)
	assert.True(t, lion.IsSVG)
	assert.True(t, lion.IsActive)
	assert.True(t, strings.HasPrefix(lion.URL, "data:image/svg+xml;base64,"))

	_, payload, err := svgasset.DecodeDataURI(lion.URL)
	require.NoError(t, err)
	assert.NotContains(t, string(payload), "<script")
	assert.NotContains(t, string(payload), "onclick")

	pine := catalog.designs["drive-f2"]
	require.NotNil(t, pine)
	assert.False(t, pine.IsSVG)
	assert.Equal(t, "https://drive.example.com/f2", pine.URL)
}

func TestSyncDesignsRequiresDrive(t *testing.T) {
	svc := NewSyncService(nil, newFakeCatalog(), svgasset.NewResolver(nil))
	_, err := svc.SyncDesigns(context.Background(), "folder")
	assert.Error(t, err)
}

func TestCleanupSVGDesigns(t *testing.T) {
	expected, err := cleanSVG(rawLion)
	require.NoError(t, err)

	catalog := newFakeCatalog(
		models.Design{ID: "lion", URL: svgasset.EncodeSVGDataURI(rawLion), IsSVG: true, IsActive: true},
		models.Design{ID: "broken", URL: svgasset.EncodeSVGDataURI("<html>not an svg</html>"), IsSVG: true, IsActive: true},
		models.Design{ID: "photo", URL: "https://cdn.example.com/photo.png", IsActive: true},
		models.Design{ID: "blob", URL: "blob:https://studio.example.com/9f2c", IsSVG: true, IsActive: true},
	)
	svc := NewSyncService(nil, catalog, svgasset.NewResolver(nil))

	report, err := svc.CleanupSVGDesigns(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, report.Scanned)
	assert.Equal(t, 1, report.Cleaned)
	assert.Equal(t, 2, report.Deactivated)
	assert.Empty(t, report.Errors)

	assert.Equal(t, svgasset.EncodeSVGDataURI(expected), catalog.updated["lion"])
	assert.ElementsMatch(t, []string{"broken", "blob"}, catalog.deactivated)
	assert.Equal(t, "https://cdn.example.com/photo.png", catalog.designs["photo"].URL)
}
