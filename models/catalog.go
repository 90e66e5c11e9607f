package models

// Product is a sellable garment of the catalog
type Product struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Price    int64  `json:"price"` // cents
	MockupID string `json:"mockupId"`
	IsActive bool   `json:"isActive"`
}

// MockupVariant is a color variant of a mockup with its own photos
type MockupVariant struct {
	Color    string `json:"color"`
	FrontURL string `json:"frontUrl"`
	BackURL  string `json:"backUrl"`
}

// Mockup holds the garment photos the studio composes onto
type Mockup struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	FrontURL string          `json:"frontUrl"`
	BackURL  string          `json:"backUrl"`
	Variants []MockupVariant `json:"variants"`
}

// ImageURL returns the photo for a side, preferring the matching color variant
func (m *Mockup) ImageURL(side Side, color string) string {
	if m == nil {
		return ""
	}
	for _, v := range m.Variants {
		if color != "" && v.Color == color {
			if side == SideBack && v.BackURL != "" {
				return v.BackURL
			}
			if side == SideFront && v.FrontURL != "" {
				return v.FrontURL
			}
		}
	}
	if side == SideBack {
		return m.BackURL
	}
	return m.FrontURL
}

// Design is a gallery design users can place on a garment
type Design struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Category    string `json:"category"`
	URL         string `json:"url"`
	IsSVG       bool   `json:"isSvg"`
	IsActive    bool   `json:"isActive"`
	DriveFileID string `json:"driveFileId,omitempty"`
}

// DriveDesignFile is a design file listed in the Drive designs folder
type DriveDesignFile struct {
	DriveFileID string `json:"driveFileId"`
	FileName    string `json:"fileName"`
	MimeType    string `json:"mimeType"`
	ImageURL    string `json:"imageUrl"`
	Name        string `json:"name"`
	Category    string `json:"category"`
}

// SVGCleanupReport summarizes an admin SVG cleanup run
type SVGCleanupReport struct {
	Scanned     int      `json:"scanned"`
	Cleaned     int      `json:"cleaned"`
	Deactivated int      `json:"deactivated"`
	Unchanged   int      `json:"unchanged"`
	Errors      []string `json:"errors"`
}

// DesignSyncReport summarizes an admin Drive design sync
type DesignSyncReport struct {
	Total    int      `json:"total"`
	Inserted int      `json:"inserted"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors"`
}
