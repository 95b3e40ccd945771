package models

import "path"

// UploadsPath is where the site serves stored gallery images from.
const UploadsPath = "/static/uploads"

// GalleryItem is a community image gallery owned by the API.
type GalleryItem struct {
	ID          ID       `json:"id"`
	Title       string   `json:"title"`
	Caption     string   `json:"caption"`
	Description string   `json:"description"` // markdown
	Images      []string `json:"images"`      // stored filenames, in order
	CreatedAt   Time     `json:"created_at"`
}

// Cover returns the first image filename, or "" for an item without images.
func (g GalleryItem) Cover() string {
	if len(g.Images) == 0 {
		return ""
	}

	return g.Images[0]
}

// ImageURL maps a stored filename onto the static uploads path.
func ImageURL(filename string) string {
	if filename == "" {
		return ""
	}

	return path.Join(UploadsPath, filename)
}
