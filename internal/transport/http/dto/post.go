package dto

// TextPostRequest is the JSON body for creating or updating a text post.
type TextPostRequest struct {
	Title       string   `json:"title" validate:"required,max=200"`
	Subtitle    string   `json:"subtitle"`
	Category    string   `json:"category"`
	Tags        []string `json:"tags"`
	ReadingTime int      `json:"reading_time" validate:"min=0"`
	Content     string   `json:"content" validate:"required"`
	Published   bool     `json:"published"`
}
