package models

// TextPost is a piece of writing edited through the modal editor.
type TextPost struct {
	ID          ID       `json:"id"`
	Title       string   `json:"title"`
	Subtitle    string   `json:"subtitle"`
	Category    string   `json:"category"`
	Tags        []string `json:"tags"`
	ReadingTime int      `json:"reading_time"`
	Content     string   `json:"content"` // markdown
	Published   Flag     `json:"published"`
	CreatedAt   Time     `json:"created_at"`
	UpdatedAt   Time     `json:"updated_at"`
}

// Excerpt returns at most n runes of the raw content.
func (p TextPost) Excerpt(n int) string {
	r := []rune(p.Content)
	if len(r) <= n {
		return p.Content
	}

	return string(r[:n]) + "…"
}
