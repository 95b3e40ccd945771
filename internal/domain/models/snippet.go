package models

// Snippet is a short post managed from the snippets panel.
type Snippet struct {
	ID        ID       `json:"id"`
	Title     string   `json:"title"`
	Content   string   `json:"content"`
	Tags      []string `json:"tags"`
	CreatedAt Time     `json:"created_at"`
}
