package core

// PostSummary is the display record for one recent post from the external blog feed.
// Values are built fresh on every feed rebuild and never mutated afterwards.
type PostSummary struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description"`
	Image       string `json:"image"`
	Published   string `json:"published"`
}
