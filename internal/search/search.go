package search

// Result is a single search hit returned to the caller.
type Result struct {
	ID      int64  `json:"id"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	TagID   string `json:"tag_id"`
	UserID  int64  `json:"user_id"`
}

// Query describes a search request over posts.
type Query struct {
	Text   string
	TagID  string // empty = all tags
	Limit  int
	Offset int
}

// Response is the envelope returned by the search endpoint.
type Response struct {
	Results []Result `json:"results"`
	Total   int      `json:"total"`
	Query   string   `json:"query"`
}

// Searcher can execute a full-text search.
type Searcher interface {
	Search(q Query) ([]Result, int, error)
	Healthy() bool
}

// PostRecord is the data we index for a post.
type PostRecord struct {
	ID      int64  `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
	TagID   string `json:"tag_id"`
	UserID  int64  `json:"user_id"`
}
