package trivia

// Category groups questions under a stable display name.
type Category struct {
	ID   int64  `json:"id"`
	Type string `json:"type"`
}

// Question is the full record served to clients and quiz sessions.
type Question struct {
	ID         int64  `json:"id"`
	Question   string `json:"question"`
	Answer     string `json:"answer"`
	Category   int64  `json:"category"`
	Difficulty int    `json:"difficulty"`
}

// NewQuestion carries the fields required to insert a question.
type NewQuestion struct {
	Question   string
	Answer     string
	Category   int64
	Difficulty int
}

// QuestionPage is one page of the full question listing.
type QuestionPage struct {
	Questions      []Question
	TotalQuestions int
	Categories     []Category
	// PageCategories holds the distinct category ids present on this page,
	// ascending.
	PageCategories []int64
}

// SearchResult is one page of substring matches.
type SearchResult struct {
	Questions      []Question
	TotalQuestions int
}

// CategoryQuestions is one page of a single category's questions.
type CategoryQuestions struct {
	Questions      []Question
	TotalQuestions int
	CategoryID     int64
}
