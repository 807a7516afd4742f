package coursesearch

import "github.com/poiesic/coursesearch/core"

// CourseResult is one ranked course as returned to clients.
type CourseResult struct {
	Id             string  `json:"id"`
	Subject        string  `json:"subject"`
	Title          string  `json:"title"`
	Description    string  `json:"description"`
	RelevanceScore float64 `json:"relevance_score"`
}

func newCourseResult(r *core.SearchResult) CourseResult {
	return CourseResult{
		Id:             r.Id.String(),
		Subject:        r.Subject,
		Title:          r.Title,
		Description:    r.Description,
		RelevanceScore: r.Score,
	}
}

// SearchResponse is the body of a search.
type SearchResponse struct {
	Results []CourseResult `json:"results"`
}

// SubjectsResponse is the body of a subject listing.
type SubjectsResponse struct {
	Subjects []string `json:"subjects"`
}

// StatsResponse summarizes the loaded catalog.
type StatsResponse struct {
	Courses    int `json:"courses"`
	Dimensions int `json:"dimensions"`
	Subjects   int `json:"subjects"`
}
