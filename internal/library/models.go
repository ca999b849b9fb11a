package library

import "errors"

var ErrResourceNotFound = errors.New("resource not found")

// Resource is a learning asset: video, PDF, quiz or article.
type Resource struct {
	ID           string `json:"id"`
	Type         string `json:"type"`
	Title        string `json:"title"`
	URL          string `json:"url,omitempty"`
	DurationSec  int    `json:"duration_sec,omitempty"`   // video
	PageCount    int    `json:"page_count,omitempty"`     // pdf
	WordsPerPage []int  `json:"words_per_page,omitempty"` // pdf
	QuizID       string `json:"quiz_id,omitempty"`        // quiz
	WeekNumber   int    `json:"week_number,omitempty"`
	ProOnly      bool   `json:"pro_only,omitempty"`
	CreatedAt    int64  `json:"created_at,omitempty"`
}

// PDFInfo is the shape the dwell-time formula consumes. The rendering
// engine that produced the counts is a black box; the portal just stores
// its output alongside the resource.
type PDFInfo struct {
	PageCount    int   `json:"page_count"`
	WordsPerPage []int `json:"words_per_page"`
}
