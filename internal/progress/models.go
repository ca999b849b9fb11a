package progress

// Resource types tracked by the portal.
const (
	TypeVideo   = "video"
	TypePDF     = "pdf"
	TypeQuiz    = "quiz"
	TypeArticle = "article"
)

// Metadata is discriminated by the resource type; only the fields for
// that type are populated.
type Metadata struct {
	// video: unique whole-second marks watched
	SecondsWatched []int `json:"seconds_watched,omitempty"`
	DurationSec    int   `json:"duration_sec,omitempty"`

	// pdf: unique page numbers viewed (dwell-gated)
	PagesViewed []int `json:"pages_viewed,omitempty"`
	PageCount   int   `json:"page_count,omitempty"`

	// quiz: raw score over auto-gradable questions
	Score          *int `json:"score,omitempty"`
	TotalQuestions int  `json:"total_questions,omitempty"`
}

// ResourceProgress is one record per user per resource.
type ResourceProgress struct {
	UserID      string   `json:"user_id"`
	ResourceID  string   `json:"resource_id"`
	Type        string   `json:"type"`
	Progress    int      `json:"progress"` // 0..100
	Completed   bool     `json:"completed"`
	Metadata    Metadata `json:"metadata"`
	LastUpdated int64    `json:"last_updated"`
}
