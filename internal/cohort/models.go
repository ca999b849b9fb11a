package cohort

import "errors"

var (
	ErrCohortNotFound = errors.New("cohort not found")
	ErrNotMember      = errors.New("not a cohort member")
)

// Cohort is one MCAMP mentorship program instance. Content unlocks week
// by week from the start date.
type Cohort struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	StartDate int64  `json:"start_date"` // unix
	Weeks     int    `json:"weeks"`
	MentorID  string `json:"mentor_id,omitempty"`
}

type Member struct {
	CohortID string `json:"cohort_id"`
	UserID   string `json:"user_id"`
	JoinedAt int64  `json:"joined_at"`
}

// WeekStatus is one row of the dashboard.
type WeekStatus struct {
	Week      int   `json:"week"`
	Unlocked  bool  `json:"unlocked"`
	UnlocksAt int64 `json:"unlocks_at"`
}

// Dashboard is the member's view of their cohort.
type Dashboard struct {
	Cohort      Cohort       `json:"cohort"`
	CurrentWeek int          `json:"current_week"`
	Weeks       []WeekStatus `json:"weeks"`
}
