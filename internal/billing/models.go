package billing

import "errors"

var ErrNoSubscription = errors.New("no subscription")

// Subscription statuses.
const (
	StatusActive   = "active"
	StatusCanceled = "canceled"
	StatusExpired  = "expired"
)

// Plans offered by the portal.
const (
	PlanProMonthly = "pro_monthly"
	PlanProYearly  = "pro_yearly"
)

type Subscription struct {
	ID               string `json:"id"`
	UserID           string `json:"user_id"`
	Plan             string `json:"plan"`
	Status           string `json:"status"`
	CurrentPeriodEnd int64  `json:"current_period_end"`
	ProviderRef      string `json:"provider_ref,omitempty"`
}

// ProActive reports whether the subscription currently grants pro
// access. Canceled plans keep access until the paid period runs out.
func (s Subscription) ProActive(now int64) bool {
	switch s.Status {
	case StatusActive, StatusCanceled:
		return s.CurrentPeriodEnd > now
	default:
		return false
	}
}
