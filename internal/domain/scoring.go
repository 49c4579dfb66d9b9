package domain

import "time"

// Award brackets for response latency since form activation.
const (
	AwardBaseline = 100
	AwardFast     = 150
	AwardDay      = 125
	AwardTwoDays  = 115
)

// ComputeAward converts the elapsed time between form activation and the
// submission into a point award. Faster responses earn more; a form that was
// never formally activated awards the baseline. Bracket upper bounds are
// inclusive and evaluated in ascending order.
func ComputeAward(activatedAt *time.Time, now time.Time) int {
	if activatedAt == nil {
		return AwardBaseline
	}
	elapsed := now.Sub(*activatedAt)
	switch {
	case elapsed <= 12*time.Hour:
		return AwardFast
	case elapsed <= 24*time.Hour:
		return AwardDay
	case elapsed <= 48*time.Hour:
		return AwardTwoDays
	default:
		return AwardBaseline
	}
}
