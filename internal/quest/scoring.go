package quest

import "time"

// FinalScore computes the terminal score when the player clears level 3.
// Elapsed time is counted in whole minutes since registration. The result is
// intentionally not floored at zero: slow, failure-heavy runs score negative.
func FinalScore(startedAt, now time.Time, failures int) int {
	minutes := int(now.Sub(startedAt) / time.Minute)
	return 1000 - minutes*5 - failures*20
}
