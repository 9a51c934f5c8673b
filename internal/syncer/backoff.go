package syncer

import "time"

// backoffSchedule is the fixed retry ladder. The final rung repeats for
// every attempt past the fourth.
var backoffSchedule = []time.Duration{
	time.Minute,
	5 * time.Minute,
	15 * time.Minute,
	time.Hour,
}

// Delay returns how long to wait before the next attempt given the number
// of failed attempts so far. retryCount below one is treated as one.
func Delay(retryCount int) time.Duration {
	if retryCount < 1 {
		retryCount = 1
	}
	index := retryCount - 1
	if index >= len(backoffSchedule) {
		index = len(backoffSchedule) - 1
	}
	return backoffSchedule[index]
}
