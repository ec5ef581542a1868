package bridge

import "time"

// reconnectSchedule defines the backoff durations for successive
// reconnect attempts driven by the CLI's opt-in reconnect loop.
var reconnectSchedule = []time.Duration{
	time.Second, time.Second, time.Second,
	5 * time.Second, 5 * time.Second, 5 * time.Second,
	15 * time.Second, 15 * time.Second, 15 * time.Second,
}

// ReconnectDelay returns the backoff duration for the given attempt.
// Attempts beyond the schedule default to 30 seconds.
func ReconnectDelay(attempt int) time.Duration {
	if attempt >= 0 && attempt < len(reconnectSchedule) {
		return reconnectSchedule[attempt]
	}
	return 30 * time.Second
}
