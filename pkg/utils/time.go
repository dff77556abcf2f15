package utils

import "time"

// NowRFC3339 returns the current time in RFC3339 format.
func NowRFC3339() string {
	return time.Now().Format(time.RFC3339)
}

// AgeSeconds computes how many whole seconds have passed since an epoch-millis
// timestamp. Never negative.
func AgeSeconds(cachedAtMillis int64, now time.Time) int64 {
	age := (now.UnixMilli() - cachedAtMillis) / 1000
	if age < 0 {
		return 0
	}
	return age
}
