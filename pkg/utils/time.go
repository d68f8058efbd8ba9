package utils

import "time"

// NowRFC3339 returns the current time in RFC3339 format, used to stamp
// response metadata
func NowRFC3339() string {
	return time.Now().Format(time.RFC3339)
}
