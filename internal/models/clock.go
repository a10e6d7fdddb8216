package models

import "time"

// Now is the server-side clock used to stamp creation times.
func Now() time.Time {
	return time.Now().UTC()
}
