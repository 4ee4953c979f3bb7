package clock

import "time"

// Clock supplies "now" for snapshot timestamps and fixture ticket creation times.
type Clock interface {
	Now() time.Time
}
