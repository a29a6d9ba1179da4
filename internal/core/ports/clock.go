package ports

import "time"

// Clock supplies the current time. Injected everywhere the engines compare
// dates so tests can pin "now".
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }
