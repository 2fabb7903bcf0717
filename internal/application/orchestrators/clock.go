package orchestrators

import (
	"time"

	"github.com/google/uuid"
)

// Clock returns the current time. Deps take one so tests can pin "now".
type Clock func() time.Time

// IDGenerator returns a fresh entity id.
type IDGenerator func() string

func (c Clock) now() time.Time {
	if c == nil {
		return time.Now().UTC()
	}
	return c()
}

func (g IDGenerator) next() string {
	if g == nil {
		return uuid.New().String()
	}
	return g()
}
