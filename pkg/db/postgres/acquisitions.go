package postgres

import (
	"sync"

	"github.com/puzpuzpuz/xsync/v4"
)

// Acquisitions counts connections handed out and returned. After every scoped use
// completes, Acquired == Released and InFlight == 0.
type Acquisitions struct {
	acquired *xsync.Counter
	released *xsync.Counter
}

func NewAcquisitions() *Acquisitions {
	return &Acquisitions{
		acquired: xsync.NewCounter(),
		released: xsync.NewCounter(),
	}
}

// Track records an acquisition and returns the matching release. Calling the
// release more than once records a single release.
func (a *Acquisitions) Track() func() {
	a.acquired.Inc()
	var once sync.Once
	return func() {
		once.Do(a.released.Inc)
	}
}

func (a *Acquisitions) Acquired() int64 { return a.acquired.Value() }

func (a *Acquisitions) Released() int64 { return a.released.Value() }

// InFlight is the number of connections currently held by callers.
func (a *Acquisitions) InFlight() int64 {
	return a.acquired.Value() - a.released.Value()
}
