// Package scan frames keyboard-wedge scanner input into whole codes.
package scan

import (
	"strings"
	"sync"
	"time"
	"unicode/utf8"
)

const (
	DefaultGap = 100 * time.Millisecond
	KeyEnter   = "Enter"
)

// Framer accumulates keystrokes that arrive faster than the gap threshold.
// Human typing is slower than a scanner, so a long pause discards whatever
// was buffered.
type Framer struct {
	gap time.Duration

	mu      sync.Mutex
	buf     strings.Builder
	lastKey time.Time
}

func NewFramer(gap time.Duration) *Framer {
	if gap <= 0 {
		gap = DefaultGap
	}
	return &Framer{gap: gap}
}

// Key feeds one key event. key is either a single character or a named key
// such as "Enter" or "Shift". It returns the framed code when Enter completes
// a buffer longer than one character.
func (f *Framer) Key(key string, at time.Time) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.lastKey.IsZero() && at.Sub(f.lastKey) > f.gap {
		f.buf.Reset()
	}
	f.lastKey = at

	switch {
	case key == KeyEnter:
		if utf8.RuneCountInString(f.buf.String()) > 1 {
			code := strings.TrimSpace(f.buf.String())
			f.buf.Reset()
			return code, true
		}
	case utf8.RuneCountInString(key) == 1:
		f.buf.WriteString(key)
	}
	return "", false
}

func (f *Framer) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.buf.Reset()
	f.lastKey = time.Time{}
}
