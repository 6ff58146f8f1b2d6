// Package audio turns captured PCM into a loudness level.
package audio

import "sync/atomic"

// Level holds the most recent loudness sample. One goroutine writes it, any
// number read it; readers see the last write.
type Level struct {
	v atomic.Int64
}

// Store records a new loudness value.
func (l *Level) Store(loudness int) {
	l.v.Store(int64(loudness))
}

// Latest returns the last stored loudness value.
func (l *Level) Latest() int {
	return int(l.v.Load())
}
