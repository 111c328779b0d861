package client

import (
	"math/rand"
	"time"
)

const maxBackoffShift = 32

// backoffDelay computes the reconnect delay for the given consecutive retry
// count: base*2^retry plus jitter, capped at max. The cap applies after the
// jitter so the ceiling is a hard one.
func backoffDelay(base, max time.Duration, retry int, jitter time.Duration) time.Duration {
	if retry > maxBackoffShift {
		retry = maxBackoffShift
	}
	delay := base << uint(retry)
	if delay <= 0 || delay > max {
		delay = max
	} else {
		delay += jitter
		if delay > max {
			delay = max
		}
	}
	return delay
}

// defaultJitter spreads reconnect attempts over a one-second window.
func defaultJitter() time.Duration {
	return time.Duration(rand.Int63n(int64(time.Second)))
}
