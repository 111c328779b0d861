package client

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// heartbeat owns the liveness probe timers for one open connection: a ping
// ticker and, after each ping, a single outstanding pong deadline. Both are
// fully cancelled on connection teardown so a late deadline can never race
// against a freshly opened connection.
type heartbeat struct {
	clock    clockwork.Clock
	interval time.Duration
	deadline time.Duration

	ticker clockwork.Ticker
	probe  clockwork.Timer
}

func newHeartbeat(clock clockwork.Clock, interval, deadline time.Duration) *heartbeat {
	return &heartbeat{
		clock:    clock,
		interval: interval,
		deadline: deadline,
	}
}

// start begins the ping cadence. Called once the connection is open.
func (h *heartbeat) start() {
	if h.ticker == nil {
		h.ticker = h.clock.NewTicker(h.interval)
	}
}

// stop cancels the ping cadence and any pending pong deadline.
func (h *heartbeat) stop() {
	if h.ticker != nil {
		h.ticker.Stop()
		h.ticker = nil
	}
	h.clearProbe()
}

// startProbe arms the pong deadline after a ping was sent. Only one probe
// may be outstanding at a time.
func (h *heartbeat) startProbe() {
	if h.probe == nil {
		h.probe = h.clock.NewTimer(h.deadline)
	}
}

// clearProbe cancels the pending deadline, e.g. when a pong arrives in time.
func (h *heartbeat) clearProbe() {
	if h.probe != nil {
		stopAndDrainTimer(h.probe)
		h.probe = nil
	}
}

// expireProbe drops the probe handle after its deadline fired.
func (h *heartbeat) expireProbe() {
	h.probe = nil
}

// tickChan is nil while the heartbeat is stopped, which disables its case in
// the supervisor's select.
func (h *heartbeat) tickChan() <-chan time.Time {
	if h.ticker == nil {
		return nil
	}
	return h.ticker.Chan()
}

// probeChan is nil while no probe is outstanding.
func (h *heartbeat) probeChan() <-chan time.Time {
	if h.probe == nil {
		return nil
	}
	return h.probe.Chan()
}

// stopAndDrainTimer stops a timer and drains its channel so a buffered fire
// cannot leak into a later select. This follows the time.Timer.Stop
// documentation.
func stopAndDrainTimer(timer clockwork.Timer) {
	if !timer.Stop() {
		select {
		case <-timer.Chan():
		default:
		}
	}
}
