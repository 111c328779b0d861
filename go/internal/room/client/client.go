// Package client owns the realtime connection to one room: it dials the
// websocket, runs the heartbeat, schedules reconnects, and feeds dispatched
// server messages into the session state machine and the roster projection.
// All derived state is mutated by a single event-loop goroutine; everything
// the transport and the timers produce arrives there as a message.
package client

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/nheidner/typingsync/go/internal/room/protocol"
	"github.com/nheidner/typingsync/go/internal/room/roster"
	"github.com/nheidner/typingsync/go/internal/room/session"
)

// NotReceivePongReason is the close reason the supervisor attaches when the
// pong deadline expires. It is the only reason that triggers a reconnect.
const NotReceivePongReason = "did not receive pong"

// LeftRoomReason is the close reason for a deliberate room exit.
const LeftRoomReason = "user left the room"

// ConnState describes the supervisor's view of the transport.
type ConnState int

const (
	StateClosed ConnState = iota
	StateConnecting
	StateOpen
	StateClosing
	// StateLost means the retry ceiling was exhausted; the caller must call
	// Connect again to resume.
	StateLost
)

func (s ConnState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	case StateLost:
		return "lost"
	default:
		return "closed"
	}
}

// ScoreSubmitter posts the locally produced score of a finished game.
type ScoreSubmitter interface {
	SubmitScore(ctx context.Context, roomID uuid.UUID, input protocol.ScoreInput) error
}

// Config holds the supervisor's tunables.
type Config struct {
	// WSBaseURL is the websocket origin, e.g. "ws://localhost:8080/api".
	WSBaseURL string

	PingInterval   time.Duration
	PongDeadline   time.Duration
	BaseDelay      time.Duration
	MaxDelay       time.Duration
	CountdownGrace time.Duration

	// MaxRetries caps consecutive reconnect attempts; 0 means unbounded.
	MaxRetries int

	// GameDurationSec seeds the round length until initial_state reports
	// the room's configured one.
	GameDurationSec int

	Clock  clockwork.Clock
	Dialer Dialer

	// Scores, when set, receives the local score draft once per finished
	// round.
	Scores ScoreSubmitter

	// OnStateChange, when set, observes every transport state transition.
	OnStateChange func(ConnState)
}

// DefaultConfig returns the production timings of the room protocol.
func DefaultConfig() Config {
	return Config{
		PingInterval:   2 * time.Second,
		PongDeadline:   1 * time.Second,
		BaseDelay:      1 * time.Second,
		MaxDelay:       8 * time.Second,
		CountdownGrace: 200 * time.Millisecond,
	}
}

type commandType int

const (
	cmdConnect commandType = iota
	cmdDisconnect
	cmdCursor
	cmdScoreDraft
)

type command struct {
	typ      commandType
	reason   string
	position int
	draft    protocol.ScoreInput
}

// Client is the connection actor for one room.
type Client struct {
	cfg    Config
	roomID uuid.UUID
	selfID uuid.UUID

	clock  clockwork.Clock
	dialer Dialer
	jitter func() time.Duration

	commands chan command
	frames   chan frame
	closes   chan closeEvent
	done     chan struct{}

	// Snapshot state, guarded for outside readers. Only the loop writes.
	mu         sync.RWMutex
	connState  ConnState
	state      session.State
	projector  *roster.Projector
	game       *protocol.Game
	scoreboard []protocol.Score
	adminID    uuid.UUID

	// Loop-owned, never touched outside the run goroutine.
	ctx            context.Context
	conn           Conn
	gen            int
	retries        int
	hb             *heartbeat
	reconnectTimer clockwork.Timer
	tickTicker     clockwork.Ticker
	graceTimer     clockwork.Timer
	dispatcher     *dispatcher
	draft          protocol.ScoreInput
	hasDraft       bool
	submitted      bool
}

// New builds a client for one room. selfID is the authenticated user, kept
// out of the roster projection.
func New(cfg Config, roomID, selfID uuid.UUID) *Client {
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = 2 * time.Second
	}
	if cfg.PongDeadline <= 0 {
		cfg.PongDeadline = 1 * time.Second
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = 1 * time.Second
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = 8 * time.Second
	}
	if cfg.CountdownGrace <= 0 {
		cfg.CountdownGrace = 200 * time.Millisecond
	}

	clock := cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	dialer := cfg.Dialer
	if dialer == nil {
		dialer = NewWebsocketDialer()
	}

	c := &Client{
		cfg:       cfg,
		roomID:    roomID,
		selfID:    selfID,
		clock:     clock,
		dialer:    dialer,
		jitter:    defaultJitter,
		commands:  make(chan command, 16),
		frames:    make(chan frame, 64),
		closes:    make(chan closeEvent, 4),
		done:      make(chan struct{}),
		state:     session.NewState(cfg.GameDurationSec),
		projector: roster.NewProjector(selfID),
	}
	c.hb = newHeartbeat(clock, cfg.PingInterval, cfg.PongDeadline)
	c.dispatcher = newDispatcher()
	c.registerHandlers()

	return c
}

// Run is the event loop. It connects immediately and blocks until ctx is
// cancelled; on exit the connection is closed cleanly and every timer is
// cancelled.
func (c *Client) Run(ctx context.Context) error {
	c.ctx = ctx
	defer close(c.done)

	c.dial()

	for {
		select {
		case <-ctx.Done():
			c.teardown(LeftRoomReason)
			return ctx.Err()

		case cmd := <-c.commands:
			c.handleCommand(cmd)

		case fr := <-c.frames:
			if fr.gen != c.gen {
				continue
			}
			c.dispatcher.dispatch(fr.data)

		case ev := <-c.closes:
			if ev.gen != c.gen {
				continue
			}
			c.handleClose(ev)

		case <-c.hb.tickChan():
			c.sendPing()

		case <-c.hb.probeChan():
			c.onPongDeadline()

		case <-timerChan(c.reconnectTimer):
			c.reconnectTimer = nil
			c.dial()

		case <-tickerChan(c.tickTicker):
			c.applySession(session.Event{Type: session.EventTick})

		case <-timerChan(c.graceTimer):
			c.graceTimer = nil
			c.applySession(session.Event{Type: session.EventGraceElapsed})
		}
	}
}

// Connect asks the supervisor to open the room connection. It is a no-op
// while a connection is live or connecting.
func (c *Client) Connect() {
	c.enqueue(command{typ: cmdConnect})
}

// Disconnect closes the connection cleanly with the given reason and
// cancels all pending timers. No reconnect is scheduled.
func (c *Client) Disconnect(reason string) {
	if reason == "" {
		reason = LeftRoomReason
	}
	c.enqueue(command{typ: cmdDisconnect, reason: reason})
}

// SendCursor reports the local user's typing position to the room. Dropped
// silently while the connection is not open.
func (c *Client) SendCursor(position int) {
	c.enqueue(command{typ: cmdCursor, position: position})
}

// SetScoreDraft records the local typing result to submit when the round
// finishes.
func (c *Client) SetScoreDraft(draft protocol.ScoreInput) {
	c.enqueue(command{typ: cmdScoreDraft, draft: draft})
}

func (c *Client) enqueue(cmd command) {
	select {
	case c.commands <- cmd:
	case <-c.done:
	}
}

// ConnState returns the supervisor's current view of the transport.
func (c *Client) ConnState() ConnState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connState
}

// Session returns the current session state snapshot.
func (c *Client) Session() session.State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Roster returns the display-ordered subscriber list, local user excluded.
func (c *Client) Roster() []roster.Subscriber {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.projector.Sorted()
}

// Game returns the current round, or nil before the first snapshot.
func (c *Client) Game() *protocol.Game {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.game == nil {
		return nil
	}
	game := *c.game
	return &game
}

// Scoreboard returns the latest round results pushed by the server.
func (c *Client) Scoreboard() []protocol.Score {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]protocol.Score, len(c.scoreboard))
	copy(out, c.scoreboard)
	return out
}

// AdminID returns the room admin reported by initial_state.
func (c *Client) AdminID() uuid.UUID {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.adminID
}

func (c *Client) handleCommand(cmd command) {
	switch cmd.typ {
	case cmdConnect:
		c.retries = 0
		if c.reconnectTimer != nil {
			stopAndDrainTimer(c.reconnectTimer)
			c.reconnectTimer = nil
		}
		c.dial()
	case cmdDisconnect:
		c.teardown(cmd.reason)
	case cmdCursor:
		c.writeCursor(cmd.position)
	case cmdScoreDraft:
		c.draft = cmd.draft
		c.hasDraft = true
	}
}

// dial opens the room connection. Calling it while a connection is live or
// connecting is a no-op. A dial that fails immediately is an unclean
// closure: it is reported but, like every non-heartbeat closure, not
// retried.
func (c *Client) dial() {
	state := c.ConnState()
	if state == StateConnecting || state == StateOpen {
		return
	}

	c.setState(StateConnecting)
	url := fmt.Sprintf("%s/rooms/%s/ws", strings.TrimRight(c.cfg.WSBaseURL, "/"), c.roomID)

	conn, err := c.dialer.Dial(c.ctx, url)
	if err != nil {
		log.Error().Err(err).Str("room_id", c.roomID.String()).Msg("connection attempt failed")
		c.setState(StateClosed)
		return
	}

	c.gen++
	c.conn = conn
	c.retries = 0
	c.setState(StateOpen)
	c.hb.start()

	go c.readPump(conn, c.gen)

	log.Info().Str("room_id", c.roomID.String()).Msg("room connection established")
}

// readPump moves inbound frames from the socket onto the loop. It is the
// only goroutine besides the loop, and it never touches client state.
func (c *Client) readPump(conn Conn, gen int) {
	for {
		data, err := conn.ReadMessage()
		if err != nil {
			code, reason, wasClean := classifyClose(err)
			select {
			case c.closes <- closeEvent{gen: gen, code: code, reason: reason, wasClean: wasClean}:
			case <-c.done:
			}
			return
		}
		select {
		case c.frames <- frame{gen: gen, data: data}:
		case <-c.done:
			return
		}
	}
}

func (c *Client) sendPing() {
	if c.conn == nil {
		return
	}
	ping, err := protocol.EncodePing()
	if err != nil {
		log.Error().Err(err).Msg("encode ping")
		return
	}
	if err := c.conn.WriteMessage(ping); err != nil {
		log.Error().Err(err).Msg("failed to send ping")
		return
	}
	c.hb.startProbe()
}

// onPongDeadline fires when a ping went unanswered. The connection is
// closed with the sentinel reason and a reconnect is scheduled.
func (c *Client) onPongDeadline() {
	c.hb.expireProbe()

	log.Warn().Str("room_id", c.roomID.String()).Msg("pong deadline expired, closing connection")

	conn := c.conn
	c.detachConn()
	if conn != nil {
		_ = conn.Close(websocket.CloseNormalClosure, NotReceivePongReason)
	}
	c.setState(StateClosed)
	c.scheduleReconnect()
}

// handleClose reacts to a closure observed on the transport. Clean closes
// carrying the pong-timeout reason reconnect with backoff; everything else
// is terminal until Connect is called again.
func (c *Client) handleClose(ev closeEvent) {
	c.detachConn()
	c.setState(StateClosed)

	if ev.wasClean {
		log.Info().
			Int("code", ev.code).
			Str("reason", ev.reason).
			Msg("connection closed cleanly")
		if ev.reason == NotReceivePongReason {
			c.scheduleReconnect()
		}
		return
	}

	log.Error().
		Int("code", ev.code).
		Str("reason", ev.reason).
		Msg("connection died")
}

// scheduleReconnect arms the backoff timer. At most one reconnect timer is
// pending at a time; re-entrant calls are ignored while one is outstanding.
func (c *Client) scheduleReconnect() {
	if c.reconnectTimer != nil {
		return
	}
	if c.cfg.MaxRetries > 0 && c.retries >= c.cfg.MaxRetries {
		log.Error().
			Int("retries", c.retries).
			Str("room_id", c.roomID.String()).
			Msg("reconnect attempts exhausted")
		c.setState(StateLost)
		return
	}

	delay := backoffDelay(c.cfg.BaseDelay, c.cfg.MaxDelay, c.retries, c.jitter())
	c.retries++
	c.reconnectTimer = c.clock.NewTimer(delay)

	log.Info().
		Dur("delay", delay).
		Int("retry", c.retries).
		Str("room_id", c.roomID.String()).
		Msg("reconnect scheduled")
}

// detachConn stops the heartbeat and invalidates the current connection
// generation, so late frames and close events from its read pump are
// dropped.
func (c *Client) detachConn() {
	c.hb.stop()
	c.conn = nil
	c.gen++
}

// teardown is the deliberate shutdown path: clean close, every timer
// cancelled, no retry.
func (c *Client) teardown(reason string) {
	if c.reconnectTimer != nil {
		stopAndDrainTimer(c.reconnectTimer)
		c.reconnectTimer = nil
	}
	c.stopTickTicker()
	c.cancelGrace()

	conn := c.conn
	c.detachConn()
	if conn != nil {
		c.setState(StateClosing)
		if err := conn.Close(websocket.CloseNormalClosure, reason); err != nil {
			log.Debug().Err(err).Msg("close failed")
		}
	}
	c.setState(StateClosed)
}

func (c *Client) writeCursor(position int) {
	if c.ConnState() != StateOpen || c.conn == nil {
		return
	}
	data, err := protocol.EncodeCursor(position)
	if err != nil {
		log.Error().Err(err).Msg("encode cursor")
		return
	}
	if err := c.conn.WriteMessage(data); err != nil {
		log.Error().Err(err).Msg("failed to send cursor")
	}
}

func (c *Client) setState(state ConnState) {
	c.mu.Lock()
	changed := c.connState != state
	c.connState = state
	c.mu.Unlock()

	if changed && c.cfg.OnStateChange != nil {
		c.cfg.OnStateChange(state)
	}
}

func timerChan(t clockwork.Timer) <-chan time.Time {
	if t == nil {
		return nil
	}
	return t.Chan()
}

func tickerChan(t clockwork.Ticker) <-chan time.Time {
	if t == nil {
		return nil
	}
	return t.Chan()
}
