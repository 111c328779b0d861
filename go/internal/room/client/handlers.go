package client

import (
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/nheidner/typingsync/go/internal/room/protocol"
	"github.com/nheidner/typingsync/go/internal/room/session"
)

// registerHandlers binds every recognized inbound message type. Handlers
// run on the event loop; the session machine and the roster projection are
// mutated nowhere else.
func (c *Client) registerHandlers() {
	c.dispatcher.handle(protocol.TypePong, c.onPong)
	c.dispatcher.handle(protocol.TypeInitialState, c.onInitialState)
	c.dispatcher.handle(protocol.TypeUserJoined, c.onUserJoined)
	c.dispatcher.handle(protocol.TypeUserLeft, c.onUserLeft)
	c.dispatcher.handle(protocol.TypeNewGame, c.onNewGame)
	c.dispatcher.handle(protocol.TypeCountdown, c.onCountdown)
	c.dispatcher.handle(protocol.TypeGameStarted, c.onGameStarted)
	c.dispatcher.handle(protocol.TypeGameResult, c.onGameResult)
	c.dispatcher.handle(protocol.TypeCursor, c.onCursor)
}

func (c *Client) onPong(protocol.Message) {
	c.hb.clearProbe()
}

func (c *Client) onInitialState(msg protocol.Message) {
	payload, err := msg.InitialState()
	if err != nil {
		log.Warn().Err(err).Msg("dropping initial_state")
		return
	}

	c.mu.Lock()
	c.adminID = payload.AdminID
	c.game = payload.CurrentGame
	c.scoreboard = payload.CurrentGameScores
	c.projector.ReplaceAll(payload.RoomSubscribers)
	c.mu.Unlock()

	c.applySession(session.Event{Type: session.EventInitialState, Seconds: payload.GameDurationSec})

	log.Debug().
		Int("subscribers", len(payload.RoomSubscribers)).
		Int("game_duration_sec", payload.GameDurationSec).
		Msg("room snapshot applied")
}

func (c *Client) onUserJoined(msg protocol.Message) {
	userID, err := msg.UserID()
	if err != nil {
		log.Warn().Err(err).Msg("dropping user_joined")
		return
	}
	c.mu.Lock()
	c.projector.UserJoined(userID)
	c.mu.Unlock()
}

func (c *Client) onUserLeft(msg protocol.Message) {
	userID, err := msg.UserID()
	if err != nil {
		log.Warn().Err(err).Msg("dropping user_left")
		return
	}
	c.mu.Lock()
	c.projector.UserLeft(userID)
	c.mu.Unlock()
}

// onNewGame replaces the round wholesale and resets the local session for
// it. A fresh round pre-empts any running local timer.
func (c *Client) onNewGame(msg protocol.Message) {
	game, err := msg.Game()
	if err != nil {
		log.Warn().Err(err).Msg("dropping new_game")
		return
	}

	c.mu.Lock()
	c.game = &game
	c.scoreboard = nil
	c.projector.NewGame()
	c.mu.Unlock()

	c.hasDraft = false
	c.submitted = false
	c.applySession(session.Event{Type: session.EventNewGame})
}

func (c *Client) onCountdown(msg protocol.Message) {
	seconds, err := msg.Countdown()
	if err != nil {
		log.Warn().Err(err).Msg("dropping countdown")
		return
	}
	c.applySession(session.Event{Type: session.EventCountdown, Seconds: seconds})
}

func (c *Client) onGameStarted(protocol.Message) {
	c.mu.Lock()
	c.projector.GameStarted()
	c.mu.Unlock()

	c.applySession(session.Event{Type: session.EventGameStarted})
}

func (c *Client) onGameResult(msg protocol.Message) {
	scores, err := msg.Scores()
	if err != nil {
		log.Warn().Err(err).Msg("dropping game_result")
		return
	}

	userIDs := make([]uuid.UUID, 0, len(scores))
	for _, score := range scores {
		userIDs = append(userIDs, score.UserID)
	}

	c.mu.Lock()
	c.scoreboard = scores
	c.projector.GameFinished(userIDs)
	c.mu.Unlock()

	c.applySession(session.Event{Type: session.EventGameResult})
}

func (c *Client) onCursor(msg protocol.Message) {
	cursor, err := msg.Cursor()
	if err != nil {
		log.Warn().Err(err).Msg("dropping cursor")
		return
	}
	c.mu.Lock()
	c.projector.SetCursor(cursor.UserID, cursor.Position)
	c.mu.Unlock()
}

// applySession feeds one event through the state machine and executes the
// actions it returns: timer management and the one-shot score submission.
func (c *Client) applySession(ev session.Event) {
	c.mu.Lock()
	next, actions := session.Transition(c.state, ev)
	prevPhase := c.state.Phase
	c.state = next
	c.mu.Unlock()

	if prevPhase != next.Phase {
		log.Info().
			Str("from", string(prevPhase)).
			Str("to", string(next.Phase)).
			Msg("session phase changed")
	}

	if actions.StopTicker {
		c.stopTickTicker()
	}
	if actions.StartTicker && c.tickTicker == nil {
		c.tickTicker = c.clock.NewTicker(time.Second)
	}
	if actions.CancelGrace {
		c.cancelGrace()
	}
	if actions.StartGrace && c.graceTimer == nil {
		c.graceTimer = c.clock.NewTimer(c.cfg.CountdownGrace)
	}
	if actions.SubmitScore {
		c.submitScore()
	}
}

func (c *Client) stopTickTicker() {
	if c.tickTicker != nil {
		c.tickTicker.Stop()
		c.tickTicker = nil
	}
}

func (c *Client) cancelGrace() {
	if c.graceTimer != nil {
		stopAndDrainTimer(c.graceTimer)
		c.graceTimer = nil
	}
}

// submitScore posts the local draft once per round. Without a submitter or
// a recorded draft there is nothing to send.
func (c *Client) submitScore() {
	if c.submitted {
		return
	}
	c.submitted = true

	if c.cfg.Scores == nil || !c.hasDraft {
		log.Debug().Msg("no score to submit for finished game")
		return
	}

	draft := c.draft
	go func() {
		if err := c.cfg.Scores.SubmitScore(c.ctx, c.roomID, draft); err != nil {
			log.Error().Err(err).Str("room_id", c.roomID.String()).Msg("score submission failed")
			return
		}
		log.Info().Str("room_id", c.roomID.String()).Msg("score submitted")
	}()
}
