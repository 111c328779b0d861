// Package session holds the client-local model of the game lifecycle. It is
// a pure state machine: the connection layer feeds it server messages and
// timer fires as events, and executes the returned actions (starting and
// stopping timers, submitting the score). Local ticks are a prediction;
// server-pushed events are the correction and always win.
package session

// Phase is the client-local view of the current game's lifecycle stage.
type Phase string

const (
	PhaseUnstarted Phase = "unstarted"
	PhaseCountdown Phase = "countdown"
	PhaseStarted   Phase = "started"
	PhaseFinished  Phase = "finished"
)

const defaultGameDurationSec = 30

// State is the full session state. Exactly one phase is active at a time;
// InGrace marks the short window between the countdown reaching zero and
// the game actually starting.
type State struct {
	Phase              Phase
	CountdownRemaining int
	InGrace            bool
	TimeRemaining      int
	GameDurationSec    int
}

// NewState returns the initial session state. A non-positive duration falls
// back to the default round length.
func NewState(gameDurationSec int) State {
	if gameDurationSec <= 0 {
		gameDurationSec = defaultGameDurationSec
	}
	return State{
		Phase:           PhaseUnstarted,
		GameDurationSec: gameDurationSec,
	}
}

// EventType tags a session event.
type EventType int

const (
	// EventInitialState carries the room's configured game duration.
	EventInitialState EventType = iota
	// EventCountdown carries the countdown seconds pushed by the server.
	EventCountdown
	// EventTick is the local once-per-second timer fire.
	EventTick
	// EventGraceElapsed fires after the short delay that masks the
	// countdown's zero-crossing.
	EventGraceElapsed
	// EventGameStarted is the server forcing the started phase, e.g. for a
	// client that joined mid-round.
	EventGameStarted
	// EventNewGame is a fresh round pre-empting whatever is running.
	EventNewGame
	// EventGameResult is the server's round summary.
	EventGameResult
)

// Event is a single input to the machine.
type Event struct {
	Type    EventType
	Seconds int
}

// Actions tells the caller which side effects the transition requires.
// SubmitScore is set exactly once per round, when the local game timer
// reaches zero.
type Actions struct {
	StartTicker bool
	StopTicker  bool
	StartGrace  bool
	CancelGrace bool
	SubmitScore bool
}

// Transition applies one event to the session state. It never blocks and
// owns no timers, which keeps it unit-testable without a live connection.
func Transition(s State, ev Event) (State, Actions) {
	var actions Actions

	switch ev.Type {
	case EventInitialState:
		if ev.Seconds > 0 {
			s.GameDurationSec = ev.Seconds
		}

	case EventCountdown:
		if s.Phase == PhaseCountdown {
			// Duplicate delivery; restarting the clock would double-count.
			break
		}
		s.Phase = PhaseCountdown
		s.CountdownRemaining = ev.Seconds
		s.InGrace = false
		s.TimeRemaining = 0
		if s.CountdownRemaining > 0 {
			actions.StartTicker = true
		} else {
			s.InGrace = true
			actions.StartGrace = true
		}

	case EventTick:
		switch {
		case s.Phase == PhaseCountdown && !s.InGrace:
			s.CountdownRemaining--
			if s.CountdownRemaining <= 0 {
				s.CountdownRemaining = 0
				s.InGrace = true
				actions.StopTicker = true
				actions.StartGrace = true
			}
		case s.Phase == PhaseStarted:
			s.TimeRemaining--
			if s.TimeRemaining <= 0 {
				s.TimeRemaining = 0
				s.Phase = PhaseFinished
				actions.StopTicker = true
				actions.SubmitScore = true
			}
		}

	case EventGraceElapsed:
		if s.Phase == PhaseCountdown && s.InGrace {
			s.Phase = PhaseStarted
			s.InGrace = false
			s.TimeRemaining = s.GameDurationSec
			actions.StartTicker = true
		}

	case EventGameStarted:
		if s.Phase == PhaseStarted {
			break
		}
		if s.InGrace {
			actions.CancelGrace = true
		}
		s.Phase = PhaseStarted
		s.InGrace = false
		s.CountdownRemaining = 0
		s.TimeRemaining = s.GameDurationSec
		actions.StartTicker = true

	case EventNewGame:
		if s.InGrace {
			actions.CancelGrace = true
		}
		s.Phase = PhaseUnstarted
		s.CountdownRemaining = 0
		s.InGrace = false
		s.TimeRemaining = 0
		actions.StopTicker = true

	case EventGameResult:
		if s.InGrace {
			actions.CancelGrace = true
		}
		s.Phase = PhaseFinished
		s.CountdownRemaining = 0
		s.InGrace = false
		s.TimeRemaining = 0
		actions.StopTicker = true
	}

	return s, actions
}
