package protocol

import (
	"github.com/google/uuid"
)

// SubscriberStatus is a subscriber's presence within a room.
type SubscriberStatus string

const (
	SubscriberInactive SubscriberStatus = "inactive"
	SubscriberActive   SubscriberStatus = "active"
)

// SubscriberGameStatus is a subscriber's progress within the current round.
type SubscriberGameStatus string

const (
	GameStatusUnstarted SubscriberGameStatus = "unstarted"
	GameStatusStarted   SubscriberGameStatus = "started"
	GameStatusFinished  SubscriberGameStatus = "finished"
)

// RoomSubscriber is a user's membership record within a room as reported by
// the server.
type RoomSubscriber struct {
	UserID     uuid.UUID            `json:"userId"`
	Status     SubscriberStatus     `json:"status"`
	Username   string               `json:"username"`
	GameStatus SubscriberGameStatus `json:"gameStatus"`
}

// User identifies the sender of a message.
type User struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
}

// Game is one round of the typing race. It is replaced wholesale on every
// new_game message, never patched field by field.
type Game struct {
	ID              uuid.UUID   `json:"id"`
	TextID          uuid.UUID   `json:"textId"`
	RoomID          uuid.UUID   `json:"roomId"`
	GameSubscribers []uuid.UUID `json:"gameSubscribers"`
	Status          string      `json:"status"`
}

// ErrorsJSON maps a mistyped word to the number of times it was missed.
type ErrorsJSON map[string]int

// Score is the result of one finished game for one user. Read-only once the
// server has produced it.
type Score struct {
	ID             uuid.UUID  `json:"id"`
	WordsPerMinute float64    `json:"wordsPerMinute"`
	WordsTyped     int        `json:"wordsTyped"`
	TimeElapsed    float64    `json:"timeElapsed"`
	Accuracy       float64    `json:"accuracy"`
	NumberErrors   int        `json:"numberErrors"`
	Errors         ErrorsJSON `json:"errors"`
	UserID         uuid.UUID  `json:"userId"`
	TextID         uuid.UUID  `json:"textId"`
	GameID         uuid.UUID  `json:"gameId"`
}

// ScoreInput is the locally produced result of a finished game, posted to
// the score endpoint exactly once per round.
type ScoreInput struct {
	WordsTyped  int        `json:"wordsTyped"`
	TimeElapsed float64    `json:"timeElapsed"`
	Errors      ErrorsJSON `json:"errors"`
	TextID      uuid.UUID  `json:"textId"`
}

// InitialState is the full room snapshot pushed right after the websocket
// opens.
type InitialState struct {
	AdminID           uuid.UUID        `json:"adminId"`
	GameDurationSec   int              `json:"gameDurationSec"`
	RoomSubscribers   []RoomSubscriber `json:"roomSubscribers"`
	CurrentGame       *Game            `json:"currentGame"`
	CurrentGameScores []Score          `json:"currentGameScores"`
}

// CursorUpdate reports another subscriber's typing position.
type CursorUpdate struct {
	Position int       `json:"position"`
	UserID   uuid.UUID `json:"userId"`
}
