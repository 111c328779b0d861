package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// MessageType identifies a wire message pushed by the room server.
type MessageType string

const (
	TypeInitialState MessageType = "initial_state"
	TypeUserJoined   MessageType = "user_joined"
	TypeUserLeft     MessageType = "user_left"
	TypeNewGame      MessageType = "new_game"
	TypeCountdown    MessageType = "countdown"
	TypeGameStarted  MessageType = "game_started"
	TypeGameResult   MessageType = "game_result"
	TypeCursor       MessageType = "cursor"
	TypePong         MessageType = "pong"
	TypePing         MessageType = "ping"
)

// Message is the wire envelope for every frame exchanged with the room
// server. Payload stays raw until a typed accessor decodes it.
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
	User    *User           `json:"user,omitempty"`
}

// Decode parses one inbound text frame into a Message envelope.
func Decode(frame []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(frame, &msg); err != nil {
		return Message{}, fmt.Errorf("decode message envelope: %w", err)
	}
	return msg, nil
}

// InitialState decodes an initial_state payload.
func (m Message) InitialState() (InitialState, error) {
	var payload InitialState
	if err := json.Unmarshal(m.Payload, &payload); err != nil {
		return InitialState{}, fmt.Errorf("decode initial_state payload: %w", err)
	}
	return payload, nil
}

// UserID decodes the bare user id carried by user_joined and user_left.
func (m Message) UserID() (uuid.UUID, error) {
	var id uuid.UUID
	if err := json.Unmarshal(m.Payload, &id); err != nil {
		return uuid.Nil, fmt.Errorf("decode user id payload: %w", err)
	}
	return id, nil
}

// Countdown decodes the remaining seconds carried by a countdown message.
func (m Message) Countdown() (int, error) {
	var seconds int
	if err := json.Unmarshal(m.Payload, &seconds); err != nil {
		return 0, fmt.Errorf("decode countdown payload: %w", err)
	}
	return seconds, nil
}

// Game decodes the full round object carried by a new_game message.
func (m Message) Game() (Game, error) {
	var game Game
	if err := json.Unmarshal(m.Payload, &game); err != nil {
		return Game{}, fmt.Errorf("decode new_game payload: %w", err)
	}
	return game, nil
}

// Scores decodes the scoreboard carried by a game_result message.
func (m Message) Scores() ([]Score, error) {
	var scores []Score
	if err := json.Unmarshal(m.Payload, &scores); err != nil {
		return nil, fmt.Errorf("decode game_result payload: %w", err)
	}
	return scores, nil
}

// Cursor decodes another subscriber's position carried by a cursor message.
func (m Message) Cursor() (CursorUpdate, error) {
	var cursor CursorUpdate
	if err := json.Unmarshal(m.Payload, &cursor); err != nil {
		return CursorUpdate{}, fmt.Errorf("decode cursor payload: %w", err)
	}
	return cursor, nil
}

// EncodePing builds the outbound heartbeat probe.
func EncodePing() ([]byte, error) {
	return json.Marshal(Message{Type: TypePing})
}

// EncodeCursor builds the outbound cursor report for the local user.
func EncodeCursor(position int) ([]byte, error) {
	payload, err := json.Marshal(struct {
		Position int `json:"position"`
	}{Position: position})
	if err != nil {
		return nil, fmt.Errorf("encode cursor payload: %w", err)
	}
	return json.Marshal(Message{Type: TypeCursor, Payload: payload})
}
