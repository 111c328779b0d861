// Package typing_api_client talks to the typing API's REST surface: room
// and game creation, the start-game trigger, text lookup, and the one-shot
// score submission at the end of a round. The realtime room protocol itself
// lives on the websocket, not here.
package typing_api_client

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/nheidner/typingsync/go/clients"
	"github.com/nheidner/typingsync/go/internal/room/protocol"
)

type TypingApiClient struct {
	*clients.BaseClient
}

// NewTypingApiClient builds a client for the API at baseURL, authenticated
// with the given session cookie.
func NewTypingApiClient(baseURL, sessionCookie string) *TypingApiClient {
	client := &TypingApiClient{
		BaseClient: clients.NewBaseClient(baseURL),
	}

	if sessionCookie != "" {
		client.SetHeader(CookieHeader, sessionCookie)
	}

	return client
}

// Room is a created room as returned by the API.
type Room struct {
	ID              uuid.UUID `json:"id"`
	AdminID         uuid.UUID `json:"adminId"`
	GameDurationSec int       `json:"gameDurationSec"`
}

// Text is a generated typing text.
type Text struct {
	ID       uuid.UUID `json:"id"`
	Text     string    `json:"text"`
	Language string    `json:"language"`
}

// AuthenticatedUser identifies the session's user.
type AuthenticatedUser struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
}

// CreateRoomInput invites the listed users into a fresh room.
type CreateRoomInput struct {
	UserIDs         []uuid.UUID `json:"userIds"`
	Emails          []string    `json:"emails"`
	GameDurationSec int         `json:"gameDurationSec"`
}

// CreateRoom creates a room and returns it.
func (c *TypingApiClient) CreateRoom(ctx context.Context, input CreateRoomInput) (Room, error) {
	var response struct {
		Data Room `json:"data"`
	}
	if err := c.PostJSON(ctx, RoomsEndpoint, input, &response); err != nil {
		return Room{}, fmt.Errorf("create room: %w", err)
	}
	return response.Data, nil
}

// CreateGame creates a new round in the room around the given text.
func (c *TypingApiClient) CreateGame(ctx context.Context, roomID, textID uuid.UUID) error {
	input := struct {
		TextID uuid.UUID `json:"textId"`
	}{TextID: textID}

	if err := c.PostJSON(ctx, roomGamesEndpoint(roomID.String()), input, nil); err != nil {
		return fmt.Errorf("create game: %w", err)
	}
	return nil
}

// StartGame asks the server to begin the countdown for the current game.
func (c *TypingApiClient) StartGame(ctx context.Context, roomID uuid.UUID) error {
	if err := c.PostJSON(ctx, roomStartGameEndpoint(roomID.String()), nil, nil); err != nil {
		return fmt.Errorf("start game: %w", err)
	}
	return nil
}

// LeaveRoom removes the authenticated user from the room.
func (c *TypingApiClient) LeaveRoom(ctx context.Context, roomID uuid.UUID) error {
	if err := c.PostJSON(ctx, roomLeaveEndpoint(roomID.String()), nil, nil); err != nil {
		return fmt.Errorf("leave room: %w", err)
	}
	return nil
}

// SubmitScore posts the locally produced result of the current game. It
// satisfies the room client's ScoreSubmitter.
func (c *TypingApiClient) SubmitScore(ctx context.Context, roomID uuid.UUID, input protocol.ScoreInput) error {
	if err := c.PostJSON(ctx, roomScoreEndpoint(roomID.String()), input, nil); err != nil {
		return fmt.Errorf("submit score: %w", err)
	}
	return nil
}

// FindText fetches the text for the current game.
func (c *TypingApiClient) FindText(ctx context.Context, textID uuid.UUID) (Text, error) {
	var response struct {
		Data Text `json:"data"`
	}
	if err := c.GetJSON(ctx, textEndpoint(textID.String()), &response); err != nil {
		return Text{}, fmt.Errorf("find text: %w", err)
	}
	return response.Data, nil
}

// CurrentUser fetches the authenticated user for the session cookie.
func (c *TypingApiClient) CurrentUser(ctx context.Context) (AuthenticatedUser, error) {
	var response struct {
		Data AuthenticatedUser `json:"data"`
	}
	if err := c.GetJSON(ctx, UserEndpoint, &response); err != nil {
		return AuthenticatedUser{}, fmt.Errorf("current user: %w", err)
	}
	return response.Data, nil
}
