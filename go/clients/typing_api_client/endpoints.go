package typing_api_client

import "fmt"

const (
	// API endpoints
	RoomsEndpoint = "/rooms"
	TextsEndpoint = "/texts"
	UserEndpoint  = "/user"

	// Headers
	CookieHeader = "Cookie"
)

func roomGamesEndpoint(roomID string) string {
	return fmt.Sprintf("%s/%s/games", RoomsEndpoint, roomID)
}

func roomStartGameEndpoint(roomID string) string {
	return fmt.Sprintf("%s/%s/start-game", RoomsEndpoint, roomID)
}

func roomLeaveEndpoint(roomID string) string {
	return fmt.Sprintf("%s/%s/leave", RoomsEndpoint, roomID)
}

func roomScoreEndpoint(roomID string) string {
	return fmt.Sprintf("%s/%s/current-game/score", RoomsEndpoint, roomID)
}

func textEndpoint(textID string) string {
	return fmt.Sprintf("%s/%s", TextsEndpoint, textID)
}
