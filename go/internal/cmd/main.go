package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/nheidner/typingsync/go/clients/typing_api_client"
	"github.com/nheidner/typingsync/go/internal/room/client"
)

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	// Setup logging
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	config := &Config{}
	configPath := getEnv("CONFIG_PATH", "config.yaml")
	if loaded, err := loadConfig(configPath); err != nil {
		log.Warn().Err(err).Str("path", configPath).Msg("using built-in defaults")
	} else {
		config = loaded
	}

	apiURL := getEnv("TYPING_API_URL", config.API.BaseURL)
	wsURL := getEnv("TYPING_WS_URL", config.API.WSBaseURL)
	sessionCookie := os.Getenv("TYPING_SESSION_COOKIE")
	if apiURL == "" || wsURL == "" {
		log.Fatal().Msg("TYPING_API_URL and TYPING_WS_URL (or a config file) are required")
	}

	if len(os.Args) < 2 {
		log.Fatal().Msg("usage: typingsync <room-id>")
	}
	roomID, err := uuid.Parse(os.Args[1])
	if err != nil {
		log.Fatal().Err(err).Msg("invalid room id")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	api := typing_api_client.NewTypingApiClient(apiURL, sessionCookie)

	user, err := api.CurrentUser(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to resolve authenticated user")
	}

	clientConfig := client.DefaultConfig()
	clientConfig.WSBaseURL = wsURL
	clientConfig.PingInterval = millis(config.Room.PingIntervalMs, clientConfig.PingInterval)
	clientConfig.PongDeadline = millis(config.Room.PongDeadlineMs, clientConfig.PongDeadline)
	clientConfig.BaseDelay = millis(config.Room.BaseDelayMs, clientConfig.BaseDelay)
	clientConfig.MaxDelay = millis(config.Room.MaxDelayMs, clientConfig.MaxDelay)
	clientConfig.CountdownGrace = millis(config.Room.CountdownGraceMs, clientConfig.CountdownGrace)
	clientConfig.MaxRetries = getEnvAsInt("TYPING_MAX_RETRIES", config.Room.MaxRetries)
	clientConfig.Scores = api
	clientConfig.OnStateChange = func(state client.ConnState) {
		log.Info().Str("state", state.String()).Msg("connection state changed")
	}

	log.Info().
		Str("room_id", roomID.String()).
		Str("user_id", user.ID.String()).
		Str("username", user.Username).
		Msg("joining room")

	roomClient := client.New(clientConfig, roomID, user.ID)
	if err := roomClient.Run(ctx); err != nil && err != context.Canceled {
		log.Error().Err(err).Msg("room client stopped")
	}

	log.Info().Msg("left room")
}
