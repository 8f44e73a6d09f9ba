package rest

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/rocketscienceinc/gomoku-backend/internal/service"
)

// Start - starts the REST server with the ping and bot endpoints.
func Start(logger *slog.Logger, port string, botService service.BotService) error {
	ping := NewPingHandler()
	bot := NewBotHandler(logger, botService)

	mux := http.NewServeMux()
	mux.HandleFunc("/ping", ping.PingHandler)
	mux.HandleFunc("/bot/move", bot.MoveHandler)

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	if err := srv.ListenAndServe(); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}
