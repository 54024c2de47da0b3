package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"throttling-gateway/middleware/throttle"
	"throttling-gateway/middleware/throttle/infra"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// Exemplo: injetando o middleware diretamente no seu webserver (sem proxy),
// aqui um app echo, via echo.WrapMiddleware.
func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	// até 5 requests por IP em qualquer janela móvel de 10s
	registry, err := infra.NewRegistry(5, 10*time.Second)
	if err != nil {
		logger.Fatal().Err(err).Msg("registry error")
	}
	stats := infra.NewMemoryStatsStore(infra.WithTrackKeys(true))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	registry.StartJanitor(ctx)

	e := echo.New()
	e.HideBanner = true

	e.GET("/", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok\n")
	})
	e.GET("/throttle/stats", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]any{
			"registry": registry.Stats(),
			"total":    stats.Total(),
			"by_route": stats.ByRoute(),
			"by_key":   stats.ByKey(),
		})
	})

	e.Use(echo.WrapMiddleware(throttle.Middleware(throttle.Options{
		Buckets:            registry,
		Stats:              stats,
		KeyFn:              throttle.KeyByClientIP(true),
		AddThrottleHeaders: true,
		Logger:             &logger,
	})))

	addr := ":8081"
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		addr = v
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = e.Shutdown(shutdownCtx)
	}()

	logger.Info().Str("addr", addr).Msg("example server listening")
	if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("server error")
	}
}
