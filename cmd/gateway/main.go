package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"throttling-gateway/middleware/throttle"
	"throttling-gateway/middleware/throttle/domain"
	"throttling-gateway/middleware/throttle/infra"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	configPath := flag.String("config", "gateway.yaml", "caminho do arquivo de configuração YAML")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		bootLogger := zerolog.New(os.Stderr).With().Timestamp().Logger()
		bootLogger.Fatal().Err(err).Msg("config error")
	}

	logger := newLogger(cfg)

	target, err := url.Parse(cfg.UpstreamURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid upstream_url")
	}

	proxy := httputil.NewSingleHostReverseProxy(target)
	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		logger.Error().Err(err).Str("path", r.URL.Path).Msg("proxy error")
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	h := http.Handler(proxy)
	h = throttle.InFlightMiddleware(throttle.InFlightOptions{
		Max:            cfg.InFlight.Max,
		RejectStatus:   http.StatusServiceUnavailable,
		AcquireTimeout: cfg.InFlight.AcquireTimeout.Std(),
	})(h)

	if cfg.Throttle.Enabled {
		registry, err := infra.NewRegistry(
			cfg.Throttle.Requests,
			cfg.Throttle.Window.Std(),
			infra.WithEvictionGrace(cfg.Throttle.EvictionGrace.Std()),
			infra.WithSweepEvery(cfg.Throttle.SweepEvery.Std()),
		)
		if err != nil {
			logger.Fatal().Err(err).Msg("registry error")
		}
		registry.StartJanitor(ctx)

		if cfg.Metrics.Enabled {
			prometheus.MustRegister(infra.NewRegistryCollector(registry))
		}

		h = throttle.Middleware(throttle.Options{
			Buckets:            registry,
			Stats:              newStatsStore(cfg, logger),
			KeyFn:              newKeyFunc(cfg),
			AddThrottleHeaders: cfg.Throttle.AddHeaders,
			Logger:             &logger,
		})(h)
	}

	mux := http.NewServeMux()
	if cfg.Metrics.Enabled {
		// atenção: o path de métricas tem precedência sobre o proxy.
		mux.Handle(cfg.Metrics.Path, promhttp.Handler())
	}
	mux.Handle("/", h)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info().
		Str("listen", cfg.ListenAddr).
		Str("upstream", target.String()).
		Bool("throttle", cfg.Throttle.Enabled).
		Int("requests", cfg.Throttle.Requests).
		Str("window", cfg.Throttle.Window.Std().String()).
		Str("key_source", cfg.Throttle.Key.Source).
		Str("stats", cfg.Stats.Backend).
		Int("in_flight_max", cfg.InFlight.Max).
		Msg("gateway listening")

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("server error")
	}
}

func newLogger(cfg *Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	var out io.Writer = os.Stderr
	if cfg.Log.Format == "console" {
		out = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

func newKeyFunc(cfg *Config) throttle.KeyFunc {
	switch cfg.Throttle.Key.Source {
	case "header":
		return throttle.KeyByHeader(cfg.Throttle.Key.Header)
	case "ip":
		return throttle.KeyByClientIP(cfg.Throttle.Key.TrustXForwardedFor)
	default:
		return throttle.GlobalKey()
	}
}

func newStatsStore(cfg *Config, logger zerolog.Logger) domain.StatsStore {
	switch cfg.Stats.Backend {
	case "memory":
		return infra.NewMemoryStatsStore(infra.WithTrackKeys(true))
	case "prometheus":
		return infra.NewPrometheusStatsStore(prometheus.DefaultRegisterer)
	case "redis":
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Stats.Redis.Addr,
			Password: cfg.Stats.Redis.Password,
			DB:       cfg.Stats.Redis.DB,
		})

		pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			logger.Fatal().Err(err).Msg("redis stats ping error")
		}

		return infra.NewRedisStatsStore(
			rdb,
			infra.WithStatsPrefix(cfg.Stats.Redis.Prefix),
			infra.WithStatsTTL(cfg.Stats.Redis.TTL.Std()),
			infra.WithStatsBucket(cfg.Stats.Redis.Bucket),
			infra.WithStatsTrackKeys(cfg.Stats.Redis.TrackKeys),
		)
	default:
		return nil
	}
}
