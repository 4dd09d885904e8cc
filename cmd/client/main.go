package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"github.com/iamasit07/4-in-a-row/client/internal/config"
	"github.com/iamasit07/4-in-a-row/client/internal/domain"
	"github.com/iamasit07/4-in-a-row/client/internal/logger"
	"github.com/iamasit07/4-in-a-row/client/internal/metrics"
	"github.com/iamasit07/4-in-a-row/client/internal/repository/redis"
	"github.com/iamasit07/4-in-a-row/client/internal/service/game"
	"github.com/iamasit07/4-in-a-row/client/internal/service/leaderboard"
	transportHttp "github.com/iamasit07/4-in-a-row/client/internal/transport/http"
	"github.com/iamasit07/4-in-a-row/client/internal/transport/websocket"
	"github.com/iamasit07/4-in-a-row/client/internal/ui/terminal"
	"github.com/iamasit07/4-in-a-row/client/pkg/auth"
	"github.com/iamasit07/4-in-a-row/client/pkg/useragent"
)

// set with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	envLoaded := true
	if err := godotenv.Load(); err != nil {
		if err := godotenv.Load("../.env"); err != nil {
			envLoaded = false
		}
	}

	cfg := config.LoadConfig()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := newCommand(cfg, envLoaded)
	if err := cmd.Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newCommand(cfg *config.Config, envLoaded bool) *cli.Command {
	return &cli.Command{
		Name:    "connect4",
		Usage:   "play Connect 4 against other players from the terminal",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "server", Value: cfg.ServerURL, Usage: "game server WebSocket URL"},
			&cli.StringFlag{Name: "leaderboard", Value: cfg.LeaderboardURL, Usage: "leaderboard endpoint"},
			&cli.StringFlag{Name: "username", Value: cfg.Username, Usage: "join matchmaking as this name on start"},
			&cli.StringFlag{Name: "api-addr", Value: cfg.APIAddr, Usage: "serve the local control API on this address (empty disables it)"},
			&cli.StringFlag{Name: "log-level", Value: cfg.LogLevel, Usage: "trace, debug, info, warn or error"},
			&cli.BoolFlag{Name: "backoff", Value: cfg.ReconnectBackoff, Usage: "grow the reconnect delay after repeated failures"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg.ServerURL = cmd.String("server")
			cfg.LeaderboardURL = cmd.String("leaderboard")
			cfg.Username = cmd.String("username")
			cfg.APIAddr = cmd.String("api-addr")
			cfg.LogLevel = cmd.String("log-level")
			cfg.ReconnectBackoff = cmd.Bool("backoff")

			logger.Init(cfg.LogLevel, cfg.LogFormat)
			if !envLoaded {
				log.Debug().Msg("no .env file found, using environment only")
			}
			return run(ctx, cfg)
		},
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	lg := logger.For("main")

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	username := cfg.Username
	if claims, err := auth.InspectToken(cfg.AccessToken); err == nil {
		if claims.Expired(time.Now()) {
			lg.Warn().Msg("access token has expired, the server may reject the connection")
		}
		if username == "" {
			username = claims.Username
		}
	} else if !errors.Is(err, auth.ErrNoToken) {
		lg.Warn().Err(err).Msg("ignoring unreadable access token claims")
	}

	conn := websocket.NewConnectionManager(websocket.Options{
		URL:            cfg.ServerURL,
		Header:         useragent.Apply(auth.HandshakeHeader(cfg.AccessToken), version),
		ReconnectDelay: cfg.ReconnectDelay,
		Backoff:        cfg.ReconnectBackoff,
		MaxDelay:       cfg.ReconnectMaxDelay,
		Metrics:        m,
	})

	var cache leaderboard.Cache
	if cfg.RedisURL != "" {
		client, err := redis.Connect(ctx, cfg.RedisURL, cfg.RedisPassword)
		if err != nil {
			lg.Warn().Err(err).Msg("redis unavailable, leaderboard cache disabled")
		} else {
			defer client.Close()
			cache = redis.NewLeaderboardCache(client, "")
		}
	}

	poller := leaderboard.NewPoller(leaderboard.Options{
		URL:       cfg.LeaderboardURL,
		Interval:  cfg.LeaderboardInterval,
		Cache:     cache,
		Metrics:   m,
		UserAgent: useragent.String(version),
	})

	session := game.NewSession(conn, poller, game.Options{ErrorTTL: cfg.ErrorTTL})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return conn.Run(gctx) })
	g.Go(func() error { return poller.Run(gctx) })
	g.Go(func() error { return session.Run(gctx) })

	if cfg.APIAddr != "" {
		router := transportHttp.NewRouter(transportHttp.NewGameHandler(session), transportHttp.RouterOptions{
			AllowedOrigins: cfg.AllowedOrigins,
			Token:          cfg.APIToken,
			Gatherer:       reg,
		})
		srv := &http.Server{
			Addr:              cfg.APIAddr,
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
		}

		g.Go(func() error {
			lg.Info().Str("addr", cfg.APIAddr).Msg("control API listening")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("control API: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	if username != "" {
		g.Go(func() error {
			autoJoin(gctx, session, username)
			return nil
		})
	}

	ui := terminal.New(os.Stdin, os.Stdout, session, session.Updates())
	g.Go(func() error { return ui.Run(gctx) })

	err := g.Wait()
	if errors.Is(err, terminal.ErrQuit) {
		err = nil
	}
	lg.Info().Msg("client stopped")
	return err
}

// autoJoin waits for the first successful connection and joins once.
func autoJoin(ctx context.Context, session *game.Session, username string) {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if session.Snapshot().Connection != domain.ConnectionConnected {
				continue
			}
			if err := session.Join(ctx, username); err != nil && !errors.Is(err, context.Canceled) {
				lg := logger.For("main")
				lg.Warn().Err(err).Str("username", username).Msg("auto-join failed")
			}
			return
		}
	}
}
