package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/MKale112/devConnector/internal/auth"
	"github.com/MKale112/devConnector/internal/config"
	"github.com/MKale112/devConnector/internal/db"
	"github.com/MKale112/devConnector/internal/events"
	"github.com/MKale112/devConnector/internal/github"
	"github.com/MKale112/devConnector/internal/handlers"
	"github.com/MKale112/devConnector/internal/metrics"
	"github.com/MKale112/devConnector/internal/posts"
	"github.com/MKale112/devConnector/internal/profile"
	"github.com/MKale112/devConnector/internal/ratelimit"
	"github.com/MKale112/devConnector/internal/telemetry"
	"github.com/MKale112/devConnector/internal/users"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Addr string
}

func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := opts.Config
			if opts.Addr != "" {
				cfg.Addr = opts.Addr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", "", "listen address, overrides config")

	return cmd
}

func openDB(path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	return db.Open(path)
}

// App is the wired server and everything it must release on shutdown.
type App struct {
	Handler http.Handler
	closers []func(context.Context) error
}

func (a *App) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i](ctx))
	}
	return errors.Join(errs...)
}

// Build connects the store and optional backends named in cfg and returns
// the API handler. Redis and Kafka are used only when configured.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	app := &App{}
	fail := func(err error) (*App, error) {
		_ = app.Close(ctx)
		return nil, err
	}

	shutdownTracing, err := telemetry.Init(ctx, "devconnector", cfg.OTLPEndpoint)
	if err != nil {
		return fail(fmt.Errorf("telemetry: %w", err))
	}
	app.closers = append(app.closers, shutdownTracing)

	conn, err := openDB(cfg.DBPath)
	if err != nil {
		return fail(fmt.Errorf("open store: %w", err))
	}
	app.closers = append(app.closers, func(context.Context) error { return conn.Close() })
	if err := db.Migrate(ctx, conn); err != nil {
		return fail(err)
	}

	m := metrics.New()
	var (
		cache   github.Cache = github.NopCache{}
		limiter ratelimit.Limiter
	)
	if cfg.AuthRateLimit > 0 {
		limiter = ratelimit.NewLocal(cfg.AuthRateLimit, cfg.AuthRateWindow)
	}
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:         cfg.RedisAddr,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  2 * time.Second,
			WriteTimeout: 2 * time.Second,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			slog.Warn("redis unreachable, continuing", "addr", cfg.RedisAddr, "err", err)
		}
		app.closers = append(app.closers, func(context.Context) error { return rdb.Close() })
		cache = github.NewRedisCache(rdb)
		if cfg.AuthRateLimit > 0 {
			limiter = ratelimit.NewRedis(rdb, int64(cfg.AuthRateLimit), cfg.AuthRateWindow)
		}
	}

	pub := events.Nop()
	if cfg.KafkaBrokers != "" {
		pub = events.NewKafka(cfg.KafkaBrokers, cfg.KafkaTopic)
		app.closers = append(app.closers, func(context.Context) error { return pub.Close() })
	}
	pub = m.CountActivity(pub)

	tokens := auth.NewManager(cfg.JWTSecret, cfg.TokenTTL)
	userRepo := users.NewRepository(conn)
	gh := github.New(cfg.GitHubURL, github.WithToken(cfg.GitHubToken), github.WithCache(cache, cfg.RepoTTL))

	h := handlers.New(
		users.NewService(userRepo, tokens),
		profile.NewService(profile.NewRepository(conn), gh),
		posts.NewService(posts.NewRepository(conn), userRepo, pub),
		tokens,
	)
	app.Handler = h.Routes(m, limiter)
	return app, nil
}

func serve(ctx context.Context, cfg config.Config) error {
	app, err := Build(ctx, cfg)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           app.Handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		slog.Info("shutting down")
		err := srv.Shutdown(sctx)
		return errors.Join(err, app.Close(sctx))
	})
	return g.Wait()
}
