package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/joey603/surveypro/internal/server"
	"github.com/joey603/surveypro/pkg/cache"
	"github.com/joey603/surveypro/pkg/media"
	"github.com/joey603/surveypro/pkg/store"
)

// shutdownTimeout bounds graceful shutdown of in-flight requests.
const shutdownTimeout = 10 * time.Second

// serveCommand creates the serve command for running the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		listen  string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the survey builder HTTP API",
		Long: `Run the survey builder HTTP API.

The server keeps one editing session per open survey and exposes the
graph mutations, layout, validation, export and preview operations
over REST. Surveys persist to MongoDB when a URI is configured and to
an in-process store otherwise; rendered artifacts cache to Redis when
an address is configured and to the local file cache otherwise.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), listen, noCache)
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "listen address (default: from config, :8080)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable artifact caching")

	return cmd
}

// runServe wires the store and cache from config and serves until
// interrupted.
func (c *CLI) runServe(ctx context.Context, listen string, noCache bool) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if listen == "" {
		listen = c.Config.Listen
	}

	st, err := c.newStore(ctx)
	if err != nil {
		return fmt.Errorf("initialize store: %w", err)
	}
	defer st.Close(context.Background())

	artifacts := c.newServeCache(ctx, noCache)
	defer artifacts.Close()

	srv := server.New(server.Options{
		Store:   st,
		Cache:   artifacts,
		Deleter: media.NewHTTPDeleter(nil),
		Layout:  c.Config.layoutConfig(),
		Logger:  c.Logger,
	})
	defer srv.Close()

	httpSrv := &http.Server{
		Addr:              listen,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		c.Logger.Info("listening", "addr", listen)
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	c.Logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}

// newStore selects MongoDB when a URI is configured, otherwise the
// in-process store.
func (c *CLI) newStore(ctx context.Context) (store.Store, error) {
	if c.Config.Mongo.URI == "" {
		c.Logger.Warn("no mongo uri configured, surveys will not persist across restarts")
		return store.NewMemStore(), nil
	}
	return store.NewMongoStore(ctx, store.Config{
		URI:        c.Config.Mongo.URI,
		Database:   c.Config.Mongo.Database,
		Collection: c.Config.Mongo.Collection,
	})
}

// newServeCache selects Redis when an address is configured, otherwise
// the local file cache.
func (c *CLI) newServeCache(ctx context.Context, noCache bool) cache.Cache {
	if noCache {
		return cache.NewNullCache()
	}
	if c.Config.Redis.Addr == "" {
		return c.newCache(false)
	}
	rc, err := cache.NewRedisCache(ctx, cache.RedisConfig{
		Addr:     c.Config.Redis.Addr,
		Password: c.Config.Redis.Password,
		DB:       c.Config.Redis.DB,
	})
	if err != nil {
		c.Logger.Warn("redis unavailable, falling back to file cache", "err", err)
		return c.newCache(false)
	}
	return rc
}
