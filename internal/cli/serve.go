package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/commitcanvas/internal/server"
	"github.com/matzehuels/commitcanvas/pkg/config"
	"github.com/matzehuels/commitcanvas/pkg/pipeline"
	"github.com/matzehuels/commitcanvas/pkg/store"
)

// serveCommand creates the serve command, which runs the HTTP API until
// interrupted.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the commitcanvas HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")

	return cmd
}

func (c *CLI) runServe(cmd *cobra.Command, addr string) error {
	ctx := cmd.Context()

	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	if addr == "" {
		addr = cfg.Server.Addr
	}

	backend, err := c.newCache(cmd, cfg, false)
	if err != nil {
		return err
	}
	defer backend.Close()

	st, err := c.newStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = st.Close(shutdownCtx)
	}()

	srv := server.New(server.Options{
		Runner: pipeline.NewRunner(backend, nil),
		Store:  st,
		Logger: c.Logger,
	})

	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		c.Logger.Info("serving", "addr", addr)
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	c.Logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// newStore selects the graph store: MongoDB when a URI is configured, the
// in-memory store otherwise.
func (c *CLI) newStore(ctx context.Context, cfg config.Config) (store.Store, error) {
	if cfg.Server.MongoURI == "" {
		c.Logger.Debug("no mongo_uri configured, using in-memory store")
		return store.NewMemoryStore(), nil
	}
	return store.NewMongoStore(ctx, store.MongoConfig{
		URI:      cfg.Server.MongoURI,
		Database: cfg.Server.MongoDatabase,
	})
}
