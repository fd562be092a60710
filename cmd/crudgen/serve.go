package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	slogcontext "github.com/veqryn/slog-context"

	"github.com/goliatone/go-crudgen"
	"github.com/goliatone/go-crudgen/pkg/config"
	"github.com/goliatone/go-crudgen/pkg/events"
	"github.com/goliatone/go-crudgen/pkg/forms"
	"github.com/goliatone/go-crudgen/pkg/model"
	"github.com/goliatone/go-crudgen/pkg/presentation"
	"github.com/goliatone/go-crudgen/pkg/store"
	"github.com/goliatone/go-crudgen/pkg/store/postgres"
	"github.com/goliatone/go-crudgen/pkg/views"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the generated views over HTTP",
		Long: `Serve the generated views over HTTP.

Settings are read from CRUDGEN_* environment variables; flags override them.
Records live in memory unless CRUDGEN_DATABASE_URL points at PostgreSQL, and
change events are published to NATS when CRUDGEN_NATS_URL is set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed(declarationsFlag) {
				cfg.Declarations = declarationsPath(cmd)
			}
			if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
				cfg.Addr = addr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
	cmd.Flags().String("addr", "", "listen address, overrides CRUDGEN_ADDR")
	return cmd
}

// serve runs the server until ctx is cancelled, then shuts it down within
// cfg.ShutdownTimeout.
func serve(ctx context.Context, cfg *config.Server) error {
	logger := slogcontext.FromCtx(ctx)

	server, cleanup, err := newServer(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	lis, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return err
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", slog.String("addr", lis.Addr().String()), slog.String("prefix", cfg.Prefix))
		if err := server.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("shutdown complete")
	return nil
}

// newServer wires the store, publisher and views. cleanup closes whatever
// was opened.
func newServer(ctx context.Context, cfg *config.Server) (*http.Server, func(), error) {
	logger := slogcontext.FromCtx(ctx)
	var closers []func() error
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				logger.Error("cleanup failed", slog.Any("err", err))
			}
		}
	}

	decls, reg, err := loadRegistry(cfg.Declarations)
	if err != nil {
		return nil, nil, err
	}

	records, closeStore, err := openStore(cfg)
	if err != nil {
		return nil, nil, err
	}
	closers = append(closers, closeStore)

	var publisher events.Publisher = &events.NoopPublisher{}
	if cfg.NATSURL != "" {
		pub, err := events.NewNATSPublisher(cfg.NATSURL)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		publisher = pub
		logger.Info("events enabled", slog.String("nats_url", cfg.NATSURL))
	}
	closers = append(closers, publisher.Close)

	auth, err := authenticator(reg, records, cfg.ProfileModel)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	viewOpts := []views.Option{
		views.WithAuthenticator(auth),
		views.WithPublisher(publisher),
		views.WithLoginURL(cfg.LoginURL),
	}
	if cfg.SuccessURL != "" {
		viewOpts = append(viewOpts, views.WithSuccessURL(cfg.SuccessURL))
	}

	staticURL := strings.TrimSuffix(cfg.StaticURL, "/") + "/"
	mux := http.NewServeMux()
	mux.Handle(staticURL, http.StripPrefix(staticURL, http.FileServerFS(crudgen.StaticFS())))

	appOpts := []crudgen.Option{
		crudgen.WithPrefix(cfg.Prefix),
		crudgen.WithStore(records),
		crudgen.WithForms(forms.NewRegistry()),
		crudgen.WithFormLoaders(decls.FormLoader()),
		crudgen.WithInlineSupport(fullInlineSupport),
		crudgen.WithPresentation(presentation.WithStaticURL(staticURL)),
		crudgen.WithViews(viewOpts...),
		crudgen.WithMux(mux),
		crudgen.WithLogger(logger),
	}
	if cfg.Templates != "" {
		appOpts = append(appOpts, crudgen.WithTemplateDir(cfg.Templates))
	}
	app, err := crudgen.New(ctx, reg, appOpts...)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	logger.Info("views mounted", slog.Int("routes", len(app.Routes)), slog.Any("sources", decls.Sources))

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return server, cleanup, nil
}

func openStore(cfg *config.Server) (store.Store, func() error, error) {
	if cfg.DatabaseURL == "" {
		return store.NewMemory(), func() error { return nil }, nil
	}
	var opts []postgres.Option
	if cfg.Migrations != "" {
		opts = append(opts, postgres.WithMigrations(os.DirFS(cfg.Migrations), "."))
	}
	pg, err := postgres.New(cfg.DatabaseURL, opts...)
	if err != nil {
		return nil, nil, err
	}
	return pg, pg.Close, nil
}

// authenticator trusts the profile header when a profile model is configured
// and treats every request as anonymous otherwise.
func authenticator(reg *model.Registry, records store.Store, profileModel string) (views.Authenticator, error) {
	if profileModel == "" {
		return views.AnonymousAuthenticator{}, nil
	}
	profile, err := reg.Get(profileModel)
	if err != nil {
		return nil, fmt.Errorf("CRUDGEN_PROFILE_MODEL: %w", err)
	}
	return views.HeaderAuthenticator{Store: records, Profile: profile}, nil
}
