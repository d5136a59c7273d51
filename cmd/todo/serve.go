package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nhle/todo/internal/service"
	"github.com/nhle/todo/internal/web"
)

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the web interface and JSON endpoints",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}
	cmd.Flags().String("addr", "", "listen address (default from config)")
	return cmd
}

// serve runs the HTTP server until ctx is cancelled, then shuts it down
// within the configured timeout.
func (a *app) serve(ctx context.Context) error {
	s, err := a.openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	svcs := service.New(s, a.log)
	e, err := web.NewServer(web.Deps{
		Tasks:        svcs.Tasks,
		Addresses:    svcs.Addresses,
		Appointments: svcs.Appointments,
		DB:           s,
		Log:          a.log,
	})
	if err != nil {
		return err
	}

	srv := &http.Server{Addr: a.cfg.Server.Addr, Handler: e}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	a.log.WithField("addr", a.cfg.Server.Addr).Info("listening")

	select {
	case <-ctx.Done():
		a.log.Info("shutting down")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.WithError(err).Error("shutdown")
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
