package cmd

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/fleetops/sysmgmt/internal/api"
	"github.com/fleetops/sysmgmt/internal/conf"
	"github.com/fleetops/sysmgmt/internal/datastore"
	"github.com/fleetops/sysmgmt/internal/datastore/repository"
	"github.com/fleetops/sysmgmt/internal/errors"
	"github.com/fleetops/sysmgmt/internal/incident"
	"github.com/fleetops/sysmgmt/internal/logger"
	"github.com/fleetops/sysmgmt/internal/notify"
	"github.com/fleetops/sysmgmt/internal/push"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the incident API and push fan-out service",
	RunE: func(cmd *cobra.Command, _ []string) error {
		settings, log, err := loadSettings()
		if err != nil {
			return err
		}
		if err := settings.ValidateServe(); err != nil {
			return err
		}
		return runServe(cmd.Context(), settings, log)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(ctx context.Context, settings *conf.Settings, log logger.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := datastore.Open(ctx, settings.Database, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error("failed to close datastore", logger.Error(err))
		}
	}()

	incidents := repository.NewIncidentRepository(store.DB())
	statuses := repository.NewStatusRepository(store.DB())
	subs := repository.NewSubscriptionRepository(store.DB())

	transport := push.NewWebPushTransport(settings.Push)
	broadcaster := push.NewBroadcaster(subs, transport, settings.Push.Concurrency, log)

	notifier, err := notify.NewNotifier(settings.Notify, log)
	if err != nil {
		return err
	}
	var escalator incident.Escalator
	if notifier != nil {
		escalator = notifier
	}

	ingest := incident.NewIngestService(incidents, statuses, broadcaster, escalator, log)
	resolve := incident.NewResolveService(incidents, statuses, log)

	e := api.NewServer()
	api.NewController(e, ingest, resolve, incidents, statuses, subs, settings.Admin.Token, log)

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server starting", logger.String("listen", settings.HTTP.Listen))
		errCh <- e.Start(settings.HTTP.Listen)
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
